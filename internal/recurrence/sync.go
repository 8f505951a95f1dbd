package recurrence

import (
	"errors"
	"time"

	"tasktempo/internal/clock"
	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
	"tasktempo/internal/stage"
)

// ErrNoEditDate is returned when a stage edit targets a recurring task
// without a usable occurrence date. Applying such an edit would corrupt
// the instance map, so the task is refused unchanged.
var ErrNoEditDate = errors.New("recurring task stage edit requires an occurrence date")

// stageDelta is the difference between an occurrence's previous and next
// stage lists.
type stageDelta struct {
	removedIDs map[int64]bool
	// changedIDs holds stages that are new or whose content (text, timing,
	// status, completion) differs from before.
	changedIDs map[int64]bool
	// statusChangedIDs is the subset whose status or completion changed;
	// only these may carry the edited date's status to siblings.
	statusChangedIDs map[int64]bool
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func stageContentEqual(a, b model.TaskStage) bool {
	return a.Text == b.Text &&
		derefInt(a.StartTimeMinutes, model.DefaultStageStartMinutes) == derefInt(b.StartTimeMinutes, model.DefaultStageStartMinutes) &&
		derefInt(a.DurationMinutes, model.DefaultStageDurationMinutes) == derefInt(b.DurationMinutes, model.DefaultStageDurationMinutes) &&
		stageStatusEqual(a, b)
}

func stageStatusEqual(a, b model.TaskStage) bool {
	return a.Status == b.Status && a.Completed() == b.Completed()
}

func findByID(stages []model.TaskStage, id int64) (model.TaskStage, bool) {
	for _, s := range stages {
		if s.ID == id {
			return s, true
		}
	}
	return model.TaskStage{}, false
}

func indexByID(stages []model.TaskStage, id int64) (int, bool) {
	for i, s := range stages {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}

// inheritStageHistory carries a stage's original creation time and last
// persisted sync intent forward across edits, so re-submitting an unchanged
// list writes back byte-identical state.
func inheritStageHistory(next, prev []model.TaskStage) {
	for i := range next {
		if p, ok := findByID(prev, next[i].ID); ok {
			if p.CreatedAt != nil {
				next[i].CreatedAt = p.CreatedAt
			}
			next[i].SyncMode = p.SyncMode
		}
	}
}

func stageListsEqual(a, b []model.TaskStage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !stageContentEqual(a[i], b[i]) || a[i].SyncMode != b[i].SyncMode {
			return false
		}
	}
	return true
}

func diffStages(prev, next []model.TaskStage) stageDelta {
	d := stageDelta{
		removedIDs:       map[int64]bool{},
		changedIDs:       map[int64]bool{},
		statusChangedIDs: map[int64]bool{},
	}
	for _, p := range prev {
		if _, ok := findByID(next, p.ID); !ok {
			d.removedIDs[p.ID] = true
		}
	}
	for _, n := range next {
		p, existed := findByID(prev, n.ID)
		if !existed {
			d.changedIDs[n.ID] = true
			// A brand-new stage only counts as a status change if it
			// arrives already completed.
			if n.Completed() {
				d.statusChangedIDs[n.ID] = true
			}
			continue
		}
		if !stageContentEqual(p, n) {
			d.changedIDs[n.ID] = true
		}
		if !stageStatusEqual(p, n) {
			d.statusChangedIDs[n.ID] = true
		}
	}
	return d
}

// ApplyStageEdit applies a stage-list edit made against one occurrence date
// and propagates it to sibling occurrences per the sync mode and the task's
// repeatSync flag. The whole operation is computed in memory and is
// idempotent: replaying the identical edit on the result is a no-op.
func ApplyStageEdit(t model.Task, editedDate string, newStages []model.TaskStage, mode model.SyncMode, now time.Time, dailyStartMinute int) (model.Task, error) {
	if !mode.Valid() {
		mode = model.SyncNone
	}
	if !t.IsRecurring() {
		return applyDirectStageEdit(t, newStages, now), nil
	}

	if editedDate == "" {
		editedDate = t.ForDate
	}
	date := datekey.Normalize(editedDate)
	if !datekey.IsCanonical(date) {
		return t, ErrNoEditDate
	}

	prev := ResolveInstance(t, date)
	next, _ := stage.Normalize(newStages, now)
	inheritStageHistory(next, prev.Stages)

	delta := diffStages(prev.Stages, next)
	if mode != model.SyncNone {
		for i := range next {
			if delta.changedIDs[next[i].ID] {
				next[i].SyncMode = mode
			}
		}
	}

	newStatus := stage.DeriveStatus(next, prev.Status, len(next) > len(prev.Stages))
	t = writeOccurrence(t, date, next, newStatus, now)

	if t.Recurrence.RepeatSync || mode != model.SyncNone || len(delta.removedIDs) > 0 {
		today := clock.LogicalDate(now, dailyStartMinute)
		var mods []model.TaskStage
		for _, n := range next {
			if delta.changedIDs[n.ID] {
				mods = append(mods, n)
			}
		}
		for _, d := range OccurrenceDates(t, today) {
			if d == date {
				continue
			}
			isFuture := d > date
			if mode == model.SyncFuture && !isFuture {
				continue
			}
			useSourceStatus := func(id int64) bool {
				if !delta.statusChangedIDs[id] {
					return false
				}
				return mode == model.SyncAll || (mode == model.SyncFuture && isFuture)
			}

			dPrev := ResolveInstance(t, d)
			var list []model.TaskStage
			if t.Recurrence.RepeatSync {
				list = rebuildFromTemplate(next, dPrev.Stages, useSourceStatus)
			} else {
				list = applyDelta(dPrev.Stages, delta.removedIDs, mods, mode, useSourceStatus)
			}
			dStatus := stage.DeriveStatus(list, dPrev.Status, len(list) > len(dPrev.Stages))
			if dStatus == dPrev.Status && stageListsEqual(list, dPrev.Stages) {
				// Nothing changed at d. Skipping the write keeps instances
				// lazily created and the whole edit idempotent.
				continue
			}
			t = writeOccurrence(t, d, list, dStatus, now)
		}
	}

	t.Streak = ComputeStreak(t, now, dailyStartMinute)
	t.UpdatedAt = now
	return t, nil
}

// rebuildFromTemplate rebuilds an occurrence's stage list id-for-id from
// the edited date's list: structure (text, order, new stages) always comes
// from the template, while the occurrence keeps its own completion and
// timing for stages it already had, unless the edit explicitly carries
// status across.
func rebuildFromTemplate(tmpl, local []model.TaskStage, useSourceStatus func(int64) bool) []model.TaskStage {
	out := make([]model.TaskStage, 0, len(tmpl))
	for _, src := range tmpl {
		s := src
		if !useSourceStatus(src.ID) {
			if loc, ok := findByID(local, src.ID); ok {
				s.Status = loc.Status
				s.IsCompleted = loc.IsCompleted
				s.StartTimeMinutes = loc.StartTimeMinutes
				s.DurationMinutes = loc.DurationMinutes
			} else {
				s.Status = model.StageUpcoming
				fresh := false
				s.IsCompleted = &fresh
			}
		}
		out = append(out, s)
	}
	return out
}

// applyDelta replays a delta onto an occurrence that keeps independent
// structure. Removals always apply; upserts only when the mode asks for
// propagation.
func applyDelta(local []model.TaskStage, removed map[int64]bool, mods []model.TaskStage, mode model.SyncMode, useSourceStatus func(int64) bool) []model.TaskStage {
	out := make([]model.TaskStage, 0, len(local))
	for _, s := range local {
		if removed[s.ID] {
			continue
		}
		out = append(out, s)
	}
	if mode == model.SyncNone {
		return out
	}
	for _, m := range mods {
		if i, ok := indexByID(out, m.ID); ok {
			s := m
			if !useSourceStatus(m.ID) {
				loc := out[i]
				s.Status = loc.Status
				s.IsCompleted = loc.IsCompleted
				s.StartTimeMinutes = loc.StartTimeMinutes
				s.DurationMinutes = loc.DurationMinutes
			}
			out[i] = s
		} else {
			s := m
			if !useSourceStatus(m.ID) {
				s.Status = model.StageUpcoming
				fresh := false
				s.IsCompleted = &fresh
			}
			out = append(out, s)
		}
	}
	return out
}

// writeOccurrence writes one occurrence's stage list and status, keeping
// the startedAt/completedAt bookkeeping consistent: startedAt is set once
// on the first transition into InProgress, completedAt is set exactly while
// the occurrence is Completed and cleared otherwise.
func writeOccurrence(t model.Task, date string, stages []model.TaskStage, status model.Status, now time.Time) model.Task {
	prev := ResolveInstance(t, date)
	p := InstancePatch{Stages: &stages, Status: &status}
	if prev.StartedAt == nil && status == model.StatusInProgress {
		ts := now
		p.StartedAt = &ts
	}
	if status == model.StatusCompleted {
		if prev.CompletedAt == nil {
			ts := now
			p.CompletedAt = &ts
		}
	} else {
		p.ClearCompletedAt = true
	}
	return WriteInstance(t, date, p)
}

func applyDirectStageEdit(t model.Task, newStages []model.TaskStage, now time.Time) model.Task {
	next, _ := stage.Normalize(newStages, now)
	inheritStageHistory(next, t.Stages)
	status := stage.DeriveStatus(next, t.Status, len(next) > len(t.Stages))

	t.Stages = next
	t.Status = status
	if t.StartedAt == nil && status == model.StatusInProgress {
		ts := now
		t.StartedAt = &ts
	}
	if status == model.StatusCompleted {
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
	return t
}
