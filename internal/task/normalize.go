package task

import (
	"time"

	"tasktempo/internal/model"
	"tasktempo/internal/recurrence"
	"tasktempo/internal/stage"
)

// NormalizeAll repairs every task in the list: stage records from older
// schema versions are back-filled, the recurring/non-recurring state
// invariant is restored, and streaks are recomputed against the current
// logical day. Run once per load; applying it again to its own output
// changes nothing. The returned flag tells the host a repaired form is
// worth persisting.
func NormalizeAll(tasks []model.Task, now time.Time, dailyStartMinute int) ([]model.Task, bool) {
	changed := false
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		nt, c := NormalizeTask(t, now, dailyStartMinute)
		out[i] = nt
		changed = changed || c
	}
	return out, changed
}

// NormalizeTask repairs a single task record.
func NormalizeTask(t model.Task, now time.Time, dailyStartMinute int) (model.Task, bool) {
	changed := false

	if t.Priority == "" {
		t.Priority = model.PriorityMedium
		changed = true
	}

	if t.IsRecurring() {
		// Occurrence state is authoritative; stray direct fields are from
		// a record that toggled recurrence on after accumulating state.
		if t.Stages != nil || t.Status != "" {
			t.Stages = nil
			t.Status = ""
			t.StartedAt = nil
			t.CompletedAt = nil
			changed = true
		}
		t = t.CloneInstances()
		for key, inst := range t.RecurrenceInstances {
			stages, c := stage.Normalize(inst.Stages, now)
			if inst.Status == "" {
				inst.Status = model.StatusPending
				c = true
			}
			if c {
				inst.Stages = stages
				t.RecurrenceInstances[key] = inst
				changed = true
			}
		}
		if streak := recurrence.ComputeStreak(t, now, dailyStartMinute); streak != t.Streak {
			t.Streak = streak
			changed = true
		}
	} else {
		stages, c := stage.Normalize(t.Stages, now)
		if c {
			t.Stages = stages
			changed = true
		}
		if t.Status == "" {
			t.Status = model.StatusPending
			changed = true
		}
		if t.RecurrenceInstances != nil || t.Streak != 0 {
			t.RecurrenceInstances = nil
			t.Streak = 0
			changed = true
		}
	}

	return t, changed
}
