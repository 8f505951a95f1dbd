package recurrence

import (
	"time"

	"tasktempo/internal/clock"
	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
	"tasktempo/internal/stage"
)

// dayScanLimit bounds the day-by-day walks (streak counting, occurrence
// expansion) for pathological anchors.
const dayScanLimit = 3660

// ComputeStreak walks the occurrence history backward from the logical
// today and counts consecutive completed scheduled occurrences. Days the
// pattern does not schedule are skipped without breaking the streak; a
// scheduled day that is not completed breaks it. Today itself carries no
// penalty while its logical day is still open: an unfinished today is
// skipped, not counted against the streak.
func ComputeStreak(t model.Task, now time.Time, dailyStartMinute int) int {
	if t.Recurrence == nil {
		return 0
	}
	anchor := datekey.Normalize(t.ForDate)
	if !datekey.IsCanonical(anchor) {
		return 0
	}

	today := clock.LogicalDate(now, dailyStartMinute)
	count := 0

	if today >= anchor && ScheduledOn(t.Recurrence, anchor, today) && occurrenceCompleted(t, today) {
		count++
	}

	d := AddDays(today, -1)
	for i := 0; d >= anchor && i < dayScanLimit; i++ {
		if ScheduledOn(t.Recurrence, anchor, d) {
			if !occurrenceCompleted(t, d) {
				break
			}
			count++
		}
		d = AddDays(d, -1)
	}
	return count
}

func occurrenceCompleted(t model.Task, date string) bool {
	inst := ResolveInstance(t, date)
	// A stage-less occurrence (completed via a direct toggle) has nothing
	// to derive from; its stored status stands.
	if len(inst.Stages) == 0 {
		return inst.Status == model.StatusCompleted
	}
	return stage.DeriveStatus(inst.Stages, inst.Status, false) == model.StatusCompleted
}
