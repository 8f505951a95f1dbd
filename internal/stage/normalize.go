// Package stage sanitizes stage lists and derives occurrence status from
// them. Normalize is the single migration boundary for stage records
// written by older app versions; business logic elsewhere can assume every
// optional field is filled in.
package stage

import (
	"time"

	"tasktempo/internal/model"
)

// Normalize sanitizes a raw stage list for one task occurrence: entries
// without an ID are dropped, duplicate IDs are dropped keeping the first,
// missing timing and status fields are back-filled with defaults, and
// IsCompleted is derived from Status when absent. Survivor order is
// preserved. The returned flag reports whether anything was repaired, so
// the host can decide to persist the repaired form immediately.
func Normalize(stages []model.TaskStage, now time.Time) ([]model.TaskStage, bool) {
	changed := false
	seen := make(map[int64]bool, len(stages))
	out := make([]model.TaskStage, 0, len(stages))

	for _, s := range stages {
		// A JSON null in the stages array decodes to the zero value, which
		// is indistinguishable from a stage missing its id. Both are invalid.
		if s.ID <= 0 {
			changed = true
			continue
		}
		if seen[s.ID] {
			changed = true
			continue
		}
		seen[s.ID] = true

		if s.StartTimeMinutes == nil {
			v := model.DefaultStageStartMinutes
			s.StartTimeMinutes = &v
			changed = true
		}
		if s.DurationMinutes == nil {
			v := model.DefaultStageDurationMinutes
			s.DurationMinutes = &v
			changed = true
		}
		if s.Status == "" {
			s.Status = model.StageUpcoming
			changed = true
		}
		if s.IsCompleted == nil {
			done := s.Status == model.StageDone
			s.IsCompleted = &done
			changed = true
		}
		if s.CreatedAt == nil {
			ts := now
			s.CreatedAt = &ts
			changed = true
		}
		out = append(out, s)
	}
	return out, changed
}
