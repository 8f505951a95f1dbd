package model

import "time"

// StageStatus is the closed set of states a stage moves through.
// StageDone is the completion marker.
type StageStatus string

const (
	StageUpcoming   StageStatus = "upcoming"
	StageInProgress StageStatus = "in_progress"
	StageDone       StageStatus = "done"
)

// Stage timing defaults applied by the normalizer.
const (
	DefaultStageStartMinutes    = 0
	DefaultStageDurationMinutes = 180
)

// TaskStage is a subtask belonging to one occurrence, or to the task
// directly when the task is non-recurring.
//
// Fields added after the first schema version are pointers so the stage
// normalizer can tell "absent" from "zero" and back-fill old records; after
// normalization they are always set. IsCompleted is kept redundant with
// Status==StageDone for records written by older app versions.
type TaskStage struct {
	ID               int64       `json:"id"`
	Text             string      `json:"text"`
	StartTimeMinutes *int        `json:"startTimeMinutes,omitempty"`
	DurationMinutes  *int        `json:"durationMinutes,omitempty"`
	Status           StageStatus `json:"status,omitempty"`
	IsCompleted      *bool       `json:"isCompleted,omitempty"`
	CreatedAt        *time.Time  `json:"createdAt,omitempty"`

	// SyncMode records the mode under which this stage was last written,
	// so later propagation can reference the original intent.
	SyncMode SyncMode `json:"syncMode,omitempty"`
}

// Completed reports whether the stage counts as done. Either signal
// suffices; legacy records may carry only one of the two.
func (s TaskStage) Completed() bool {
	if s.IsCompleted != nil && *s.IsCompleted {
		return true
	}
	return s.Status == StageDone
}
