package model

import (
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the aggregate state of a task or of one occurrence of a
// recurring task. It is derived from stage completion, never set freely.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// SyncMode governs how far a stage edit propagates across the occurrences
// of a recurring task. Structural deletions follow stricter rules and
// propagate regardless of mode.
type SyncMode string

const (
	SyncNone   SyncMode = "none"
	SyncAll    SyncMode = "all"
	SyncFuture SyncMode = "future"
)

func (m SyncMode) Valid() bool {
	switch m {
	case SyncNone, SyncAll, SyncFuture:
		return true
	}
	return false
}

// Recurrence describes a repeating schedule anchored at the task's ForDate.
//
// RepeatSync forces every occurrence to share identical stage structure
// (a template); per-occurrence completion stays independent.
type Recurrence struct {
	Type       RecurrenceType `json:"type"`
	Interval   int            `json:"interval,omitempty"`
	Weekdays   []time.Weekday `json:"weekdays,omitempty"`
	RepeatSync bool           `json:"repeatSync"`
}

type RecurrenceType string

const (
	RecurDaily              RecurrenceType = "daily"
	RecurEvery              RecurrenceType = "every"
	RecurWeekly             RecurrenceType = "weekly"
	RecurMonthlyLastWeekday RecurrenceType = "monthly_last_weekday"
)

// RecurrenceInstance is the per-date state of one occurrence of a recurring
// task, keyed by canonical YYYY-MM-DD date in Task.RecurrenceInstances.
// Instances are created lazily on first edit and never deleted individually.
type RecurrenceInstance struct {
	Stages      []TaskStage `json:"stages"`
	Status      Status      `json:"status"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// Comment is shared across every occurrence of a recurring task.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is one user-visible to-do item.
//
// Exactly one of {Status+Stages} or {RecurrenceInstances} is authoritative,
// selected by the presence of Recurrence: non-recurring tasks carry their
// stage list and status directly, recurring tasks keep all occurrence state
// in RecurrenceInstances.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Category    *string  `json:"category,omitempty"`

	// ForDate is the target calendar date (YYYY-MM-DD). For recurring tasks
	// it anchors the schedule.
	ForDate string `json:"forDate,omitempty"`
	Backlog bool   `json:"backlog,omitempty"`

	Recurrence *Recurrence `json:"recurrence,omitempty"`

	// Direct state, non-recurring tasks only.
	Stages      []TaskStage `json:"stages,omitempty"`
	Status      Status      `json:"status,omitempty"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`

	// Occurrence state, recurring tasks only.
	RecurrenceInstances map[string]RecurrenceInstance `json:"recurrenceInstances,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	// Streak counts consecutive completed scheduled occurrences ending at
	// the logical today. Recurring tasks only.
	Streak int `json:"streak,omitempty"`

	Pinned    bool      `json:"pinned,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// CloneInstances returns a copy of the task with its instance map copied,
// so a write to one occurrence never aliases the previous task value.
func (t Task) CloneInstances() Task {
	if t.RecurrenceInstances == nil {
		return t
	}
	next := make(map[string]RecurrenceInstance, len(t.RecurrenceInstances))
	for k, v := range t.RecurrenceInstances {
		next[k] = v
	}
	t.RecurrenceInstances = next
	return t
}

// NewTask builds a pending task with a creation-timestamp-derived ID.
func NewTask(title string, now time.Time) Task {
	return Task{
		ID:        now.UnixMilli(),
		Title:     title,
		Priority:  PriorityMedium,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
