package telemetry

import "time"

type EventType string

const (
	EventTaskCreated    EventType = "task_created"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskDeleted    EventType = "task_deleted"
	EventStageEdit      EventType = "stage_edit"
	EventCommentAdded   EventType = "comment_added"
	EventCommentDeleted EventType = "comment_deleted"
	EventPinToggled     EventType = "pin_toggled"
	EventStreakChanged  EventType = "streak_changed"
	EventRehydrated     EventType = "rehydrated"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}
