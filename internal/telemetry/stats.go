package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period          string            `json:"period"`
	EventCounts     map[EventType]int `json:"event_counts"`
	TaskCompletions int               `json:"task_completions"`
	StageEdits      int               `json:"stage_edits"`
	SyncModeUsage   map[string]int    `json:"sync_mode_usage"`
	StreakChanges   int               `json:"streak_changes"`
	Rehydrations    int               `json:"rehydrations"`
}

// CalculateStats aggregates usage stats from events recorded since a point
// in time.
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:        since.Format("2006-01-02"),
		EventCounts:   make(map[EventType]int),
		SyncModeUsage: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventTaskCompleted:
			stats.TaskCompletions++
		case EventStageEdit:
			stats.StageEdits++
			if mode, ok := metadata["sync_mode"].(string); ok {
				stats.SyncModeUsage[mode]++
			}
		case EventStreakChanged:
			stats.StreakChanges++
		case EventRehydrated:
			stats.Rehydrations++
		}
	}
	return stats, nil
}
