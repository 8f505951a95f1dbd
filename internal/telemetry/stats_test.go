package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateStats(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.RecordEvent(EventTaskCreated, nil))
	require.NoError(t, repo.RecordEvent(EventTaskCompleted, EventMetadata{"task_id": 1}))
	require.NoError(t, repo.RecordEvent(EventStageEdit, EventMetadata{"sync_mode": "all"}))
	require.NoError(t, repo.RecordEvent(EventStageEdit, EventMetadata{"sync_mode": "all"}))
	require.NoError(t, repo.RecordEvent(EventStageEdit, EventMetadata{"sync_mode": "none"}))
	require.NoError(t, repo.RecordEvent(EventRehydrated, EventMetadata{"tasks": 3}))

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)

	stats, err := CalculateStats(events, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", stats.Period)
	assert.Equal(t, 1, stats.TaskCompletions)
	assert.Equal(t, 3, stats.StageEdits)
	assert.Equal(t, 2, stats.SyncModeUsage["all"])
	assert.Equal(t, 1, stats.SyncModeUsage["none"])
	assert.Equal(t, 1, stats.Rehydrations)
	assert.Equal(t, 3, stats.EventCounts[EventStageEdit])
}

func TestGetEventsFilters(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.RecordEvent(EventTaskCreated, nil))
	require.NoError(t, repo.RecordEvent(EventTaskDeleted, nil))

	events, err := repo.GetEvents(time.Time{}, []EventType{EventTaskDeleted})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventTaskDeleted, events[0].Type)

	events, err = repo.GetEvents(time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClear(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.RecordEvent(EventPinToggled, nil))
	require.NoError(t, repo.Clear())

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}
