package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktempo/internal/model"
)

func TestCanonicalizeInstanceKeysRewritesDrifted(t *testing.T) {
	task := dailyTask("2026-03-01", false)
	task.RecurrenceInstances = map[string]model.RecurrenceInstance{
		"2026-03-02T00:00:00.000Z": {Status: model.StatusCompleted},
		"2026-03-03":               {Status: model.StatusPending},
	}

	got, migrated := CanonicalizeInstanceKeys(task)
	assert.Equal(t, 1, migrated)
	require.Len(t, got.RecurrenceInstances, 2)
	assert.Equal(t, model.StatusCompleted, got.RecurrenceInstances["2026-03-02"].Status)
	assert.Equal(t, model.StatusPending, got.RecurrenceInstances["2026-03-03"].Status)
}

func TestCanonicalizeInstanceKeysCanonicalEntryWins(t *testing.T) {
	task := dailyTask("2026-03-01", false)
	task.RecurrenceInstances = map[string]model.RecurrenceInstance{
		"2026-03-02":               {Status: model.StatusCompleted},
		"2026-03-02T00:00:00.000Z": {Status: model.StatusPending},
	}

	got, migrated := CanonicalizeInstanceKeys(task)
	assert.Equal(t, 1, migrated)
	require.Len(t, got.RecurrenceInstances, 1)
	assert.Equal(t, model.StatusCompleted, got.RecurrenceInstances["2026-03-02"].Status)
}

func TestCanonicalizeInstanceKeysNoDrift(t *testing.T) {
	task := dailyTask("2026-03-01", false)
	task.RecurrenceInstances = map[string]model.RecurrenceInstance{
		"2026-03-02": {Status: model.StatusCompleted},
	}

	got, migrated := CanonicalizeInstanceKeys(task)
	assert.Zero(t, migrated)
	assert.Equal(t, task, got)
}

func TestCanonicalizeInstanceKeysEmpty(t *testing.T) {
	got, migrated := CanonicalizeInstanceKeys(dailyTask("2026-03-01", false))
	assert.Zero(t, migrated)
	assert.Nil(t, got.RecurrenceInstances)
}
