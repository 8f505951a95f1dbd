package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tasktempo/internal/model"
)

func stages(doneFlags ...bool) []model.TaskStage {
	out := make([]model.TaskStage, len(doneFlags))
	for i, d := range doneFlags {
		done := d
		st := model.StageUpcoming
		if d {
			st = model.StageDone
		}
		out[i] = model.TaskStage{ID: int64(i + 1), Status: st, IsCompleted: &done}
	}
	return out
}

func TestDeriveStatus_NoneDoneStaysPending(t *testing.T) {
	got := DeriveStatus(stages(false, false, false), model.StatusPending, false)
	assert.Equal(t, model.StatusPending, got)
}

func TestDeriveStatus_SomeDoneInProgress(t *testing.T) {
	got := DeriveStatus(stages(true, false, false), model.StatusPending, false)
	assert.Equal(t, model.StatusInProgress, got)
}

func TestDeriveStatus_AllDoneCompleted(t *testing.T) {
	got := DeriveStatus(stages(true, true, true), model.StatusInProgress, false)
	assert.Equal(t, model.StatusCompleted, got)
}

func TestDeriveStatus_AddingStageReopensCompleted(t *testing.T) {
	got := DeriveStatus(stages(false), model.StatusCompleted, true)
	assert.Equal(t, model.StatusPending, got)
}

func TestDeriveStatus_DeletingOnlyDoneStageDemotesCompleted(t *testing.T) {
	// Completed task whose single done stage was removed: no stage is done
	// any more, so the stale Completed demotes to InProgress.
	got := DeriveStatus(stages(false, false), model.StatusCompleted, false)
	assert.Equal(t, model.StatusInProgress, got)
}

func TestDeriveStatus_LegacyCompletionSignals(t *testing.T) {
	// Either IsCompleted or Status==done suffices.
	f := false
	tr := true
	byStatus := []model.TaskStage{{ID: 1, Status: model.StageDone, IsCompleted: &f}}
	byFlag := []model.TaskStage{{ID: 1, Status: model.StageUpcoming, IsCompleted: &tr}}

	assert.Equal(t, model.StatusCompleted, DeriveStatus(byStatus, model.StatusPending, false))
	assert.Equal(t, model.StatusCompleted, DeriveStatus(byFlag, model.StatusPending, false))
}

func TestDeriveStatus_EditingDoneStageTextDoesNotReopen(t *testing.T) {
	// All stages still done and nothing was added: stays Completed even
	// though a stage's content changed in this edit.
	got := DeriveStatus(stages(true, true), model.StatusCompleted, false)
	assert.Equal(t, model.StatusCompleted, got)
}

func TestDeriveStatus_EmptyListUnchanged(t *testing.T) {
	assert.Equal(t, model.StatusPending, DeriveStatus(nil, model.StatusPending, false))
	assert.Equal(t, model.StatusInProgress, DeriveStatus(nil, model.StatusInProgress, false))
}
