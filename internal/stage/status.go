package stage

import (
	"tasktempo/internal/model"
)

// CountCompleted returns how many stages count as done.
func CountCompleted(stages []model.TaskStage) int {
	n := 0
	for _, s := range stages {
		if s.Completed() {
			n++
		}
	}
	return n
}

// DeriveStatus computes an occurrence's status from its stage completion
// counts. Rules in priority order:
//
//  1. non-empty list, all done        -> Completed
//  2. some but not all done          -> InProgress
//  3. adding a stage while Completed -> Pending (the task reopens)
//  4. was Completed, none done now   -> InProgress (stale Completed after
//     a done stage was deleted without going through rule 3)
//  5. otherwise                      -> previous status unchanged
//
// Editing a non-completion field of a stage on a Completed occurrence does
// not reopen it; only adding a stage does.
func DeriveStatus(stages []model.TaskStage, previous model.Status, isAddingStage bool) model.Status {
	done := CountCompleted(stages)

	if len(stages) > 0 && done == len(stages) {
		return model.StatusCompleted
	}
	if done > 0 {
		return model.StatusInProgress
	}
	if isAddingStage && previous == model.StatusCompleted {
		return model.StatusPending
	}
	if previous == model.StatusCompleted {
		return model.StatusInProgress
	}
	if previous == "" {
		return model.StatusPending
	}
	return previous
}
