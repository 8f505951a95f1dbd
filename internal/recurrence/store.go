package recurrence

import (
	"time"

	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
)

// InstancePatch is a partial update to one occurrence's state.
// nil pointer => "no change". CompletedAt supports explicit clearing.
type InstancePatch struct {
	Stages           *[]model.TaskStage
	Status           *model.Status
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ClearCompletedAt bool
}

// ResolveInstance returns the stored state for one occurrence date. The
// canonical key is tried first, then a scan that normalizes drifted
// historical keys. A date with no stored state resolves to an empty
// Pending instance.
func ResolveInstance(t model.Task, date string) model.RecurrenceInstance {
	key := datekey.Normalize(date)
	if inst, _, ok := datekey.FindByAnyKey(t.RecurrenceInstances, key); ok {
		if inst.Status == "" {
			inst.Status = model.StatusPending
		}
		return inst
	}
	return model.RecurrenceInstance{Status: model.StatusPending}
}

// WriteInstance returns a new task whose instance for date is the merge of
// the existing instance and the patch, stored under the canonical key.
// Sibling instances are never touched; a drifted historical key for the
// same date is left in place and shadowed by the canonical entry.
func WriteInstance(t model.Task, date string, p InstancePatch) model.Task {
	key := datekey.Normalize(date)
	inst := ResolveInstance(t, date)

	if p.Stages != nil {
		inst.Stages = *p.Stages
	}
	if p.Status != nil {
		inst.Status = *p.Status
	}
	if p.StartedAt != nil {
		inst.StartedAt = p.StartedAt
	}
	if p.ClearCompletedAt {
		inst.CompletedAt = nil
	} else if p.CompletedAt != nil {
		inst.CompletedAt = p.CompletedAt
	}

	out := t.CloneInstances()
	if out.RecurrenceInstances == nil {
		out.RecurrenceInstances = map[string]model.RecurrenceInstance{}
	}
	out.RecurrenceInstances[key] = inst
	return out
}
