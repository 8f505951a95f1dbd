package recurrence

import (
	"sort"

	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
)

// CanonicalizeInstanceKeys rewrites drifted historical instance keys to
// their canonical YYYY-MM-DD form. When both a drifted and a canonical
// entry exist for the same date, the canonical entry wins (it has been
// shadowing the drifted one on every read). Returns the rewritten task and
// the number of keys migrated or dropped.
//
// Reads tolerate drifted keys indefinitely, so this is an optional
// housekeeping pass, not a prerequisite for correctness.
func CanonicalizeInstanceKeys(t model.Task) (model.Task, int) {
	if len(t.RecurrenceInstances) == 0 {
		return t, 0
	}

	keys := make([]string, 0, len(t.RecurrenceInstances))
	for k := range t.RecurrenceInstances {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	migrated := 0
	next := make(map[string]model.RecurrenceInstance, len(keys))
	for _, k := range keys {
		ck := datekey.Normalize(k)
		if k == ck {
			next[ck] = t.RecurrenceInstances[k]
			continue
		}
		migrated++
		if _, exists := t.RecurrenceInstances[ck]; exists {
			continue // canonical entry shadows this one; drop it
		}
		if _, exists := next[ck]; exists {
			continue // an earlier drifted spelling already claimed the date
		}
		next[ck] = t.RecurrenceInstances[k]
	}
	if migrated == 0 {
		return t, 0
	}
	t.RecurrenceInstances = next
	return t, migrated
}
