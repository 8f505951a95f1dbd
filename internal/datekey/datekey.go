// Package datekey canonicalizes the date strings that key per-occurrence
// state. The canonical form is YYYY-MM-DD; historical data may carry full
// ISO timestamps or other formats accumulated over the app's lifetime, and
// this package lets callers treat those as the same occurrence without a
// destructive migration pass.
package datekey

import (
	"regexp"
	"sort"
	"time"
)

const Layout = "2006-01-02"

var canonicalRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Layouts tried by Normalize, most specific first. Layouts that carry their
// own zone offset keep it, so "2024-01-05T00:00:00.000Z" normalizes to
// 2024-01-05 regardless of the local zone.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// IsCanonical reports whether raw is already a YYYY-MM-DD key.
func IsCanonical(raw string) bool {
	return canonicalRe.MatchString(raw)
}

// Normalize canonicalizes raw to YYYY-MM-DD. Already-canonical input is
// returned unchanged, as is anything that fails to parse: unparseable keys
// pass through so FindByAnyKey can still match them byte-for-byte.
func Normalize(raw string) string {
	if IsCanonical(raw) {
		return raw
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t.Format(Layout)
		}
	}
	return raw
}

// FindByAnyKey resolves canonical against a map whose keys may have drifted
// from the canonical form. An exact hit wins; otherwise every key is
// normalized and the first that matches is returned along with the key it
// was stored under.
func FindByAnyKey[V any](m map[string]V, canonical string) (V, string, bool) {
	if v, ok := m[canonical]; ok {
		return v, canonical, true
	}
	// Sorted scan so a map with several drifted spellings of the same date
	// resolves the same key every time.
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != canonical {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if Normalize(k) == canonical {
			return m[k], k, true
		}
	}
	var zero V
	return zero, "", false
}
