// Package recurrence owns everything that happens across the calendar
// occurrences of a repeating task: expanding the schedule, resolving and
// writing per-date instance state, propagating stage edits between dates,
// and recomputing the completion streak.
package recurrence

import (
	"sort"
	"time"

	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
)

func parseDay(date string) (time.Time, bool) {
	t, err := time.ParseInLocation(datekey.Layout, date, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDays shifts a canonical date by n calendar days.
func AddDays(date string, n int) string {
	t, ok := parseDay(date)
	if !ok {
		return date
	}
	return t.AddDate(0, 0, n).Format(datekey.Layout)
}

func daysBetween(from, to string) (int, bool) {
	a, okA := parseDay(from)
	b, okB := parseDay(to)
	if !okA || !okB {
		return 0, false
	}
	// Re-anchor both days in UTC so a DST transition between them cannot
	// produce a fractional day.
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour)), true
}

// ScheduledOn reports whether the pattern anchored at anchor materializes
// an occurrence on date. Dates before the anchor are never scheduled.
func ScheduledOn(r *model.Recurrence, anchor, date string) bool {
	if r == nil || anchor == "" {
		return false
	}
	anchor = datekey.Normalize(anchor)
	date = datekey.Normalize(date)
	if date < anchor {
		return false
	}
	day, ok := parseDay(date)
	if !ok {
		return false
	}

	switch r.Type {
	case model.RecurDaily:
		return true
	case model.RecurEvery:
		interval := r.Interval
		if interval <= 0 {
			interval = 1
		}
		diff, ok := daysBetween(anchor, date)
		return ok && diff%interval == 0
	case model.RecurWeekly:
		if len(r.Weekdays) == 0 {
			// Weekly with no chosen days falls back to the anchor's weekday.
			a, ok := parseDay(anchor)
			return ok && day.Weekday() == a.Weekday()
		}
		for _, wd := range r.Weekdays {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case model.RecurMonthlyLastWeekday:
		wd := time.Weekday(0)
		if len(r.Weekdays) > 0 {
			wd = r.Weekdays[0]
		} else if a, ok := parseDay(anchor); ok {
			wd = a.Weekday()
		}
		return day.Weekday() == wd && isLastWeekdayOfMonth(day)
	}
	return false
}

func isLastWeekdayOfMonth(day time.Time) bool {
	return day.AddDate(0, 0, 7).Month() != day.Month()
}

// OccurrenceDates expands every date the pattern has materialized: all
// scheduled dates from the anchor through the later of today and the latest
// stored instance key, plus the canonical form of every stored key. Sorted
// ascending.
func OccurrenceDates(t model.Task, today string) []string {
	if t.Recurrence == nil {
		return nil
	}
	anchor := datekey.Normalize(t.ForDate)
	if _, ok := parseDay(anchor); !ok {
		return nil
	}

	horizon := datekey.Normalize(today)
	set := map[string]bool{}
	for k := range t.RecurrenceInstances {
		ck := datekey.Normalize(k)
		if _, ok := parseDay(ck); !ok {
			continue
		}
		set[ck] = true
		if ck > horizon {
			horizon = ck
		}
	}

	// A far-past anchor would otherwise make every edit walk years of
	// dates; stored keys beyond the window are still included above.
	from := anchor
	if floor := AddDays(horizon, -dayScanLimit); floor > from {
		from = floor
	}
	for d := from; d <= horizon; d = AddDays(d, 1) {
		if ScheduledOn(t.Recurrence, anchor, d) {
			set[d] = true
		}
	}

	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
