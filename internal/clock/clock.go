// Package clock provides the logical-day calendar used by the streak
// calculator: "today" shifts to the previous calendar date until wall-clock
// time passes a configurable start-of-day minute, so a session just after
// midnight still counts against the previous day.
package clock

import (
	"time"

	"tasktempo/internal/datekey"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Test use.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// LogicalDate maps an instant plus a daily start minute offset to the
// calendar date (YYYY-MM-DD) of the logical day it falls in.
func LogicalDate(t time.Time, dailyStartMinute int) string {
	return StartOfLogicalDay(t, dailyStartMinute).Format(datekey.Layout)
}

// StartOfLogicalDay returns the instant the logical day containing t began.
func StartOfLogicalDay(t time.Time, dailyStartMinute int) time.Time {
	if dailyStartMinute < 0 || dailyStartMinute > 24*60-1 {
		dailyStartMinute = 0
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, dailyStartMinute, 0, 0, t.Location())
	if t.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}
