package task

import (
	"fmt"
	"strings"
	"time"

	"tasktempo/internal/datekey"
	"tasktempo/internal/model"
)

const icsDateLayout = "20060102"

var icsWeekdays = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// BuildTaskCalendarICS builds an iCalendar event for a task, with an RRULE
// when the task recurs. A target date is required so the exported event has
// a concrete start.
func BuildTaskCalendarICS(t model.Task, now time.Time) (string, error) {
	forDate := datekey.Normalize(strings.TrimSpace(t.ForDate))
	if forDate == "" {
		return "", fmt.Errorf("task target date required for calendar export")
	}
	start, err := time.ParseInLocation(datekey.Layout, forDate, time.Local)
	if err != nil {
		return "", fmt.Errorf("task target date must be YYYY-MM-DD")
	}
	end := start.AddDate(0, 0, 1)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "TaskTempo Task"
	}

	uid := fmt.Sprintf("task-%d@tasktempo", t.ID)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//TaskTempo//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + start.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeICSText(desc))
	}
	if rrule := recurrenceToICSRRULE(t.Recurrence); rrule != "" {
		lines = append(lines, "RRULE:"+rrule)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")
	return strings.Join(lines, "\r\n"), nil
}

func recurrenceToICSRRULE(r *model.Recurrence) string {
	if r == nil {
		return ""
	}
	switch r.Type {
	case model.RecurDaily:
		return "FREQ=DAILY"
	case model.RecurEvery:
		interval := r.Interval
		if interval <= 0 {
			interval = 1
		}
		return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", interval)
	case model.RecurWeekly:
		if len(r.Weekdays) == 0 {
			return "FREQ=WEEKLY"
		}
		days := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			days = append(days, icsWeekdays[wd])
		}
		return "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
	case model.RecurMonthlyLastWeekday:
		wd := time.Weekday(0)
		if len(r.Weekdays) > 0 {
			wd = r.Weekdays[0]
		}
		return "FREQ=MONTHLY;BYDAY=-1" + icsWeekdays[wd]
	}
	return ""
}

func escapeICSText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
