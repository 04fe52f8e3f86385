// Package tasks reads the task snapshot that reports are built from. The
// task manager owns the file; this package never writes it.
package tasks

import (
	"sort"
	"strings"
	"time"
)

// Task is one record of the snapshot. Dates are kept as the raw strings the
// task manager wrote; use Due to interpret them.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Completed   bool   `json:"completed"`
	Category    string `json:"category,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

var dueLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDue returns the calendar day of raw as midnight in loc. Timestamps
// with an offset are converted to loc first; a bare date or local timestamp
// is read as a date in loc.
func ParseDue(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return d, true
	}
	for _, layout := range dueLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		return Day(t.In(loc)), true
	}
	return time.Time{}, false
}

// Day truncates t to midnight of its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Due is ParseDue on t.DueDate.
func (t Task) Due(loc *time.Location) (time.Time, bool) { return ParseDue(t.DueDate, loc) }

// Created is ParseDue on t.CreatedAt.
func (t Task) Created() (time.Time, bool) { return ParseDue(t.CreatedAt, time.UTC) }

// ByCreated returns a copy of ts, oldest first. Tasks without a readable
// creation time go last. Ties keep their input order.
func ByCreated(ts []Task) []Task {
	out := append([]Task(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := out[i].Created()
		b, okB := out[j].Created()
		if okA != okB {
			return okA
		}
		return okA && a.Before(b)
	})
	return out
}

// OverdueOn reports whether t is active and due strictly before day's date.
func (t Task) OverdueOn(day time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := t.Due(day.Location())
	return ok && due.Before(Day(day))
}
