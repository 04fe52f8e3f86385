// Package schedule decides whether a daily or weekly report is due.
//
// A report is due from its scheduled time until the end of its occurrence
// (the calendar day, or the ISO week for weekly reports) unless the history
// already holds that occurrence. Comparing with >= instead of an exact minute
// lets a tick that comes late, or a process that was asleep through the
// trigger, still deliver the occurrence exactly once.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/XaMcTeRzzz/taskmeneger/internal/report/history"
)

type Kind string

const (
	Daily  Kind = "daily"
	Weekly Kind = "weekly"
)

// Config is a read-only view of the report schedule. Times are "HH:MM" and
// are parsed defensively: an invalid value disables that kind.
type Config struct {
	Enabled bool
	Daily   DailyConfig
	Weekly  WeeklyConfig
}

type DailyConfig struct {
	Enabled   bool
	TimeOfDay string
}

type WeeklyConfig struct {
	Enabled bool
	// Day is 0..6, 0 = Sunday, matching time.Weekday.
	Day       int
	TimeOfDay string
}

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour, Minute int
}

// ParseTimeOfDay parses "HH:MM" with hour 0..23 and minute 0..59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hs, ms, ok := strings.Cut(s, ":")
	if !ok || !digits(hs) || len(ms) != 2 || !digits(ms) {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 || len(hs) > 2 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// digits reports whether s is non-empty and plain ASCII digits. Atoi alone
// would let signs through.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// On returns t on day's calendar date in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// ShouldSendDaily reports whether today's daily report is due at now.
func ShouldSendDaily(now time.Time, cfg Config, rec history.Record) bool {
	ok, _ := dailyDue(now, cfg, rec)
	return ok
}

// ShouldSendWeekly reports whether this week's weekly report is due at now.
// It is due only on the configured weekday.
func ShouldSendWeekly(now time.Time, cfg Config, rec history.Record) bool {
	ok, _ := weeklyDue(now, cfg, rec)
	return ok
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Daily  bool
	Weekly bool
	// Problems lists configuration values that kept a kind from being
	// evaluated. The caller decides how loudly to report them.
	Problems []error
}

func (d Decision) Due(k Kind) bool {
	if k == Weekly {
		return d.Weekly
	}
	return d.Daily
}

// Evaluate decides both kinds independently.
func Evaluate(now time.Time, cfg Config, rec history.Record) Decision {
	var d Decision
	var err error
	if d.Daily, err = dailyDue(now, cfg, rec); err != nil {
		d.Problems = append(d.Problems, err)
	}
	if d.Weekly, err = weeklyDue(now, cfg, rec); err != nil {
		d.Problems = append(d.Problems, err)
	}
	return d
}

func dailyDue(now time.Time, cfg Config, rec history.Record) (bool, error) {
	if !cfg.Enabled || !cfg.Daily.Enabled {
		return false, nil
	}
	if rec.DailySentOn(now) {
		return false, nil
	}
	tod, err := ParseTimeOfDay(cfg.Daily.TimeOfDay)
	if err != nil {
		return false, fmt.Errorf("daily schedule: %w", err)
	}
	return !now.Before(tod.On(now)), nil
}

func weeklyDue(now time.Time, cfg Config, rec history.Record) (bool, error) {
	if !cfg.Enabled || !cfg.Weekly.Enabled {
		return false, nil
	}
	if cfg.Weekly.Day < 0 || cfg.Weekly.Day > 6 {
		return false, fmt.Errorf("weekly schedule: day %d out of range 0..6", cfg.Weekly.Day)
	}
	tod, err := ParseTimeOfDay(cfg.Weekly.TimeOfDay)
	if err != nil {
		return false, fmt.Errorf("weekly schedule: %w", err)
	}
	if rec.WeeklySentIn(now) || now.Weekday() != time.Weekday(cfg.Weekly.Day) {
		return false, nil
	}
	return !now.Before(tod.On(now)), nil
}

// WeekRange returns Monday 00:00 and Sunday 23:59:59.999999999 of now's ISO
// week in now's location.
func WeekRange(now time.Time) (start, end time.Time) {
	offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := now.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
	end = time.Date(y, m, d-offset+7, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
	return start, end
}
