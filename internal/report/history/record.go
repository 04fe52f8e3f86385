package history

import "time"

// DateLayout is the calendar-date key format.
const DateLayout = "2006-01-02"

// Record holds the last delivered occurrence per report kind. It is stored
// flat; an empty field means "never sent".
type Record struct {
	DailyDate string `json:"daily_date,omitempty"`

	WeeklyDate string `json:"weekly_date,omitempty"`
	WeeklyWeek int    `json:"weekly_week,omitempty"`
	WeeklyYear int    `json:"weekly_year,omitempty"`
}

// DayKey is the daily occurrence key of t in t's location.
func DayKey(t time.Time) string { return t.Format(DateLayout) }

// WeekKey is the ISO-8601 (year, week) of t. Weeks start on Monday and week 1
// holds the year's first Thursday, so late December can belong to the next
// year and early January to the previous one.
func WeekKey(t time.Time) (year, week int) { return t.ISOWeek() }

// DailySentOn reports whether the daily report for now's calendar date has
// been delivered. Time of day is ignored.
func (r Record) DailySentOn(now time.Time) bool {
	return r.DailyDate != "" && r.DailyDate == DayKey(now)
}

// WeeklySentIn reports whether the weekly report for now's ISO week has been
// delivered.
func (r Record) WeeklySentIn(now time.Time) bool {
	if r.WeeklyYear == 0 {
		return false
	}
	y, w := WeekKey(now)
	return r.WeeklyYear == y && r.WeeklyWeek == w
}

// WithDaily returns r with the daily marker set to now's occurrence.
func (r Record) WithDaily(now time.Time) Record {
	r.DailyDate = DayKey(now)
	return r
}

// WithWeekly returns r with the weekly marker set to now's occurrence.
func (r Record) WithWeekly(now time.Time) Record {
	r.WeeklyDate = DayKey(now)
	r.WeeklyYear, r.WeeklyWeek = WeekKey(now)
	return r
}

func (r Record) IsZero() bool { return r == Record{} }
