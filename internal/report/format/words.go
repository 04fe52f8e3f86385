package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TaskWord returns the Ukrainian form of "задача" that agrees with n:
// 1, 21, 101 → задача; 2-4, 22-24 → задачі; everything else, including
// 11-14, → задач.
func TaskWord(n int) string {
	if n < 0 {
		n = -n
	}
	switch mod10, mod100 := n%10, n%100; {
	case mod10 == 1 && mod100 != 11:
		return "задача"
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return "задачі"
	default:
		return "задач"
	}
}

// Count renders "n задач" with the agreeing word.
func Count(n int) string { return strconv.Itoa(n) + " " + TaskWord(n) }

// Percent is round(done/total*100), 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

var monthsGenitive = [...]string{
	"січня", "лютого", "березня", "квітня", "травня", "червня",
	"липня", "серпня", "вересня", "жовтня", "листопада", "грудня",
}

// DayMonth renders "15 жовтня".
func DayMonth(t time.Time) string {
	return strconv.Itoa(t.Day()) + " " + monthsGenitive[t.Month()-1]
}

// LongDate renders "15 жовтня 2026 р.".
func LongDate(t time.Time) string {
	return DayMonth(t) + " " + strconv.Itoa(t.Year()) + " р."
}

func upper(s string) string { return strings.ToUpper(s) }
