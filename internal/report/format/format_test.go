package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XaMcTeRzzz/taskmeneger/internal/report/tasks"
)

var reportDay = time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)

func TestTaskWord(t *testing.T) {
	t.Parallel()
	tests := map[int]string{
		0: "задач", 1: "задача", 2: "задачі", 3: "задачі", 4: "задачі",
		5: "задач", 10: "задач", 11: "задач", 12: "задач", 13: "задач", 14: "задач",
		15: "задач", 21: "задача", 22: "задачі", 25: "задач", 101: "задача",
		111: "задач", 112: "задач", 122: "задачі",
	}
	for n, want := range tests {
		assert.Equal(t, want, TaskWord(n), "n=%d", n)
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Percent(0, 0))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 100, Percent(4, 4))
}

func TestDates(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "15 жовтня 2026 р.", LongDate(reportDay))
	assert.Equal(t, "1 січня", DayMonth(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "31 грудня", DayMonth(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestDailyEmptyShowsZeroProgress(t *testing.T) {
	t.Parallel()
	got := Daily(nil, reportDay)
	assert.Equal(t, "<b>📅 ЗВІТ ЗА 15 ЖОВТНЯ 2026 Р.</b>\n\n"+
		"🔍 Немає задач на цей день.\n\n"+
		"<b>📊 ПРОГРЕС: 0%</b>", got)
}

func TestDailyListsCompletedActiveAndOverdue(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{
		{ID: "1", Title: "Звіт", DueDate: "2026-10-15", Completed: true},
		{ID: "2", Title: "Пошта", DueDate: "2026-10-15", Completed: true},
		{ID: "3", Title: "Дзвінок", DueDate: "2026-10-14"},
	}
	want := "<b>📅 ЗВІТ ЗА 15 ЖОВТНЯ 2026 Р.</b>\n\n" +
		"<b>✅ ВИКОНАНО: 2/3 задачі</b>\n" +
		"   1. Звіт\n" +
		"   2. Пошта\n\n" +
		"<b>⏳ ЗАПЛАНОВАНО НА СЬОГОДНІ: 0 задач</b>\n" +
		"   Немає активних задач на сьогодні\n\n" +
		"<b>⚠️ ПРОСТРОЧЕНО: 1 задача</b>\n" +
		"   1. Дзвінок (14 жовтня)\n\n" +
		"<b>📊 ПРОГРЕС: 67%</b>"
	assert.Equal(t, want, Daily(ts, reportDay))
}

func TestTasksListedByCreationTime(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{
		{ID: "2", Title: "Друга", DueDate: "2026-10-15", CreatedAt: "2026-10-15T09:30:00.000Z"},
		{ID: "1", Title: "Перша", DueDate: "2026-10-15", CreatedAt: "2026-10-15T08:00:00.000Z"},
	}
	daily := Daily(ts, reportDay)
	assert.Less(t, strings.Index(daily, "1. Перша"), strings.Index(daily, "2. Друга"), daily)

	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	weekly := Weekly(ts, start, end, reportDay)
	assert.Less(t, strings.Index(weekly, "Перша"), strings.Index(weekly, "Друга"), weekly)

	assert.Equal(t, "2", ts[0].ID, "input is not reordered")
}

func TestDailyIsDeterministic(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{
		{ID: "1", Title: "b", DueDate: "2026-10-15", Category: "x"},
		{ID: "2", Title: "a", DueDate: "2026-10-01", Category: "y"},
		{ID: "3", Title: "c", Completed: true},
	}
	first := Daily(ts, reportDay)
	for range 20 {
		require.Equal(t, first, Daily(ts, reportDay))
	}
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC)
	weekly := Weekly(ts, start, end, reportDay)
	for range 20 {
		require.Equal(t, weekly, Weekly(ts, start, end, reportDay))
	}
}

func TestDailyInvalidDateUsesPlaceholder(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{
		{ID: "1", Title: "без дати", DueDate: "not a date"},
		{ID: "2", Title: "done", Completed: true},
	}
	got := Daily(ts, reportDay)
	assert.Contains(t, got, "ЗАПЛАНОВАНО НА СЬОГОДНІ: 1 задача")
	assert.Contains(t, got, "   1. без дати (дата не вказана)")
	assert.Contains(t, got, "ВИКОНАНО: 1/2 задача")
	assert.Contains(t, got, "ПРОГРЕС: 50%")
	assert.NotContains(t, got, "ПРОСТРОЧЕНО")
}

func TestTitlesAreEscaped(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{{ID: "1", Title: "<script> & co", DueDate: "2026-10-15", Category: "R&D"}}
	got := Daily(ts, reportDay)
	assert.Contains(t, got, "&lt;script&gt; &amp; co")
	assert.NotContains(t, got, "<script>")

	weekly := Weekly(ts, reportDay, reportDay, reportDay)
	assert.Contains(t, weekly, "R&amp;D")
}

func TestWeeklyGroupsByFirstSeenCategory(t *testing.T) {
	t.Parallel()
	ts := []tasks.Task{
		{ID: "1", Title: "w1", DueDate: "2026-10-13", Category: "Робота", Completed: true},
		{ID: "2", Title: "h1", DueDate: "2026-10-16", Category: "Дім"},
		{ID: "3", Title: "n1", DueDate: "2026-10-17"},
		{ID: "4", Title: "w2", DueDate: "2026-10-08", Category: "Робота"},
		{ID: "5", Title: "w3", DueDate: "2026-10-16", Category: "Робота"},
	}
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC)

	want := "<b>📊 ТИЖНЕВИЙ ЗВІТ</b>\n" +
		"<b>📆 12 ЖОВТНЯ - 18 ЖОВТНЯ 2026 Р.</b>\n\n" +
		"<b>📈 ЗАГАЛЬНИЙ ПРОГРЕС: 20%</b>\n" +
		"<b>✅ ВИКОНАНО: 1 задача</b>\n" +
		"<b>⏳ АКТИВНИХ: 3 задачі</b>\n" +
		"<b>⚠️ ПРОСТРОЧЕНО: 1 задача</b>\n\n" +
		"<b>📋 ЗАДАЧІ ЗА КАТЕГОРІЯМИ:</b>\n\n" +
		"<b>🔷 РОБОТА (1/3 задачі):</b>\n" +
		"   ⏳ w3 (16 жовтня)\n" +
		"   ⚠️ w2 (8 жовтня) - прострочено\n" +
		"   ✅ w1\n\n" +
		"<b>🔷 ДІМ (0/1 задача):</b>\n" +
		"   ⏳ h1 (16 жовтня)\n\n" +
		"<b>🔷 БЕЗ КАТЕГОРІЇ (0/1 задача):</b>\n" +
		"   ⏳ n1 (17 жовтня)"
	assert.Equal(t, want, Weekly(ts, start, end, reportDay))
}

func TestWeeklyEmpty(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC)
	got := Weekly(nil, start, end, reportDay)
	assert.Contains(t, got, "Немає задач за цей період.")
	assert.Contains(t, got, "ЗАГАЛЬНИЙ ПРОГРЕС: 0%")
}

func TestTestReportCapsCompleted(t *testing.T) {
	t.Parallel()
	var ts []tasks.Task
	for i := range 8 {
		ts = append(ts, tasks.Task{ID: string(rune('a' + i)), Title: "done " + string(rune('a'+i)), Completed: true})
	}
	ts = append(ts, tasks.Task{ID: "z", Title: "open", DueDate: "2026-10-20"})

	got := Test(ts, time.Date(2026, 10, 15, 20, 3, 15, 0, time.UTC))
	assert.Contains(t, got, "<b>📋 ВСІ ЗАДАЧІ (9 задач):</b>")
	assert.Contains(t, got, "<b>⏰ Час:</b> 20:03:15")
	assert.Contains(t, got, "   1. open (20 жовтня)")
	assert.Contains(t, got, "   5. done e")
	assert.NotContains(t, got, "done f")
	assert.Contains(t, got, "   ... та ще 3 задачі")
	assert.True(t, strings.HasSuffix(got, "працюють коректно.</b>"))

	empty := Test(nil, reportDay)
	assert.Contains(t, empty, "У вас немає жодних задач.")
}
