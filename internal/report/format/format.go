// Package format renders task reports as Telegram HTML.
//
// Every function is pure: the same tasks and dates always produce the same
// bytes. Tasks are listed oldest first by creation time (see
// tasks.ByCreated); categories appear in the order they are first met.
package format

import (
	"strconv"
	"time"

	"github.com/XaMcTeRzzz/taskmeneger/internal/report/tasks"
	"github.com/XaMcTeRzzz/taskmeneger/pkg/tgui"
)

const (
	NoDate          = "дата не вказана"
	NoCategory      = "Без категорії"
	maxTitleRunes   = 200
	testCompletedN  = 5
	indent          = "   "
	overdueSuffix   = " - прострочено"
	markActive      = "⏳"
	markOverdue     = "⚠️"
	markCompleted   = "✅"
	markCategory    = "🔷"
	emptyDayText    = "🔍 Немає задач на цей день."
	emptyPeriodText = "🔍 Немає задач за цей період."
)

// split partitions ts as of day. Overdue tasks are active tasks due strictly
// before day's date; a task without a usable date is active, never overdue.
type split struct {
	completed, active, overdue []tasks.Task
}

func partition(ts []tasks.Task, day time.Time) split {
	var s split
	for _, t := range ts {
		switch {
		case t.Completed:
			s.completed = append(s.completed, t)
		case t.OverdueOn(day):
			s.overdue = append(s.overdue, t)
		default:
			s.active = append(s.active, t)
		}
	}
	return s
}

func title(t tasks.Task) tgui.H {
	return tgui.Esc(tgui.TruncRunes(t.Title, maxTitleRunes))
}

func dueLabel(t tasks.Task, loc *time.Location) string {
	if due, ok := t.Due(loc); ok {
		return DayMonth(due)
	}
	return NoDate
}

func numbered(d *tgui.Doc, ts []tasks.Task, render func(tasks.Task) tgui.H) {
	for i, t := range ts {
		d.Line(tgui.Concat(tgui.Raw(indent+strconv.Itoa(i+1)+". "), render(t)))
	}
}

// Daily renders the report for date's calendar day.
func Daily(ts []tasks.Task, date time.Time) string {
	ts = tasks.ByCreated(ts)
	var d tgui.Doc
	d.Line(tgui.B("📅 ЗВІТ ЗА " + upper(LongDate(date)))).Blank()

	if len(ts) == 0 {
		d.Line(tgui.Esc(emptyDayText)).Blank()
		d.Line(tgui.B("📊 ПРОГРЕС: 0%"))
		return d.String()
	}

	s := partition(ts, date)
	loc := date.Location()

	d.Line(tgui.B("✅ ВИКОНАНО: " + strconv.Itoa(len(s.completed)) + "/" + strconv.Itoa(len(ts)) + " " + TaskWord(len(s.completed))))
	if len(s.completed) == 0 {
		d.Line(tgui.Esc(indent + "Немає виконаних задач"))
	}
	numbered(&d, s.completed, title)

	d.Blank().Line(tgui.B("⏳ ЗАПЛАНОВАНО НА СЬОГОДНІ: " + Count(len(s.active))))
	if len(s.active) == 0 {
		d.Line(tgui.Esc(indent + "Немає активних задач на сьогодні"))
	}
	numbered(&d, s.active, func(t tasks.Task) tgui.H {
		if _, ok := t.Due(loc); ok {
			return title(t)
		}
		return tgui.Concat(title(t), tgui.Esc(" ("+NoDate+")"))
	})

	if len(s.overdue) > 0 {
		d.Blank().Line(tgui.B(markOverdue + " ПРОСТРОЧЕНО: " + Count(len(s.overdue))))
		numbered(&d, s.overdue, func(t tasks.Task) tgui.H {
			return tgui.Concat(title(t), tgui.Esc(" ("+dueLabel(t, loc)+")"))
		})
	}

	d.Blank().Line(tgui.B("📊 ПРОГРЕС: " + strconv.Itoa(Percent(len(s.completed), len(ts))) + "%"))
	return d.String()
}

type group struct {
	name  string
	items []tasks.Task
}

func byCategory(ts []tasks.Task) []group {
	var groups []group
	index := map[string]int{}
	for _, t := range ts {
		name := t.Category
		if name == "" {
			name = NoCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, group{name: name})
		}
		groups[i].items = append(groups[i].items, t)
	}
	return groups
}

// Weekly renders the report for the week [start, end]. Overdue status is
// judged as of date.
func Weekly(ts []tasks.Task, start, end, date time.Time) string {
	ts = tasks.ByCreated(ts)
	var d tgui.Doc
	d.Line(tgui.B("📊 ТИЖНЕВИЙ ЗВІТ"))
	d.Line(tgui.B("📆 " + upper(DayMonth(start)) + " - " + upper(LongDate(end)))).Blank()

	if len(ts) == 0 {
		d.Line(tgui.Esc(emptyPeriodText)).Blank()
		d.Line(tgui.B("📈 ЗАГАЛЬНИЙ ПРОГРЕС: 0%"))
		return d.String()
	}

	s := partition(ts, date)
	loc := date.Location()

	d.Line(tgui.B("📈 ЗАГАЛЬНИЙ ПРОГРЕС: " + strconv.Itoa(Percent(len(s.completed), len(ts))) + "%"))
	d.Line(tgui.B(markCompleted + " ВИКОНАНО: " + Count(len(s.completed))))
	d.Line(tgui.B(markActive + " АКТИВНИХ: " + Count(len(s.active))))
	if len(s.overdue) > 0 {
		d.Line(tgui.B(markOverdue + " ПРОСТРОЧЕНО: " + Count(len(s.overdue))))
	}
	d.Blank().Line(tgui.B("📋 ЗАДАЧІ ЗА КАТЕГОРІЯМИ:"))

	for _, g := range byCategory(ts) {
		gs := partition(g.items, date)
		d.Blank().Line(tgui.B(markCategory + " " + upper(g.name) + " (" +
			strconv.Itoa(len(gs.completed)) + "/" + strconv.Itoa(len(g.items)) + " " + TaskWord(len(g.items)) + "):"))
		for _, t := range gs.active {
			d.Line(tgui.Concat(tgui.Raw(indent+markActive+" "), title(t), tgui.Esc(" ("+dueLabel(t, loc)+")")))
		}
		for _, t := range gs.overdue {
			d.Line(tgui.Concat(tgui.Raw(indent+markOverdue+" "), title(t), tgui.Esc(" ("+dueLabel(t, loc)+")"+overdueSuffix)))
		}
		for _, t := range gs.completed {
			d.Line(tgui.Concat(tgui.Raw(indent+markCompleted+" "), title(t)))
		}
	}
	return d.String()
}

// Test renders the connectivity check message: every task, active first,
// then at most five completed ones.
func Test(ts []tasks.Task, now time.Time) string {
	var d tgui.Doc
	d.Line(tgui.B("🧪 ТЕСТОВИЙ ЗВІТ")).Blank()
	d.Line(tgui.Esc("Це тестове повідомлення для перевірки налаштувань Telegram бота.")).Blank()
	d.Line(tgui.Concat(tgui.B("📅 Дата:"), tgui.Esc(" "+LongDate(now))))
	d.Line(tgui.Concat(tgui.B("⏰ Час:"), tgui.Esc(" "+now.Format("15:04:05")))).Blank()
	d.Line(tgui.B("📋 ВСІ ЗАДАЧІ (" + Count(len(ts)) + "):")).Blank()

	if len(ts) == 0 {
		d.Line(tgui.Esc("У вас немає жодних задач."))
	} else {
		var active, completed []tasks.Task
		for _, t := range ts {
			if t.Completed {
				completed = append(completed, t)
			} else {
				active = append(active, t)
			}
		}
		loc := now.Location()

		d.Line(tgui.B(markActive + " АКТИВНІ ЗАДАЧІ (" + Count(len(active)) + "):"))
		if len(active) == 0 {
			d.Line(tgui.Esc(indent + "Немає активних задач"))
		}
		numbered(&d, active, func(t tasks.Task) tgui.H {
			return tgui.Concat(title(t), tgui.Esc(" ("+dueLabel(t, loc)+")"))
		})

		d.Blank().Line(tgui.B(markCompleted + " ВИКОНАНІ ЗАДАЧІ (" + Count(len(completed)) + "):"))
		if len(completed) == 0 {
			d.Line(tgui.Esc(indent + "Немає виконаних задач"))
		}
		numbered(&d, completed[:min(len(completed), testCompletedN)], title)
		if rest := len(completed) - testCompletedN; rest > 0 {
			d.Line(tgui.Esc(indent + "... та ще " + Count(rest)))
		}
	}

	d.Blank().Line(tgui.B("✨ Якщо ви бачите це повідомлення, значить налаштування бота працюють коректно."))
	return d.String()
}
