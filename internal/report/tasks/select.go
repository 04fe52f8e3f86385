package tasks

import "time"

// SelectDaily picks the tasks for day's report: tasks due that day, then
// active tasks due earlier, then active tasks without a usable due date.
// Input order is kept within each group.
func SelectDaily(all []Task, day time.Time) []Task {
	d := Day(day)
	return selectRange(all, d, d)
}

// SelectWeekly picks the tasks for the week [start, end]: tasks due in the
// week, then active tasks due before start, then active undated tasks.
func SelectWeekly(all []Task, start, end time.Time) []Task {
	return selectRange(all, Day(start), Day(end.In(start.Location())))
}

func selectRange(all []Task, first, last time.Time) []Task {
	loc := first.Location()
	var inRange, overdue, undated []Task
	for _, t := range all {
		due, ok := t.Due(loc)
		switch {
		case !ok:
			if !t.Completed {
				undated = append(undated, t)
			}
		case !due.Before(first) && !due.After(last):
			inRange = append(inRange, t)
		case due.Before(first) && !t.Completed:
			overdue = append(overdue, t)
		}
	}
	out := make([]Task, 0, len(inRange)+len(overdue)+len(undated))
	out = append(out, inRange...)
	out = append(out, overdue...)
	return append(out, undated...)
}
