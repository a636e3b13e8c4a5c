package lending

import "time"

// DaysOverdue is the number of whole calendar days a due date has been
// missed as of now. Zero when the due date is today or later. Only the
// dates take part, so the result is stable for any time of day.
func DaysOverdue(now, due time.Time) int {
	n := dateOnly(now)
	d := dateOnly(due)
	days := int(n.Sub(d).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return days
}

// Penalty is the linear overdue fee: baseRate per whole day late.
func Penalty(now, due time.Time, baseRate int64) int64 {
	return baseRate * int64(DaysOverdue(now, due))
}

// IsOverdue reports whether an unreturned loan with this due date is late.
func IsOverdue(now, due time.Time) bool {
	return DaysOverdue(now, due) > 0
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
