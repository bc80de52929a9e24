package service

import (
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

// ActivityClock computes a student's wait anchor and elapsed calendar days in
// the course timezone. All restriction comparisons go through whole local
// days, never raw instants, so deadlines cannot flip across midnight.
type ActivityClock struct {
	loc *time.Location
}

func NewActivityClock(loc *time.Location) *ActivityClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityClock{loc: loc}
}

// WaitAnchor is the date restriction deadlines count from: the last completed
// session, else the last graded date, else the enrolment date.
func (c *ActivityClock) WaitAnchor(student *model.Student) time.Time {
	switch {
	case student.LastSessionDate != nil && !student.LastSessionDate.IsZero():
		return *student.LastSessionDate
	case student.LastGradedDate != nil && !student.LastGradedDate.IsZero():
		return *student.LastGradedDate
	default:
		return student.EnrolDate
	}
}

// RecencyDays is the whole-day difference between the wait anchor and now.
// Anchors in the future (clock skew, bad imports) clamp to zero.
func (c *ActivityClock) RecencyDays(student *model.Student, now time.Time) int {
	days := c.DaysBetween(c.WaitAnchor(student), now)
	if days < 0 {
		return 0
	}
	return days
}

// DaysBetween counts course-local calendar days from a to b.
func (c *ActivityClock) DaysBetween(a, b time.Time) int {
	return int(c.DayOf(b).Sub(c.DayOf(a)).Hours() / 24)
}

// DayOf truncates t to midnight of its course-local day.
func (c *ActivityClock) DayOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// SameDay reports whether two instants share one course-local calendar day.
func (c *ActivityClock) SameDay(a, b time.Time) bool {
	return c.DayOf(a).Equal(c.DayOf(b))
}
