package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

const gateDayLayout = "2006-01-02"

// NotificationGate records which one-shot warnings already fired, keyed by
// the course-local day, through persisted progress flags. The daily sweep can
// therefore be re-run without double-sending exact-day warnings.
type NotificationGate struct {
	students StudentStore
}

func NewNotificationGate(students StudentStore) *NotificationGate {
	return &NotificationGate{students: students}
}

// Fired reports whether the warning behind flag already went out on the given
// course-local day.
func (g *NotificationGate) Fired(student *model.Student, flag model.ProgressFlag, day time.Time) bool {
	v, ok := student.Flag(flag)
	return ok && v == day.Format(gateDayLayout)
}

// MarkFired persists the fired-day marker and mirrors it onto the in-memory
// student so repeated checks within one sweep see it too.
func (g *NotificationGate) MarkFired(ctx context.Context, student *model.Student, flag model.ProgressFlag, day time.Time) error {
	value := day.Format(gateDayLayout)
	if err := g.students.SetProgressFlag(ctx, student.CourseID, student.ID, flag, value); err != nil {
		return fmt.Errorf("mark %s fired: %w", flag, err)
	}
	student.SetFlag(flag, value)
	return nil
}
