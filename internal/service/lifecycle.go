package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"go.uber.org/zap"
)

// Lifecycle evaluates one student or instructor against the restriction
// policy and the current date, performs due transitions, and enqueues
// notifications. Group and enrolment collaborator calls are idempotent, so a
// transition evaluated twice settles in the same state.
type Lifecycle struct {
	policy   RestrictionPolicy
	students StudentStore
	slots    SlotStore
	bookings BookingStore
	groups   GroupStore
	enrol    EnrolmentStore
	notifier Notifier
	gate     *NotificationGate
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycle(
	students StudentStore,
	slots SlotStore,
	bookings BookingStore,
	groups GroupStore,
	enrol EnrolmentStore,
	notifier Notifier,
	logger *zap.Logger,
) *Lifecycle {
	return &Lifecycle{
		students: students,
		slots:    slots,
		bookings: bookings,
		groups:   groups,
		enrol:    enrol,
		notifier: notifier,
		gate:     NewNotificationGate(students),
		logger:   logger,
		now:      time.Now,
	}
}

// standing captures the keep-active conditions loaded once per evaluation.
type standing struct {
	activePosts int
	validPosts  int
	booked      bool
}

// EvaluateStudent runs one sweep tick for a single student.
//
// Already on-hold students only face the suspension check: on-hold entry is
// one-way and never re-evaluated. Everyone else is checked for the on-hold
// warning (exact day, gated), on-hold placement (date passed), and the
// posting-overdue inactivity warning (exact day, gated).
func (l *Lifecycle) EvaluateStudent(ctx context.Context, course *model.Course, student *model.Student, seniors []*model.Instructor) error {
	now := l.now()
	clock := NewActivityClock(course.Location())
	anchor := clock.WaitAnchor(student)
	deadlines := l.policy.Evaluate(course.Restrictions, anchor)

	if student.IsOnHold() {
		return l.evaluateSuspension(ctx, course, student, anchor, deadlines, now, seniors)
	}
	if student.IsSuspended() || student.IsGraduated() {
		return nil
	}

	st, err := l.loadStanding(ctx, course, student, anchor, now)
	if err != nil {
		return err
	}
	kept, err := l.keptActive(ctx, course, student)
	if err != nil {
		return err
	}
	exempt := kept || student.HasRestrictionWaiver()

	l.logger.Debug("Evaluating student",
		zap.Int64("student_id", student.ID),
		zap.Int64("course_id", course.ID),
		zap.Time("wait_anchor", anchor),
		zap.Int("recency_days", clock.RecencyDays(student, now)),
		zap.Bool("exempt", exempt),
		zap.Int("active_posts", st.activePosts),
		zap.Int("valid_posts", st.validPosts),
		zap.Bool("booked", st.booked),
	)

	// ON-HOLD WARNING: fires on the exact warning day, once.
	if !deadlines.OnHoldWarning.IsZero() && clock.SameDay(now, deadlines.OnHoldWarning) &&
		!exempt && st.activePosts == 0 && !st.booked &&
		!l.gate.Fired(student, model.FlagOnHoldWarningSent, now) {
		if err := l.notifier.SendOnholdWarning(ctx, course, student, deadlines.OnHold); err != nil {
			return err
		}
		if err := l.gate.MarkFired(ctx, student, model.FlagOnHoldWarningSent, now); err != nil {
			return err
		}
		l.logger.Info("On-hold warning sent",
			zap.Int64("student_id", student.ID),
			zap.Time("onhold_date", deadlines.OnHold),
		)
	}

	// ON-HOLD PLACEMENT: once the date has passed and no keep-active
	// condition holds.
	if !deadlines.OnHold.IsZero() && !clock.DayOf(deadlines.OnHold).After(clock.DayOf(now)) &&
		!exempt && st.validPosts == 0 && !st.booked {
		if err := l.placeOnHold(ctx, course, student, anchor, deadlines, seniors); err != nil {
			return err
		}
		return nil
	}

	// POSTING OVERDUE WARNING: independent inactivity nudge on its exact day.
	inActiveStandings := student.LessonsComplete && st.activePosts > 0
	if !deadlines.PostingOverdueWarning.IsZero() && clock.SameDay(now, deadlines.PostingOverdueWarning) &&
		!inActiveStandings && !st.booked &&
		!l.gate.Fired(student, model.FlagInactiveWarningSent, now) {
		if err := l.notifier.SendInactiveWarning(ctx, course, student, student.LastSessionDate, deadlines.OnHold); err != nil {
			return err
		}
		if err := l.gate.MarkFired(ctx, student, model.FlagInactiveWarningSent, now); err != nil {
			return err
		}
		l.logger.Info("Inactivity warning sent", zap.Int64("student_id", student.ID))
	}

	return nil
}

func (l *Lifecycle) placeOnHold(ctx context.Context, course *model.Course, student *model.Student, anchor time.Time, deadlines Deadlines, seniors []*model.Instructor) error {
	if err := l.groups.AddMember(ctx, course.ID, OnHoldGroup, student.ID); err != nil {
		return fmt.Errorf("add student to on-hold group: %w", err)
	}
	if err := l.students.SetStatus(ctx, course.ID, student.ID, model.StudentStatusOnHold); err != nil {
		return fmt.Errorf("set on-hold status: %w", err)
	}
	student.Status = model.StudentStatusOnHold

	// state change is committed; a failed notification is not rolled back
	if err := l.notifier.SendOnholdNotification(ctx, course, student, anchor, deadlines.Suspend, seniors); err != nil {
		l.logger.Error("On-hold placed but notification failed",
			zap.Int64("student_id", student.ID), zap.Error(err))
		return nil
	}
	l.logger.Info("Student placed on-hold",
		zap.Int64("student_id", student.ID),
		zap.Int64("course_id", course.ID),
		zap.Time("wait_anchor", anchor),
	)
	return nil
}

func (l *Lifecycle) evaluateSuspension(ctx context.Context, course *model.Course, student *model.Student, anchor time.Time, deadlines Deadlines, now time.Time, seniors []*model.Instructor) error {
	clock := NewActivityClock(course.Location())
	if deadlines.Suspend.IsZero() || clock.DayOf(deadlines.Suspend).After(clock.DayOf(now)) {
		return nil
	}
	kept, err := l.keptActive(ctx, course, student)
	if err != nil || kept {
		return err
	}

	if err := l.enrol.SetSuspended(ctx, student.ID, course.ID, true); err != nil {
		return fmt.Errorf("suspend enrolment: %w", err)
	}
	if err := l.students.SetStatus(ctx, course.ID, student.ID, model.StudentStatusSuspended); err != nil {
		return fmt.Errorf("set suspended status: %w", err)
	}
	student.Status = model.StudentStatusSuspended

	if err := l.notifier.SendSuspensionNotification(ctx, course, student, anchor, seniors); err != nil {
		l.logger.Error("Suspended but notification failed",
			zap.Int64("student_id", student.ID), zap.Error(err))
		return nil
	}
	l.logger.Info("Student suspended",
		zap.Int64("student_id", student.ID),
		zap.Int64("course_id", course.ID),
		zap.Time("suspend_date", deadlines.Suspend),
	)
	return nil
}

// EvaluateInstructor sends the periodic session-overdue reminder. Unlike the
// student warnings this is not one-shot: it repeats every time the days since
// the last booked session hit an exact multiple of the overdue period.
func (l *Lifecycle) EvaluateInstructor(ctx context.Context, course *model.Course, instructor *model.Instructor, seniors []*model.Instructor) error {
	period := course.Restrictions.InstructorOverduePeriodDays
	if period <= 0 {
		return nil
	}
	if instructor.LastBookedDate == nil || instructor.LastBookedDate.IsZero() {
		l.logger.Debug("Instructor has no booked session on record",
			zap.Int64("instructor_id", instructor.ID))
		return nil
	}

	clock := NewActivityClock(course.Location())
	days := clock.DaysBetween(*instructor.LastBookedDate, l.now())
	if days < period || days%period != 0 {
		return nil
	}

	retry := days / period
	if err := l.notifier.SendSessionOverdueNotification(ctx, course, instructor, *instructor.LastBookedDate, retry, seniors); err != nil {
		return err
	}
	l.logger.Info("Instructor overdue notification sent",
		zap.Int64("instructor_id", instructor.ID),
		zap.Int("days_since_last", days),
		zap.Int("retry", retry),
	)
	return nil
}

// ReinstateNoShows reactivates suspended students with exactly two no-show
// bookings once the fixed no-show suspension period has elapsed since the
// first no-show. Per-student failures are logged and do not stop the batch.
func (l *Lifecycle) ReinstateNoShows(ctx context.Context, course *model.Course, seniors []*model.Instructor) (int, error) {
	students, err := l.students.SuspendedStudents(ctx, course.ID)
	if err != nil {
		return 0, fmt.Errorf("load suspended students: %w", err)
	}

	reinstated := 0
	for _, student := range students {
		ok, err := l.reinstateNoShow(ctx, course, student, seniors)
		if err != nil {
			l.logger.Error("No-show reinstatement failed",
				zap.Int64("student_id", student.ID), zap.Error(err))
			continue
		}
		if ok {
			reinstated++
		}
	}
	return reinstated, nil
}

func (l *Lifecycle) reinstateNoShow(ctx context.Context, course *model.Course, student *model.Student, seniors []*model.Instructor) (bool, error) {
	noshows, err := l.bookings.NoShowBookings(ctx, course.ID, student.ID)
	if err != nil {
		return false, fmt.Errorf("load no-show bookings: %w", err)
	}
	if len(noshows) != NoShowSuspensionCount {
		return false, nil
	}

	first := noshows[0]
	if first.Slot == nil {
		return false, fmt.Errorf("no-show booking %d has no slot attached", first.ID)
	}
	suspendedUntil := first.Slot.Window.Start.AddDate(0, 0, NoShowSuspensionDays)
	if suspendedUntil.After(l.now()) {
		return false, nil
	}

	if err := l.enrol.SetSuspended(ctx, student.ID, course.ID, false); err != nil {
		return false, fmt.Errorf("reinstate enrolment: %w", err)
	}
	if err := l.students.SetStatus(ctx, course.ID, student.ID, model.StudentStatusActive); err != nil {
		return false, fmt.Errorf("set active status: %w", err)
	}
	student.Status = model.StudentStatusActive

	if err := l.notifier.SendNoshowReinstatementNotification(ctx, course, student, first.ExerciseID, seniors); err != nil {
		l.logger.Error("Reinstated but notification failed",
			zap.Int64("student_id", student.ID), zap.Error(err))
		return true, nil
	}
	l.logger.Info("No-show student reinstated",
		zap.Int64("student_id", student.ID),
		zap.Int64("course_id", course.ID),
	)
	return true, nil
}

// keptActive checks the explicit keep-active override, either preloaded on
// the record or held through keep-active group membership.
func (l *Lifecycle) keptActive(ctx context.Context, course *model.Course, student *model.Student) (bool, error) {
	if student.KeepActive {
		return true, nil
	}
	kept, err := l.groups.IsMember(ctx, course.ID, KeepActiveGroup, student.ID)
	if err != nil {
		return false, fmt.Errorf("check keep-active membership: %w", err)
	}
	return kept, nil
}

// loadStanding gathers the keep-active inputs: future unbooked posts, posts
// still valid past the posting wait, and whether an active booking exists.
func (l *Lifecycle) loadStanding(ctx context.Context, course *model.Course, student *model.Student, anchor, now time.Time) (standing, error) {
	var st standing

	posts, err := l.slots.FuturePosts(ctx, course.ID, student.ID, now)
	if err != nil {
		return st, fmt.Errorf("load future posts: %w", err)
	}
	st.activePosts = len(posts)

	// a post counts as valid only if it lies beyond the next allowed session
	minStart := anchor.AddDate(0, 0, course.Restrictions.PostingWaitDays)
	for _, post := range posts {
		if !post.Window.Start.Before(minStart) {
			st.validPosts++
		}
	}

	booking, err := l.bookings.ActiveBooking(ctx, course.ID, student.ID)
	if err != nil {
		return st, fmt.Errorf("load active booking: %w", err)
	}
	st.booked = booking != nil

	return st, nil
}
