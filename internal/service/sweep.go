package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bavirtual/session-booking/internal/model"
	"go.uber.org/zap"
)

// Sweep is the daily batch over every subscribed course: student lifecycle
// restrictions, no-show reinstatement, instructor overdue reminders, and
// flag-driven pending notifications. Students are processed sequentially and
// a single failing record never aborts the rest of the batch.
type Sweep struct {
	courses     CourseStore
	students    StudentStore
	instructors InstructorStore
	lifecycle   *Lifecycle
	notifier    Notifier
	logger      *zap.Logger
}

func NewSweep(
	courses CourseStore,
	students StudentStore,
	instructors InstructorStore,
	lifecycle *Lifecycle,
	notifier Notifier,
	logger *zap.Logger,
) *Sweep {
	return &Sweep{
		courses:     courses,
		students:    students,
		instructors: instructors,
		lifecycle:   lifecycle,
		notifier:    notifier,
		logger:      logger,
	}
}

// Execute runs one full sweep. Only listing the courses can fail the run;
// everything below that is isolated per course and per record.
func (s *Sweep) Execute(ctx context.Context) error {
	courses, err := s.courses.Subscribed(ctx)
	if err != nil {
		return fmt.Errorf("list subscribed courses: %w", err)
	}

	for _, course := range courses {
		s.sweepCourse(ctx, course)
	}
	return nil
}

func (s *Sweep) sweepCourse(ctx context.Context, course *model.Course) {
	cfg := course.Restrictions
	s.logger.Info("Sweeping course",
		zap.Int64("course_id", course.ID),
		zap.String("shortname", course.Shortname),
		zap.Bool("restrictions_enabled", cfg.Enabled()),
	)

	seniors, err := s.instructors.SeniorInstructors(ctx, course.ID)
	if err != nil {
		s.logger.Error("Failed to load senior instructors",
			zap.Int64("course_id", course.ID), zap.Error(err))
		seniors = nil
	}

	evaluated, failed := 0, 0
	if cfg.StudentRestrictionsEnabled() {
		students, err := s.students.ActiveStudents(ctx, course.ID)
		if err != nil {
			s.logger.Error("Failed to load students",
				zap.Int64("course_id", course.ID), zap.Error(err))
		} else {
			for _, student := range students {
				if err := s.lifecycle.EvaluateStudent(ctx, course, student, seniors); err != nil {
					s.logger.Error("Student evaluation failed",
						zap.Int64("student_id", student.ID),
						zap.Int64("course_id", course.ID),
						zap.Error(err))
					failed++
					continue
				}
				evaluated++
			}
		}
	}

	reinstated, err := s.lifecycle.ReinstateNoShows(ctx, course, seniors)
	if err != nil {
		s.logger.Error("No-show reinstatement pass failed",
			zap.Int64("course_id", course.ID), zap.Error(err))
	}

	notified := 0
	if cfg.InstructorOverduePeriodDays > 0 {
		instructors, err := s.instructors.Instructors(ctx, course.ID)
		if err != nil {
			s.logger.Error("Failed to load instructors",
				zap.Int64("course_id", course.ID), zap.Error(err))
		} else {
			for _, instructor := range instructors {
				if err := s.lifecycle.EvaluateInstructor(ctx, course, instructor, seniors); err != nil {
					s.logger.Error("Instructor evaluation failed",
						zap.Int64("instructor_id", instructor.ID),
						zap.Error(err))
					continue
				}
				notified++
			}
		}
	}

	pending := s.processPendingNotifications(ctx, course)

	s.logger.Info("Course sweep complete",
		zap.Int64("course_id", course.ID),
		zap.Int("students_evaluated", evaluated),
		zap.Int("students_failed", failed),
		zap.Int("noshow_reinstated", reinstated),
		zap.Int("instructors_checked", notified),
		zap.Int("pending_notifications", pending),
	)
}

// processPendingNotifications drains the flag-driven one-shots: availability
// postings owed to instructors and graduation announcements. Each flag is
// cleared only after its notification is enqueued. Graduated students are
// included: graduation is terminal, so their flag would otherwise never drain.
func (s *Sweep) processPendingNotifications(ctx context.Context, course *model.Course) int {
	students, err := s.students.ActiveStudents(ctx, course.ID)
	if err != nil {
		s.logger.Error("Failed to load students for pending notifications",
			zap.Int64("course_id", course.ID), zap.Error(err))
		return 0
	}
	graduated, err := s.students.GraduatedStudents(ctx, course.ID)
	if err != nil {
		s.logger.Error("Failed to load graduated students for pending notifications",
			zap.Int64("course_id", course.ID), zap.Error(err))
	} else {
		students = append(students, graduated...)
	}

	instructors, err := s.instructors.Instructors(ctx, course.ID)
	if err != nil {
		s.logger.Error("Failed to load instructors for pending notifications",
			zap.Int64("course_id", course.ID), zap.Error(err))
		instructors = nil
	}

	sent := 0
	for _, student := range students {
		if posted, ok := student.Flag(model.FlagNotifyPostedSlots); ok && posted != "" {
			slotIDs := parseSlotIDs(posted)
			if len(slotIDs) > 0 {
				if err := s.notifier.SendPostedSlotsNotification(ctx, course, student, slotIDs, instructors); err != nil {
					s.logger.Error("Posted-slots notification failed",
						zap.Int64("student_id", student.ID), zap.Error(err))
					continue
				}
				sent++
			}
			if err := s.students.ClearProgressFlag(ctx, course.ID, student.ID, model.FlagNotifyPostedSlots); err != nil {
				s.logger.Error("Failed to clear posted-slots flag",
					zap.Int64("student_id", student.ID), zap.Error(err))
			}
		}

		if _, ok := student.Flag(model.FlagNotifyGraduation); ok {
			seniors, _ := s.instructors.SeniorInstructors(ctx, course.ID)
			if err := s.notifier.SendGraduationNotification(ctx, course, student, seniors); err != nil {
				s.logger.Error("Graduation notification failed",
					zap.Int64("student_id", student.ID), zap.Error(err))
				continue
			}
			sent++
			if err := s.students.ClearProgressFlag(ctx, course.ID, student.ID, model.FlagNotifyGraduation); err != nil {
				s.logger.Error("Failed to clear graduation flag",
					zap.Int64("student_id", student.ID), zap.Error(err))
			}
		}
	}
	return sent
}

// parseSlotIDs splits the comma-joined slot id list stored in the
// notifypostedslots flag, skipping anything malformed.
func parseSlotIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
