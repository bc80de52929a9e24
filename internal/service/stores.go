package service

import (
	"context"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

// Course group names the lifecycle engine manages membership in.
const (
	OnHoldGroup     = "onhold"
	KeepActiveGroup = "keepactive"
)

// Store contracts the services depend on. The pgx repositories in
// internal/repository satisfy them; tests run against in-memory fakes.

type CourseStore interface {
	// Subscribed returns every course using session booking.
	Subscribed(ctx context.Context) ([]*model.Course, error)
}

type StudentStore interface {
	ActiveStudents(ctx context.Context, courseID int64) ([]*model.Student, error)
	SuspendedStudents(ctx context.Context, courseID int64) ([]*model.Student, error)
	// GraduatedStudents still matter to the sweep: their pending graduation
	// flag is drained after the terminal status change.
	GraduatedStudents(ctx context.Context, courseID int64) ([]*model.Student, error)
	SetStatus(ctx context.Context, courseID, studentID int64, status model.StudentStatus) error
	ProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) (string, bool, error)
	SetProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag, value string) error
	ClearProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) error
	// UpdateLastSession refreshes the recency datum after a booking is
	// cancelled or deactivated. nil clears it.
	UpdateLastSession(ctx context.Context, courseID, studentID int64, last *time.Time) error
}

type InstructorStore interface {
	Instructors(ctx context.Context, courseID int64) ([]*model.Instructor, error)
	SeniorInstructors(ctx context.Context, courseID int64) ([]*model.Instructor, error)
}

type SlotStore interface {
	GetSlot(ctx context.Context, id int64) (*model.Slot, error)
	// WeekSlots returns every student's slots for the week in stable posting
	// order, so lane packing is deterministic.
	WeekSlots(ctx context.Context, courseID int64, year, week int) ([]*model.Slot, error)
	// FuturePosts returns the student's unbooked slots ending after the given
	// instant.
	FuturePosts(ctx context.Context, courseID, studentID int64, after time.Time) ([]*model.Slot, error)
	SaveSlot(ctx context.Context, slot *model.Slot) error
	MarkBooked(ctx context.Context, slotID, bookingID int64) error
	DeleteSlot(ctx context.Context, slotID int64) error
	// DeletePosted removes the student's unbooked slots. Zero year and week
	// mean all weeks.
	DeletePosted(ctx context.Context, courseID, studentID int64, year, week int) error
}

type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	SaveBooking(ctx context.Context, booking *model.Booking) error
	DeleteBooking(ctx context.Context, id int64) error
	SetInactive(ctx context.Context, id int64, noShow bool) error
	ActiveBooking(ctx context.Context, courseID, studentID int64) (*model.Booking, error)
	// Conflict returns an active booking of the instructor whose window
	// overlaps w, or nil.
	Conflict(ctx context.Context, instructorID, studentID int64, w model.TimeWindow) (*model.Booking, error)
	// NoShowBookings returns the student's no-show bookings with slots
	// attached, earliest slot first.
	NoShowBookings(ctx context.Context, courseID, studentID int64) ([]*model.Booking, error)
	// LastSessionDate is the start of the student's most recent inactive
	// (conducted) booking, or nil.
	LastSessionDate(ctx context.Context, courseID, studentID int64) (*time.Time, error)
}

// GroupStore manages course group membership. AddMember is idempotent:
// adding an existing member is a no-op.
type GroupStore interface {
	AddMember(ctx context.Context, courseID int64, group string, userID int64) error
	IsMember(ctx context.Context, courseID int64, group string, userID int64) (bool, error)
}

// EnrolmentStore suspends or reinstates a course enrolment. Idempotent.
type EnrolmentStore interface {
	SetSuspended(ctx context.Context, userID, courseID int64, suspended bool) error
}

// NotificationStore persists outbox rows; delivery is external.
type NotificationStore interface {
	Enqueue(ctx context.Context, n *model.Notification) error
}

// TxRunner executes fn atomically. Store calls made with the ctx passed to fn
// join the transaction; any error rolls the whole unit back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
