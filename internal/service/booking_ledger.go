package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"go.uber.org/zap"
)

// BookingLedger records and cancels confirmed student/instructor pairings.
// Booking creation and its slot purge run in one transaction: a booking must
// never be persisted while the student's stray postings survive.
type BookingLedger struct {
	tx       TxRunner
	slots    SlotStore
	bookings BookingStore
	students StudentStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingLedger(tx TxRunner, slots SlotStore, bookings BookingStore, students StudentStore, logger *zap.Logger) *BookingLedger {
	return &BookingLedger{
		tx:       tx,
		slots:    slots,
		bookings: bookings,
		students: students,
		logger:   logger,
		now:      time.Now,
	}
}

// Book pairs the slot with the instructor. Rejected with ErrBookingConflict
// when the instructor already holds an overlapping active booking; the slot
// is marked booked (not deleted) and the student's other unbooked postings
// for that week are purged atomically.
func (l *BookingLedger) Book(ctx context.Context, instructorID, studentID, exerciseID, slotID int64) (*model.Booking, error) {
	slot, err := l.slots.GetSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, model.ErrSlotNotFound
	}
	if slot.Booked {
		return nil, model.ErrSlotUnavailable
	}
	if slot.Window.Start.Before(l.now()) {
		return nil, model.ErrSlotUnavailable
	}

	conflict, err := l.bookings.Conflict(ctx, instructorID, studentID, slot.Window)
	if err != nil {
		return nil, fmt.Errorf("check booking conflict: %w", err)
	}
	if conflict != nil {
		return nil, model.ErrBookingConflict
	}

	booking := &model.Booking{
		CourseID:     slot.CourseID,
		ExerciseID:   exerciseID,
		StudentID:    studentID,
		InstructorID: instructorID,
		SlotID:       slotID,
		Active:       true,
	}

	err = l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := l.bookings.SaveBooking(ctx, booking); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		if err := l.slots.MarkBooked(ctx, slotID, booking.ID); err != nil {
			return fmt.Errorf("mark slot booked: %w", err)
		}
		// the student may not keep stray postings once booked
		if err := l.slots.DeletePosted(ctx, slot.CourseID, studentID, slot.Year, slot.Week); err != nil {
			return fmt.Errorf("purge posted slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slot.Booked = true
	slot.BookingID = &booking.ID
	booking.Slot = slot

	l.logger.Info("Session booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("instructor_id", instructorID),
		zap.Int64("student_id", studentID),
		zap.Int64("slot_id", slotID),
		zap.Time("start", slot.Window.Start),
	)
	return booking, nil
}

// Confirm marks the booking confirmed by the student.
func (l *BookingLedger) Confirm(ctx context.Context, bookingID, studentID int64) error {
	booking, err := l.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return model.ErrBookingNotFound
	}
	if booking.StudentID != studentID {
		return fmt.Errorf("booking %d does not belong to student %d", bookingID, studentID)
	}
	booking.Confirmed = true
	if err := l.bookings.SaveBooking(ctx, booking); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	l.logger.Info("Booking confirmed",
		zap.Int64("booking_id", bookingID),
		zap.Int64("student_id", studentID),
	)
	return nil
}

// Cancel ends a booking. A no-show deactivates and retains the booking (it
// feeds the reinstatement counter) and drops the student's posted slots; a
// plain cancellation deletes the booking and its slot. Either way the
// student's last-session datum is recomputed from the remaining history.
func (l *BookingLedger) Cancel(ctx context.Context, bookingID int64, noShow bool) error {
	booking, err := l.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return model.ErrBookingNotFound
	}

	err = l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if noShow {
			if err := l.bookings.SetInactive(ctx, bookingID, true); err != nil {
				return fmt.Errorf("deactivate booking: %w", err)
			}
			if err := l.slots.DeletePosted(ctx, booking.CourseID, booking.StudentID, 0, 0); err != nil {
				return fmt.Errorf("purge posted slots: %w", err)
			}
			return nil
		}
		if err := l.bookings.DeleteBooking(ctx, bookingID); err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}
		if err := l.slots.DeleteSlot(ctx, booking.SlotID); err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	last, err := l.bookings.LastSessionDate(ctx, booking.CourseID, booking.StudentID)
	if err != nil {
		return fmt.Errorf("recompute last session date: %w", err)
	}
	if err := l.students.UpdateLastSession(ctx, booking.CourseID, booking.StudentID, last); err != nil {
		return fmt.Errorf("update last session date: %w", err)
	}

	l.logger.Info("Booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("student_id", booking.StudentID),
		zap.Bool("no_show", noShow),
	)
	return nil
}

// Complete deactivates a conducted booking, retaining it for history, and
// stamps the student's last session date with the session start.
func (l *BookingLedger) Complete(ctx context.Context, bookingID int64) error {
	booking, err := l.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return model.ErrBookingNotFound
	}

	err = l.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := l.bookings.SetInactive(ctx, bookingID, false); err != nil {
			return fmt.Errorf("deactivate booking: %w", err)
		}
		if err := l.slots.DeletePosted(ctx, booking.CourseID, booking.StudentID, 0, 0); err != nil {
			return fmt.Errorf("purge posted slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	last, err := l.bookings.LastSessionDate(ctx, booking.CourseID, booking.StudentID)
	if err != nil {
		return fmt.Errorf("recompute last session date: %w", err)
	}
	if err := l.students.UpdateLastSession(ctx, booking.CourseID, booking.StudentID, last); err != nil {
		return fmt.Errorf("update last session date: %w", err)
	}

	l.logger.Info("Booking completed",
		zap.Int64("booking_id", bookingID),
		zap.Int64("student_id", booking.StudentID),
	)
	return nil
}
