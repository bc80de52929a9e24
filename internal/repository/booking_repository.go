package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

const bookingColumns = `id, course_id, exercise_id, student_id, instructor_id, slot_id, confirmed, active, noshow, booking_date`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CourseID,
		&booking.ExerciseID,
		&booking.StudentID,
		&booking.InstructorID,
		&booking.SlotID,
		&booking.Confirmed,
		&booking.Active,
		&booking.NoShow,
		&booking.BookingDate,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBooking returns the booking or nil when it does not exist.
func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// SaveBooking inserts a new booking or updates an existing one.
func (r *BookingRepository) SaveBooking(ctx context.Context, booking *model.Booking) error {
	if booking.ID == 0 {
		query := `
			INSERT INTO bookings (course_id, exercise_id, student_id, instructor_id, slot_id, confirmed, active, noshow)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, booking_date
		`

		err := r.db(ctx).QueryRow(
			ctx, query,
			booking.CourseID,
			booking.ExerciseID,
			booking.StudentID,
			booking.InstructorID,
			booking.SlotID,
			booking.Confirmed,
			booking.Active,
			booking.NoShow,
		).Scan(&booking.ID, &booking.BookingDate)

		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	}

	query := `
		UPDATE bookings
		SET confirmed = $1, active = $2, noshow = $3
		WHERE id = $4
	`

	result, err := r.db(ctx).Exec(ctx, query, booking.Confirmed, booking.Active, booking.NoShow, booking.ID)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrBookingNotFound
	}

	return nil
}

// DeleteBooking removes a booking (plain cancellation path).
func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	result, err := r.db(ctx).Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrBookingNotFound
	}

	return nil
}

// SetInactive deactivates a booking while retaining the row for history and
// no-show counting.
func (r *BookingRepository) SetInactive(ctx context.Context, id int64, noShow bool) error {
	query := `
		UPDATE bookings
		SET active = false, noshow = $1
		WHERE id = $2
	`

	result, err := r.db(ctx).Exec(ctx, query, noShow, id)
	if err != nil {
		return fmt.Errorf("set booking inactive: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrBookingNotFound
	}

	return nil
}

// ActiveBooking returns the student's current active booking, or nil.
func (r *BookingRepository) ActiveBooking(ctx context.Context, courseID, studentID int64) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE course_id = $1 AND student_id = $2 AND active
		ORDER BY booking_date DESC
		LIMIT 1
	`

	booking, err := scanBooking(r.db(ctx).QueryRow(ctx, query, courseID, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active booking: %w", err)
	}

	return booking, nil
}

// Conflict returns an active booking of the instructor or the student whose
// slot window overlaps w (closed-interval), or nil when the pairing is free.
func (r *BookingRepository) Conflict(ctx context.Context, instructorID, studentID int64, w model.TimeWindow) (*model.Booking, error) {
	query := `
		SELECT b.id, b.course_id, b.exercise_id, b.student_id, b.instructor_id, b.slot_id, b.confirmed, b.active, b.noshow, b.booking_date
		FROM bookings b
		INNER JOIN slots s ON s.id = b.slot_id
		WHERE (b.instructor_id = $1 OR b.student_id = $2)
		  AND b.active
		  AND s.start_time <= $4 AND $3 <= s.end_time
		LIMIT 1
	`

	booking, err := scanBooking(r.db(ctx).QueryRow(ctx, query, instructorID, studentID, w.Start, w.End))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking conflict: %w", err)
	}

	return booking, nil
}

// NoShowBookings returns the student's no-show bookings with their slots
// attached, earliest session first.
func (r *BookingRepository) NoShowBookings(ctx context.Context, courseID, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT b.id, b.course_id, b.exercise_id, b.student_id, b.instructor_id, b.slot_id, b.confirmed, b.active, b.noshow, b.booking_date,
		       s.id, s.student_id, s.course_id, s.start_time, s.end_time, s.year, s.week, s.booked, s.booking_id, s.created_at
		FROM bookings b
		INNER JOIN slots s ON s.id = b.slot_id
		WHERE b.course_id = $1 AND b.student_id = $2 AND b.noshow
		ORDER BY s.start_time
	`

	rows, err := r.db(ctx).Query(ctx, query, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get no-show bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		var slot model.Slot
		err := rows.Scan(
			&booking.ID,
			&booking.CourseID,
			&booking.ExerciseID,
			&booking.StudentID,
			&booking.InstructorID,
			&booking.SlotID,
			&booking.Confirmed,
			&booking.Active,
			&booking.NoShow,
			&booking.BookingDate,
			&slot.ID,
			&slot.StudentID,
			&slot.CourseID,
			&slot.Window.Start,
			&slot.Window.End,
			&slot.Year,
			&slot.Week,
			&slot.Booked,
			&slot.BookingID,
			&slot.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan no-show booking: %w", err)
		}
		booking.Slot = &slot
		bookings = append(bookings, &booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate no-show bookings: %w", err)
	}

	return bookings, nil
}

// LastSessionDate is the start of the student's most recent conducted
// (inactive, non-no-show) session, or nil when none remain.
func (r *BookingRepository) LastSessionDate(ctx context.Context, courseID, studentID int64) (*time.Time, error) {
	query := `
		SELECT max(s.start_time)
		FROM bookings b
		INNER JOIN slots s ON s.id = b.slot_id
		WHERE b.course_id = $1 AND b.student_id = $2 AND NOT b.active AND NOT b.noshow
	`

	var last *time.Time
	if err := r.db(ctx).QueryRow(ctx, query, courseID, studentID).Scan(&last); err != nil {
		return nil, fmt.Errorf("get last session date: %w", err)
	}

	return last, nil
}
