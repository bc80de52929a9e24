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

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

const slotColumns = `id, student_id, course_id, start_time, end_time, year, week, booked, booking_id, created_at`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
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
		return nil, err
	}
	return &slot, nil
}

// SaveSlot inserts a posted slot and fills its id.
func (r *SlotRepository) SaveSlot(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (student_id, course_id, start_time, end_time, year, week, booked)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id, created_at
	`

	err := r.db(ctx).QueryRow(
		ctx, query,
		slot.StudentID,
		slot.CourseID,
		slot.Window.Start,
		slot.Window.End,
		slot.Year,
		slot.Week,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}

	return nil
}

// GetSlot returns the slot or nil when it does not exist.
func (r *SlotRepository) GetSlot(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.db(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// WeekSlots returns every student's slots for the week in stable posting
// order (student, then insertion), which keeps lane packing deterministic.
func (r *SlotRepository) WeekSlots(ctx context.Context, courseID int64, year, week int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE course_id = $1 AND year = $2 AND week = $3
		ORDER BY student_id, start_time, id
	`

	rows, err := r.db(ctx).Query(ctx, query, courseID, year, week)
	if err != nil {
		return nil, fmt.Errorf("get week slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// FuturePosts returns the student's unbooked slots still ending after the
// given instant.
func (r *SlotRepository) FuturePosts(ctx context.Context, courseID, studentID int64, after time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE course_id = $1 AND student_id = $2 AND NOT booked AND end_time > $3
		ORDER BY start_time, id
	`

	rows, err := r.db(ctx).Query(ctx, query, courseID, studentID, after)
	if err != nil {
		return nil, fmt.Errorf("get future posts: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// MarkBooked flags the slot as consumed by a booking. The row is kept so
// session history survives week re-posting.
func (r *SlotRepository) MarkBooked(ctx context.Context, slotID, bookingID int64) error {
	query := `
		UPDATE slots
		SET booked = true, booking_id = $1
		WHERE id = $2 AND NOT booked
	`

	result, err := r.db(ctx).Exec(ctx, query, bookingID, slotID)
	if err != nil {
		return fmt.Errorf("mark slot booked: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrSlotUnavailable
	}

	return nil
}

// DeleteSlot removes a slot outright (plain booking cancellation).
func (r *SlotRepository) DeleteSlot(ctx context.Context, slotID int64) error {
	result, err := r.db(ctx).Exec(ctx, `DELETE FROM slots WHERE id = $1`, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}

// DeletePosted removes the student's unbooked slots. Zero year and week mean
// every week.
func (r *SlotRepository) DeletePosted(ctx context.Context, courseID, studentID int64, year, week int) error {
	query := `
		DELETE FROM slots
		WHERE course_id = $1 AND student_id = $2 AND NOT booked
		  AND ($3 = 0 OR year = $3)
		  AND ($4 = 0 OR week = $4)
	`

	if _, err := r.db(ctx).Exec(ctx, query, courseID, studentID, year, week); err != nil {
		return fmt.Errorf("delete posted slots: %w", err)
	}

	return nil
}

func collectSlots(rows pgx.Rows) ([]*model.Slot, error) {
	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}
