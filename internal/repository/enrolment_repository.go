package repository

import (
	"context"
	"fmt"

	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EnrolmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrolmentRepository(pool *pgxpool.Pool) *EnrolmentRepository {
	return &EnrolmentRepository{pool: pool}
}

func (r *EnrolmentRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

// SetSuspended flips the enrolment's suspended flag. Idempotent: the row is
// created on first use.
func (r *EnrolmentRepository) SetSuspended(ctx context.Context, userID, courseID int64, suspended bool) error {
	query := `
		INSERT INTO enrolments (user_id, course_id, suspended)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO UPDATE SET suspended = EXCLUDED.suspended
	`

	if _, err := r.db(ctx).Exec(ctx, query, userID, courseID, suspended); err != nil {
		return fmt.Errorf("set enrolment suspended: %w", err)
	}

	return nil
}
