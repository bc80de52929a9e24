package repository

import (
	"context"
	"fmt"

	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

func (r *GroupRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

// AddMember puts the user in the course group. Adding an existing member is a
// no-op.
func (r *GroupRepository) AddMember(ctx context.Context, courseID int64, group string, userID int64) error {
	query := `
		INSERT INTO group_members (course_id, group_name, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (course_id, group_name, user_id) DO NOTHING
	`

	if _, err := r.db(ctx).Exec(ctx, query, courseID, group, userID); err != nil {
		return fmt.Errorf("add group member: %w", err)
	}

	return nil
}

func (r *GroupRepository) IsMember(ctx context.Context, courseID int64, group string, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE course_id = $1 AND group_name = $2 AND user_id = $3
		)
	`

	var member bool
	if err := r.db(ctx).QueryRow(ctx, query, courseID, group, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}

	return member, nil
}
