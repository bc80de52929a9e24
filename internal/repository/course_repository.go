package repository

import (
	"context"
	"fmt"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

func (r *CourseRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

// Subscribed returns every course using session booking, with its restriction
// durations.
func (r *CourseRepository) Subscribed(ctx context.Context) ([]*model.Course, error) {
	query := `
		SELECT id, shortname, subscribed, timezone,
		       posting_wait_days, on_hold_period_days, suspension_period_days, instructor_overdue_period_days
		FROM courses
		WHERE subscribed
		ORDER BY id
	`

	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get subscribed courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		var course model.Course
		err := rows.Scan(
			&course.ID,
			&course.Shortname,
			&course.Subscribed,
			&course.Timezone,
			&course.Restrictions.PostingWaitDays,
			&course.Restrictions.OnHoldPeriodDays,
			&course.Restrictions.SuspensionPeriodDays,
			&course.Restrictions.InstructorOverduePeriodDays,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, &course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, nil
}
