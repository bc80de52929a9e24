package repository

import (
	"context"
	"fmt"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InstructorRepository struct {
	pool *pgxpool.Pool
}

func NewInstructorRepository(pool *pgxpool.Pool) *InstructorRepository {
	return &InstructorRepository{pool: pool}
}

func (r *InstructorRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

const instructorQuery = `
	SELECT i.id, i.course_id, i.full_name, i.senior,
	       (SELECT max(b.booking_date) FROM bookings b WHERE b.instructor_id = i.id AND b.course_id = i.course_id) AS last_booked_date
	FROM instructors i
`

func scanInstructor(row pgx.Row) (*model.Instructor, error) {
	var instructor model.Instructor
	err := row.Scan(
		&instructor.ID,
		&instructor.CourseID,
		&instructor.FullName,
		&instructor.Senior,
		&instructor.LastBookedDate,
	)
	if err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *InstructorRepository) collect(ctx context.Context, query string, courseID int64) ([]*model.Instructor, error) {
	rows, err := r.db(ctx).Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("get instructors: %w", err)
	}
	defer rows.Close()

	var instructors []*model.Instructor
	for rows.Next() {
		instructor, err := scanInstructor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instructor: %w", err)
		}
		instructors = append(instructors, instructor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructors: %w", err)
	}

	return instructors, nil
}

func (r *InstructorRepository) Instructors(ctx context.Context, courseID int64) ([]*model.Instructor, error) {
	return r.collect(ctx, instructorQuery+` WHERE i.course_id = $1 ORDER BY i.id`, courseID)
}

func (r *InstructorRepository) SeniorInstructors(ctx context.Context, courseID int64) ([]*model.Instructor, error) {
	return r.collect(ctx, instructorQuery+` WHERE i.course_id = $1 AND i.senior ORDER BY i.id`, courseID)
}
