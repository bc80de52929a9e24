package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func (r *StudentRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

const studentQuery = `
	SELECT s.id, s.course_id, s.full_name, s.status, s.enrol_date,
	       s.last_session_date, s.last_graded_date, s.lessons_complete,
	       COALESCE(s.progress_flags, '{}'::jsonb),
	       EXISTS (
	           SELECT 1 FROM group_members g
	           WHERE g.course_id = s.course_id AND g.user_id = s.id AND g.group_name = 'keepactive'
	       ) AS keep_active
	FROM students s
`

func scanStudent(row pgx.Row) (*model.Student, error) {
	var student model.Student
	var flags []byte
	err := row.Scan(
		&student.ID,
		&student.CourseID,
		&student.FullName,
		&student.Status,
		&student.EnrolDate,
		&student.LastSessionDate,
		&student.LastGradedDate,
		&student.LessonsComplete,
		&flags,
		&student.KeepActive,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(flags, &student.ProgressFlags); err != nil {
		return nil, fmt.Errorf("decode progress flags: %w", err)
	}
	return &student, nil
}

func (r *StudentRepository) studentsByStatus(ctx context.Context, courseID int64, status model.StudentStatus) ([]*model.Student, error) {
	query := studentQuery + ` WHERE s.course_id = $1 AND s.status = $2 ORDER BY s.id`

	rows, err := r.db(ctx).Query(ctx, query, courseID, status)
	if err != nil {
		return nil, fmt.Errorf("get %s students: %w", status, err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

func (r *StudentRepository) ActiveStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return r.studentsByStatus(ctx, courseID, model.StudentStatusActive)
}

func (r *StudentRepository) SuspendedStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return r.studentsByStatus(ctx, courseID, model.StudentStatusSuspended)
}

func (r *StudentRepository) GraduatedStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return r.studentsByStatus(ctx, courseID, model.StudentStatusGraduated)
}

// GetStudent returns one enrolment record, or nil.
func (r *StudentRepository) GetStudent(ctx context.Context, courseID, studentID int64) (*model.Student, error) {
	query := studentQuery + ` WHERE s.course_id = $1 AND s.id = $2`

	student, err := scanStudent(r.db(ctx).QueryRow(ctx, query, courseID, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	return student, nil
}

func (r *StudentRepository) SetStatus(ctx context.Context, courseID, studentID int64, status model.StudentStatus) error {
	query := `UPDATE students SET status = $1 WHERE course_id = $2 AND id = $3`

	result, err := r.db(ctx).Exec(ctx, query, status, courseID, studentID)
	if err != nil {
		return fmt.Errorf("set student status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrStudentNotFound
	}

	return nil
}

// ProgressFlag reads a single flag value from the student's flags bag.
func (r *StudentRepository) ProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) (string, bool, error) {
	query := `
		SELECT progress_flags->>$1
		FROM students
		WHERE course_id = $2 AND id = $3
	`

	var value *string
	err := r.db(ctx).QueryRow(ctx, query, string(flag), courseID, studentID).Scan(&value)
	if err != nil {
		if base.IsNotFound(err) {
			return "", false, model.ErrStudentNotFound
		}
		return "", false, fmt.Errorf("get progress flag: %w", err)
	}
	if value == nil {
		return "", false, nil
	}

	return *value, true, nil
}

func (r *StudentRepository) SetProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag, value string) error {
	query := `
		UPDATE students
		SET progress_flags = jsonb_set(COALESCE(progress_flags, '{}'::jsonb), ARRAY[$1], to_jsonb($2::text))
		WHERE course_id = $3 AND id = $4
	`

	result, err := r.db(ctx).Exec(ctx, query, string(flag), value, courseID, studentID)
	if err != nil {
		return fmt.Errorf("set progress flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrStudentNotFound
	}

	return nil
}

func (r *StudentRepository) ClearProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) error {
	query := `
		UPDATE students
		SET progress_flags = COALESCE(progress_flags, '{}'::jsonb) - $1
		WHERE course_id = $2 AND id = $3
	`

	if _, err := r.db(ctx).Exec(ctx, query, string(flag), courseID, studentID); err != nil {
		return fmt.Errorf("clear progress flag: %w", err)
	}

	return nil
}

// UpdateLastSession refreshes the recency datum. nil clears it.
func (r *StudentRepository) UpdateLastSession(ctx context.Context, courseID, studentID int64, last *time.Time) error {
	query := `UPDATE students SET last_session_date = $1 WHERE course_id = $2 AND id = $3`

	if _, err := r.db(ctx).Exec(ctx, query, last, courseID, studentID); err != nil {
		return fmt.Errorf("update last session date: %w", err)
	}

	return nil
}
