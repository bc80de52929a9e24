package model

import "time"

// Instructor is evaluated by the sweep for session-overdue reminders only.
// Senior instructors are additionally copied on lifecycle notifications.
type Instructor struct {
	ID             int64      `json:"id"`
	CourseID       int64      `json:"course_id"`
	FullName       string     `json:"full_name"`
	Senior         bool       `json:"senior"`
	LastBookedDate *time.Time `json:"last_booked_date"`
}
