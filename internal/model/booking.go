package model

import "time"

// Booking pairs one student slot with one instructor for a course exercise.
// Active=false marks a historical booking retained for audit and recency
// computation. A no-show booking is terminal and feeds the no-show
// suspension/reinstatement counters.
type Booking struct {
	ID           int64     `json:"id"`
	CourseID     int64     `json:"course_id"`
	ExerciseID   int64     `json:"exercise_id"`
	StudentID    int64     `json:"student_id"`
	InstructorID int64     `json:"instructor_id"`
	SlotID       int64     `json:"slot_id"`
	Confirmed    bool      `json:"confirmed"`
	Active       bool      `json:"active"`
	NoShow       bool      `json:"no_show"`
	BookingDate  time.Time `json:"booking_date"`

	// Populated by loaders for convenience, not scanned from the bookings row.
	Slot *Slot `json:"slot,omitempty"`
}
