package model

import "time"

// Slot is a single contiguous availability window posted by one student for
// one ISO week. Booked slots are kept (flagged, not deleted) so session
// history survives week re-posting.
type Slot struct {
	ID        int64      `json:"id"`
	StudentID int64      `json:"student_id"`
	CourseID  int64      `json:"course_id"`
	Window    TimeWindow `json:"window"`
	Year      int        `json:"year"`
	Week      int        `json:"week"`
	Booked    bool       `json:"booked"`
	BookingID *int64     `json:"booking_id"` // nil until a booking consumes the slot
	CreatedAt time.Time  `json:"created_at"`
}

// NewSlot validates and builds a posted slot. Malformed windows are rejected
// here and never reach the lane packer or the store.
func NewSlot(studentID, courseID int64, start, end time.Time, year, week int) (*Slot, error) {
	if studentID == 0 {
		return nil, &ValidationError{Field: "student_id", Reason: "required"}
	}
	if courseID == 0 {
		return nil, &ValidationError{Field: "course_id", Reason: "required"}
	}
	window, err := NewTimeWindow(start, end)
	if err != nil {
		return nil, err
	}
	return &Slot{
		StudentID: studentID,
		CourseID:  courseID,
		Window:    window,
		Year:      year,
		Week:      week,
	}, nil
}
