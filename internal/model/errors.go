package model

import "errors"

// ValidationError marks malformed construction-time input. Entities carrying
// a ValidationError never reach the packer or the stores.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

var (
	// ErrBookingConflict is returned when the instructor already holds an
	// active booking whose window overlaps the requested slot.
	ErrBookingConflict = errors.New("booking conflicts with an existing active booking")

	ErrSlotUnavailable = errors.New("slot is not available")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrStudentNotFound = errors.New("student not found")
)
