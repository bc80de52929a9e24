package model

import (
	"fmt"
	"time"
)

// TimeWindow is an immutable start/end instant pair. Construct through
// NewTimeWindow so that start < end always holds.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, &ValidationError{
			Field:  "window",
			Reason: fmt.Sprintf("end %s must be after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)),
		}
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Overlaps reports whether the two windows intersect. Closed-interval
// semantics: windows touching at a boundary instant count as overlapping.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return !w.Start.After(other.End) && !other.Start.After(w.End)
}

// Contains reports whether t falls inside the window, boundaries included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
