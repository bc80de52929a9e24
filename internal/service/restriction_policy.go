package service

import (
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

const (
	// PostingOverdueGraceDays extends the posting wait before the inactivity
	// warning fires.
	PostingOverdueGraceDays = 10
	// OnHoldWarningLeadDays is how far ahead of on-hold placement the warning
	// goes out.
	OnHoldWarningLeadDays = 7
	// NoShowSuspensionDays is the fixed reinstatement timer counted from the
	// first of the two no-shows. Separate from the general suspension timer.
	NoShowSuspensionDays = 30
	// NoShowSuspensionCount is the number of no-show bookings that puts a
	// student on the reinstatement track.
	NoShowSuspensionCount = 2
)

// Deadlines holds the computed restriction dates for one student. A zero
// time means the governing restriction is disabled: the date never arrives
// and must not be compared against the clock.
type Deadlines struct {
	PostingOverdueWarning time.Time
	OnHoldWarning         time.Time
	OnHold                time.Time
	Suspend               time.Time
}

// RestrictionPolicy maps course restriction config and a wait anchor to the
// deadline set. Pure date arithmetic: monotonic non-decreasing in the anchor
// and side-effect free.
type RestrictionPolicy struct{}

func (RestrictionPolicy) Evaluate(cfg model.RestrictionConfig, anchor time.Time) Deadlines {
	var d Deadlines
	if cfg.PostingWaitDays > 0 {
		d.PostingOverdueWarning = anchor.AddDate(0, 0, cfg.PostingWaitDays+PostingOverdueGraceDays)
	}
	if cfg.OnHoldPeriodDays > 0 {
		d.OnHold = anchor.AddDate(0, 0, cfg.OnHoldPeriodDays)
		d.OnHoldWarning = d.OnHold.AddDate(0, 0, -OnHoldWarningLeadDays)
	}
	if cfg.SuspensionPeriodDays > 0 {
		d.Suspend = anchor.AddDate(0, 0, cfg.SuspensionPeriodDays)
	}
	return d
}
