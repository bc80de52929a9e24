package model

import "time"

// RestrictionConfig carries the per-course lifecycle durations, loaded from
// course settings at sweep time. A zero value disables that restriction
// entirely (the policy computes "never" for it), so a missing or broken
// config fails safe toward not penalizing students.
type RestrictionConfig struct {
	PostingWaitDays             int `json:"posting_wait_days"`
	OnHoldPeriodDays            int `json:"on_hold_period_days"`
	SuspensionPeriodDays        int `json:"suspension_period_days"`
	InstructorOverduePeriodDays int `json:"instructor_overdue_period_days"`
}

// StudentRestrictionsEnabled reports whether any student-side restriction is
// configured for the course.
func (c RestrictionConfig) StudentRestrictionsEnabled() bool {
	return c.OnHoldPeriodDays > 0 || c.SuspensionPeriodDays > 0
}

func (c RestrictionConfig) Enabled() bool {
	return c.StudentRestrictionsEnabled() || c.InstructorOverduePeriodDays > 0
}

// Course is a subscribed training course. The restriction engine reasons in
// course-local calendar days, so the timezone rides along with the config.
type Course struct {
	ID           int64             `json:"id"`
	Shortname    string            `json:"shortname"`
	Subscribed   bool              `json:"subscribed"`
	Timezone     string            `json:"timezone"`
	Restrictions RestrictionConfig `json:"restrictions"`
}

// Location resolves the course timezone, falling back to UTC when the name
// is empty or unknown.
func (c *Course) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
