package service

import (
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

// Lane is an ordered bucket of slots that can share one visual column for a
// calendar day without conflicting.
type Lane []*model.Slot

const (
	// DefaultMaxLanes caps how many lanes the full week view keeps. Overflow
	// lanes are dropped from the view; the raw count survives for UI hinting.
	DefaultMaxLanes = 20
	// MinGroupViewLanes is the lane floor reserved by the all-students view.
	MinGroupViewLanes = 4
)

// LanePacker assigns a day's slots, across all students, to non-overlapping
// lanes. Slots from the same student may stack in one lane even when their
// windows overlap.
type LanePacker struct {
	MaxLanes int
	MinLanes int
}

func NewLanePacker() *LanePacker {
	return &LanePacker{MaxLanes: DefaultMaxLanes, MinLanes: MinGroupViewLanes}
}

// Pack processes slots in the given (arrival) order, placing each into the
// first lane it fits, or opening a new lane. Identical input yields identical
// lane assignments.
func (p *LanePacker) Pack(daySlots []*model.Slot) []Lane {
	var lanes []Lane
	for _, slot := range daySlots {
		idx := findLane(lanes, slot)
		if idx < 0 {
			lanes = append(lanes, Lane{slot})
			continue
		}
		lanes[idx] = append(lanes[idx], slot)
	}
	return lanes
}

// findLane returns the first lane index that can take the slot, or -1 when a
// new lane must be opened.
func findLane(lanes []Lane, slot *model.Slot) int {
	for i, lane := range lanes {
		if laneFits(lane, slot) {
			return i
		}
	}
	return -1
}

// laneFits reports whether the slot conflicts with nothing already in the
// lane. Overlap with another slot of the same student does not conflict.
func laneFits(lane Lane, slot *model.Slot) bool {
	for _, placed := range lane {
		if placed.Window.Overlaps(slot.Window) && placed.StudentID != slot.StudentID {
			return false
		}
	}
	return true
}

// WeekLanes is a packed week: lanes per weekday plus the widest day's lane
// count, capped for display with the uncapped count preserved.
type WeekLanes struct {
	Days     map[time.Weekday][]Lane
	MaxLanes int
	RawMax   int
}

// PackWeek packs every day of the week and tracks the running lane maximum.
// Days wider than the cap are truncated in the packed view.
func (p *LanePacker) PackWeek(slotsByDay map[time.Weekday][]*model.Slot) *WeekLanes {
	wl := &WeekLanes{Days: make(map[time.Weekday][]Lane, len(slotsByDay))}
	for day, slots := range slotsByDay {
		lanes := p.Pack(slots)
		if len(lanes) > wl.RawMax {
			wl.RawMax = len(lanes)
		}
		if p.MaxLanes > 0 && len(lanes) > p.MaxLanes {
			lanes = lanes[:p.MaxLanes]
		}
		wl.Days[day] = lanes
	}
	wl.MaxLanes = wl.RawMax
	if wl.MaxLanes < p.MinLanes {
		wl.MaxLanes = p.MinLanes
	}
	if p.MaxLanes > 0 && wl.MaxLanes > p.MaxLanes {
		wl.MaxLanes = p.MaxLanes
	}
	return wl
}
