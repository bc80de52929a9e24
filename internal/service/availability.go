package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"go.uber.org/zap"
)

// Availability manages a student's posted slots for a week and produces the
// packed lane view the renderer consumes. Saving is full replace-on-save:
// the week's unbooked postings are deleted and reinserted in one transaction.
type Availability struct {
	tx       TxRunner
	slots    SlotStore
	students StudentStore
	packer   *LanePacker
	logger   *zap.Logger
}

func NewAvailability(tx TxRunner, slots SlotStore, students StudentStore, logger *zap.Logger) *Availability {
	return &Availability{
		tx:       tx,
		slots:    slots,
		students: students,
		packer:   NewLanePacker(),
		logger:   logger,
	}
}

// SaveWeek replaces the student's postings for the week with the given
// windows and queues the new slot ids on the notifypostedslots flag so the
// next sweep notifies instructors. Returns the new slot ids.
func (a *Availability) SaveWeek(ctx context.Context, studentID, courseID int64, year, week int, windows []model.TimeWindow) ([]int64, error) {
	newSlots := make([]*model.Slot, 0, len(windows))
	for _, w := range windows {
		slot, err := model.NewSlot(studentID, courseID, w.Start, w.End, year, week)
		if err != nil {
			return nil, err
		}
		newSlots = append(newSlots, slot)
	}

	var ids []int64
	err := a.tx.RunInTx(ctx, func(ctx context.Context) error {
		replaced, err := a.weekPostedIDs(ctx, courseID, studentID, year, week)
		if err != nil {
			return err
		}
		// remove the week's unbooked postings to avoid updates
		if err := a.slots.DeletePosted(ctx, courseID, studentID, year, week); err != nil {
			return fmt.Errorf("delete posted slots: %w", err)
		}
		for _, slot := range newSlots {
			if err := a.slots.SaveSlot(ctx, slot); err != nil {
				return fmt.Errorf("save slot: %w", err)
			}
			ids = append(ids, slot.ID)
		}
		return a.updatePostedFlag(ctx, courseID, studentID, ids, replaced)
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Week availability saved",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int("year", year),
		zap.Int("week", week),
		zap.Int("slots", len(ids)),
	)
	return ids, nil
}

// ClearWeek removes the student's unbooked postings for the week and drops
// their ids from the pending posted-slots notification flag.
func (a *Availability) ClearWeek(ctx context.Context, studentID, courseID int64, year, week int) error {
	err := a.tx.RunInTx(ctx, func(ctx context.Context) error {
		removed, err := a.weekPostedIDs(ctx, courseID, studentID, year, week)
		if err != nil {
			return err
		}
		if err := a.slots.DeletePosted(ctx, courseID, studentID, year, week); err != nil {
			return fmt.Errorf("delete posted slots: %w", err)
		}
		return a.updatePostedFlag(ctx, courseID, studentID, nil, removed)
	})
	if err != nil {
		return err
	}

	a.logger.Info("Week availability cleared",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int("year", year),
		zap.Int("week", week),
	)
	return nil
}

// StudentWeekSlots returns one student's slots for the week.
func (a *Availability) StudentWeekSlots(ctx context.Context, courseID, studentID int64, year, week int) ([]*model.Slot, error) {
	slots, err := a.slots.WeekSlots(ctx, courseID, year, week)
	if err != nil {
		return nil, fmt.Errorf("load week slots: %w", err)
	}
	own := slots[:0:0]
	for _, slot := range slots {
		if slot.StudentID == studentID {
			own = append(own, slot)
		}
	}
	return own, nil
}

// WeekLanes loads every student's slots for the week, buckets them by
// course-local weekday, and packs each day into lanes.
func (a *Availability) WeekLanes(ctx context.Context, course *model.Course, year, week int) (*WeekLanes, error) {
	slots, err := a.slots.WeekSlots(ctx, course.ID, year, week)
	if err != nil {
		return nil, fmt.Errorf("load week slots: %w", err)
	}

	loc := course.Location()
	byDay := make(map[time.Weekday][]*model.Slot)
	for _, slot := range slots {
		day := slot.Window.Start.In(loc).Weekday()
		byDay[day] = append(byDay[day], slot)
	}
	return a.packer.PackWeek(byDay), nil
}

// weekPostedIDs collects the student's unbooked slot ids for the week, read
// before those rows are replaced so the flag update can be scoped to them.
func (a *Availability) weekPostedIDs(ctx context.Context, courseID, studentID int64, year, week int) ([]int64, error) {
	slots, err := a.slots.WeekSlots(ctx, courseID, year, week)
	if err != nil {
		return nil, fmt.Errorf("load week slots: %w", err)
	}
	var ids []int64
	for _, slot := range slots {
		if slot.StudentID == studentID && !slot.Booked {
			ids = append(ids, slot.ID)
		}
	}
	return ids, nil
}

// updatePostedFlag rewrites the pending posted-slots flag: the new ids come
// first, ids of slots just replaced or cleared are dropped, and pending ids
// from other weeks' undrained postings are preserved.
func (a *Availability) updatePostedFlag(ctx context.Context, courseID, studentID int64, added, removed []int64) error {
	existing, _, err := a.students.ProgressFlag(ctx, courseID, studentID, model.FlagNotifyPostedSlots)
	if err != nil {
		return fmt.Errorf("read posted-slots flag: %w", err)
	}

	gone := make(map[int64]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
	}

	parts := make([]string, 0, len(added))
	for _, id := range added {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	for _, id := range parseSlotIDs(existing) {
		if !gone[id] {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
	}

	if len(parts) == 0 {
		return a.students.ClearProgressFlag(ctx, courseID, studentID, model.FlagNotifyPostedSlots)
	}
	if err := a.students.SetProgressFlag(ctx, courseID, studentID, model.FlagNotifyPostedSlots, strings.Join(parts, ",")); err != nil {
		return fmt.Errorf("update posted-slots flag: %w", err)
	}
	return nil
}
