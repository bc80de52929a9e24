package service

import (
	"context"
	"testing"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testCourse() *model.Course {
	return &model.Course{
		ID:         1,
		Shortname:  "PPL",
		Subscribed: true,
		Restrictions: model.RestrictionConfig{
			PostingWaitDays:             7,
			OnHoldPeriodDays:            30,
			SuspensionPeriodDays:        60,
			InstructorOverduePeriodDays: 15,
		},
	}
}

func newTestLifecycle(store *memStore) *Lifecycle {
	notifier := NewOutboxNotifier(store, zap.NewNop())
	lc := NewLifecycle(store, store, store, store, store, notifier, zap.NewNop())
	lc.now = func() time.Time { return testNow }
	return lc
}

// enrolledDaysAgo returns an active student whose wait anchor sits the given
// number of days before testNow.
func enrolledDaysAgo(store *memStore, id int64, days int) *model.Student {
	s := &model.Student{
		ID:        id,
		CourseID:  1,
		Status:    model.StudentStatusActive,
		EnrolDate: testNow.AddDate(0, 0, -days),
	}
	store.addStudent(s)
	return s
}

func postFutureSlot(t *testing.T, store *memStore, studentID int64, startInDays int) *model.Slot {
	t.Helper()
	start := testNow.AddDate(0, 0, startInDays)
	slot, err := model.NewSlot(studentID, 1, start, start.Add(2*time.Hour), 2026, 32)
	require.NoError(t, err)
	return store.addSlot(slot)
}

func TestOnHoldWarningFiresOnExactDayOnce(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	// warning day is onhold minus lead: 30 - 7 = 23 days after the anchor
	student := enrolledDaysAgo(store, 201, 23)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	require.Len(t, store.notificationsOfKind(model.NotificationOnHoldWarning), 1)
	assert.Equal(t, model.StudentStatusActive, student.Status)

	day, ok := student.Flag(model.FlagOnHoldWarningSent)
	require.True(t, ok)
	assert.Equal(t, testNow.Format("2006-01-02"), day)

	// re-running the sweep the same day must not double-send
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Len(t, store.notificationsOfKind(model.NotificationOnHoldWarning), 1)
}

func TestOnHoldWarningSkippedWhenPostedOrBooked(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 202, 23)
	postFutureSlot(t, store, student.ID, 3)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Empty(t, store.notificationsOfKind(model.NotificationOnHoldWarning))
}

func TestOnHoldWarningOnlyOnExactDay(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	// one day before the warning day
	student := enrolledDaysAgo(store, 203, 22)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Empty(t, store.notificationsOfKind(model.NotificationOnHoldWarning))
}

func TestOnHoldPlacementAfterDeadline(t *testing.T) {
	store := newMemStore()
	store.instructors = []*model.Instructor{
		{ID: 901, CourseID: 1, Senior: true},
	}
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 204, 31)

	seniors, _ := store.SeniorInstructors(context.Background(), 1)
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, seniors))

	assert.Equal(t, model.StudentStatusOnHold, student.Status)
	member, err := store.IsMember(context.Background(), 1, OnHoldGroup, student.ID)
	require.NoError(t, err)
	assert.True(t, member)

	placed := store.notificationsOfKind(model.NotificationOnHoldPlacement)
	require.Len(t, placed, 1)
	assert.Equal(t, []int64{901}, placed[0].CCRecipients)

	// second run: already on-hold, suspension not yet due, nothing changes
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, seniors))
	assert.Equal(t, model.StudentStatusOnHold, student.Status)
	assert.Len(t, store.notificationsOfKind(model.NotificationOnHoldPlacement), 1)
}

func TestOnHoldPlacementSkippedWhenExempt(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()

	kept := enrolledDaysAgo(store, 205, 40)
	require.NoError(t, store.AddMember(context.Background(), 1, KeepActiveGroup, kept.ID))
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, kept, nil))
	assert.Equal(t, model.StudentStatusActive, kept.Status)

	waived := enrolledDaysAgo(store, 206, 40)
	waived.SetFlag(model.FlagPostingOverride, "1")
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, waived, nil))
	assert.Equal(t, model.StudentStatusActive, waived.Status)
}

func TestOnHoldPlacementSkippedWhenBooked(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 207, 40)

	slot := postFutureSlot(t, store, student.ID, 2)
	require.NoError(t, store.SaveBooking(context.Background(), &model.Booking{
		CourseID: 1, StudentID: student.ID, InstructorID: 901, SlotID: slot.ID, Active: true,
	}))
	require.NoError(t, store.MarkBooked(context.Background(), slot.ID, 1))

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Equal(t, model.StudentStatusActive, student.Status)
}

// A post inside the posting wait does not keep the student active: only slots
// starting at or past anchor+wait count.
func TestOnHoldPlacementIgnoresPostsInsideWait(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 208, 40)

	// anchor+wait = testNow-40+7 = 33 days ago; tomorrow is past it
	// so place the post today plus one day but pretend wait extends far out
	course.Restrictions.PostingWaitDays = 45
	postFutureSlot(t, store, student.ID, 2)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Equal(t, model.StudentStatusOnHold, student.Status)
}

func TestSuspensionAfterDeadline(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 209, 61)
	student.Status = model.StudentStatusOnHold

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))

	assert.Equal(t, model.StudentStatusSuspended, student.Status)
	assert.True(t, store.suspended[pairKey(student.ID, 1)])
	assert.Len(t, store.notificationsOfKind(model.NotificationSuspension), 1)

	// suspended students are out of scope on later runs
	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Len(t, store.notificationsOfKind(model.NotificationSuspension), 1)
}

func TestSuspensionSkippedForKeepActive(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 210, 61)
	student.Status = model.StudentStatusOnHold
	student.KeepActive = true

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Equal(t, model.StudentStatusOnHold, student.Status)
	assert.Empty(t, store.notificationsOfKind(model.NotificationSuspension))
}

func TestInactiveWarningFiresOnExactDayOnce(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	// posting overdue warning day is wait + grace = 7 + 10 = 17 days in
	student := enrolledDaysAgo(store, 211, 17)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	require.Len(t, store.notificationsOfKind(model.NotificationInactiveWarning), 1)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Len(t, store.notificationsOfKind(model.NotificationInactiveWarning), 1)
}

func TestInactiveWarningSkippedInActiveStandings(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()
	student := enrolledDaysAgo(store, 212, 17)
	student.LessonsComplete = true
	postFutureSlot(t, store, student.ID, 3)

	require.NoError(t, lc.EvaluateStudent(context.Background(), course, student, nil))
	assert.Empty(t, store.notificationsOfKind(model.NotificationInactiveWarning))
}

func TestInstructorOverduePeriodic(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse() // overdue period 15

	last := testNow.AddDate(0, 0, -30)
	instructor := &model.Instructor{ID: 901, CourseID: 1, LastBookedDate: &last}
	require.NoError(t, lc.EvaluateInstructor(context.Background(), course, instructor, nil))

	overdue := store.notificationsOfKind(model.NotificationSessionOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, 2, overdue[0].Payload["retry"])
}

func TestInstructorOverdueSkipsOffCycleDays(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()

	last := testNow.AddDate(0, 0, -20)
	instructor := &model.Instructor{ID: 902, CourseID: 1, LastBookedDate: &last}
	require.NoError(t, lc.EvaluateInstructor(context.Background(), course, instructor, nil))
	assert.Empty(t, store.notificationsOfKind(model.NotificationSessionOverdue))

	// never booked at all: nothing to count from
	require.NoError(t, lc.EvaluateInstructor(context.Background(), course, &model.Instructor{ID: 903, CourseID: 1}, nil))
	assert.Empty(t, store.notificationsOfKind(model.NotificationSessionOverdue))
}

func addNoShow(t *testing.T, store *memStore, studentID int64, startDaysAgo int) {
	t.Helper()
	start := testNow.AddDate(0, 0, -startDaysAgo)
	slot, err := model.NewSlot(studentID, 1, start, start.Add(2*time.Hour), 2026, 20)
	require.NoError(t, err)
	slot.Booked = true
	store.addSlot(slot)
	require.NoError(t, store.SaveBooking(context.Background(), &model.Booking{
		CourseID: 1, ExerciseID: 7, StudentID: studentID, InstructorID: 901,
		SlotID: slot.ID, NoShow: true,
	}))
}

func TestNoShowReinstatement(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()

	student := enrolledDaysAgo(store, 213, 90)
	student.Status = model.StudentStatusSuspended
	addNoShow(t, store, student.ID, 35)
	addNoShow(t, store, student.ID, 20)

	reinstated, err := lc.ReinstateNoShows(context.Background(), course, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reinstated)
	assert.Equal(t, model.StudentStatusActive, student.Status)
	assert.False(t, store.suspended[pairKey(student.ID, 1)])
	assert.Len(t, store.notificationsOfKind(model.NotificationNoShowReinstatement), 1)
}

func TestNoShowReinstatementWaitsFullPeriod(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()

	student := enrolledDaysAgo(store, 214, 90)
	student.Status = model.StudentStatusSuspended
	// first no-show only 25 days ago, period is 30
	addNoShow(t, store, student.ID, 25)
	addNoShow(t, store, student.ID, 10)

	reinstated, err := lc.ReinstateNoShows(context.Background(), course, nil)
	require.NoError(t, err)
	assert.Zero(t, reinstated)
	assert.Equal(t, model.StudentStatusSuspended, student.Status)
}

func TestNoShowReinstatementNeedsExactCount(t *testing.T) {
	store := newMemStore()
	lc := newTestLifecycle(store)
	course := testCourse()

	student := enrolledDaysAgo(store, 215, 90)
	student.Status = model.StudentStatusSuspended
	addNoShow(t, store, student.ID, 40)

	reinstated, err := lc.ReinstateNoShows(context.Background(), course, nil)
	require.NoError(t, err)
	assert.Zero(t, reinstated)
	assert.Equal(t, model.StudentStatusSuspended, student.Status)
}
