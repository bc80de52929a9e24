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

func newTestLedger(store *memStore) *BookingLedger {
	ledger := NewBookingLedger(store, store, store, store, zap.NewNop())
	ledger.now = func() time.Time { return testNow }
	return ledger
}

func TestBookMarksSlotAndPurgesWeekPostings(t *testing.T) {
	store := newMemStore()
	store.addStudent(&model.Student{ID: 401, CourseID: 1, Status: model.StudentStatusActive, EnrolDate: testNow.AddDate(0, 0, -10)})
	ledger := newTestLedger(store)

	target := postFutureSlot(t, store, 401, 3)
	stray := postFutureSlot(t, store, 401, 4)

	booking, err := ledger.Book(context.Background(), 901, 401, 7, target.ID)
	require.NoError(t, err)

	assert.True(t, target.Booked)
	require.NotNil(t, target.BookingID)
	assert.Equal(t, booking.ID, *target.BookingID)
	assert.True(t, booking.Active)
	assert.False(t, booking.Confirmed)

	// the stray posting for the same week is gone, the booked slot survives
	_, ok := store.slots[stray.ID]
	assert.False(t, ok)
	_, ok = store.slots[target.ID]
	assert.True(t, ok)
}

func TestBookRejectsMissingBookedAndPastSlots(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(store)

	_, err := ledger.Book(context.Background(), 901, 401, 7, 999)
	assert.ErrorIs(t, err, model.ErrSlotNotFound)

	booked := postFutureSlot(t, store, 401, 3)
	booked.Booked = true
	_, err = ledger.Book(context.Background(), 901, 401, 7, booked.ID)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	past, err := model.NewSlot(401, 1, testNow.AddDate(0, 0, -2), testNow.AddDate(0, 0, -2).Add(2*time.Hour), 2026, 29)
	require.NoError(t, err)
	store.addSlot(past)
	_, err = ledger.Book(context.Background(), 901, 401, 7, past.ID)
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
}

func TestBookRejectsOverlappingActiveBooking(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(store)

	held := postFutureSlot(t, store, 402, 3)
	_, err := ledger.Book(context.Background(), 901, 402, 7, held.ID)
	require.NoError(t, err)

	// same instructor, different student, overlapping window
	overlapping, err := model.NewSlot(403, 1, held.Window.Start.Add(time.Hour), held.Window.End.Add(time.Hour), 2026, 32)
	require.NoError(t, err)
	store.addSlot(overlapping)

	_, err = ledger.Book(context.Background(), 901, 403, 7, overlapping.ID)
	assert.ErrorIs(t, err, model.ErrBookingConflict)
}

func TestConfirmRequiresOwningStudent(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(store)

	slot := postFutureSlot(t, store, 404, 3)
	booking, err := ledger.Book(context.Background(), 901, 404, 7, slot.ID)
	require.NoError(t, err)

	assert.Error(t, ledger.Confirm(context.Background(), booking.ID, 999))
	assert.False(t, booking.Confirmed)

	require.NoError(t, ledger.Confirm(context.Background(), booking.ID, 404))
	assert.True(t, store.bookings[booking.ID].Confirmed)
}

func TestCancelPlainDeletesBookingAndSlot(t *testing.T) {
	store := newMemStore()
	store.addStudent(&model.Student{ID: 405, CourseID: 1, Status: model.StudentStatusActive, EnrolDate: testNow.AddDate(0, 0, -10)})
	ledger := newTestLedger(store)

	slot := postFutureSlot(t, store, 405, 3)
	booking, err := ledger.Book(context.Background(), 901, 405, 7, slot.ID)
	require.NoError(t, err)

	require.NoError(t, ledger.Cancel(context.Background(), booking.ID, false))
	assert.NotContains(t, store.bookings, booking.ID)
	assert.NotContains(t, store.slots, slot.ID)
}

func TestCancelNoShowRetainsBookingForCounting(t *testing.T) {
	store := newMemStore()
	store.addStudent(&model.Student{ID: 406, CourseID: 1, Status: model.StudentStatusActive, EnrolDate: testNow.AddDate(0, 0, -10)})
	ledger := newTestLedger(store)

	slot := postFutureSlot(t, store, 406, 3)
	stray := postFutureSlot(t, store, 406, 10)
	stray.Week = 33
	booking, err := ledger.Book(context.Background(), 901, 406, 7, slot.ID)
	require.NoError(t, err)

	require.NoError(t, ledger.Cancel(context.Background(), booking.ID, true))

	kept := store.bookings[booking.ID]
	require.NotNil(t, kept)
	assert.False(t, kept.Active)
	assert.True(t, kept.NoShow)

	// no-show purges every remaining posting, all weeks
	assert.NotContains(t, store.slots, stray.ID)
}

func TestCompleteStampsLastSessionDate(t *testing.T) {
	store := newMemStore()
	student := &model.Student{ID: 407, CourseID: 1, Status: model.StudentStatusActive, EnrolDate: testNow.AddDate(0, 0, -10)}
	store.addStudent(student)
	ledger := newTestLedger(store)

	slot := postFutureSlot(t, store, 407, 3)
	booking, err := ledger.Book(context.Background(), 901, 407, 7, slot.ID)
	require.NoError(t, err)

	require.NoError(t, ledger.Complete(context.Background(), booking.ID))

	kept := store.bookings[booking.ID]
	assert.False(t, kept.Active)
	assert.False(t, kept.NoShow)
	require.NotNil(t, student.LastSessionDate)
	assert.True(t, student.LastSessionDate.Equal(slot.Window.Start))
}
