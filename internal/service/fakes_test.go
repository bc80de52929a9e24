package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
)

// memStore is the in-memory stand-in for every store interface, shared by the
// service tests. One instance backs all collaborators so cross-store effects
// (a booking consuming a slot, a flag driving a notification) are visible the
// way they would be against one database.
type memStore struct {
	courses     []*model.Course
	students    map[string]*model.Student
	instructors []*model.Instructor
	slots       map[int64]*model.Slot
	bookings    map[int64]*model.Booking
	groups      map[string]bool
	suspended   map[string]bool
	outbox      []*model.Notification

	nextSlotID    int64
	nextBookingID int64
}

func newMemStore() *memStore {
	return &memStore{
		students:  make(map[string]*model.Student),
		slots:     make(map[int64]*model.Slot),
		bookings:  make(map[int64]*model.Booking),
		groups:    make(map[string]bool),
		suspended: make(map[string]bool),
	}
}

func pairKey(a, b int64) string { return fmt.Sprintf("%d:%d", a, b) }

func (m *memStore) addStudent(s *model.Student) {
	if s.ProgressFlags == nil {
		s.ProgressFlags = make(map[model.ProgressFlag]string)
	}
	m.students[pairKey(s.CourseID, s.ID)] = s
}

func (m *memStore) addSlot(s *model.Slot) *model.Slot {
	m.nextSlotID++
	s.ID = m.nextSlotID
	s.CreatedAt = time.Now()
	m.slots[s.ID] = s
	return s
}

// RunInTx runs fn directly; the fakes have no rollback.
func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Subscribed(ctx context.Context) ([]*model.Course, error) {
	var out []*model.Course
	for _, c := range m.courses {
		if c.Subscribed {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) studentsByStatus(courseID int64, status model.StudentStatus) []*model.Student {
	var out []*model.Student
	for _, s := range m.students {
		if s.CourseID == courseID && s.Status == status {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ActiveStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return m.studentsByStatus(courseID, model.StudentStatusActive), nil
}

func (m *memStore) SuspendedStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return m.studentsByStatus(courseID, model.StudentStatusSuspended), nil
}

func (m *memStore) GraduatedStudents(ctx context.Context, courseID int64) ([]*model.Student, error) {
	return m.studentsByStatus(courseID, model.StudentStatusGraduated), nil
}

func (m *memStore) SetStatus(ctx context.Context, courseID, studentID int64, status model.StudentStatus) error {
	s, ok := m.students[pairKey(courseID, studentID)]
	if !ok {
		return model.ErrStudentNotFound
	}
	s.Status = status
	return nil
}

func (m *memStore) ProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) (string, bool, error) {
	s, ok := m.students[pairKey(courseID, studentID)]
	if !ok {
		return "", false, model.ErrStudentNotFound
	}
	v, ok := s.ProgressFlags[flag]
	return v, ok, nil
}

func (m *memStore) SetProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag, value string) error {
	s, ok := m.students[pairKey(courseID, studentID)]
	if !ok {
		return model.ErrStudentNotFound
	}
	s.SetFlag(flag, value)
	return nil
}

func (m *memStore) ClearProgressFlag(ctx context.Context, courseID, studentID int64, flag model.ProgressFlag) error {
	if s, ok := m.students[pairKey(courseID, studentID)]; ok {
		s.ClearFlag(flag)
	}
	return nil
}

func (m *memStore) UpdateLastSession(ctx context.Context, courseID, studentID int64, last *time.Time) error {
	s, ok := m.students[pairKey(courseID, studentID)]
	if !ok {
		return model.ErrStudentNotFound
	}
	s.LastSessionDate = last
	return nil
}

func (m *memStore) Instructors(ctx context.Context, courseID int64) ([]*model.Instructor, error) {
	var out []*model.Instructor
	for _, i := range m.instructors {
		if i.CourseID == courseID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memStore) SeniorInstructors(ctx context.Context, courseID int64) ([]*model.Instructor, error) {
	var out []*model.Instructor
	for _, i := range m.instructors {
		if i.CourseID == courseID && i.Senior {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *memStore) GetSlot(ctx context.Context, id int64) (*model.Slot, error) {
	return m.slots[id], nil
}

func (m *memStore) WeekSlots(ctx context.Context, courseID int64, year, week int) ([]*model.Slot, error) {
	var out []*model.Slot
	for _, s := range m.slots {
		if s.CourseID == courseID && s.Year == year && s.Week == week {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if !a.Window.Start.Equal(b.Window.Start) {
			return a.Window.Start.Before(b.Window.Start)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *memStore) FuturePosts(ctx context.Context, courseID, studentID int64, after time.Time) ([]*model.Slot, error) {
	var out []*model.Slot
	for _, s := range m.slots {
		if s.CourseID == courseID && s.StudentID == studentID && !s.Booked && s.Window.End.After(after) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start.Before(out[j].Window.Start) })
	return out, nil
}

func (m *memStore) SaveSlot(ctx context.Context, slot *model.Slot) error {
	m.addSlot(slot)
	return nil
}

func (m *memStore) MarkBooked(ctx context.Context, slotID, bookingID int64) error {
	s, ok := m.slots[slotID]
	if !ok || s.Booked {
		return model.ErrSlotUnavailable
	}
	s.Booked = true
	s.BookingID = &bookingID
	return nil
}

func (m *memStore) DeleteSlot(ctx context.Context, slotID int64) error {
	if _, ok := m.slots[slotID]; !ok {
		return model.ErrSlotNotFound
	}
	delete(m.slots, slotID)
	return nil
}

func (m *memStore) DeletePosted(ctx context.Context, courseID, studentID int64, year, week int) error {
	for id, s := range m.slots {
		if s.CourseID != courseID || s.StudentID != studentID || s.Booked {
			continue
		}
		if (year == 0 || s.Year == year) && (week == 0 || s.Week == week) {
			delete(m.slots, id)
		}
	}
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return m.bookings[id], nil
}

func (m *memStore) SaveBooking(ctx context.Context, booking *model.Booking) error {
	if booking.ID == 0 {
		m.nextBookingID++
		booking.ID = m.nextBookingID
		booking.BookingDate = time.Now()
	}
	m.bookings[booking.ID] = booking
	return nil
}

func (m *memStore) DeleteBooking(ctx context.Context, id int64) error {
	if _, ok := m.bookings[id]; !ok {
		return model.ErrBookingNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memStore) SetInactive(ctx context.Context, id int64, noShow bool) error {
	b, ok := m.bookings[id]
	if !ok {
		return model.ErrBookingNotFound
	}
	b.Active = false
	b.NoShow = noShow
	return nil
}

func (m *memStore) ActiveBooking(ctx context.Context, courseID, studentID int64) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.CourseID == courseID && b.StudentID == studentID && b.Active {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memStore) Conflict(ctx context.Context, instructorID, studentID int64, w model.TimeWindow) (*model.Booking, error) {
	for _, b := range m.bookings {
		if !b.Active || (b.InstructorID != instructorID && b.StudentID != studentID) {
			continue
		}
		slot, ok := m.slots[b.SlotID]
		if ok && slot.Window.Overlaps(w) {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memStore) NoShowBookings(ctx context.Context, courseID, studentID int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.CourseID == courseID && b.StudentID == studentID && b.NoShow {
			if b.Slot == nil {
				b.Slot = m.slots[b.SlotID]
			}
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Slot.Window.Start.Before(out[j].Slot.Window.Start)
	})
	return out, nil
}

func (m *memStore) LastSessionDate(ctx context.Context, courseID, studentID int64) (*time.Time, error) {
	var last *time.Time
	for _, b := range m.bookings {
		if b.CourseID != courseID || b.StudentID != studentID || b.Active || b.NoShow {
			continue
		}
		slot, ok := m.slots[b.SlotID]
		if !ok {
			continue
		}
		if last == nil || slot.Window.Start.After(*last) {
			start := slot.Window.Start
			last = &start
		}
	}
	return last, nil
}

func (m *memStore) AddMember(ctx context.Context, courseID int64, group string, userID int64) error {
	m.groups[fmt.Sprintf("%d:%s:%d", courseID, group, userID)] = true
	return nil
}

func (m *memStore) IsMember(ctx context.Context, courseID int64, group string, userID int64) (bool, error) {
	return m.groups[fmt.Sprintf("%d:%s:%d", courseID, group, userID)], nil
}

func (m *memStore) SetSuspended(ctx context.Context, userID, courseID int64, suspended bool) error {
	m.suspended[pairKey(userID, courseID)] = suspended
	return nil
}

func (m *memStore) Enqueue(ctx context.Context, n *model.Notification) error {
	n.CreatedAt = time.Now()
	m.outbox = append(m.outbox, n)
	return nil
}

// notificationsOfKind filters the outbox for assertions.
func (m *memStore) notificationsOfKind(kind model.NotificationKind) []*model.Notification {
	var out []*model.Notification
	for _, n := range m.outbox {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
