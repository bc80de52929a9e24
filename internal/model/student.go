package model

import "time"

type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusOnHold    StudentStatus = "onhold"
	StudentStatusSuspended StudentStatus = "suspended"
	StudentStatusGraduated StudentStatus = "graduated"
)

// ProgressFlag keys the per-student persisted flags bag. The set is closed:
// the lifecycle engine and the posting flow only ever touch these keys, and
// access goes through the typed accessors below.
type ProgressFlag string

const (
	// FlagNotifyPostedSlots accumulates comma-joined slot ids pending
	// instructor notification after a week posting.
	FlagNotifyPostedSlots ProgressFlag = "notifypostedslots"
	// FlagNotifyGraduation is set when a graduation notification is owed.
	FlagNotifyGraduation ProgressFlag = "notifygraduation"
	// FlagEndorsement records the endorsing instructor for a skill test.
	FlagEndorsement ProgressFlag = "endorsement"
	// FlagPostingOverride waives posting restrictions for the student.
	FlagPostingOverride ProgressFlag = "postingoverride"
	// FlagOnHoldWarningSent and FlagInactiveWarningSent hold the course-local
	// day a one-shot warning last fired, so a re-run sweep cannot double-send.
	FlagOnHoldWarningSent   ProgressFlag = "onholdwarningsent"
	FlagInactiveWarningSent ProgressFlag = "inactivewarningsent"
)

// Student is the enrolled participant the restriction engine evaluates.
// Recency fields may be absent for freshly enrolled students; the wait
// anchor falls back through them in order (session, graded, enrol).
type Student struct {
	ID              int64                   `json:"id"`
	CourseID        int64                   `json:"course_id"`
	FullName        string                  `json:"full_name"`
	Status          StudentStatus           `json:"status"`
	EnrolDate       time.Time               `json:"enrol_date"`
	LastSessionDate *time.Time              `json:"last_session_date"`
	LastGradedDate  *time.Time              `json:"last_graded_date"`
	KeepActive      bool                    `json:"keep_active"` // keep-active group membership
	LessonsComplete bool                    `json:"lessons_complete"`
	ProgressFlags   map[ProgressFlag]string `json:"progress_flags"`
}

// NewStudent validates required identity fields, failing fast instead of
// producing a partially populated record.
func NewStudent(id, courseID int64, enrolDate time.Time) (*Student, error) {
	if id == 0 {
		return nil, &ValidationError{Field: "student_id", Reason: "required"}
	}
	if courseID == 0 {
		return nil, &ValidationError{Field: "course_id", Reason: "required"}
	}
	if enrolDate.IsZero() {
		return nil, &ValidationError{Field: "enrol_date", Reason: "required"}
	}
	return &Student{
		ID:            id,
		CourseID:      courseID,
		Status:        StudentStatusActive,
		EnrolDate:     enrolDate,
		ProgressFlags: make(map[ProgressFlag]string),
	}, nil
}

func (s *Student) IsOnHold() bool    { return s.Status == StudentStatusOnHold }
func (s *Student) IsSuspended() bool { return s.Status == StudentStatusSuspended }
func (s *Student) IsGraduated() bool { return s.Status == StudentStatusGraduated }

// Flag returns the stored value for a recognized progress flag.
func (s *Student) Flag(key ProgressFlag) (string, bool) {
	v, ok := s.ProgressFlags[key]
	return v, ok
}

func (s *Student) SetFlag(key ProgressFlag, value string) {
	if s.ProgressFlags == nil {
		s.ProgressFlags = make(map[ProgressFlag]string)
	}
	s.ProgressFlags[key] = value
}

func (s *Student) ClearFlag(key ProgressFlag) {
	delete(s.ProgressFlags, key)
}

// HasRestrictionWaiver reports whether the student holds an explicit posting
// restriction waiver and must never advance toward on-hold.
func (s *Student) HasRestrictionWaiver() bool {
	_, ok := s.Flag(FlagPostingOverride)
	return ok
}
