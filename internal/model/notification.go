package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationOnHoldWarning       NotificationKind = "onhold_warning"
	NotificationOnHoldPlacement     NotificationKind = "onhold_placement"
	NotificationSuspension          NotificationKind = "suspension"
	NotificationInactiveWarning     NotificationKind = "inactive_warning"
	NotificationSessionOverdue      NotificationKind = "session_overdue"
	NotificationNoShowReinstatement NotificationKind = "noshow_reinstatement"
	NotificationPostedSlots         NotificationKind = "posted_slots"
	NotificationGraduation          NotificationKind = "graduation"
)

// Notification is one outbox row: the decision that a message is owed, not
// the message itself. Delivery is an external collaborator reading the
// outbox; enqueueing twice for one-shot kinds is prevented upstream by the
// notification gate.
type Notification struct {
	ID           uuid.UUID        `json:"id"`
	Kind         NotificationKind `json:"kind"`
	CourseID     int64            `json:"course_id"`
	RecipientID  int64            `json:"recipient_id"`
	CCRecipients []int64          `json:"cc_recipients"` // senior instructors
	Payload      map[string]any   `json:"payload"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewNotification stamps a fresh outbox row for one recipient.
func NewNotification(kind NotificationKind, courseID, recipientID int64, payload map[string]any) *Notification {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Notification{
		ID:          uuid.New(),
		Kind:        kind,
		CourseID:    courseID,
		RecipientID: recipientID,
		Payload:     payload,
	}
}
