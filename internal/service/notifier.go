package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bavirtual/session-booking/internal/model"
	"go.uber.org/zap"
)

// Notifier decides nothing itself: each method enqueues exactly one outbox
// row for a decision the lifecycle engine already made. Delivery mechanics
// belong to the collaborator draining the outbox.
type Notifier interface {
	SendOnholdWarning(ctx context.Context, course *model.Course, student *model.Student, onHoldDate time.Time) error
	SendOnholdNotification(ctx context.Context, course *model.Course, student *model.Student, lastActivity, suspendDate time.Time, seniors []*model.Instructor) error
	SendSuspensionNotification(ctx context.Context, course *model.Course, student *model.Student, lastActivity time.Time, seniors []*model.Instructor) error
	SendInactiveWarning(ctx context.Context, course *model.Course, student *model.Student, lastSession *time.Time, onHoldDate time.Time) error
	SendSessionOverdueNotification(ctx context.Context, course *model.Course, instructor *model.Instructor, lastSession time.Time, retry int, seniors []*model.Instructor) error
	SendNoshowReinstatementNotification(ctx context.Context, course *model.Course, student *model.Student, exerciseID int64, seniors []*model.Instructor) error
	SendPostedSlotsNotification(ctx context.Context, course *model.Course, student *model.Student, slotIDs []int64, recipients []*model.Instructor) error
	SendGraduationNotification(ctx context.Context, course *model.Course, student *model.Student, seniors []*model.Instructor) error
}

// OutboxNotifier implements Notifier over the notifications outbox table.
type OutboxNotifier struct {
	outbox NotificationStore
	logger *zap.Logger
}

func NewOutboxNotifier(outbox NotificationStore, logger *zap.Logger) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, logger: logger}
}

func (n *OutboxNotifier) enqueue(ctx context.Context, kind model.NotificationKind, courseID, recipientID int64, cc []*model.Instructor, payload map[string]any) error {
	msg := model.NewNotification(kind, courseID, recipientID, payload)
	for _, senior := range cc {
		msg.CCRecipients = append(msg.CCRecipients, senior.ID)
	}
	if err := n.outbox.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("enqueue %s notification: %w", kind, err)
	}
	n.logger.Info("Notification enqueued",
		zap.String("kind", string(kind)),
		zap.Int64("course_id", courseID),
		zap.Int64("recipient_id", recipientID),
	)
	return nil
}

func (n *OutboxNotifier) SendOnholdWarning(ctx context.Context, course *model.Course, student *model.Student, onHoldDate time.Time) error {
	return n.enqueue(ctx, model.NotificationOnHoldWarning, course.ID, student.ID, nil, map[string]any{
		"course":      course.Shortname,
		"onhold_date": onHoldDate,
	})
}

func (n *OutboxNotifier) SendOnholdNotification(ctx context.Context, course *model.Course, student *model.Student, lastActivity, suspendDate time.Time, seniors []*model.Instructor) error {
	payload := map[string]any{
		"course":        course.Shortname,
		"last_activity": lastActivity,
	}
	if !suspendDate.IsZero() {
		payload["suspend_date"] = suspendDate
	}
	return n.enqueue(ctx, model.NotificationOnHoldPlacement, course.ID, student.ID, seniors, payload)
}

func (n *OutboxNotifier) SendSuspensionNotification(ctx context.Context, course *model.Course, student *model.Student, lastActivity time.Time, seniors []*model.Instructor) error {
	return n.enqueue(ctx, model.NotificationSuspension, course.ID, student.ID, seniors, map[string]any{
		"course":        course.Shortname,
		"last_activity": lastActivity,
	})
}

func (n *OutboxNotifier) SendInactiveWarning(ctx context.Context, course *model.Course, student *model.Student, lastSession *time.Time, onHoldDate time.Time) error {
	payload := map[string]any{"course": course.Shortname}
	if lastSession != nil {
		payload["last_session"] = *lastSession
	}
	if !onHoldDate.IsZero() {
		payload["onhold_date"] = onHoldDate
	}
	return n.enqueue(ctx, model.NotificationInactiveWarning, course.ID, student.ID, nil, payload)
}

func (n *OutboxNotifier) SendSessionOverdueNotification(ctx context.Context, course *model.Course, instructor *model.Instructor, lastSession time.Time, retry int, seniors []*model.Instructor) error {
	return n.enqueue(ctx, model.NotificationSessionOverdue, course.ID, instructor.ID, seniors, map[string]any{
		"course":       course.Shortname,
		"last_session": lastSession,
		"retry":        retry,
	})
}

func (n *OutboxNotifier) SendNoshowReinstatementNotification(ctx context.Context, course *model.Course, student *model.Student, exerciseID int64, seniors []*model.Instructor) error {
	return n.enqueue(ctx, model.NotificationNoShowReinstatement, course.ID, student.ID, seniors, map[string]any{
		"course":      course.Shortname,
		"exercise_id": exerciseID,
	})
}

func (n *OutboxNotifier) SendPostedSlotsNotification(ctx context.Context, course *model.Course, student *model.Student, slotIDs []int64, recipients []*model.Instructor) error {
	return n.enqueue(ctx, model.NotificationPostedSlots, course.ID, student.ID, recipients, map[string]any{
		"course":   course.Shortname,
		"slot_ids": slotIDs,
	})
}

func (n *OutboxNotifier) SendGraduationNotification(ctx context.Context, course *model.Course, student *model.Student, seniors []*model.Instructor) error {
	return n.enqueue(ctx, model.NotificationGraduation, course.ID, student.ID, seniors, map[string]any{
		"course": course.Shortname,
	})
}
