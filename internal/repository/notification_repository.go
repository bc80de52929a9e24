package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bavirtual/session-booking/internal/model"
	"github.com/bavirtual/session-booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) db(ctx context.Context) base.DB {
	return base.FromContext(ctx, r.pool)
}

// Enqueue persists one outbox row. Delivery is handled by an external reader.
func (r *NotificationRepository) Enqueue(ctx context.Context, n *model.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (id, kind, course_id, recipient_id, cc_recipients, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err = r.db(ctx).QueryRow(
		ctx, query,
		n.ID,
		n.Kind,
		n.CourseID,
		n.RecipientID,
		n.CCRecipients,
		payload,
	).Scan(&n.CreatedAt)

	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}

	return nil
}
