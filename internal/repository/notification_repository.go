package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/techsynergy/campus-backend/internal/model"
)

// NotificationRepository handles notification data access.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a notification. Re-inserting the same ID is a no-op, so a
// redelivered queue entry does not duplicate the row.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.CreatedAt,
	)
	return err
}

// ListByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]model.Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR read = FALSE)`,
		userID, unreadOnly,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, title, message, data, read, created_at
		 FROM notifications
		 WHERE user_id = $1 AND (NOT $2 OR read = FALSE)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags all of a user's notifications as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
