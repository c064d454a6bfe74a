package repository

import (
	"context"
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

type notificationRepository struct {
	db persistence.DBTX
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(db persistence.DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, type, title, message, link)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		n.RecipientID, n.Type, n.Title, n.Message, n.Link,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `
        SELECT id, recipient_id, type, title, message, link, read_at, created_at
        FROM notifications WHERE id=$1`
	var n domain.Notification
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.Link, &n.ReadAt, &n.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	w := &where{}
	w.add("recipient_id=$%d", recipientID)
	if unreadOnly {
		w.raw("read_at IS NULL")
	}
	query := `SELECT id, recipient_id, type, title, message, link, read_at, created_at FROM notifications` +
		w.String() + ` ORDER BY created_at DESC` + page(limit, offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.Link, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET read_at=COALESCE(read_at, $1) WHERE id=$2`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, at, id)
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	const query = `UPDATE notifications SET read_at=$1 WHERE recipient_id=$2 AND read_at IS NULL`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, at, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND read_at IS NULL`
	var n int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, recipientID).Scan(&n)
	return n, err
}
