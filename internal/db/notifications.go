package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateNotificationParams struct {
	Kind    string
	Title   string
	Message string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	var n Notification
	err := q.db.QueryRow(ctx, `
		INSERT INTO notifications (kind, title, message)
		VALUES ($1, $2, $3)
		RETURNING id, kind, title, message, is_read, created_at`,
		arg.Kind, arg.Title, arg.Message).
		Scan(&n.ID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	return n, err
}

type ListNotificationsParams struct {
	UnreadOnly bool
	Limit      int32
	Offset     int32
}

func (q *Queries) ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]Notification, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, kind, title, message, is_read, created_at
		FROM notifications
		WHERE (NOT $1::bool OR NOT is_read)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		arg.UnreadOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifs []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Kind, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func (q *Queries) CountUnreadNotifications(ctx context.Context) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE NOT is_read`).Scan(&total)
	return total, err
}

func (q *Queries) MarkNotificationRead(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE NOT is_read`)
	return err
}
