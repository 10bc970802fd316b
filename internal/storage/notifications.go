package storage

import (
	"context"
	"fmt"
	"time"

	"duitku/internal/core"
)

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, body, kind) VALUES (?, ?, ?, ?)`,
		n.UserID, n.Title, n.Body, n.Kind)
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Notification{}, fmt.Errorf("last insert id: %w", err)
	}
	n.ID = id
	return n, nil
}

// ListNotifications returns the user's notifications, newest first.
// limit <= 0 means no limit.
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]core.Notification, error) {
	query := `SELECT id, title, body, kind, is_read, created_at FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		n := core.Notification{UserID: userID}
		var (
			isRead    int
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Kind, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Read = isRead != 0
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			n.CreatedAt = t
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// HasRecentNotification reports whether a notification of the same kind and
// title was created for the user within the window. The reminder worker uses
// this to avoid re-announcing the same condition every scan.
func (r *SQLiteRepository) HasRecentNotification(ctx context.Context, userID, kind, title string, within time.Duration) (bool, error) {
	cutoff := time.Now().UTC().Add(-within).Format("2006-01-02 15:04:05")
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = ? AND kind = ? AND title = ? AND created_at >= ?`,
		userID, kind, title, cutoff).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return count > 0, nil
}
