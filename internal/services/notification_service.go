package services

import (
	"context"
	"fmt"
	"log/slog"

	"duitku/internal/amqp"
	"duitku/internal/core"
	"duitku/internal/storage"
)

// NotificationService handles the in-app notification feed and persists
// reminder messages arriving from the queue.
type NotificationService struct {
	storage *storage.SQLiteRepository
}

func NewNotificationService(repo *storage.SQLiteRepository) *NotificationService {
	return &NotificationService{storage: repo}
}

// List returns notifications newest first. A limit of zero means no limit.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]core.Notification, error) {
	items, err := s.storage.ListNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID string, id int64) error {
	if err := s.storage.MarkNotificationRead(ctx, userID, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.storage.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// HandleReminderMessage persists one consumed reminder as a notification
// row. It is the consumer-side handler for the reminder queue.
func (s *NotificationService) HandleReminderMessage(ctx context.Context, msg *amqp.ReminderMessage) error {
	_, err := s.storage.InsertNotification(ctx, core.Notification{
		UserID: msg.UserID,
		Kind:   msg.Kind,
		Title:  msg.Title,
		Body:   msg.Body,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	slog.InfoContext(ctx, "Reminder persisted",
		"user_id", msg.UserID,
		"kind", msg.Kind)
	return nil
}
