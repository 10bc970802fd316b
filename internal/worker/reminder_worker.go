// Package worker runs the scheduled reminder scan and drains the
// reminder queue into the notification feed.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duitku/internal/amqp"
	"duitku/internal/services"

	"github.com/robfig/cron/v3"
)

// ReminderWorker schedules reminder scans on a cron expression and, when
// a broker is wired, consumes published reminders back into storage.
type ReminderWorker struct {
	reminders     *services.ReminderService
	notifications *services.NotificationService
	amqpClient    *amqp.Client
	cronSpec      string
	scheduler     *cron.Cron
}

// NewReminderWorker builds a worker. The AMQP client may be nil, in which
// case the scan persists notifications directly and no consumer runs.
func NewReminderWorker(reminders *services.ReminderService, notifications *services.NotificationService, amqpClient *amqp.Client, cronSpec string) *ReminderWorker {
	return &ReminderWorker{
		reminders:     reminders,
		notifications: notifications,
		amqpClient:    amqpClient,
		cronSpec:      cronSpec,
	}
}

// Start runs an initial scan, schedules recurring scans, and starts the
// queue consumer. It returns once the scheduler is running; Stop shuts it
// down.
func (w *ReminderWorker) Start(ctx context.Context) error {
	// Catch up immediately so a worker restarted after downtime does not
	// wait until the next scheduled run.
	if err := w.RunScan(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial reminder scan failed", "error", err)
	}

	w.scheduler = cron.New()
	_, err := w.scheduler.AddFunc(w.cronSpec, func() {
		if err := w.RunScan(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled reminder scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminder scan: %w", err)
	}
	w.scheduler.Start()
	slog.InfoContext(ctx, "Reminder scan scheduled", "cron", w.cronSpec)

	if w.amqpClient != nil {
		go func() {
			err := w.amqpClient.ConsumeReminders(ctx, func(msg *amqp.ReminderMessage) error {
				return w.notifications.HandleReminderMessage(ctx, msg)
			})
			if err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Reminder consumer stopped", "error", err)
			}
		}()
	}

	return nil
}

// RunScan executes one reminder scan over all users.
func (w *ReminderWorker) RunScan(ctx context.Context) error {
	start := time.Now()
	err := w.reminders.ScanAll(ctx, start)
	slog.InfoContext(ctx, "Reminder scan finished",
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err)
	return err
}

// Stop halts the scheduler and waits for an in-flight scan to finish.
func (w *ReminderWorker) Stop() {
	if w.scheduler != nil {
		<-w.scheduler.Stop().Done()
	}
}
