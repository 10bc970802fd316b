package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"duitku/internal/amqp"
	"duitku/internal/core"
	"duitku/internal/storage"
)

// dedupWindow suppresses repeats of the same reminder title within a day,
// so a daily scan does not pile up identical notifications.
const dedupWindow = 24 * time.Hour

// ReminderService scans user records for due reminders and hands them to
// the queue. When no broker is configured the notifications are written
// straight to storage instead.
type ReminderService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	checkers   []ReminderChecker
	budgets    *BudgetService
}

// NewReminderService builds a scanner with the three built-in checkers
// configured from the given windows. The AMQP client may be nil.
func NewReminderService(repo *storage.SQLiteRepository, client *amqp.Client, goalWindowDays, debtWindowDays, budgetThresholdPercent int) *ReminderService {
	return &ReminderService{
		storage:    repo,
		amqpClient: client,
		checkers: []ReminderChecker{
			GoalDeadlineChecker{WindowDays: goalWindowDays},
			DebtDueChecker{WindowDays: debtWindowDays},
			BudgetLimitChecker{ThresholdPercent: budgetThresholdPercent},
		},
		budgets: NewBudgetService(repo),
	}
}

// ScanAll runs a reminder scan for every user with records. Per-user
// failures are logged and do not stop the scan.
func (s *ReminderService) ScanAll(ctx context.Context, asOf time.Time) error {
	userIDs, err := s.storage.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list user ids: %w", err)
	}

	var failed int
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		reminders, err := s.ScanUser(ctx, userID, asOf)
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Reminder scan failed for user",
				"user_id", userID, "error", err)
			continue
		}
		if len(reminders) > 0 {
			slog.InfoContext(ctx, "Reminders emitted",
				"user_id", userID, "count", len(reminders))
		}
	}

	if failed > 0 {
		return fmt.Errorf("reminder scan failed for %d of %d users", failed, len(userIDs))
	}
	return nil
}

// ScanUser evaluates all checkers against one user's records and emits
// the due reminders, skipping any already announced within the dedup
// window. It returns the reminders actually emitted.
func (s *ReminderService) ScanUser(ctx context.Context, userID string, asOf time.Time) ([]Reminder, error) {
	in, err := s.gatherInput(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}

	var emitted []Reminder
	for _, checker := range s.checkers {
		for _, reminder := range checker.Check(in, asOf) {
			recent, err := s.storage.HasRecentNotification(ctx, userID, reminder.Kind, reminder.Title, dedupWindow)
			if err != nil {
				return emitted, fmt.Errorf("check recent notification: %w", err)
			}
			if recent {
				continue
			}
			if err := s.emit(ctx, userID, reminder); err != nil {
				return emitted, err
			}
			emitted = append(emitted, reminder)
		}
	}
	return emitted, nil
}

func (s *ReminderService) gatherInput(ctx context.Context, userID string, asOf time.Time) (ReminderInput, error) {
	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return ReminderInput{}, fmt.Errorf("list goals: %w", err)
	}
	debts, err := s.storage.ListDebts(ctx, userID, core.DebtActive)
	if err != nil {
		return ReminderInput{}, fmt.Errorf("list debts: %w", err)
	}
	budgets, err := s.storage.ListBudgets(ctx, userID, int(asOf.Month()), asOf.Year())
	if err != nil {
		return ReminderInput{}, fmt.Errorf("list budgets: %w", err)
	}
	spent, err := s.budgets.SpentByCategory(ctx, userID, int(asOf.Month()), asOf.Year())
	if err != nil {
		return ReminderInput{}, err
	}
	names, err := s.storage.CategoryNames(ctx, userID)
	if err != nil {
		return ReminderInput{}, fmt.Errorf("category names: %w", err)
	}

	return ReminderInput{
		Goals:         goals,
		Debts:         debts,
		Budgets:       budgets,
		Spent:         spent,
		CategoryNames: names,
	}, nil
}

// emit publishes the reminder when a broker is wired, falling back to a
// direct notification insert when there is none or the publish fails.
func (s *ReminderService) emit(ctx context.Context, userID string, reminder Reminder) error {
	if s.amqpClient != nil {
		msg := amqp.NewReminderMessage(userID, reminder.Kind, reminder.Title, reminder.Body)
		err := s.amqpClient.PublishReminder(ctx, msg)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		slog.WarnContext(ctx, "Reminder publish failed, persisting directly",
			"user_id", userID, "kind", reminder.Kind, "error", err)
	}

	_, err := s.storage.InsertNotification(ctx, core.Notification{
		UserID: userID,
		Kind:   reminder.Kind,
		Title:  reminder.Title,
		Body:   reminder.Body,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Close releases the broker connection if one was wired.
func (s *ReminderService) Close() error {
	var errs []error
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP client: %w", err))
		}
	}
	return errors.Join(errs...)
}
