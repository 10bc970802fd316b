// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for reminder checking. Each
// reminder kind (goal deadline, debt due date, budget limit) has its own
// checker that encapsulates the logic for deciding when to alert.

package services

import (
	"fmt"
	"time"

	"duitku/internal/core"

	"github.com/shopspring/decimal"
)

// Reminder kinds. They double as the registry keys and the notification
// kind column.
const (
	KindGoalDeadline = "goal_deadline"
	KindDebtDue      = "debt_due"
	KindBudgetLimit  = "budget_limit"
)

// Reminder is one computed {title, body} pair for a user.
type Reminder struct {
	Kind  string
	Title string
	Body  string
}

// ReminderInput is the snapshot of a user's records a checker scans.
type ReminderInput struct {
	Goals   []core.Goal
	Debts   []core.Debt
	Budgets []core.Budget
	// Spent holds the current month's expense total per category id,
	// for budget usage checks.
	Spent         map[int64]decimal.Decimal
	CategoryNames map[int64]string
}

// ReminderChecker is the strategy interface for one reminder kind.
type ReminderChecker interface {
	// Check returns the reminders due as of the given time.
	Check(in ReminderInput, asOf time.Time) []Reminder
}

// daysUntil counts whole calendar days from asOf to the date, negative
// when the date is past.
func daysUntil(d core.Date, asOf time.Time) int {
	from := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(d.Year(), time.Month(d.Month()), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// GoalDeadlineChecker alerts on goals whose deadline is close but not past.
type GoalDeadlineChecker struct {
	WindowDays int
}

// Check returns a reminder for every unfinished goal with a deadline
// within the window. Deadlines today or already past are not announced.
func (c GoalDeadlineChecker) Check(in ReminderInput, asOf time.Time) []Reminder {
	var reminders []Reminder
	for _, g := range in.Goals {
		if g.Deadline.IsEmpty() || g.Progress.GreaterThanOrEqual(g.Target) {
			continue
		}
		days := daysUntil(g.Deadline, asOf)
		if days <= 0 || days > c.WindowDays {
			continue
		}
		reminders = append(reminders, Reminder{
			Kind:  KindGoalDeadline,
			Title: "Target Mendekati Deadline",
			Body:  fmt.Sprintf("Target \"%s\" tinggal %d hari lagi", g.Name, days),
		})
	}
	return reminders
}

// DebtDueChecker alerts on active debts due within the window.
type DebtDueChecker struct {
	WindowDays int
}

// Check returns a reminder for every active debt due today or within the
// window. Settled debts and debts without a due date are skipped.
func (c DebtDueChecker) Check(in ReminderInput, asOf time.Time) []Reminder {
	var reminders []Reminder
	for _, d := range in.Debts {
		if d.Status != core.DebtActive || d.DueDate.IsEmpty() {
			continue
		}
		days := daysUntil(d.DueDate, asOf)
		if days < 0 || days > c.WindowDays {
			continue
		}
		body := fmt.Sprintf("Hutang ke %s jatuh tempo dalam %d hari", d.Creditor, days)
		if days == 0 {
			body = fmt.Sprintf("Hutang ke %s jatuh tempo hari ini", d.Creditor)
		}
		reminders = append(reminders, Reminder{
			Kind:  KindDebtDue,
			Title: "Hutang Jatuh Tempo",
			Body:  body,
		})
	}
	return reminders
}

// BudgetLimitChecker alerts on budgets whose month usage crossed the
// threshold percentage.
type BudgetLimitChecker struct {
	ThresholdPercent int
}

func (c BudgetLimitChecker) Check(in ReminderInput, asOf time.Time) []Reminder {
	var reminders []Reminder
	for _, b := range in.Budgets {
		if b.Month != int(asOf.Month()) || b.Year != asOf.Year() {
			continue
		}
		spent, ok := in.Spent[b.CategoryID]
		if !ok {
			continue
		}
		usage := core.Percent(spent, b.Limit)
		if usage < float64(c.ThresholdPercent) {
			continue
		}
		name := in.CategoryNames[b.CategoryID]
		if name == "" {
			name = core.FallbackCategory
		}
		reminders = append(reminders, Reminder{
			Kind:  KindBudgetLimit,
			Title: "Budget Hampir Habis",
			Body:  fmt.Sprintf("Budget %s sudah terpakai %.0f%%", name, usage),
		})
	}
	return reminders
}

// reminderStrategies maps reminder kinds to their checkers. The registry
// enables O(1) lookup and easy extension for new reminder kinds.
var reminderStrategies = map[string]ReminderChecker{
	KindGoalDeadline: GoalDeadlineChecker{WindowDays: 7},
	KindDebtDue:      DebtDueChecker{WindowDays: 3},
	KindBudgetLimit:  BudgetLimitChecker{ThresholdPercent: 90},
}

// GetReminderChecker returns the checker registered for a reminder kind.
func GetReminderChecker(kind string) (ReminderChecker, error) {
	checker, ok := reminderStrategies[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reminder kind: %s", kind)
	}
	return checker, nil
}

// RegisterReminderChecker registers a custom checker for a reminder kind,
// replacing any existing one.
func RegisterReminderChecker(kind string, checker ReminderChecker) {
	reminderStrategies[kind] = checker
}
