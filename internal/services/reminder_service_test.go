package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"duitku/internal/core"
	"duitku/internal/storage"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "duitku.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestReminderService_ScanUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)

	// Goal five days from its deadline and an active debt due tomorrow.
	_, err := repo.CreateGoal(ctx, core.Goal{
		UserID:   "u1",
		Name:     "Liburan",
		Target:   decimal.NewFromInt(500000),
		Progress: decimal.Zero,
		Deadline: core.NewDate(2026, 8, 20),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	_, err = repo.CreateDebt(ctx, core.Debt{
		UserID:    "u1",
		Creditor:  "Budi",
		Principal: decimal.NewFromInt(1000000),
		DebtDate:  core.NewDate(2026, 8, 1),
		DueDate:   core.NewDate(2026, 8, 16),
		Status:    core.DebtActive,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	// No broker wired, so reminders are persisted directly.
	svc := NewReminderService(repo, nil, 7, 3, 90)

	emitted, err := svc.ScanUser(ctx, "u1", now)
	if err != nil {
		t.Fatalf("ScanUser() error = %v", err)
	}
	if len(emitted) != 2 {
		t.Fatalf("ScanUser() emitted %d reminders, want 2", len(emitted))
	}

	notifications, err := repo.ListNotifications(ctx, "u1", false, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifications))
	}

	kinds := map[string]bool{}
	for _, n := range notifications {
		kinds[n.Kind] = true
		if n.Read {
			t.Error("new notification should be unread")
		}
	}
	if !kinds[KindGoalDeadline] || !kinds[KindDebtDue] {
		t.Errorf("notification kinds = %v, want goal_deadline and debt_due", kinds)
	}

	// A second scan within the dedup window emits nothing new.
	emitted, err = svc.ScanUser(ctx, "u1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ScanUser() second run error = %v", err)
	}
	if len(emitted) != 0 {
		t.Errorf("second scan emitted %d reminders, want 0", len(emitted))
	}
}

func TestReminderService_BudgetReminder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)

	cat, err := repo.CreateCategory(ctx, core.Category{
		UserID: "u1",
		Name:   "Makanan",
		Type:   core.TypeExpense,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	_, err = repo.CreateBudget(ctx, core.Budget{
		UserID:     "u1",
		CategoryID: cat.ID,
		Limit:      decimal.NewFromInt(1000000),
		Month:      8,
		Year:       2026,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID:     "u1",
		Type:       core.TypeExpense,
		Date:       core.NewDate(2026, 8, 10),
		Amount:     decimal.NewFromInt(950000),
		Source:     core.SourceCash,
		CategoryID: &cat.ID,
		Memo:       "belanja bulanan",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	svc := NewReminderService(repo, nil, 7, 3, 90)

	emitted, err := svc.ScanUser(ctx, "u1", now)
	if err != nil {
		t.Fatalf("ScanUser() error = %v", err)
	}
	if len(emitted) != 1 {
		t.Fatalf("ScanUser() emitted %d reminders, want 1", len(emitted))
	}
	if emitted[0].Kind != KindBudgetLimit {
		t.Errorf("Kind = %v, want %v", emitted[0].Kind, KindBudgetLimit)
	}
	if emitted[0].Body != "Budget Makanan sudah terpakai 95%" {
		t.Errorf("Body = %q", emitted[0].Body)
	}
}

func TestReminderService_ScanAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)

	for _, userID := range []string{"u1", "u2"} {
		_, err := repo.CreateDebt(ctx, core.Debt{
			UserID:    userID,
			Creditor:  "Koperasi",
			Principal: decimal.NewFromInt(200000),
			DebtDate:  core.NewDate(2026, 8, 1),
			DueDate:   core.NewDate(2026, 8, 17),
			Status:    core.DebtActive,
		})
		if err != nil {
			t.Fatalf("create debt for %s: %v", userID, err)
		}
	}

	svc := NewReminderService(repo, nil, 7, 3, 90)
	if err := svc.ScanAll(ctx, now); err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}

	for _, userID := range []string{"u1", "u2"} {
		notifications, err := repo.ListNotifications(ctx, userID, true, 0)
		if err != nil {
			t.Fatalf("list notifications: %v", err)
		}
		if len(notifications) != 1 {
			t.Errorf("user %s got %d notifications, want 1", userID, len(notifications))
		}
	}
}
