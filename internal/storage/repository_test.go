package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"duitku/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "duitku.db"))
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	income, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1",
		Type:   core.TypeIncome,
		Date:   core.NewDate(2026, 8, 1),
		Amount: decimal.NewFromInt(5000000),
		Source: core.SourceDebit,
		Memo:   "DANA - gaji",
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if income.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	expense, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: "u1",
		Type:   core.TypeExpense,
		Date:   core.NewDate(2026, 8, 5),
		Amount: decimal.NewFromInt(75000),
		Source: core.SourceCash,
		Memo:   "makan siang",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	txs, err := repo.ListTransactions(ctx, "u1", TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Newest first.
	if txs[0].ID != expense.ID || txs[0].Type != core.TypeExpense {
		t.Fatalf("expected expense first, got %+v", txs[0])
	}

	expense.Amount = decimal.NewFromInt(80000)
	expense.Memo = "makan malam"
	if err := repo.UpdateTransaction(ctx, expense); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetTransaction(ctx, "u1", core.TypeExpense, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Equal(decimal.NewFromInt(80000)) || got.Memo != "makan malam" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.DeleteTransaction(ctx, "u1", core.TypeIncome, income.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, "u1", core.TypeIncome, income.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		{UserID: "u1", Type: core.TypeIncome, Date: core.NewDate(2026, 8, 1), Amount: decimal.NewFromInt(1000), Source: core.SourceDebit, Memo: "DANA - topup"},
		{UserID: "u1", Type: core.TypeExpense, Date: core.NewDate(2026, 8, 2), Amount: decimal.NewFromInt(200), Source: core.SourceDebit, Memo: "dana - belanja"},
		{UserID: "u1", Type: core.TypeExpense, Date: core.NewDate(2026, 7, 15), Amount: decimal.NewFromInt(300), Source: core.SourceCash, Memo: "warung"},
		{UserID: "u2", Type: core.TypeExpense, Date: core.NewDate(2026, 8, 2), Amount: decimal.NewFromInt(999), Source: core.SourceCash, Memo: "bukan milik u1"},
	}
	for _, tx := range seed {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// Memo search is a case-insensitive substring.
	txs, err := repo.ListTransactions(ctx, "u1", TransactionFilter{Search: "DANA"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(txs))
	}

	txs, err = repo.ListTransactions(ctx, "u1", TransactionFilter{Type: core.TypeExpense})
	if err != nil {
		t.Fatalf("type filter: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(txs))
	}

	txs, err = repo.ListTransactions(ctx, "u1", TransactionFilter{
		From: core.NewDate(2026, 8, 1),
		To:   core.NewDate(2026, 8, 31),
	})
	if err != nil {
		t.Fatalf("range filter: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 in August, got %d", len(txs))
	}

	txs, err = repo.ListTransactions(ctx, "u1", TransactionFilter{Source: core.SourceCash})
	if err != nil {
		t.Fatalf("source filter: %v", err)
	}
	if len(txs) != 1 || txs[0].Memo != "warung" {
		t.Fatalf("expected the warung row, got %+v", txs)
	}
}

func TestCategoryDeleteNullsExpenseReference(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Makanan", Type: core.TypeExpense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:     "u1",
		Type:       core.TypeExpense,
		Date:       core.NewDate(2026, 8, 1),
		Amount:     decimal.NewFromInt(10000),
		Source:     core.SourceCash,
		CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if err := repo.DeleteCategory(ctx, "u1", cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "u1", core.TypeExpense, tx.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.CategoryID != nil {
		t.Fatalf("expected nulled category reference, got %v", *got.CategoryID)
	}
}

func TestGoalSavingLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	goal, err := repo.CreateGoal(ctx, core.Goal{
		UserID:   "u1",
		Name:     "Liburan",
		Target:   decimal.NewFromInt(500000),
		Progress: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	saving, updated, err := repo.AddSaving(ctx, "u1", core.Saving{
		GoalID: goal.ID,
		Amount: decimal.NewFromInt(150000),
		Source: core.SourceCash,
		Note:   "sisihan gaji",
		Date:   core.NewDate(2026, 8, 1),
	})
	if err != nil {
		t.Fatalf("add saving: %v", err)
	}
	if !updated.Progress.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("progress after add: %s", updated.Progress)
	}

	// Edit applies the delta through a full replay.
	saving.Amount = decimal.NewFromInt(50000)
	updated, err = repo.UpdateSaving(ctx, "u1", saving)
	if err != nil {
		t.Fatalf("update saving: %v", err)
	}
	if !updated.Progress.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("progress after edit: %s", updated.Progress)
	}

	updated, err = repo.DeleteSaving(ctx, "u1", saving.ID)
	if err != nil {
		t.Fatalf("delete saving: %v", err)
	}
	if !updated.Progress.IsZero() {
		t.Fatalf("progress after delete: %s", updated.Progress)
	}

	// Foreign user cannot touch the goal.
	if _, _, err := repo.AddSaving(ctx, "u2", core.Saving{
		GoalID: goal.ID,
		Amount: decimal.NewFromInt(1),
		Source: core.SourceCash,
		Date:   core.NewDate(2026, 8, 1),
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestDebtPaymentLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	debt, err := repo.CreateDebt(ctx, core.Debt{
		UserID:     "u1",
		Creditor:   "Pak Budi",
		Principal:  decimal.NewFromInt(1000000),
		AmountPaid: decimal.Zero,
		DebtDate:   core.NewDate(2026, 1, 10),
		Status:     core.DebtActive,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}

	_, updated, err := repo.AddDebtPayment(ctx, "u1", core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(400000),
		Date:   core.NewDate(2026, 2, 1),
	})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if !updated.AmountPaid.Equal(decimal.NewFromInt(400000)) || updated.Status != core.DebtActive {
		t.Fatalf("after 400000: paid=%s status=%s", updated.AmountPaid, updated.Status)
	}

	settling, updated, err := repo.AddDebtPayment(ctx, "u1", core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(600000),
		Date:   core.NewDate(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("second payment: %v", err)
	}
	if !updated.AmountPaid.Equal(decimal.NewFromInt(1000000)) || updated.Status != core.DebtPaid {
		t.Fatalf("after 600000: paid=%s status=%s", updated.AmountPaid, updated.Status)
	}

	// Deleting the settling payment reverts the status.
	updated, err = repo.DeleteDebtPayment(ctx, "u1", settling.ID)
	if err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if !updated.AmountPaid.Equal(decimal.NewFromInt(400000)) || updated.Status != core.DebtActive {
		t.Fatalf("after delete: paid=%s status=%s", updated.AmountPaid, updated.Status)
	}

	payments, err := repo.ListDebtPayments(ctx, "u1", debt.ID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
}

func TestDebtStatusFollowsPrincipalEdit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	debt, err := repo.CreateDebt(ctx, core.Debt{
		UserID:    "u1",
		Creditor:  "Bank BTN",
		Principal: decimal.NewFromInt(500000),
		DebtDate:  core.NewDate(2026, 1, 1),
		Status:    core.DebtActive,
	})
	if err != nil {
		t.Fatalf("create debt: %v", err)
	}
	if _, _, err := repo.AddDebtPayment(ctx, "u1", core.DebtPayment{
		DebtID: debt.ID,
		Amount: decimal.NewFromInt(500000),
		Date:   core.NewDate(2026, 2, 1),
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// Raising the principal above the paid total reopens the debt.
	debt.Principal = decimal.NewFromInt(800000)
	if err := repo.UpdateDebt(ctx, debt); err != nil {
		t.Fatalf("update debt: %v", err)
	}
	got, err := repo.GetDebt(ctx, "u1", debt.ID)
	if err != nil {
		t.Fatalf("get debt: %v", err)
	}
	if got.Status != core.DebtActive {
		t.Fatalf("expected aktif after principal raise, got %s", got.Status)
	}
}

func TestListDebtsByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, status := range []core.DebtStatus{core.DebtActive, core.DebtActive, core.DebtPaid} {
		d := core.Debt{
			UserID:    "u1",
			Creditor:  "kreditor",
			Principal: decimal.NewFromInt(1000),
			DebtDate:  core.NewDate(2026, 1, i+1),
			Status:    core.DebtActive,
		}
		created, err := repo.CreateDebt(ctx, d)
		if err != nil {
			t.Fatalf("create debt: %v", err)
		}
		if status == core.DebtPaid {
			if _, _, err := repo.AddDebtPayment(ctx, "u1", core.DebtPayment{
				DebtID: created.ID,
				Amount: decimal.NewFromInt(1000),
				Date:   core.NewDate(2026, 2, 1),
			}); err != nil {
				t.Fatalf("settle debt: %v", err)
			}
		}
	}

	active, err := repo.ListDebts(ctx, "u1", core.DebtActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active, got %d", len(active))
	}

	paid, err := repo.ListDebts(ctx, "u1", core.DebtPaid)
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if len(paid) != 1 {
		t.Fatalf("expected 1 paid, got %d", len(paid))
	}

	all, err := repo.ListDebts(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 debts, got %d", len(all))
	}
}

func TestBudgetCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.CreateCategory(ctx, core.Category{UserID: "u1", Name: "Transportasi", Type: core.TypeExpense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	b, err := repo.CreateBudget(ctx, core.Budget{
		UserID:     "u1",
		CategoryID: cat.ID,
		Limit:      decimal.NewFromInt(750000),
		Month:      8,
		Year:       2026,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	b.Limit = decimal.NewFromInt(900000)
	if err := repo.UpdateBudget(ctx, b); err != nil {
		t.Fatalf("update budget: %v", err)
	}

	budgets, err := repo.ListBudgets(ctx, "u1", 8, 2026)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(budgets) != 1 || !budgets[0].Limit.Equal(decimal.NewFromInt(900000)) {
		t.Fatalf("unexpected budgets: %+v", budgets)
	}

	if err := repo.DeleteBudget(ctx, "u1", b.ID); err != nil {
		t.Fatalf("delete budget: %v", err)
	}
	if _, err := repo.GetBudget(ctx, "u1", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotifications(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.InsertNotification(ctx, core.Notification{
		UserID: "u1",
		Title:  "Hutang Jatuh Tempo",
		Body:   "Hutang ke Pak Budi jatuh tempo dalam 2 hari",
		Kind:   "debt_due",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	unread, err := repo.ListNotifications(ctx, "u1", true, 0)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].Read {
		t.Fatalf("expected one unread, got %+v", unread)
	}

	if err := repo.MarkNotificationRead(ctx, "u1", n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = repo.ListNotifications(ctx, "u1", true, 0)
	if err != nil {
		t.Fatalf("list unread again: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected none unread, got %d", len(unread))
	}

	recent, err := repo.HasRecentNotification(ctx, "u1", "debt_due", "Hutang Jatuh Tempo", 24*time.Hour)
	if err != nil {
		t.Fatalf("has recent: %v", err)
	}
	if !recent {
		t.Fatalf("expected recent notification to be found")
	}
}

func TestListUserIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateGoal(ctx, core.Goal{UserID: "u1", Name: "g", Target: decimal.NewFromInt(1), Progress: decimal.Zero}); err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	if _, err := repo.CreateDebt(ctx, core.Debt{UserID: "u2", Creditor: "c", Principal: decimal.NewFromInt(1), AmountPaid: decimal.Zero, DebtDate: core.NewDate(2026, 1, 1), Status: core.DebtActive}); err != nil {
		t.Fatalf("seed debt: %v", err)
	}

	ids, err := repo.ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("list user ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 users, got %v", ids)
	}
}
