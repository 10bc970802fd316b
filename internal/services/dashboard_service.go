package services

import (
	"context"
	"fmt"
	"time"

	"duitku/internal/core"
	"duitku/internal/storage"

	"github.com/shopspring/decimal"
)

// Dashboard is the aggregated view of a user's finances served on the
// home screen.
type Dashboard struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	ActiveGoals  int
	ActiveDebts  int

	// ExpenseByCategory covers the current month only.
	ExpenseByCategory []core.CategorySlice
	MonthlySeries     []core.MonthPoint

	CashBalance  decimal.Decimal
	DebitBalance decimal.Decimal
	BankBalances map[string]decimal.Decimal
}

// DashboardService computes aggregate views. All folds run over fetched
// rows in memory so amounts never pass through SQL arithmetic.
type DashboardService struct {
	storage       *storage.SQLiteRepository
	balanceMonths int
}

func NewDashboardService(repo *storage.SQLiteRepository, balanceMonths int) *DashboardService {
	if balanceMonths <= 0 {
		balanceMonths = 6
	}
	return &DashboardService{storage: repo, balanceMonths: balanceMonths}
}

// Overview builds the full dashboard as of the given time.
func (s *DashboardService) Overview(ctx context.Context, userID string, asOf time.Time) (Dashboard, error) {
	txs, err := s.storage.ListTransactions(ctx, userID, storage.TransactionFilter{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list transactions: %w", err)
	}

	d := Dashboard{
		TotalIncome:   decimal.Zero,
		TotalExpense:  decimal.Zero,
		MonthlySeries: core.MonthlyBalanceSeries(txs, s.balanceMonths, asOf),
		CashBalance:   core.BalanceBySource(txs, core.SourceCash, ""),
		DebitBalance:  core.BalanceBySource(txs, core.SourceDebit, ""),
		BankBalances:  make(map[string]decimal.Decimal, len(core.BankTags)),
	}

	var monthExpenses []core.Transaction
	for _, tx := range txs {
		switch tx.Type {
		case core.TypeIncome:
			d.TotalIncome = d.TotalIncome.Add(tx.Amount)
		case core.TypeExpense:
			d.TotalExpense = d.TotalExpense.Add(tx.Amount)
			if tx.Date.Month() == int(asOf.Month()) && tx.Date.Year() == asOf.Year() {
				monthExpenses = append(monthExpenses, tx)
			}
		}
	}
	d.Balance = d.TotalIncome.Sub(d.TotalExpense)

	for _, tag := range core.BankTags {
		d.BankBalances[tag] = core.BalanceBySource(txs, core.SourceDebit, tag)
	}

	names, err := s.storage.CategoryNames(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("category names: %w", err)
	}
	d.ExpenseByCategory = core.ExpenseByCategory(monthExpenses, names)

	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list goals: %w", err)
	}
	for _, g := range goals {
		if g.Progress.LessThan(g.Target) {
			d.ActiveGoals++
		}
	}

	debts, err := s.storage.ListDebts(ctx, userID, core.DebtActive)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list debts: %w", err)
	}
	d.ActiveDebts = len(debts)

	return d, nil
}
