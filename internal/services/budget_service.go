package services

import (
	"context"
	"fmt"
	"time"

	"duitku/internal/core"
	"duitku/internal/storage"

	"github.com/shopspring/decimal"
)

// BudgetUsage pairs a budget with the month's actual spending in its
// category.
type BudgetUsage struct {
	core.Budget
	CategoryName string
	Spent        decimal.Decimal
	Percent      float64
}

// BudgetService handles per-category monthly spending limits.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(repo *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: repo}
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	created, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateBudget(ctx, b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// ListWithUsage returns the budgets for one month with each category's
// actual spending and usage percentage folded in.
func (s *BudgetService) ListWithUsage(ctx context.Context, userID string, month, year int) ([]BudgetUsage, error) {
	if month < 1 || month > 12 {
		return nil, core.ErrInvalidMonth
	}

	budgets, err := s.storage.ListBudgets(ctx, userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	spent, err := s.SpentByCategory(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	names, err := s.storage.CategoryNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("category names: %w", err)
	}

	usages := make([]BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		used := spent[b.CategoryID]
		usages = append(usages, BudgetUsage{
			Budget:       b,
			CategoryName: names[b.CategoryID],
			Spent:        used,
			Percent:      core.Percent(used, b.Limit),
		})
	}
	return usages, nil
}

// SpentByCategory totals one month's expenses per category id.
// Uncategorized expenses are not included.
func (s *BudgetService) SpentByCategory(ctx context.Context, userID string, month, year int) (map[int64]decimal.Decimal, error) {
	from, to := monthRange(month, year)
	expenses, err := s.storage.ListTransactions(ctx, userID, storage.TransactionFilter{
		Type: core.TypeExpense,
		From: from,
		To:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	spent := make(map[int64]decimal.Decimal)
	for _, tx := range expenses {
		if tx.CategoryID == nil {
			continue
		}
		spent[*tx.CategoryID] = spent[*tx.CategoryID].Add(tx.Amount)
	}
	return spent, nil
}

// monthRange returns the first and last day of a calendar month.
func monthRange(month, year int) (core.Date, core.Date) {
	from := core.NewDate(year, month, 1)
	lastDay := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	to := core.NewDate(year, month, lastDay)
	return from, to
}
