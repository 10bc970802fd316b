package services

import (
	"context"
	"fmt"
	"log/slog"

	"duitku/internal/core"
	"duitku/internal/storage"
)

// TransactionService handles income and expense record operations.
type TransactionService struct {
	storage *storage.SQLiteRepository
}

func NewTransactionService(repo *storage.SQLiteRepository) *TransactionService {
	return &TransactionService{storage: repo}
}

// Create validates and records a transaction.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.storage.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"user_id", created.UserID,
		"type", string(created.Type),
		"amount", created.Amount.String())

	return created, nil
}

// Update validates and rewrites an existing transaction. The transaction
// type selects the table; a record cannot change kind.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID string, typ core.TransactionType, id int64) error {
	if err := typ.Validate(); err != nil {
		return err
	}
	if err := s.storage.DeleteTransaction(ctx, userID, typ, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID string, typ core.TransactionType, id int64) (core.Transaction, error) {
	if err := typ.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return s.storage.GetTransaction(ctx, userID, typ, id)
}

// List returns the user's transactions newest first, narrowed by filter.
func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return nil, err
		}
	}
	txs, err := s.storage.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// CreateCategory validates and records a category.
func (s *TransactionService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// DeleteCategory removes a category. Expenses referencing it fall back to
// the uncategorized bucket.
func (s *TransactionService) DeleteCategory(ctx context.Context, userID string, id int64) error {
	if err := s.storage.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ListCategories returns categories, optionally limited to one kind.
func (s *TransactionService) ListCategories(ctx context.Context, userID string, typ core.TransactionType) ([]core.Category, error) {
	if typ != "" {
		if err := typ.Validate(); err != nil {
			return nil, err
		}
	}
	cats, err := s.storage.ListCategories(ctx, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}
