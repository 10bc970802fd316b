package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"duitku/internal/core"
)

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budget (user_id, kategori_id, limit_amount, bulan, tahun) VALUES (?, ?, ?, ?, ?)`,
		b.UserID, b.CategoryID, b.Limit.String(), b.Month, b.Year)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budget SET kategori_id = ?, limit_amount = ?, bulan = ?, tahun = ? WHERE id = ? AND user_id = ?`,
		b.CategoryID, b.Limit.String(), b.Month, b.Year, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budget WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, kategori_id, limit_amount, bulan, tahun FROM budget WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanBudget(row, userID)
}

// ListBudgets returns the user's budgets for a month, or all budgets when
// month is zero.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, month, year int) ([]core.Budget, error) {
	query := `SELECT id, kategori_id, limit_amount, bulan, tahun FROM budget WHERE user_id = ?`
	args := []any{userID}
	if month != 0 {
		query += ` AND bulan = ? AND tahun = ?`
		args = append(args, month, year)
	}
	query += ` ORDER BY tahun DESC, bulan DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows, userID)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func scanBudget(row rowScanner, userID string) (core.Budget, error) {
	b := core.Budget{UserID: userID}
	var limit string
	err := row.Scan(&b.ID, &b.CategoryID, &limit, &b.Month, &b.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if b.Limit, err = parseAmount(limit); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
