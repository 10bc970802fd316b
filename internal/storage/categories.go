package storage

import (
	"context"
	"fmt"

	"duitku/internal/core"
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO kategori (user_id, nama, tipe) VALUES (?, ?, ?)`,
		c.UserID, c.Name, string(c.Type))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

// DeleteCategory removes a category. Expenses referencing it keep their
// rows with the reference nulled, so they fall into the fallback bucket.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM kategori WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string, typ core.TransactionType) ([]core.Category, error) {
	query := `SELECT id, nama, tipe FROM kategori WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND tipe = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY nama`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c := core.Category{UserID: userID}
		var tipe string
		if err := rows.Scan(&c.ID, &c.Name, &tipe); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(tipe)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CategoryNames returns an id-to-name lookup for chart grouping.
func (r *SQLiteRepository) CategoryNames(ctx context.Context, userID string) (map[int64]string, error) {
	cats, err := r.ListCategories(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}
