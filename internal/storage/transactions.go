package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"duitku/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Type       core.TransactionType // empty = both kinds
	Source     core.SourceTag
	CategoryID *int64    // expenses only
	Search     string    // case-insensitive memo substring
	From, To   core.Date // inclusive date range
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	var (
		res sql.Result
		err error
	)
	switch tx.Type {
	case core.TypeIncome:
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO pemasukan (user_id, tanggal, jumlah, sumber, keterangan) VALUES (?, ?, ?, ?, ?)`,
			tx.UserID, dbDate(tx.Date), tx.Amount.String(), string(tx.Source), tx.Memo)
	case core.TypeExpense:
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO pengeluaran (user_id, tanggal, jumlah, kategori_id, sumber, keterangan) VALUES (?, ?, ?, ?, ?, ?)`,
			tx.UserID, dbDate(tx.Date), tx.Amount.String(), nullID(tx.CategoryID), string(tx.Source), tx.Memo)
	default:
		return core.Transaction{}, core.ErrInvalidType
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert %s: %w", tx.Type, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	tx.ID = id
	return tx, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	var (
		res sql.Result
		err error
	)
	switch tx.Type {
	case core.TypeIncome:
		res, err = r.db.ExecContext(ctx,
			`UPDATE pemasukan SET tanggal = ?, jumlah = ?, sumber = ?, keterangan = ? WHERE id = ? AND user_id = ?`,
			dbDate(tx.Date), tx.Amount.String(), string(tx.Source), tx.Memo, tx.ID, tx.UserID)
	case core.TypeExpense:
		res, err = r.db.ExecContext(ctx,
			`UPDATE pengeluaran SET tanggal = ?, jumlah = ?, kategori_id = ?, sumber = ?, keterangan = ? WHERE id = ? AND user_id = ?`,
			dbDate(tx.Date), tx.Amount.String(), nullID(tx.CategoryID), string(tx.Source), tx.Memo, tx.ID, tx.UserID)
	default:
		return core.ErrInvalidType
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", tx.Type, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID string, typ core.TransactionType, id int64) error {
	table, err := tableFor(typ)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", typ, err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID string, typ core.TransactionType, id int64) (core.Transaction, error) {
	txs, err := r.listFromTable(ctx, userID, typ, TransactionFilter{}, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(txs) == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return txs[0], nil
}

// ListTransactions returns matching income and expense rows merged,
// newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	var txs []core.Transaction
	for _, typ := range []core.TransactionType{core.TypeIncome, core.TypeExpense} {
		if f.Type != "" && f.Type != typ {
			continue
		}
		part, err := r.listFromTable(ctx, userID, typ, f, 0)
		if err != nil {
			return nil, err
		}
		txs = append(txs, part...)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date.Time)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func tableFor(typ core.TransactionType) (string, error) {
	switch typ {
	case core.TypeIncome:
		return "pemasukan", nil
	case core.TypeExpense:
		return "pengeluaran", nil
	default:
		return "", core.ErrInvalidType
	}
}

func (r *SQLiteRepository) listFromTable(ctx context.Context, userID string, typ core.TransactionType, f TransactionFilter, id int64) ([]core.Transaction, error) {
	table, err := tableFor(typ)
	if err != nil {
		return nil, err
	}

	cols := "id, tanggal, jumlah, sumber, keterangan"
	if typ == core.TypeExpense {
		cols += ", kategori_id"
	}

	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if id != 0 {
		where = append(where, "id = ?")
		args = append(args, id)
	}
	if f.Source != "" {
		where = append(where, "sumber = ?")
		args = append(args, string(f.Source))
	}
	if f.Search != "" {
		where = append(where, "keterangan LIKE '%' || ? || '%'")
		args = append(args, f.Search)
	}
	if f.CategoryID != nil && typ == core.TypeExpense {
		where = append(where, "kategori_id = ?")
		args = append(args, *f.CategoryID)
	}
	if !f.From.IsEmpty() {
		where = append(where, "tanggal >= ?")
		args = append(args, dbDate(f.From))
	}
	if !f.To.IsEmpty() {
		where = append(where, "tanggal <= ?")
		args = append(args, dbDate(f.To))
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY tanggal DESC, id DESC",
		cols, table, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", typ, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx := core.Transaction{UserID: userID, Type: typ}
		var (
			tanggal  string
			jumlah   string
			sumber   string
			category sql.NullInt64
		)
		dest := []any{&tx.ID, &tanggal, &jumlah, &sumber, &tx.Memo}
		if typ == core.TypeExpense {
			dest = append(dest, &category)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", typ, err)
		}
		if tx.Date, err = parseDate(tanggal); err != nil {
			return nil, err
		}
		if tx.Amount, err = parseAmount(jumlah); err != nil {
			return nil, err
		}
		tx.Source = core.SourceTag(sumber)
		tx.CategoryID = idPtr(category)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
