package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"duitku/internal/core"
)

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	var cicilanAmount sql.NullString
	var cicilanDay, cicilanMonths sql.NullInt64
	if d.Installment != nil {
		cicilanAmount = sql.NullString{String: d.Installment.Amount.String(), Valid: true}
		cicilanDay = sql.NullInt64{Int64: int64(d.Installment.Day), Valid: true}
		cicilanMonths = sql.NullInt64{Int64: int64(d.Installment.Months), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hutang (user_id, nama_kreditor, jumlah_hutang, jumlah_terbayar, tanggal_hutang,
			tanggal_jatuh_tempo, keterangan, status, cicilan_amount, cicilan_day, cicilan_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, d.Creditor, d.Principal.String(), d.AmountPaid.String(), dbDate(d.DebtDate),
		dbNullDate(d.DueDate), d.Memo, string(d.Status), cicilanAmount, cicilanDay, cicilanMonths)
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Debt{}, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return d, nil
}

// UpdateDebt changes the descriptive fields and the installment plan.
// The paid aggregate and status only move through the payment operations.
func (r *SQLiteRepository) UpdateDebt(ctx context.Context, d core.Debt) error {
	var cicilanAmount sql.NullString
	var cicilanDay, cicilanMonths sql.NullInt64
	if d.Installment != nil {
		cicilanAmount = sql.NullString{String: d.Installment.Amount.String(), Valid: true}
		cicilanDay = sql.NullInt64{Int64: int64(d.Installment.Day), Valid: true}
		cicilanMonths = sql.NullInt64{Int64: int64(d.Installment.Months), Valid: true}
	}
	var updated core.Debt
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE hutang SET nama_kreditor = ?, jumlah_hutang = ?, tanggal_hutang = ?,
				tanggal_jatuh_tempo = ?, keterangan = ?, cicilan_amount = ?, cicilan_day = ?, cicilan_months = ?
			WHERE id = ? AND user_id = ?`,
			d.Creditor, d.Principal.String(), dbDate(d.DebtDate), dbNullDate(d.DueDate), d.Memo,
			cicilanAmount, cicilanDay, cicilanMonths, d.ID, d.UserID)
		if err != nil {
			return fmt.Errorf("update debt: %w", err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		// Changing the principal can flip the status either way.
		updated, err = r.recomputeDebt(ctx, tx, d.UserID, d.ID)
		return err
	})
	_ = updated
	return err
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM hutang WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, userID string, id int64) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, debtSelect+` WHERE id = ? AND user_id = ?`, id, userID)
	return scanDebt(row, userID)
}

// ListDebts returns the user's debts, newest first, optionally narrowed to
// a status. Overdue filtering happens above this layer since it depends on
// the clock.
func (r *SQLiteRepository) ListDebts(ctx context.Context, userID string, status core.DebtStatus) ([]core.Debt, error) {
	query := debtSelect + ` WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY tanggal_hutang DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows, userID)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

const debtSelect = `
	SELECT id, nama_kreditor, jumlah_hutang, jumlah_terbayar, tanggal_hutang,
		tanggal_jatuh_tempo, keterangan, status, cicilan_amount, cicilan_day, cicilan_months
	FROM hutang`

func scanDebt(row rowScanner, userID string) (core.Debt, error) {
	d := core.Debt{UserID: userID}
	var (
		principal     string
		paid          string
		debtDate      string
		dueDate       sql.NullString
		status        string
		cicilanAmount sql.NullString
		cicilanDay    sql.NullInt64
		cicilanMonths sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.Creditor, &principal, &paid, &debtDate, &dueDate,
		&d.Memo, &status, &cicilanAmount, &cicilanDay, &cicilanMonths)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("scan debt: %w", err)
	}
	if d.Principal, err = parseAmount(principal); err != nil {
		return core.Debt{}, err
	}
	if d.AmountPaid, err = parseAmount(paid); err != nil {
		return core.Debt{}, err
	}
	if d.DebtDate, err = parseDate(debtDate); err != nil {
		return core.Debt{}, err
	}
	if d.DueDate, err = parseNullDate(dueDate); err != nil {
		return core.Debt{}, err
	}
	d.Status = core.DebtStatus(status)
	if cicilanAmount.Valid && cicilanDay.Valid {
		amount, err := parseAmount(cicilanAmount.String)
		if err != nil {
			return core.Debt{}, err
		}
		d.Installment = &core.InstallmentPlan{
			Amount: amount,
			Day:    int(cicilanDay.Int64),
			Months: int(cicilanMonths.Int64),
		}
	}
	return d, nil
}

// AddDebtPayment inserts a payment and recomputes the debt's paid total
// and status from the full payment history in the same transaction.
func (r *SQLiteRepository) AddDebtPayment(ctx context.Context, userID string, p core.DebtPayment) (core.DebtPayment, core.Debt, error) {
	var debt core.Debt
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkDebtOwner(ctx, tx, userID, p.DebtID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO hutang_payments (hutang_id, jumlah, tanggal) VALUES (?, ?, ?)`,
			p.DebtID, p.Amount.String(), dbDate(p.Date))
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		debt, err = r.recomputeDebt(ctx, tx, userID, p.DebtID)
		return err
	})
	if err != nil {
		return core.DebtPayment{}, core.Debt{}, err
	}
	return p, debt, nil
}

// DeleteDebtPayment removes a payment and recomputes the owning debt.
// Removing the payment that settled the debt flips it back to aktif.
func (r *SQLiteRepository) DeleteDebtPayment(ctx context.Context, userID string, paymentID int64) (core.Debt, error) {
	var debt core.Debt
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var debtID int64
		err := tx.QueryRowContext(ctx, `
			SELECT p.hutang_id FROM hutang_payments p
			JOIN hutang h ON h.id = p.hutang_id
			WHERE p.id = ? AND h.user_id = ?`, paymentID, userID).Scan(&debtID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find payment: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM hutang_payments WHERE id = ?`, paymentID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		debt, err = r.recomputeDebt(ctx, tx, userID, debtID)
		return err
	})
	return debt, err
}

// ListDebtPayments returns a debt's payments, newest first.
func (r *SQLiteRepository) ListDebtPayments(ctx context.Context, userID string, debtID int64) ([]core.DebtPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.hutang_id, p.jumlah, p.tanggal
		FROM hutang_payments p
		JOIN hutang h ON h.id = p.hutang_id
		WHERE p.hutang_id = ? AND h.user_id = ?
		ORDER BY p.tanggal DESC, p.id DESC`, debtID, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.DebtPayment
	for rows.Next() {
		var (
			p       core.DebtPayment
			jumlah  string
			tanggal string
		)
		if err := rows.Scan(&p.ID, &p.DebtID, &jumlah, &tanggal); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = parseAmount(jumlah); err != nil {
			return nil, err
		}
		if p.Date, err = parseDate(tanggal); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SQLiteRepository) checkDebtOwner(ctx context.Context, tx *sql.Tx, userID string, debtID int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM hutang WHERE id = ? AND user_id = ?`, debtID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check debt owner: %w", err)
	}
	return nil
}

// recomputeDebt folds the payment history into jumlah_terbayar and status.
func (r *SQLiteRepository) recomputeDebt(ctx context.Context, tx *sql.Tx, userID string, debtID int64) (core.Debt, error) {
	var principal string
	err := tx.QueryRowContext(ctx,
		`SELECT jumlah_hutang FROM hutang WHERE id = ? AND user_id = ?`, debtID, userID).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("load debt: %w", err)
	}
	principalAmount, err := parseAmount(principal)
	if err != nil {
		return core.Debt{}, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT jumlah FROM hutang_payments WHERE hutang_id = ?`, debtID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("load payment history: %w", err)
	}
	defer rows.Close()

	var payments []core.DebtPayment
	for rows.Next() {
		var jumlah string
		if err := rows.Scan(&jumlah); err != nil {
			return core.Debt{}, fmt.Errorf("scan payment amount: %w", err)
		}
		amount, err := parseAmount(jumlah)
		if err != nil {
			return core.Debt{}, err
		}
		payments = append(payments, core.DebtPayment{Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return core.Debt{}, err
	}

	paid, status := core.ReplayPayments(principalAmount, payments)
	if _, err := tx.ExecContext(ctx,
		`UPDATE hutang SET jumlah_terbayar = ?, status = ? WHERE id = ?`,
		paid.String(), string(status), debtID); err != nil {
		return core.Debt{}, fmt.Errorf("update debt aggregate: %w", err)
	}

	row := tx.QueryRowContext(ctx, debtSelect+` WHERE id = ? AND user_id = ?`, debtID, userID)
	return scanDebt(row, userID)
}
