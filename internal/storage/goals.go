package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"duitku/internal/core"
)

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, nama, target, progress, deadline) VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.Target.String(), g.Progress.String(), dbNullDate(g.Deadline))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("last insert id: %w", err)
	}
	g.ID = id
	return g, nil
}

// UpdateGoal changes name, target, and deadline. Progress only moves
// through the saving operations below.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET nama = ?, target = ?, deadline = ? WHERE id = ? AND user_id = ?`,
		g.Name, g.Target.String(), dbNullDate(g.Deadline), g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID string, id int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, nama, target, progress, deadline FROM goals WHERE id = ? AND user_id = ?`,
		id, userID)
	return scanGoal(row, userID)
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nama, target, progress, deadline FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows, userID)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner, userID string) (core.Goal, error) {
	g := core.Goal{UserID: userID}
	var (
		target   string
		progress string
		deadline sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Name, &target, &progress, &deadline); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	var err error
	if g.Target, err = parseAmount(target); err != nil {
		return core.Goal{}, err
	}
	if g.Progress, err = parseAmount(progress); err != nil {
		return core.Goal{}, err
	}
	if g.Deadline, err = parseNullDate(deadline); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// AddSaving inserts a contribution and recomputes the goal's progress from
// the full saving history in the same transaction.
func (r *SQLiteRepository) AddSaving(ctx context.Context, userID string, s core.Saving) (core.Saving, core.Goal, error) {
	var goal core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.checkGoalOwner(ctx, tx, userID, s.GoalID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO goal_savings (goal_id, jumlah, sumber, keterangan, tanggal) VALUES (?, ?, ?, ?, ?)`,
			s.GoalID, s.Amount.String(), string(s.Source), s.Note, dbDate(s.Date))
		if err != nil {
			return fmt.Errorf("insert saving: %w", err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		goal, err = r.recomputeGoal(ctx, tx, userID, s.GoalID)
		return err
	})
	if err != nil {
		return core.Saving{}, core.Goal{}, err
	}
	return s, goal, nil
}

// UpdateSaving rewrites a contribution and recomputes the owning goal.
func (r *SQLiteRepository) UpdateSaving(ctx context.Context, userID string, s core.Saving) (core.Goal, error) {
	var goal core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		goalID, err := r.savingGoalID(ctx, tx, userID, s.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE goal_savings SET jumlah = ?, sumber = ?, keterangan = ?, tanggal = ? WHERE id = ?`,
			s.Amount.String(), string(s.Source), s.Note, dbDate(s.Date), s.ID); err != nil {
			return fmt.Errorf("update saving: %w", err)
		}
		goal, err = r.recomputeGoal(ctx, tx, userID, goalID)
		return err
	})
	return goal, err
}

// DeleteSaving removes a contribution and recomputes the owning goal.
func (r *SQLiteRepository) DeleteSaving(ctx context.Context, userID string, savingID int64) (core.Goal, error) {
	var goal core.Goal
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		goalID, err := r.savingGoalID(ctx, tx, userID, savingID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM goal_savings WHERE id = ?`, savingID); err != nil {
			return fmt.Errorf("delete saving: %w", err)
		}
		goal, err = r.recomputeGoal(ctx, tx, userID, goalID)
		return err
	})
	return goal, err
}

// ListSavings returns a goal's contributions, newest first. limit <= 0
// means no limit.
func (r *SQLiteRepository) ListSavings(ctx context.Context, userID string, goalID int64, limit int) ([]core.Saving, error) {
	query := `
		SELECT s.id, s.goal_id, s.jumlah, s.sumber, s.keterangan, s.tanggal
		FROM goal_savings s
		JOIN goals g ON g.id = s.goal_id
		WHERE g.user_id = ? AND s.goal_id = ?
		ORDER BY s.tanggal DESC, s.id DESC`
	args := []any{userID, goalID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.querySavings(ctx, query, args...)
}

// ListAllSavings returns every contribution across the user's goals, for
// the per-source balance cards.
func (r *SQLiteRepository) ListAllSavings(ctx context.Context, userID string) ([]core.Saving, error) {
	return r.querySavings(ctx, `
		SELECT s.id, s.goal_id, s.jumlah, s.sumber, s.keterangan, s.tanggal
		FROM goal_savings s
		JOIN goals g ON g.id = s.goal_id
		WHERE g.user_id = ?
		ORDER BY s.tanggal DESC, s.id DESC`, userID)
}

func (r *SQLiteRepository) querySavings(ctx context.Context, query string, args ...any) ([]core.Saving, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	defer rows.Close()

	var savings []core.Saving
	for rows.Next() {
		var (
			s       core.Saving
			jumlah  string
			sumber  string
			tanggal string
		)
		if err := rows.Scan(&s.ID, &s.GoalID, &jumlah, &sumber, &s.Note, &tanggal); err != nil {
			return nil, fmt.Errorf("scan saving: %w", err)
		}
		if s.Amount, err = parseAmount(jumlah); err != nil {
			return nil, err
		}
		if s.Date, err = parseDate(tanggal); err != nil {
			return nil, err
		}
		s.Source = core.SourceTag(sumber)
		savings = append(savings, s)
	}
	return savings, rows.Err()
}

func (r *SQLiteRepository) checkGoalOwner(ctx context.Context, tx *sql.Tx, userID string, goalID int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM goals WHERE id = ? AND user_id = ?`, goalID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check goal owner: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) savingGoalID(ctx context.Context, tx *sql.Tx, userID string, savingID int64) (int64, error) {
	var goalID int64
	err := tx.QueryRowContext(ctx, `
		SELECT s.goal_id FROM goal_savings s
		JOIN goals g ON g.id = s.goal_id
		WHERE s.id = ? AND g.user_id = ?`, savingID, userID).Scan(&goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find saving: %w", err)
	}
	return goalID, nil
}

// recomputeGoal folds the saving history into the progress column.
func (r *SQLiteRepository) recomputeGoal(ctx context.Context, tx *sql.Tx, userID string, goalID int64) (core.Goal, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT jumlah FROM goal_savings WHERE goal_id = ?`, goalID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("load saving history: %w", err)
	}
	defer rows.Close()

	var savings []core.Saving
	for rows.Next() {
		var jumlah string
		if err := rows.Scan(&jumlah); err != nil {
			return core.Goal{}, fmt.Errorf("scan saving amount: %w", err)
		}
		amount, err := parseAmount(jumlah)
		if err != nil {
			return core.Goal{}, err
		}
		savings = append(savings, core.Saving{Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return core.Goal{}, err
	}

	progress := core.ReplayContributions(savings)
	if _, err := tx.ExecContext(ctx,
		`UPDATE goals SET progress = ? WHERE id = ?`, progress.String(), goalID); err != nil {
		return core.Goal{}, fmt.Errorf("update goal progress: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT id, nama, target, progress, deadline FROM goals WHERE id = ? AND user_id = ?`,
		goalID, userID)
	return scanGoal(row, userID)
}
