package services

import (
	"context"
	"fmt"
	"log/slog"

	"duitku/internal/core"
	"duitku/internal/storage"

	"github.com/shopspring/decimal"
)

// GoalService handles savings goals and their contributions. Goal progress
// is never written directly; every mutation replays the contribution rows
// inside the storage transaction.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(repo *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: repo}
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.Progress = decimal.Zero
	created, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

// Update changes a goal's name, target, or deadline. Progress stays
// derived from its contributions.
func (s *GoalService) Update(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// Delete removes a goal and all its contributions.
func (s *GoalService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.storage.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (s *GoalService) Get(ctx context.Context, userID string, id int64) (core.Goal, error) {
	return s.storage.GetGoal(ctx, userID, id)
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Contribute records a contribution and returns the saving with the
// goal's recomputed state.
func (s *GoalService) Contribute(ctx context.Context, userID string, saving core.Saving) (core.Saving, core.Goal, error) {
	if err := saving.Validate(); err != nil {
		return core.Saving{}, core.Goal{}, err
	}

	created, goal, err := s.storage.AddSaving(ctx, userID, saving)
	if err != nil {
		return core.Saving{}, core.Goal{}, fmt.Errorf("add saving: %w", err)
	}

	slog.InfoContext(ctx, "Goal contribution recorded",
		"user_id", userID,
		"goal_id", goal.ID,
		"amount", created.Amount.String(),
		"progress", goal.Progress.String())

	return created, goal, nil
}

// EditContribution rewrites a contribution's amount, source, note, or date.
func (s *GoalService) EditContribution(ctx context.Context, userID string, saving core.Saving) (core.Goal, error) {
	if err := saving.Validate(); err != nil {
		return core.Goal{}, err
	}
	goal, err := s.storage.UpdateSaving(ctx, userID, saving)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update saving: %w", err)
	}
	return goal, nil
}

// DeleteContribution removes a contribution and returns the goal with its
// progress rolled back.
func (s *GoalService) DeleteContribution(ctx context.Context, userID string, savingID int64) (core.Goal, error) {
	goal, err := s.storage.DeleteSaving(ctx, userID, savingID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("delete saving: %w", err)
	}
	return goal, nil
}

// Contributions returns a goal's contribution history, newest first.
// A limit of zero means no limit.
func (s *GoalService) Contributions(ctx context.Context, userID string, goalID int64, limit int) ([]core.Saving, error) {
	savings, err := s.storage.ListSavings(ctx, userID, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	return savings, nil
}

// SavingsBySource totals all contributions across goals per source tag.
// Both tags are present in the result even when zero.
func (s *GoalService) SavingsBySource(ctx context.Context, userID string) (map[core.SourceTag]decimal.Decimal, error) {
	savings, err := s.storage.ListAllSavings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	return core.AggregateBySource(savings), nil
}
