package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duitku/internal/core"
	"duitku/internal/storage"

	"github.com/shopspring/decimal"
)

// Debt list filters accepted by List.
const (
	DebtFilterAll     = "semua"
	DebtFilterActive  = string(core.DebtActive)
	DebtFilterPaid    = string(core.DebtPaid)
	DebtFilterOverdue = "lewat_tempo"
)

// DebtService handles debts and their payments. The amount paid and the
// status are derived from payment rows on every mutation, never written
// directly by callers.
type DebtService struct {
	storage *storage.SQLiteRepository
	policy  core.PaymentPolicy
}

func NewDebtService(repo *storage.SQLiteRepository) *DebtService {
	return &DebtService{
		storage: repo,
		policy:  core.PermissivePaymentPolicy,
	}
}

func (s *DebtService) Create(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.AmountPaid = decimal.Zero
	d.Status = core.DebtActive
	created, err := s.storage.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	return created, nil
}

// Update rewrites a debt's descriptive fields and principal. The status is
// re-derived afterwards since a principal change can settle or reopen the
// debt.
func (s *DebtService) Update(ctx context.Context, d core.Debt) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateDebt(ctx, d); err != nil {
		return fmt.Errorf("update debt: %w", err)
	}
	return nil
}

// Delete removes a debt and all its payments.
func (s *DebtService) Delete(ctx context.Context, userID string, id int64) error {
	if err := s.storage.DeleteDebt(ctx, userID, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

func (s *DebtService) Get(ctx context.Context, userID string, id int64) (core.Debt, error) {
	return s.storage.GetDebt(ctx, userID, id)
}

// List returns debts matching the filter. The overdue filter selects
// active debts whose due date has passed as of now.
func (s *DebtService) List(ctx context.Context, userID, filter string, now time.Time) ([]core.Debt, error) {
	switch filter {
	case "", DebtFilterAll:
		return s.listStored(ctx, userID, "")
	case DebtFilterActive, DebtFilterPaid:
		return s.listStored(ctx, userID, core.DebtStatus(filter))
	case DebtFilterOverdue:
		active, err := s.listStored(ctx, userID, core.DebtActive)
		if err != nil {
			return nil, err
		}
		overdue := make([]core.Debt, 0, len(active))
		for _, d := range active {
			if core.IsOverdue(d, now) {
				overdue = append(overdue, d)
			}
		}
		return overdue, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidStatus, filter)
	}
}

func (s *DebtService) listStored(ctx context.Context, userID string, status core.DebtStatus) ([]core.Debt, error) {
	debts, err := s.storage.ListDebts(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return debts, nil
}

// RecordPayment records a payment against a debt and returns the payment
// with the debt's recomputed state. Overpayment is allowed; the status
// flips to settled once total payments cover the principal.
func (s *DebtService) RecordPayment(ctx context.Context, userID string, p core.DebtPayment) (core.DebtPayment, core.Debt, error) {
	if err := p.Validate(); err != nil {
		return core.DebtPayment{}, core.Debt{}, err
	}

	debt, err := s.storage.GetDebt(ctx, userID, p.DebtID)
	if err != nil {
		return core.DebtPayment{}, core.Debt{}, err
	}
	if err := s.policy(debt, p.Amount); err != nil {
		return core.DebtPayment{}, core.Debt{}, err
	}

	created, updated, err := s.storage.AddDebtPayment(ctx, userID, p)
	if err != nil {
		return core.DebtPayment{}, core.Debt{}, fmt.Errorf("add debt payment: %w", err)
	}

	slog.InfoContext(ctx, "Debt payment recorded",
		"user_id", userID,
		"debt_id", updated.ID,
		"amount", created.Amount.String(),
		"status", string(updated.Status))

	return created, updated, nil
}

// DeletePayment removes a payment and returns the debt with its amount
// paid and status rolled back. Deleting a settling payment reopens the debt.
func (s *DebtService) DeletePayment(ctx context.Context, userID string, paymentID int64) (core.Debt, error) {
	debt, err := s.storage.DeleteDebtPayment(ctx, userID, paymentID)
	if err != nil {
		return core.Debt{}, fmt.Errorf("delete debt payment: %w", err)
	}
	return debt, nil
}

// Payments returns a debt's payment history, newest first.
func (s *DebtService) Payments(ctx context.Context, userID string, debtID int64) ([]core.DebtPayment, error) {
	payments, err := s.storage.ListDebtPayments(ctx, userID, debtID)
	if err != nil {
		return nil, fmt.Errorf("list debt payments: %w", err)
	}
	return payments, nil
}

// MonthlyInstallments totals the installment commitments of active debts
// with a complete installment plan.
func (s *DebtService) MonthlyInstallments(ctx context.Context, userID string) (core.MonthlyInstallments, error) {
	active, err := s.listStored(ctx, userID, core.DebtActive)
	if err != nil {
		return core.MonthlyInstallments{}, err
	}
	return core.AggregateMonthlyInstallments(active), nil
}
