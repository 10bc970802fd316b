package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPolicy decides whether a payment amount is acceptable for a debt.
// The default is permissive: a payment may exceed the remaining balance,
// in which case AmountPaid exceeds Principal and display values clamp.
type PaymentPolicy func(debt Debt, amount decimal.Decimal) error

// PermissivePaymentPolicy accepts any positive payment amount.
func PermissivePaymentPolicy(Debt, decimal.Decimal) error { return nil }

// DeriveDebtStatus recomputes the status flag from the aggregates.
// A debt is lunas iff the paid total covers the principal.
func DeriveDebtStatus(principal, paid decimal.Decimal) DebtStatus {
	if paid.GreaterThanOrEqual(principal) {
		return DebtPaid
	}
	return DebtActive
}

// ApplyPayment records a payment against the debt aggregate: AmountPaid
// grows by amount and the status is re-derived. The payment row itself is
// persisted by the caller alongside this update.
func ApplyPayment(d *Debt, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	d.AmountPaid = d.AmountPaid.Add(amount)
	d.Status = DeriveDebtStatus(d.Principal, d.AmountPaid)
	return nil
}

// RemovePayment undoes a payment: AmountPaid shrinks by amount, floored at
// zero, and the status is re-derived. Removing the payment that settled the
// debt flips it back to aktif.
func RemovePayment(d *Debt, amount decimal.Decimal) {
	d.AmountPaid = d.AmountPaid.Sub(amount)
	if d.AmountPaid.IsNegative() {
		d.AmountPaid = decimal.Zero
	}
	d.Status = DeriveDebtStatus(d.Principal, d.AmountPaid)
}

// ReplayPayments folds the full payment history into the derived pair
// (AmountPaid, Status). Used when aggregates are recomputed from event rows
// instead of adjusted incrementally.
func ReplayPayments(principal decimal.Decimal, payments []DebtPayment) (decimal.Decimal, DebtStatus) {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return paid, DeriveDebtStatus(principal, paid)
}

// Remaining returns the outstanding balance, clamped at zero for display
// even when the paid total exceeds the principal.
func Remaining(d Debt) decimal.Decimal {
	r := d.Principal.Sub(d.AmountPaid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// PaymentProgress returns the repayment percentage in [0, 100].
// A lunas debt reports exactly 100 regardless of rounding.
func PaymentProgress(d Debt) float64 {
	if d.Status == DebtPaid {
		return 100
	}
	return Percent(d.AmountPaid, d.Principal)
}

// IsOverdue reports whether the debt has a due date in the past and is
// still outstanding.
func IsOverdue(d Debt, asOf time.Time) bool {
	if d.DueDate.IsEmpty() || d.Status == DebtPaid {
		return false
	}
	return d.DueDate.Before(asOf)
}

// MonthlyInstallments is the "this month's installment burden" summary.
type MonthlyInstallments struct {
	Debts []Debt
	Total decimal.Decimal
}

// AggregateMonthlyInstallments sums the installment amounts of active debts
// that carry a full plan (amount and day of month). The sum is flat: no
// calendar alignment against the plan's day is attempted.
func AggregateMonthlyInstallments(debts []Debt) MonthlyInstallments {
	agg := MonthlyInstallments{Total: decimal.Zero}
	for _, d := range debts {
		if d.Status != DebtActive || d.Installment == nil {
			continue
		}
		if !d.Installment.Amount.IsPositive() || d.Installment.Day < 1 {
			continue
		}
		agg.Debts = append(agg.Debts, d)
		agg.Total = agg.Total.Add(d.Installment.Amount)
	}
	return agg
}

// ApplyContribution records a saving against the goal aggregate.
func ApplyContribution(g *Goal, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	g.Progress = g.Progress.Add(amount)
	return nil
}

// EditContribution applies the delta between the stored and the new amount
// to the goal's progress, clamped at zero.
func EditContribution(g *Goal, oldAmount, newAmount decimal.Decimal) error {
	if !newAmount.IsPositive() {
		return ErrInvalidAmount
	}
	g.Progress = g.Progress.Add(newAmount.Sub(oldAmount))
	if g.Progress.IsNegative() {
		g.Progress = decimal.Zero
	}
	return nil
}

// RemoveContribution subtracts a deleted saving from the goal's progress,
// clamped at zero.
func RemoveContribution(g *Goal, amount decimal.Decimal) {
	g.Progress = g.Progress.Sub(amount)
	if g.Progress.IsNegative() {
		g.Progress = decimal.Zero
	}
}

// ReplayContributions folds the full saving history into the progress total.
func ReplayContributions(savings []Saving) decimal.Decimal {
	total := decimal.Zero
	for _, s := range savings {
		total = total.Add(s.Amount)
	}
	return total
}

// GoalProgress returns the goal completion percentage in [0, 100].
func GoalProgress(g Goal) float64 {
	return Percent(g.Progress, g.Target)
}

// AggregateBySource sums contributions per source tag for the savings
// balance summary cards.
func AggregateBySource(savings []Saving) map[SourceTag]decimal.Decimal {
	totals := map[SourceTag]decimal.Decimal{
		SourceCash:  decimal.Zero,
		SourceDebit: decimal.Zero,
	}
	for _, s := range savings {
		totals[s.Source] = totals[s.Source].Add(s.Amount)
	}
	return totals
}
