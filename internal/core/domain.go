package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  TransactionType = "pemasukan"
	TypeExpense TransactionType = "pengeluaran"

	SourceCash  SourceTag = "Cash"
	SourceDebit SourceTag = "Debit"

	DebtActive DebtStatus = "aktif"
	DebtPaid   DebtStatus = "lunas"
)

type (
	TransactionType string

	SourceTag string

	DebtStatus string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID         int64
		UserID     string
		Type       TransactionType
		Date       Date
		Amount     decimal.Decimal
		Source     SourceTag
		CategoryID *int64 // expenses only, may be unset
		Memo       string
	}

	Category struct {
		ID     int64
		UserID string
		Name   string
		Type   TransactionType
	}

	Goal struct {
		ID       int64
		UserID   string
		Name     string
		Target   decimal.Decimal
		Progress decimal.Decimal
		Deadline Date // optional
	}

	Saving struct {
		ID     int64
		GoalID int64
		Amount decimal.Decimal
		Source SourceTag
		Note   string
		Date   Date
	}

	// InstallmentPlan is the optional fixed monthly repayment attached to a debt.
	InstallmentPlan struct {
		Amount decimal.Decimal
		Day    int // day of month the installment is due
		Months int // plan duration
	}

	Debt struct {
		ID          int64
		UserID      string
		Creditor    string
		Principal   decimal.Decimal
		AmountPaid  decimal.Decimal
		DebtDate    Date
		DueDate     Date // optional
		Memo        string
		Status      DebtStatus
		Installment *InstallmentPlan
	}

	DebtPayment struct {
		ID     int64
		DebtID int64
		Amount decimal.Decimal
		Date   Date
	}

	Budget struct {
		ID         int64
		UserID     string
		CategoryID int64
		Limit      decimal.Decimal
		Month      int
		Year       int
	}

	Notification struct {
		ID        int64
		UserID    string
		Title     string
		Body      string
		Kind      string
		Read      bool
		CreatedAt time.Time
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidSource   = errors.New("invalid source tag")
	ErrInvalidStatus   = errors.New("invalid debt status")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyCreditor   = errors.New("empty creditor name")
	ErrInvalidDeadline = errors.New("invalid deadline")
)

func (t TransactionType) Validate() error {
	switch t {
	case TypeIncome, TypeExpense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (s SourceTag) Validate() error {
	switch s {
	case SourceCash, SourceDebit:
		return nil
	default:
		return ErrInvalidSource
	}
}

func (s DebtStatus) Validate() error {
	switch s {
	case DebtActive, DebtPaid:
		return nil
	default:
		return ErrInvalidStatus
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether an optional date was left unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Source.Validate(); err != nil {
		return err
	}
	if len(t.Memo) > 200 {
		return errors.New("memo too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return c.Type.Validate()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidAmount
	}
	if g.Progress.IsNegative() {
		return errors.New("progress cannot be negative")
	}
	if !g.Deadline.IsEmpty() {
		if err := g.Deadline.Validate(); err != nil {
			return ErrInvalidDeadline
		}
	}
	return nil
}

func (s Saving) Validate() error {
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.Source.Validate(); err != nil {
		return err
	}
	return s.Date.Validate()
}

func (p InstallmentPlan) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Day < 1 || p.Day > 31 {
		return ErrInvalidDay
	}
	if p.Months < 1 {
		return errors.New("installment duration must be at least one month")
	}
	return nil
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Creditor) == "" {
		return ErrEmptyCreditor
	}
	if !d.Principal.IsPositive() {
		return ErrInvalidAmount
	}
	if d.AmountPaid.IsNegative() {
		return errors.New("amount paid cannot be negative")
	}
	if err := d.DebtDate.Validate(); err != nil {
		return err
	}
	if !d.DueDate.IsEmpty() {
		if err := d.DueDate.Validate(); err != nil {
			return err
		}
	}
	if err := d.Status.Validate(); err != nil {
		return err
	}
	if d.Installment != nil {
		if err := d.Installment.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p DebtPayment) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return p.Date.Validate()
}

func (b Budget) Validate() error {
	if b.CategoryID <= 0 {
		return errors.New("budget requires a category")
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 || b.Year > 2200 {
		return errors.New("invalid year")
	}
	return nil
}
