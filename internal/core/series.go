package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackCategory is the bucket for expenses whose category reference is
// missing or no longer resolves.
const FallbackCategory = "Lain-lain"

// ChartPalette is cycled over category slices in first-appearance order.
var ChartPalette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#06B6D4"}

// BankTags are the bank/e-wallet sub-tags recognized inside Debit memos.
var BankTags = []string{"DANA", "BTN", "Seabank"}

var monthShort = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// MonthLabel returns the Indonesian short label for a month (1-12).
func MonthLabel(month time.Month) string {
	return monthShort[int(month)-1]
}

// MonthPoint is one entry of the trailing balance series.
type MonthPoint struct {
	Label   string
	Year    int
	Month   int
	Balance decimal.Decimal
}

// MonthlyBalanceSeries computes income minus expenses for each of the
// trailing monthsBack calendar months, the month of asOf included. The
// result always has exactly monthsBack entries, oldest first, with zero
// balances for empty months. Bucketing uses the transaction date only.
func MonthlyBalanceSeries(txs []Transaction, monthsBack int, asOf time.Time) []MonthPoint {
	if monthsBack < 1 {
		return nil
	}
	series := make([]MonthPoint, 0, monthsBack)
	index := make(map[int]int, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		m := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		index[m.Year()*100+int(m.Month())] = len(series)
		series = append(series, MonthPoint{
			Label:   MonthLabel(m.Month()),
			Year:    m.Year(),
			Month:   int(m.Month()),
			Balance: decimal.Zero,
		})
	}
	for _, tx := range txs {
		pos, ok := index[tx.Date.Year()*100+tx.Date.Month()]
		if !ok {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			series[pos].Balance = series[pos].Balance.Add(tx.Amount)
		case TypeExpense:
			series[pos].Balance = series[pos].Balance.Sub(tx.Amount)
		}
	}
	return series
}

// CategorySlice is one pie slice of the expense-by-category chart.
type CategorySlice struct {
	Name  string
	Value decimal.Decimal
	Color string
}

// ExpenseByCategory groups expense amounts by category name, in order of
// first appearance. Transactions without a resolvable category land in the
// fallback bucket. Colors come from the fixed palette, cycled.
func ExpenseByCategory(expenses []Transaction, nameByID map[int64]string) []CategorySlice {
	var slices []CategorySlice
	index := make(map[string]int)
	for _, tx := range expenses {
		if tx.Type != TypeExpense {
			continue
		}
		name := FallbackCategory
		if tx.CategoryID != nil {
			if n, ok := nameByID[*tx.CategoryID]; ok && n != "" {
				name = n
			}
		}
		pos, ok := index[name]
		if !ok {
			pos = len(slices)
			index[name] = pos
			slices = append(slices, CategorySlice{
				Name:  name,
				Value: decimal.Zero,
				Color: ChartPalette[pos%len(ChartPalette)],
			})
		}
		slices[pos].Value = slices[pos].Value.Add(tx.Amount)
	}
	return slices
}

// BalanceBySource sums income minus expenses for a source tag. A non-empty
// subTag additionally requires a case-insensitive substring match on the
// memo, which is how bank sub-accounts are encoded in the stored data.
func BalanceBySource(txs []Transaction, source SourceTag, subTag string) decimal.Decimal {
	sub := strings.ToLower(subTag)
	balance := decimal.Zero
	for _, tx := range txs {
		if tx.Source != source {
			continue
		}
		if sub != "" && !strings.Contains(strings.ToLower(tx.Memo), sub) {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			balance = balance.Add(tx.Amount)
		case TypeExpense:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}
