package http

import (
	"time"

	"duitku/internal/core"
	"duitku/internal/services"

	"github.com/shopspring/decimal"
)

// Request and response shapes for the JSON API. Field names follow the
// client's Indonesian vocabulary; amounts travel as decimal strings.

const dateLayout = "2006-01-02"

func formatDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format(dateLayout)
}

type transactionRequest struct {
	Tipe       string `json:"tipe"`
	Tanggal    string `json:"tanggal"`
	Jumlah     string `json:"jumlah"`
	Sumber     string `json:"sumber"`
	KategoriID *int64 `json:"kategori_id"`
	Keterangan string `json:"keterangan"`
}

type transactionResponse struct {
	ID           int64  `json:"id"`
	Tipe         string `json:"tipe"`
	Tanggal      string `json:"tanggal"`
	Jumlah       string `json:"jumlah"`
	JumlahFormat string `json:"jumlah_format"`
	Sumber       string `json:"sumber"`
	KategoriID   *int64 `json:"kategori_id,omitempty"`
	Keterangan   string `json:"keterangan"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		Tipe:         string(tx.Type),
		Tanggal:      formatDate(tx.Date),
		Jumlah:       tx.Amount.String(),
		JumlahFormat: core.FormatRupiah(tx.Amount),
		Sumber:       string(tx.Source),
		KategoriID:   tx.CategoryID,
		Keterangan:   tx.Memo,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

type categoryRequest struct {
	Nama string `json:"nama"`
	Tipe string `json:"tipe"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Nama string `json:"nama"`
	Tipe string `json:"tipe"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Nama: c.Name, Tipe: string(c.Type)}
}

type goalRequest struct {
	Nama     string `json:"nama"`
	Target   string `json:"target"`
	Deadline string `json:"deadline"`
}

type goalResponse struct {
	ID       int64   `json:"id"`
	Nama     string  `json:"nama"`
	Target   string  `json:"target"`
	Progress string  `json:"progress"`
	Persen   float64 `json:"persen"`
	Deadline string  `json:"deadline,omitempty"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:       g.ID,
		Nama:     g.Name,
		Target:   g.Target.String(),
		Progress: g.Progress.String(),
		Persen:   core.GoalProgress(g),
		Deadline: formatDate(g.Deadline),
	}
}

type savingRequest struct {
	Jumlah     string `json:"jumlah"`
	Sumber     string `json:"sumber"`
	Keterangan string `json:"keterangan"`
	Tanggal    string `json:"tanggal"`
}

type savingResponse struct {
	ID         int64  `json:"id"`
	GoalID     int64  `json:"goal_id"`
	Jumlah     string `json:"jumlah"`
	Sumber     string `json:"sumber"`
	Keterangan string `json:"keterangan"`
	Tanggal    string `json:"tanggal"`
}

func toSavingResponse(s core.Saving) savingResponse {
	return savingResponse{
		ID:         s.ID,
		GoalID:     s.GoalID,
		Jumlah:     s.Amount.String(),
		Sumber:     string(s.Source),
		Keterangan: s.Note,
		Tanggal:    formatDate(s.Date),
	}
}

type installmentPayload struct {
	Amount string `json:"amount"`
	Day    int    `json:"day"`
	Months int    `json:"months"`
}

type debtRequest struct {
	NamaKreditor      string              `json:"nama_kreditor"`
	JumlahHutang      string              `json:"jumlah_hutang"`
	TanggalHutang     string              `json:"tanggal_hutang"`
	TanggalJatuhTempo string              `json:"tanggal_jatuh_tempo"`
	Keterangan        string              `json:"keterangan"`
	Cicilan           *installmentPayload `json:"cicilan"`
}

type debtResponse struct {
	ID                int64               `json:"id"`
	NamaKreditor      string              `json:"nama_kreditor"`
	JumlahHutang      string              `json:"jumlah_hutang"`
	JumlahTerbayar    string              `json:"jumlah_terbayar"`
	Sisa              string              `json:"sisa"`
	Persen            float64             `json:"persen"`
	TanggalHutang     string              `json:"tanggal_hutang"`
	TanggalJatuhTempo string              `json:"tanggal_jatuh_tempo,omitempty"`
	Keterangan        string              `json:"keterangan"`
	Status            string              `json:"status"`
	Cicilan           *installmentPayload `json:"cicilan,omitempty"`
}

func toDebtResponse(d core.Debt) debtResponse {
	resp := debtResponse{
		ID:                d.ID,
		NamaKreditor:      d.Creditor,
		JumlahHutang:      d.Principal.String(),
		JumlahTerbayar:    d.AmountPaid.String(),
		Sisa:              core.Remaining(d).String(),
		Persen:            core.PaymentProgress(d),
		TanggalHutang:     formatDate(d.DebtDate),
		TanggalJatuhTempo: formatDate(d.DueDate),
		Keterangan:        d.Memo,
		Status:            string(d.Status),
	}
	if d.Installment != nil {
		resp.Cicilan = &installmentPayload{
			Amount: d.Installment.Amount.String(),
			Day:    d.Installment.Day,
			Months: d.Installment.Months,
		}
	}
	return resp
}

func toDebtResponses(debts []core.Debt) []debtResponse {
	out := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtResponse(d))
	}
	return out
}

type paymentRequest struct {
	Jumlah  string `json:"jumlah"`
	Tanggal string `json:"tanggal"`
}

type paymentResponse struct {
	ID       int64  `json:"id"`
	HutangID int64  `json:"hutang_id"`
	Jumlah   string `json:"jumlah"`
	Tanggal  string `json:"tanggal"`
}

func toPaymentResponse(p core.DebtPayment) paymentResponse {
	return paymentResponse{
		ID:       p.ID,
		HutangID: p.DebtID,
		Jumlah:   p.Amount.String(),
		Tanggal:  formatDate(p.Date),
	}
}

type budgetRequest struct {
	KategoriID  int64  `json:"kategori_id"`
	LimitAmount string `json:"limit_amount"`
	Bulan       int    `json:"bulan"`
	Tahun       int    `json:"tahun"`
}

type budgetResponse struct {
	ID          int64   `json:"id"`
	KategoriID  int64   `json:"kategori_id"`
	Kategori    string  `json:"kategori,omitempty"`
	LimitAmount string  `json:"limit_amount"`
	Bulan       int     `json:"bulan"`
	Tahun       int     `json:"tahun"`
	Terpakai    string  `json:"terpakai"`
	Persen      float64 `json:"persen"`
}

func toBudgetUsageResponse(u services.BudgetUsage) budgetResponse {
	return budgetResponse{
		ID:          u.Budget.ID,
		KategoriID:  u.Budget.CategoryID,
		Kategori:    u.CategoryName,
		LimitAmount: u.Budget.Limit.String(),
		Bulan:       u.Budget.Month,
		Tahun:       u.Budget.Year,
		Terpakai:    u.Spent.String(),
		Persen:      u.Percent,
	}
}

type categorySliceResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Color string `json:"color"`
}

type monthPointResponse struct {
	Label   string `json:"label"`
	Bulan   int    `json:"bulan"`
	Tahun   int    `json:"tahun"`
	Balance string `json:"balance"`
}

type dashboardResponse struct {
	TotalPemasukan          string                  `json:"total_pemasukan"`
	TotalPengeluaran        string                  `json:"total_pengeluaran"`
	Saldo                   string                  `json:"saldo"`
	GoalAktif               int                     `json:"goal_aktif"`
	HutangAktif             int                     `json:"hutang_aktif"`
	PengeluaranPerKategori  []categorySliceResponse `json:"pengeluaran_per_kategori"`
	SaldoBulanan            []monthPointResponse    `json:"saldo_bulanan"`
	SaldoCash               string                  `json:"saldo_cash"`
	SaldoDebit              string                  `json:"saldo_debit"`
	SaldoBank               map[string]string       `json:"saldo_bank"`
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	resp := dashboardResponse{
		TotalPemasukan:   d.TotalIncome.String(),
		TotalPengeluaran: d.TotalExpense.String(),
		Saldo:            d.Balance.String(),
		GoalAktif:        d.ActiveGoals,
		HutangAktif:      d.ActiveDebts,
		SaldoCash:        d.CashBalance.String(),
		SaldoDebit:       d.DebitBalance.String(),
		SaldoBank:        make(map[string]string, len(d.BankBalances)),
	}
	for _, slice := range d.ExpenseByCategory {
		resp.PengeluaranPerKategori = append(resp.PengeluaranPerKategori, categorySliceResponse{
			Name:  slice.Name,
			Value: slice.Value.String(),
			Color: slice.Color,
		})
	}
	for _, point := range d.MonthlySeries {
		resp.SaldoBulanan = append(resp.SaldoBulanan, monthPointResponse{
			Label:   point.Label,
			Bulan:   point.Month,
			Tahun:   point.Year,
			Balance: point.Balance.String(),
		})
	}
	for tag, balance := range d.BankBalances {
		resp.SaldoBank[tag] = balance.String()
	}
	return resp
}

type sourceBalanceResponse struct {
	Cash  string `json:"Cash"`
	Debit string `json:"Debit"`
}

func toSourceBalanceResponse(totals map[core.SourceTag]decimal.Decimal) sourceBalanceResponse {
	return sourceBalanceResponse{
		Cash:  totals[core.SourceCash].String(),
		Debit: totals[core.SourceDebit].String(),
	}
}

type installmentsResponse struct {
	Total string         `json:"total"`
	Debts []debtResponse `json:"debts"`
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Kind      string `json:"kind"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponse(n core.Notification) notificationResponse {
	createdAt := ""
	if !n.CreatedAt.IsZero() {
		createdAt = n.CreatedAt.Format(time.RFC3339)
	}
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Kind:      n.Kind,
		IsRead:    n.Read,
		CreatedAt: createdAt,
	}
}
