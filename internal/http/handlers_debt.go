package http

import (
	"errors"
	"net/http"
	"time"

	"duitku/internal/core"
	applog "duitku/internal/log"
)

func debtFromRequest(userID string, req debtRequest) (core.Debt, error) {
	principal, err := core.ParseAmount(req.JumlahHutang)
	if err != nil {
		return core.Debt{}, err
	}
	debtDate, err := parseDate(req.TanggalHutang)
	if err != nil {
		return core.Debt{}, core.ErrInvalidDay
	}
	dueDate, err := parseOptionalDate(req.TanggalJatuhTempo)
	if err != nil {
		return core.Debt{}, core.ErrInvalidDay
	}

	d := core.Debt{
		UserID:    userID,
		Creditor:  sanitizeInput(req.NamaKreditor),
		Principal: principal,
		DebtDate:  debtDate,
		DueDate:   dueDate,
		Memo:      sanitizeInput(req.Keterangan),
		Status:    core.DebtActive,
	}
	if req.Cicilan != nil {
		amount, err := core.ParseAmount(req.Cicilan.Amount)
		if err != nil {
			return core.Debt{}, err
		}
		d.Installment = &core.InstallmentPlan{
			Amount: amount,
			Day:    req.Cicilan.Day,
			Months: req.Cicilan.Months,
		}
	}
	return d, d.Validate()
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("status")
	debts, err := s.debts.List(r.Context(), userID(r), filter, time.Now())
	if err != nil {
		if errors.Is(err, core.ErrInvalidStatus) {
			writeInvalid(w, err)
			return
		}
		s.writeError(w, r, err, "Gagal memuat hutang", applog.ComponentDebt, applog.OpList)
		return
	}
	NewResponse().Data(toDebtResponses(debts)).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	debt, err := debtFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	created, err := s.debts.Create(r.Context(), debt)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan hutang", applog.ComponentDebt, applog.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(toDebtResponse(created)).
		Generation(s.bump(created.UserID)).
		NotifySuccess("Hutang berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	debt, err := debtFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	debt.ID = id

	if err := s.debts.Update(r.Context(), debt); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui hutang", applog.ComponentDebt, applog.OpUpdate)
		return
	}

	// Re-read so the response carries the re-derived status.
	updated, err := s.debts.Get(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat hutang", applog.ComponentDebt, applog.OpRead)
		return
	}
	NewResponse().
		Data(toDebtResponse(updated)).
		Generation(s.bump(updated.UserID)).
		NotifySuccess("Hutang berhasil diperbarui").
		Write(w)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	if err := s.debts.Delete(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err, "Gagal menghapus hutang", applog.ComponentDebt, applog.OpDelete)
		return
	}
	NewResponse().
		Generation(s.bump(userID(r))).
		NotifySuccess("Hutang berhasil dihapus").
		Write(w)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	debtID, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	payments, err := s.debts.Payments(r.Context(), userID(r), debtID)
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat pembayaran", applog.ComponentDebt, applog.OpList)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

// paymentMutationResponse pairs a payment with the debt's recomputed
// state so the client never derives amount paid or status itself.
type paymentMutationResponse struct {
	Payment *paymentResponse `json:"payment,omitempty"`
	Debt    debtResponse     `json:"debt"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	debtID, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	amount, err := core.ParseAmount(req.Jumlah)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	date, err := parseDate(req.Tanggal)
	if err != nil {
		writeInvalid(w, core.ErrInvalidDay)
		return
	}
	payment := core.DebtPayment{DebtID: debtID, Amount: amount, Date: date}
	if err := payment.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	created, debt, err := s.debts.RecordPayment(r.Context(), userID(r), payment)
	if err != nil {
		s.writeError(w, r, err, "Gagal mencatat pembayaran", applog.ComponentDebt, applog.OpCreate)
		return
	}

	s.logger.LogLedgerMutation(r.Context(), "Debt payment recorded",
		applog.ComponentDebt, applog.OpCreate, userID(r), created.Amount.String())

	createdResp := toPaymentResponse(created)
	NewResponse().
		Status(http.StatusCreated).
		Data(paymentMutationResponse{Payment: &createdResp, Debt: toDebtResponse(debt)}).
		Generation(s.bump(userID(r))).
		NotifySuccess("Pembayaran berhasil dicatat").
		Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	debt, err := s.debts.DeletePayment(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err, "Gagal menghapus pembayaran", applog.ComponentDebt, applog.OpDelete)
		return
	}
	NewResponse().
		Data(paymentMutationResponse{Debt: toDebtResponse(debt)}).
		Generation(s.bump(userID(r))).
		NotifySuccess("Pembayaran berhasil dihapus").
		Write(w)
}

func (s *Server) handleMonthlyInstallments(w http.ResponseWriter, r *http.Request) {
	monthly, err := s.debts.MonthlyInstallments(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat cicilan", applog.ComponentDebt, applog.OpList)
		return
	}
	NewResponse().
		Data(installmentsResponse{
			Total: monthly.Total.String(),
			Debts: toDebtResponses(monthly.Debts),
		}).
		Generation(s.generation.Load()).
		Write(w)
}
