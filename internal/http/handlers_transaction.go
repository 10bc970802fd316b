package http

import (
	"errors"
	"net/http"

	"duitku/internal/core"
	applog "duitku/internal/log"
	"duitku/internal/storage"
)

// writeError maps a service error to the envelope: missing or foreign
// records are 404, everything else is logged and collapsed to the
// operation's generic failure toast.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, failMsg, component, op string) {
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("Data tidak ditemukan").Write(w)
		return
	}
	s.logger.LogError(r.Context(), failMsg, err, component, op,
		applog.NewFields().WithUserID(userID(r)))
	InternalServerError(failMsg).Write(w)
}

// writeInvalid rejects a request that failed domain validation.
func writeInvalid(w http.ResponseWriter, err error) {
	UnprocessableEntityError("Data tidak valid: " + err.Error()).Write(w)
}

// transactionFromRequest builds the domain transaction from its payload.
func transactionFromRequest(userID string, req transactionRequest) (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Jumlah)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDate(req.Tanggal)
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDay
	}
	tx := core.Transaction{
		UserID:     userID,
		Type:       core.TransactionType(req.Tipe),
		Date:       date,
		Amount:     amount,
		Source:     core.SourceTag(req.Sumber),
		CategoryID: req.KategoriID,
		Memo:       sanitizeInput(req.Keterangan),
	}
	return tx, tx.Validate()
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.TransactionFilter{
		Type:   core.TransactionType(q.Get("tipe")),
		Source: core.SourceTag(q.Get("sumber")),
		Search: sanitizeInput(q.Get("q")),
	}
	if v := int64(queryInt(r, "kategori_id", 0)); v > 0 {
		filter.CategoryID = &v
	}
	if from, err := parseOptionalDate(q.Get("dari")); err == nil {
		filter.From = from
	}
	if to, err := parseOptionalDate(q.Get("sampai")); err == nil {
		filter.To = to
	}

	txs, err := s.transactions.List(r.Context(), userID(r), filter)
	if err != nil {
		if errors.Is(err, core.ErrInvalidType) {
			writeInvalid(w, err)
			return
		}
		s.writeError(w, r, err, "Gagal memuat transaksi", applog.ComponentTransaction, applog.OpList)
		return
	}
	NewResponse().Data(toTransactionResponses(txs)).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	tx, err := transactionFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan transaksi", applog.ComponentTransaction, applog.OpCreate)
		return
	}

	s.logger.LogLedgerMutation(r.Context(), "Transaction created",
		applog.ComponentTransaction, applog.OpCreate, created.UserID, created.Amount.String())

	NewResponse().
		Status(http.StatusCreated).
		Data(toTransactionResponse(created)).
		Generation(s.bump(created.UserID)).
		NotifySuccess("Transaksi berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	req.Tipe = r.PathValue("tipe")
	tx, err := transactionFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	tx.ID = id

	if err := s.transactions.Update(r.Context(), tx); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui transaksi", applog.ComponentTransaction, applog.OpUpdate)
		return
	}
	NewResponse().
		Data(toTransactionResponse(tx)).
		Generation(s.bump(tx.UserID)).
		NotifySuccess("Transaksi berhasil diperbarui").
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	typ := core.TransactionType(r.PathValue("tipe"))
	if err := typ.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), userID(r), typ, id); err != nil {
		s.writeError(w, r, err, "Gagal menghapus transaksi", applog.ComponentTransaction, applog.OpDelete)
		return
	}
	NewResponse().
		Generation(s.bump(userID(r))).
		NotifySuccess("Transaksi berhasil dihapus").
		Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(r.URL.Query().Get("tipe"))
	cats, err := s.transactions.ListCategories(r.Context(), userID(r), typ)
	if err != nil {
		if errors.Is(err, core.ErrInvalidType) {
			writeInvalid(w, err)
			return
		}
		s.writeError(w, r, err, "Gagal memuat kategori", applog.ComponentTransaction, applog.OpList)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	cat := core.Category{
		UserID: userID(r),
		Name:   sanitizeInput(req.Nama),
		Type:   core.TransactionType(req.Tipe),
	}
	if err := cat.Validate(); err != nil {
		writeInvalid(w, err)
		return
	}

	created, err := s.transactions.CreateCategory(r.Context(), cat)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan kategori", applog.ComponentTransaction, applog.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(toCategoryResponse(created)).
		Generation(s.bump(created.UserID)).
		NotifySuccess("Kategori berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	if err := s.transactions.DeleteCategory(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err, "Gagal menghapus kategori", applog.ComponentTransaction, applog.OpDelete)
		return
	}
	NewResponse().
		Generation(s.bump(userID(r))).
		NotifySuccess("Kategori berhasil dihapus").
		Write(w)
}
