package http

import (
	"errors"
	"net/http"
	"time"

	"duitku/internal/core"
	applog "duitku/internal/log"
)

func budgetFromRequest(userID string, req budgetRequest) (core.Budget, error) {
	limit, err := core.ParseAmount(req.LimitAmount)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		UserID:     userID,
		CategoryID: req.KategoriID,
		Limit:      limit,
		Month:      req.Bulan,
		Year:       req.Tahun,
	}
	return b, b.Validate()
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	month, year := parseMonthYear(r, time.Now())
	usages, err := s.budgets.ListWithUsage(r.Context(), userID(r), month, year)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeInvalid(w, err)
			return
		}
		s.writeError(w, r, err, "Gagal memuat budget", applog.ComponentBudget, applog.OpList)
		return
	}
	out := make([]budgetResponse, 0, len(usages))
	for _, u := range usages {
		out = append(out, toBudgetUsageResponse(u))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	budget, err := budgetFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	created, err := s.budgets.Create(r.Context(), budget)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan budget", applog.ComponentBudget, applog.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(budgetResponse{
			ID:          created.ID,
			KategoriID:  created.CategoryID,
			LimitAmount: created.Limit.String(),
			Bulan:       created.Month,
			Tahun:       created.Year,
			Terpakai:    "0",
		}).
		Generation(s.bump(created.UserID)).
		NotifySuccess("Budget berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	budget, err := budgetFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	budget.ID = id

	if err := s.budgets.Update(r.Context(), budget); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui budget", applog.ComponentBudget, applog.OpUpdate)
		return
	}
	NewResponse().
		Generation(s.bump(budget.UserID)).
		NotifySuccess("Budget berhasil diperbarui").
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	if err := s.budgets.Delete(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err, "Gagal menghapus budget", applog.ComponentBudget, applog.OpDelete)
		return
	}
	NewResponse().
		Generation(s.bump(userID(r))).
		NotifySuccess("Budget berhasil dihapus").
		Write(w)
}
