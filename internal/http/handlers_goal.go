package http

import (
	"net/http"

	"duitku/internal/core"
	applog "duitku/internal/log"
)

func goalFromRequest(userID string, req goalRequest) (core.Goal, error) {
	target, err := core.ParseAmount(req.Target)
	if err != nil {
		return core.Goal{}, err
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		return core.Goal{}, core.ErrInvalidDeadline
	}
	g := core.Goal{
		UserID:   userID,
		Name:     sanitizeInput(req.Nama),
		Target:   target,
		Deadline: deadline,
	}
	return g, g.Validate()
}

func savingFromRequest(goalID int64, req savingRequest) (core.Saving, error) {
	amount, err := core.ParseAmount(req.Jumlah)
	if err != nil {
		return core.Saving{}, err
	}
	date, err := parseDate(req.Tanggal)
	if err != nil {
		return core.Saving{}, core.ErrInvalidDay
	}
	saving := core.Saving{
		GoalID: goalID,
		Amount: amount,
		Source: core.SourceTag(req.Sumber),
		Note:   sanitizeInput(req.Keterangan),
		Date:   date,
	}
	return saving, saving.Validate()
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat target", applog.ComponentGoal, applog.OpList)
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalResponse(g))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	goal, err := goalFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	created, err := s.goals.Create(r.Context(), goal)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan target", applog.ComponentGoal, applog.OpCreate)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(toGoalResponse(created)).
		Generation(s.bump(created.UserID)).
		NotifySuccess("Target berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	goal, err := goalFromRequest(userID(r), req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	goal.ID = id

	if err := s.goals.Update(r.Context(), goal); err != nil {
		s.writeError(w, r, err, "Gagal memperbarui target", applog.ComponentGoal, applog.OpUpdate)
		return
	}

	// Re-read so the response carries the replayed progress.
	updated, err := s.goals.Get(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat target", applog.ComponentGoal, applog.OpRead)
		return
	}
	NewResponse().
		Data(toGoalResponse(updated)).
		Generation(s.bump(updated.UserID)).
		NotifySuccess("Target berhasil diperbarui").
		Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	if err := s.goals.Delete(r.Context(), userID(r), id); err != nil {
		s.writeError(w, r, err, "Gagal menghapus target", applog.ComponentGoal, applog.OpDelete)
		return
	}
	NewResponse().
		Generation(s.bump(userID(r))).
		NotifySuccess("Target berhasil dihapus").
		Write(w)
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	limit := queryInt(r, "limit", 0)

	savings, err := s.goals.Contributions(r.Context(), userID(r), goalID, limit)
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat tabungan", applog.ComponentGoal, applog.OpList)
		return
	}
	out := make([]savingResponse, 0, len(savings))
	for _, saving := range savings {
		out = append(out, toSavingResponse(saving))
	}
	NewResponse().Data(out).Generation(s.generation.Load()).Write(w)
}

// savingMutationResponse pairs a contribution with the goal's recomputed
// state so the client never derives progress itself.
type savingMutationResponse struct {
	Saving *savingResponse `json:"saving,omitempty"`
	Goal   goalResponse    `json:"goal"`
}

func (s *Server) handleCreateSaving(w http.ResponseWriter, r *http.Request) {
	goalID, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req savingRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	saving, err := savingFromRequest(goalID, req)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	created, goal, err := s.goals.Contribute(r.Context(), userID(r), saving)
	if err != nil {
		s.writeError(w, r, err, "Gagal menambahkan tabungan", applog.ComponentGoal, applog.OpCreate)
		return
	}

	s.logger.LogLedgerMutation(r.Context(), "Goal contribution recorded",
		applog.ComponentGoal, applog.OpCreate, userID(r), created.Amount.String())

	createdResp := toSavingResponse(created)
	NewResponse().
		Status(http.StatusCreated).
		Data(savingMutationResponse{Saving: &createdResp, Goal: toGoalResponse(goal)}).
		Generation(s.bump(userID(r))).
		NotifySuccess("Tabungan berhasil ditambahkan").
		Write(w)
}

func (s *Server) handleUpdateSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	var req savingRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError("Format permintaan tidak valid").Write(w)
		return
	}
	saving, err := savingFromRequest(0, req)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	saving.ID = id

	goal, err := s.goals.EditContribution(r.Context(), userID(r), saving)
	if err != nil {
		s.writeError(w, r, err, "Gagal memperbarui tabungan", applog.ComponentGoal, applog.OpUpdate)
		return
	}
	NewResponse().
		Data(savingMutationResponse{Goal: toGoalResponse(goal)}).
		Generation(s.bump(userID(r))).
		NotifySuccess("Tabungan berhasil diperbarui").
		Write(w)
}

func (s *Server) handleDeleteSaving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError("ID tidak valid").Write(w)
		return
	}
	goal, err := s.goals.DeleteContribution(r.Context(), userID(r), id)
	if err != nil {
		s.writeError(w, r, err, "Gagal menghapus tabungan", applog.ComponentGoal, applog.OpDelete)
		return
	}
	NewResponse().
		Data(savingMutationResponse{Goal: toGoalResponse(goal)}).
		Generation(s.bump(userID(r))).
		NotifySuccess("Tabungan berhasil dihapus").
		Write(w)
}

func (s *Server) handleSavingsBySource(w http.ResponseWriter, r *http.Request) {
	totals, err := s.goals.SavingsBySource(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err, "Gagal memuat saldo tabungan", applog.ComponentGoal, applog.OpList)
		return
	}
	NewResponse().Data(toSourceBalanceResponse(totals)).Generation(s.generation.Load()).Write(w)
}
