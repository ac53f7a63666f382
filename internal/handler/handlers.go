package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kitchen-board/internal/board"
	"kitchen-board/internal/domain"
)

type BoardHandler struct {
	board *board.Board
}

func NewBoardHandler(b *board.Board) *BoardHandler {
	return &BoardHandler{board: b}
}

// GetBoard returns the four status buckets, narrowed by ?search=keyword.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	view := h.board.View(r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, map[string]any{
		"new":        view[domain.StatusNew],
		"processing": view[domain.StatusProcessing],
		"ready":      view[domain.StatusReady],
		"served":     view[domain.StatusServed],
	})
}

func (h *BoardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffID string `json:"staff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "request body must be JSON")
		return
	}
	o, err := h.board.Claim(r.Context(), r.PathValue("order_id"), req.StaffID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *BoardHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	o, err := h.board.Unclaim(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *BoardHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_json", "request body must be JSON")
		return
	}
	o, err := h.board.SetStatus(r.Context(), r.PathValue("order_id"), domain.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAlreadyClaimed):
		writeProblem(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, domain.ErrNotClaimed):
		writeProblem(w, http.StatusConflict, "not_claimed", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem emits the simplified Problem+JSON error shape.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}
