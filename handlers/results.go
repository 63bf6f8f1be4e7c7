// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/middleware"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/voting"
)

type ResultsHandler struct {
	store *db.Store
	tally *voting.Tally
	cfg   cliparse.Config
}

func NewResultsHandler(store *db.Store, tally *voting.Tally, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{store: store, tally: tally, cfg: cfg}
}

// GetResults handles GET /api/results. Results stay sealed until the
// election is inactive and past its scheduled end.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	result, err := h.tally.FinalResults(r.Context())
	if errors.Is(err, voting.ErrTallyLocked) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are sealed until the election closes")
		return
	}
	if err != nil {
		slog.Error("failed to compute tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute results")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetTurnout handles GET /api/turnout
func (h *ResultsHandler) GetTurnout(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.CountUsers(r.Context())
	if err != nil {
		slog.Error("failed to count users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	voted, err := h.store.CountVotes(r.Context())
	if err != nil {
		slog.Error("failed to count votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	resp := models.TurnoutResponse{Total: total, Voted: voted}
	if total > 0 {
		resp.Percentage = float64(voted) / float64(total) * 100
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetInvalidVotes handles GET /api/invalid-votes (admin only). This is the
// operator's worklist for ledger/store reconciliation.
func (h *ResultsHandler) GetInvalidVotes(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	invalid, err := h.store.InvalidVotes(r.Context())
	if err != nil {
		slog.Error("failed to list invalid votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if invalid == nil {
		invalid = []models.InvalidVote{}
	}
	middleware.JSONResponse(w, http.StatusOK, invalid)
}
