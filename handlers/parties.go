// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/middleware"
	"github.com/ballotcore/ballotcore/models"
)

type PartyHandler struct {
	store  *db.Store
	ledger Ledger
	cfg    cliparse.Config
}

func NewPartyHandler(store *db.Store, led Ledger, cfg cliparse.Config) *PartyHandler {
	return &PartyHandler{store: store, ledger: led, cfg: cfg}
}

// AddParty handles POST /api/parties (admin only)
func (h *PartyHandler) AddParty(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.AddPartyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	party := models.Party{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		Manifesto:   req.Manifesto,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.store.CreateParty(r.Context(), party); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			middleware.ErrorResponse(w, http.StatusConflict, "Party already exists")
			return
		}
		slog.Error("failed to create party", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create party")
		return
	}

	uid, err := h.store.MintPartyUID(r.Context(), party.Name)
	if err != nil {
		slog.Error("failed to mint party uid", "party", party.Name, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create party")
		return
	}

	// Register the candidate on the ledger under its fresh uid. The party row
	// survives a ledger failure; votes for it fail until registration is
	// retried through the election reset flow.
	if _, err := h.ledger.AddCandidate(r.Context(), party.Name, uid); err != nil {
		slog.Error("failed to register candidate on ledger", "party", party.Name, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Party saved but ledger registration failed")
		return
	}

	slog.Info("party added", "name", party.Name, "uid", uid)
	middleware.JSONResponse(w, http.StatusCreated, models.AddPartyResponse{Name: party.Name, UID: uid})
}

// ListParties handles GET /api/parties
func (h *PartyHandler) ListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.store.Parties(r.Context())
	if err != nil {
		slog.Error("failed to list parties", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if parties == nil {
		parties = []models.Party{}
	}
	middleware.JSONResponse(w, http.StatusOK, parties)
}
