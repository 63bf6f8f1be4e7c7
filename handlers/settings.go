// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/middleware"
	"github.com/ballotcore/ballotcore/models"
)

// electionName is passed to the contract constructor on redeploy.
const electionName = "General Election"

type SettingsHandler struct {
	store  *db.Store
	ledger Ledger
	cfg    cliparse.Config
}

func NewSettingsHandler(store *db.Store, led Ledger, cfg cliparse.Config) *SettingsHandler {
	return &SettingsHandler{store: store, ledger: led, cfg: cfg}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings(r.Context())
	if err != nil {
		slog.Error("failed to read settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/settings (admin only)
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	var req models.UpdateSettingsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// The active flag goes through the same compare-and-set as the scheduler,
	// so a manual flip that raced an automatic one is a no-op, not an error.
	if req.IsActive != nil {
		flipped, err := h.store.SetActive(r.Context(), !*req.IsActive, *req.IsActive)
		if err != nil {
			slog.Error("failed to flip active flag", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
		if flipped {
			slog.Info("election active flag set by admin", "is_active", *req.IsActive)
		}
	}

	if err := h.store.UpdateSettings(r.Context(), req); err != nil {
		slog.Error("failed to update settings", "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid settings update")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	if err := h.store.AppendAudit(r.Context(), "settings.update", "", "", ipHash, time.Now().UTC()); err != nil {
		slog.Warn("failed to append audit record", "error", err)
	}

	settings, err := h.store.Settings(r.Context())
	if err != nil {
		slog.Error("failed to reload settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, settings)
}

// ResetElection handles POST /api/election/reset (admin only). A fresh
// contract is deployed first; only once it is live is the relational state
// wiped and every party re-registered under a newly minted uid.
func (h *SettingsHandler) ResetElection(w http.ResponseWriter, r *http.Request) {
	if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	addr, err := h.ledger.Redeploy(r.Context(), electionName)
	if err != nil {
		slog.Error("failed to redeploy voting contract", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Ledger redeploy failed, election not reset")
		return
	}

	if err := h.store.ResetElection(r.Context()); err != nil {
		slog.Error("failed to reset election state", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset election")
		return
	}

	parties, err := h.store.Parties(r.Context())
	if err != nil {
		slog.Error("failed to list parties after reset", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	for _, p := range parties {
		uid, err := h.store.MintPartyUID(r.Context(), p.Name)
		if err != nil {
			slog.Error("failed to re-mint party uid", "party", p.Name, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to re-register parties")
			return
		}
		if _, err := h.ledger.AddCandidate(r.Context(), p.Name, uid); err != nil {
			slog.Error("failed to re-register candidate", "party", p.Name, "error", err)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to re-register parties on ledger")
			return
		}
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	if err := h.store.AppendAudit(r.Context(), "election.reset", "", addr, ipHash, time.Now().UTC()); err != nil {
		slog.Warn("failed to append audit record", "error", err)
	}

	slog.Info("election reset", "contract", addr, "parties", len(parties))
	middleware.JSONResponse(w, http.StatusOK, models.ResetElectionResponse{
		ContractAddress: addr,
		Parties:         len(parties),
		Message:         "Election reset; all parties re-registered",
	})
}
