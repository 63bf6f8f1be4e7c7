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

type VoterHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewVoterHandler(store *db.Store, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{store: store, cfg: cfg}
}

// Register handles POST /api/voters
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.VoterID = strings.TrimSpace(req.VoterID)
	if !auth.ValidVoterID(req.VoterID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id must be non-empty and alphanumeric")
		return
	}
	if req.Username == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username is required")
		return
	}
	if len(req.Password) < 8 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	settings, err := h.store.Settings(r.Context())
	if err != nil {
		slog.Error("failed to read settings", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !settings.RegistrationOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Registration is closed")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleVoter
	}
	if role != models.RoleVoter && role != models.RoleAdmin {
		middleware.ErrorResponse(w, http.StatusBadRequest, "role must be voter or admin")
		return
	}
	// Admin accounts can only be minted by an existing admin.
	if role == models.RoleAdmin {
		if err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), h.cfg.AdminKeySalt); err != nil {
			middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
			return
		}
	}

	hash, err := auth.HashCredential(req.Password)
	if err != nil {
		slog.Error("failed to hash credential", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	user := models.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		CredentialHash: hash,
		VoterID:        req.VoterID,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if req.PhotoBase64 != "" {
		user.PhotoHash = auth.HashPhoto(req.PhotoBase64)
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			middleware.ErrorResponse(w, http.StatusConflict, "Voter already registered")
			return
		}
		slog.Error("failed to create user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register voter")
		return
	}

	slog.Info("voter registered", "voter_id", user.VoterID, "role", user.Role)
	middleware.JSONResponse(w, http.StatusCreated, models.RegisterVoterResponse{VoterID: user.VoterID})
}

// Login handles POST /api/login
func (h *VoterHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.VoterID == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id and password are required")
		return
	}

	user, err := h.store.UserByVoterID(r.Context(), req.VoterID)
	if errors.Is(err, db.ErrNotFound) {
		// Same response as a bad password so voter ids cannot be probed.
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		slog.Error("failed to load user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := auth.CheckCredential(req.Password, user.CredentialHash); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	slog.Info("voter logged in", "voter_id", user.VoterID)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		VoterID:  user.VoterID,
		Username: user.Username,
		Role:     user.Role,
	})
}
