// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/middleware"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/voting"
)

// Ledger is the admin-facing slice of the contract client used by handlers.
type Ledger interface {
	AddCandidate(ctx context.Context, name, uid string) (string, error)
	Redeploy(ctx context.Context, electionName string) (string, error)
	VoteHash(ctx context.Context, voterID string) (string, error)
}

type VoteHandler struct {
	store  *db.Store
	orch   *voting.Orchestrator
	ledger Ledger
	cfg    cliparse.Config
}

func NewVoteHandler(store *db.Store, orch *voting.Orchestrator, led Ledger, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{store: store, orch: orch, ledger: led, cfg: cfg}
}

// CastVote handles POST /api/votes
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// The header form of the key wins over the body field.
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	receipt, err := h.orch.CastVote(r.Context(), req)
	if err != nil {
		h.writeCastError(w, r, req, err)
		return
	}

	// Audit under the normalized voter id so rows correlate.
	voterID := strings.TrimSpace(req.VoterID)
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	if err := h.store.AppendAudit(context.WithoutCancel(r.Context()), "vote.cast", voterID, receipt.Status, ipHash, time.Now().UTC()); err != nil {
		slog.Warn("failed to append audit record", "error", err)
	}

	slog.Info("vote cast", "voter_id", voterID, "status", receipt.Status)
	middleware.JSONResponse(w, http.StatusCreated, receipt)
}

func (h *VoteHandler) writeCastError(w http.ResponseWriter, r *http.Request, req models.CastVoteRequest, err error) {
	var perr *voting.PersistError
	switch {
	case errors.Is(err, voting.ErrMalformedVoterID):
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id must be non-empty and alphanumeric")
	case errors.Is(err, voting.ErrUnknownParty):
		middleware.ErrorResponse(w, http.StatusNotFound, "Party not found")
	case errors.Is(err, voting.ErrElectionInactive),
		errors.Is(err, voting.ErrElectionNotStarted),
		errors.Is(err, voting.ErrElectionEnded):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, voting.ErrDuplicateVote):
		middleware.ErrorResponse(w, http.StatusConflict, "Voter has already cast a vote")
	case errors.Is(err, voting.ErrLedgerUnavailable):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ledger unavailable, vote not recorded")
	case errors.As(err, &perr):
		slog.Error("vote persisted on ledger only", "voter_id", req.VoterID, "tx_handle", perr.TxHandle)
		middleware.ErrorResponseWithTx(w, http.StatusInternalServerError,
			"Vote reached the ledger but could not be stored; keep the transaction handle for reconciliation", perr.TxHandle)
	default:
		slog.Error("vote cast failed", "voter_id", req.VoterID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
	}
}

// VerifyVote handles GET /api/votes/{voterID}/verify
func (h *VoteHandler) VerifyVote(w http.ResponseWriter, r *http.Request) {
	voterID := r.PathValue("voterID")
	if !auth.ValidVoterID(voterID) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "voter_id must be non-empty and alphanumeric")
		return
	}

	rec, err := h.store.VoteByVoter(r.Context(), voterID)
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No vote recorded for this voter")
		return
	}
	if err != nil {
		slog.Error("failed to load vote", "voter_id", voterID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if rec.TxHash == "" {
		middleware.JSONResponse(w, http.StatusOK, models.VerifyVoteResponse{
			Verified: false,
			VoteHash: rec.VoteHash,
			Message:  "Vote recorded without ledger confirmation",
		})
		return
	}

	ledgerHash, err := h.ledger.VoteHash(r.Context(), voterID)
	if err != nil {
		slog.Warn("ledger unavailable during verification", "voter_id", voterID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Ledger unavailable, cannot verify")
		return
	}

	resp := models.VerifyVoteResponse{
		Verified: ledgerHash != "" && ledgerHash == rec.VoteHash,
		VoteHash: rec.VoteHash,
		TxHandle: rec.TxHash,
	}
	if !resp.Verified {
		resp.Message = "Stored vote hash does not match the ledger"
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
