// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/encryption"
	"github.com/ballotcore/ballotcore/idempotency"
	"github.com/ballotcore/ballotcore/ledger"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/voterlock"
	"github.com/google/uuid"
)

// Ledger is the slice of the external ledger the cast path needs. The
// concrete client lives in the ledger package; tests substitute a fake.
type Ledger interface {
	SubmitVote(ctx context.Context, partyName, partyUID, voterID, voteHash string) (string, error)
	HasVoted(ctx context.Context, voterID string) (bool, error)
	VoteHash(ctx context.Context, voterID string) (string, error)
}

// Orchestrator owns the vote-cast sequence: window check, per-voter
// serialization, idempotent replay, ledger submission, and the dual write
// into the relational store with its compensating invalid-vote record.
type Orchestrator struct {
	store  *db.Store
	ledger Ledger
	codec  *encryption.Codec
	locks  *voterlock.Registry
	cache  *idempotency.Cache
	clk    clock.Clock
	strict bool
}

func NewOrchestrator(store *db.Store, led Ledger, codec *encryption.Codec, locks *voterlock.Registry, cache *idempotency.Cache, clk clock.Clock, strict bool) *Orchestrator {
	return &Orchestrator{store: store, ledger: led, codec: codec, locks: locks, cache: cache, clk: clk, strict: strict}
}

// CastVote runs one submission end to end. All state transitions for a given
// voter happen under that voter's lock; the idempotency key, when present,
// makes retries of a successful cast return the original receipt without
// touching the ledger or the store again.
func (o *Orchestrator) CastVote(ctx context.Context, req models.CastVoteRequest) (models.VoteReceipt, error) {
	voterID := strings.TrimSpace(req.VoterID)
	if !auth.ValidVoterID(voterID) {
		return models.VoteReceipt{}, ErrMalformedVoterID
	}
	if strings.TrimSpace(req.PartyName) == "" {
		return models.VoteReceipt{}, ErrUnknownParty
	}

	if receipt, ok := o.cachedReceipt(req.IdempotencyKey); ok {
		return receipt, nil
	}

	release := o.locks.Acquire(voterID)
	defer release()

	// A retry may have raced us to the lock and already completed.
	if receipt, ok := o.cachedReceipt(req.IdempotencyKey); ok {
		return receipt, nil
	}

	settings, err := o.store.Settings(ctx)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("read settings: %w", err)
	}
	now := o.clk.Now().UTC()
	if !settings.IsActive {
		return models.VoteReceipt{}, ErrElectionInactive
	}
	if settings.StartTime != nil && now.Before(*settings.StartTime) {
		return models.VoteReceipt{}, ErrElectionNotStarted
	}
	if settings.EndTime != nil && now.After(*settings.EndTime) {
		return models.VoteReceipt{}, ErrElectionEnded
	}

	voted, err := o.store.HasVoted(ctx, voterID)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("check prior vote: %w", err)
	}
	if voted {
		return models.VoteReceipt{}, ErrDuplicateVote
	}

	party, err := o.store.PartyByName(ctx, req.PartyName)
	if errors.Is(err, db.ErrNotFound) {
		return models.VoteReceipt{}, ErrUnknownParty
	}
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("resolve party: %w", err)
	}
	if party.UID == "" {
		party.UID, err = o.store.MintPartyUID(ctx, party.Name)
		if err != nil {
			return models.VoteReceipt{}, fmt.Errorf("mint party uid: %w", err)
		}
	}

	encrypted, err := o.codec.Seal(party.Name)
	if err != nil {
		return models.VoteReceipt{}, fmt.Errorf("encrypt choice: %w", err)
	}
	voteHash := encryption.VoteHash(encrypted, voterID, now)

	status := models.StatusSuccess
	txHandle, err := o.ledger.SubmitVote(ctx, party.Name, party.UID, voterID, voteHash)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrAlreadyVoted):
			return models.VoteReceipt{}, ErrDuplicateVote
		case errors.Is(err, ledger.ErrUnknownCandidate):
			return models.VoteReceipt{}, fmt.Errorf("%w: not registered on ledger", ErrUnknownParty)
		case errors.Is(err, ledger.ErrUnavailable):
			if o.strict {
				return models.VoteReceipt{}, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
			}
			slog.Warn("ledger unavailable, recording vote without confirmation",
				"voter_id", voterID, "error", err)
			if auditErr := o.store.AppendAudit(context.WithoutCancel(ctx), "vote.ledger_unavailable", voterID, err.Error(), "", now); auditErr != nil {
				slog.Warn("failed to append audit record", "error", auditErr)
			}
			status = models.StatusLedgerUnavailable
			txHandle = ""
		default:
			return models.VoteReceipt{}, fmt.Errorf("ledger submit: %w", err)
		}
	}

	// The ledger write, if any, is committed. The relational write must run
	// to completion even if the caller has gone away.
	pctx := context.WithoutCancel(ctx)
	record := models.VoteRecord{
		ID:              uuid.NewString(),
		VoterID:         voterID,
		EncryptedChoice: encrypted,
		VoteHash:        voteHash,
		TxHash:          txHandle,
		BoothID:         req.BoothID,
		Timestamp:       now,
	}
	if err := o.store.InsertVote(pctx, record, party.Name); err != nil {
		if errors.Is(err, db.ErrDuplicate) && txHandle == "" {
			return models.VoteReceipt{}, ErrDuplicateVote
		}
		return models.VoteReceipt{}, o.reconcile(pctx, txHandle, voterID, err)
	}

	receipt := models.VoteReceipt{
		Status:   status,
		TxHandle: txHandle,
		VoteHash: voteHash,
		Message:  receiptMessage(status),
	}
	o.cacheReceipt(req.IdempotencyKey, receipt)
	return receipt, nil
}

// reconcile records the ledger/store divergence so an operator can resolve
// it, then surfaces the transaction handle to the caller.
func (o *Orchestrator) reconcile(ctx context.Context, txHandle, voterID string, cause error) error {
	slog.Error("vote accepted by ledger but not persisted",
		"tx_handle", txHandle, "voter_id", voterID, "error", cause)
	invalid := models.InvalidVote{
		ID:        uuid.NewString(),
		TxHash:    txHandle,
		VoterID:   voterID,
		Reason:    cause.Error(),
		Timestamp: o.clk.Now().UTC(),
	}
	if err := o.store.InsertInvalidVote(ctx, invalid); err != nil {
		slog.Error("failed to record invalid vote", "tx_handle", txHandle, "error", err)
	}
	if err := o.store.AppendAudit(ctx, "vote.reconcile", voterID, txHandle, "", invalid.Timestamp); err != nil {
		slog.Warn("failed to append audit record", "error", err)
	}
	return &PersistError{TxHandle: txHandle, Reason: cause.Error()}
}

func receiptMessage(status string) string {
	if status == models.StatusLedgerUnavailable {
		return "Vote recorded without ledger confirmation"
	}
	return "Vote recorded"
}

func (o *Orchestrator) cachedReceipt(key string) (models.VoteReceipt, bool) {
	if key == "" {
		return models.VoteReceipt{}, false
	}
	payload, ok := o.cache.Get(key)
	if !ok {
		return models.VoteReceipt{}, false
	}
	var receipt models.VoteReceipt
	if err := json.Unmarshal(payload, &receipt); err != nil {
		return models.VoteReceipt{}, false
	}
	return receipt, true
}

// Only successful receipts are cached. Window and duplicate failures have no
// side effects, so a keyed retry can safely re-evaluate them.
func (o *Orchestrator) cacheReceipt(key string, receipt models.VoteReceipt) {
	if key == "" {
		return
	}
	payload, err := json.Marshal(receipt)
	if err != nil {
		return
	}
	o.cache.Put(key, payload)
}
