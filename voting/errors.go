// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
)

// Vote-cast failure taxonomy. Window errors are expected outcomes, not
// faults; duplicate votes are terminal and never retried; ledger
// availability is a policy decision carried by the orchestrator.
var (
	ErrMalformedVoterID  = errors.New("malformed voter id")
	ErrUnknownParty      = errors.New("unknown party")
	ErrElectionInactive  = errors.New("election is not active")
	ErrElectionNotStarted = errors.New("election has not started")
	ErrElectionEnded     = errors.New("election has ended")
	ErrDuplicateVote     = errors.New("voter has already cast a vote")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// PersistError is the partial-failure seam: the ledger accepted the vote but
// the relational insert failed. The transaction handle is the caller's
// reconciliation token; an invalid-vote record carrying the same handle has
// already been written when this error is returned.
type PersistError struct {
	TxHandle string
	Reason   string
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("vote recorded on ledger (tx %s) but not persisted: %s", e.TxHandle, e.Reason)
}
