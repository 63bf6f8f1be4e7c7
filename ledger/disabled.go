// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "context"

// Disabled is the client used when no ledger endpoint is configured. Every
// call reports ErrUnavailable, so strict deployments refuse votes outright
// and permissive ones record them with an empty transaction handle.
type Disabled struct{}

func (Disabled) SubmitVote(ctx context.Context, partyName, partyUID, voterID, voteHash string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) HasVoted(ctx context.Context, voterID string) (bool, error) {
	return false, ErrUnavailable
}

func (Disabled) VoteHash(ctx context.Context, voterID string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) AddCandidate(ctx context.Context, name, uid string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Redeploy(ctx context.Context, electionName string) (string, error) {
	return "", ErrUnavailable
}
