// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the RPC façade over the VotingSystem smart contract.

# Operations

Hot path:

	tx, err := client.SubmitVote(ctx, partyName, partyUID, voterID, voteHash)
	ok, err := client.HasVoted(ctx, voterID)
	hash, err := client.VoteHash(ctx, voterID)

Administrative (never on the vote path):

	client.AddCandidate(ctx, name, uid)
	client.Redeploy(ctx, electionName)
	client.CandidatesCount(ctx) / client.CandidateAt(ctx, i)

SubmitVote blocks until the transaction reaches finality and returns the
transaction handle callers use as their reconciliation token.

# Candidate Identity

Parties are handed to the contract by their stable UID, minted once in the
relational store and registered via AddCandidate. Resolution is UID-first;
a positional scan by name remains as a fallback for candidates registered
before the UID migration and logs a warning whenever it fires.

# Error Taxonomy

Every failure is classified into exactly one of two sentinel families:

  - ErrUnavailable: the RPC endpoint could not be reached or the submission
    never reached finality. The orchestrator's configured policy decides
    whether this fails the cast or proceeds flagged.
  - ErrRejected (with ErrAlreadyVoted and ErrUnknownCandidate as specific
    cases): the contract was reachable and refused. Never retried.
*/
package ledger
