// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterVoterRequest: username, password, voter_id, optional photo
  - LoginRequest: voter_id, password
  - CastVoteRequest: voter_id, party_name, booth_id, optional idempotency_key
  - AddPartyRequest: name, symbol, description, manifesto, image_url
  - UpdateSettingsRequest: partial election settings update

# Response Types

Types for JSON responses:

  - VoteReceipt: status, tx_handle, vote_hash, message
  - VerifyVoteResponse: verified, vote_hash, tx_handle
  - TurnoutResponse: total, voted, percentage
  - TallyResult: tally, total_votes, verified_votes
  - ErrorResponse: error, message, tx_handle

ErrorResponse.TxHandle is populated only on persistence failures that follow a
successful ledger submission; it is the operator's reconciliation token.

# Domain Types

Internal data structures:

  - User: voter identity with bcrypt credential hash and tokenized photo
  - Party: candidate party with a stable cross-ledger UID
  - VoteRecord: one row per voter, party choice sealed at rest
  - InvalidVote: compensating record for ledger-committed, store-failed votes
  - ElectionSettings: singleton election window state

# Constants

Roles:

	RoleVoter = "voter"
	RoleAdmin = "admin"

Receipt statuses:

	StatusSuccess           = "success"
	StatusLedgerUnavailable = "ledger-unavailable"
*/
package models
