// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package voting holds the election core: the vote-cast orchestrator, the
// window scheduler, and the sealed-results tally.
//
// The orchestrator serializes all work for a given voter behind that voter's
// lock and orders the cast as ledger first, relational store second. A store
// failure after a ledger accept is recorded as an invalid-vote entry keyed by
// the ledger transaction handle, which is the unit of manual reconciliation.
package voting
