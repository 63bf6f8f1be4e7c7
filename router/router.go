// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/handlers"
	"github.com/ballotcore/ballotcore/middleware"
	"github.com/ballotcore/ballotcore/voting"
)

func NewRouter(store *db.Store, orch *voting.Orchestrator, tally *voting.Tally, led handlers.Ledger, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	voteHandler := handlers.NewVoteHandler(store, orch, led, cfg)
	voterHandler := handlers.NewVoterHandler(store, cfg)
	partyHandler := handlers.NewPartyHandler(store, led, cfg)
	settingsHandler := handlers.NewSettingsHandler(store, led, cfg)
	resultsHandler := handlers.NewResultsHandler(store, tally, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Voter accounts
	mux.HandleFunc("POST /api/voters", middleware.WithLogging(voterHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.WithLogging(voterHandler.Login))

	// Vote casting and verification
	mux.HandleFunc("POST /api/votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("GET /api/votes/{voterID}/verify", middleware.WithLogging(voteHandler.VerifyVote))

	// Parties
	mux.HandleFunc("POST /api/parties", middleware.WithLogging(partyHandler.AddParty))
	mux.HandleFunc("GET /api/parties", middleware.WithLogging(partyHandler.ListParties))

	// Election settings and lifecycle (admin operations)
	mux.HandleFunc("GET /api/settings", middleware.WithLogging(settingsHandler.GetSettings))
	mux.HandleFunc("PUT /api/settings", middleware.WithLogging(settingsHandler.UpdateSettings))
	mux.HandleFunc("POST /api/election/reset", middleware.WithLogging(settingsHandler.ResetElection))

	// Results (sealed until close), turnout, reconciliation worklist
	mux.HandleFunc("GET /api/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/turnout", middleware.WithLogging(resultsHandler.GetTurnout))
	mux.HandleFunc("GET /api/invalid-votes", middleware.WithLogging(resultsHandler.GetInvalidVotes))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ballotcore API v1"))
	})

	return mux
}
