// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/testutil"
)

func TestGetSettings(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSettingsHandler(env.store, env.ledger, env.cfg)

	w := httptest.NewRecorder()
	handler.GetSettings(w, testutil.MakeRequest("GET", "/api/settings", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var settings models.ElectionSettings
	testutil.AssertJSON(t, w, &settings)
	if settings.IsActive {
		t.Error("Expected election to start inactive")
	}
	if !settings.RegistrationOpen {
		t.Error("Expected registration to start open")
	}
	if settings.MinVotingAge != 18 {
		t.Errorf("Expected min voting age 18, got %d", settings.MinVotingAge)
	}
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSettingsHandler(env.store, env.ledger, env.cfg)

	adminKey := auth.GenerateAdminKey(env.cfg.AdminKeySalt)
	adminHeaders := map[string]string{"X-Admin-Key": adminKey}

	t.Run("requires admin key", func(t *testing.T) {
		active := true
		req := testutil.MakeRequest("PUT", "/api/settings", models.UpdateSettingsRequest{IsActive: &active}, nil)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("sets window and active flag", func(t *testing.T) {
		active := true
		start := "2026-05-01T09:00:00Z"
		end := "2026-05-01T17:00:00Z"
		req := testutil.MakeRequest("PUT", "/api/settings", models.UpdateSettingsRequest{
			IsActive:  &active,
			StartTime: &start,
			EndTime:   &end,
		}, adminHeaders)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var settings models.ElectionSettings
		testutil.AssertJSON(t, w, &settings)
		if !settings.IsActive {
			t.Error("Expected election to be active")
		}
		if settings.StartTime == nil || settings.EndTime == nil {
			t.Fatal("Expected window bounds to be set")
		}
		if settings.StartTime.Format("2006-01-02T15:04:05Z") != start {
			t.Errorf("Unexpected start time %v", settings.StartTime)
		}
	})

	t.Run("redundant flip is a no-op", func(t *testing.T) {
		active := true
		req := testutil.MakeRequest("PUT", "/api/settings", models.UpdateSettingsRequest{IsActive: &active}, adminHeaders)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var settings models.ElectionSettings
		testutil.AssertJSON(t, w, &settings)
		if !settings.IsActive {
			t.Error("Redundant flip must leave the election active")
		}
	})

	t.Run("bad timestamp rejected", func(t *testing.T) {
		bad := "yesterday"
		req := testutil.MakeRequest("PUT", "/api/settings", models.UpdateSettingsRequest{StartTime: &bad}, adminHeaders)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestResetElection(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSettingsHandler(env.store, env.ledger, env.cfg)
	voteHandler := NewVoteHandler(env.store, env.orch, env.ledger, env.cfg)

	adminKey := auth.GenerateAdminKey(env.cfg.AdminKeySalt)
	adminHeaders := map[string]string{"X-Admin-Key": adminKey}

	// Seed a party with a uid and a committed vote.
	party := testutil.CreateTestParty(t, env.sqlDB, "Unity Alliance", "")
	oldUID, err := env.store.MintPartyUID(context.Background(), party.Name)
	if err != nil {
		t.Fatalf("Failed to mint uid: %v", err)
	}
	testutil.OpenElection(t, env.sqlDB, nil, nil)

	w := httptest.NewRecorder()
	voteHandler.CastVote(w, testutil.MakeRequest("POST", "/api/votes", models.CastVoteRequest{
		VoterID:   "XOE1854504",
		PartyName: "Unity Alliance",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	t.Run("requires admin key", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ResetElection(w, testutil.MakeRequest("POST", "/api/election/reset", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("wipes votes and re-registers parties", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ResetElection(w, testutil.MakeRequest("POST", "/api/election/reset", nil, adminHeaders))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ResetElectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Parties != 1 {
			t.Errorf("Expected 1 re-registered party, got %d", resp.Parties)
		}
		if resp.ContractAddress == "" {
			t.Error("Expected a fresh contract address")
		}

		if n, _ := env.store.CountVotes(context.Background()); n != 0 {
			t.Errorf("Expected votes to be wiped, found %d", n)
		}

		settings, err := env.store.Settings(context.Background())
		if err != nil {
			t.Fatalf("Failed to read settings: %v", err)
		}
		if settings.IsActive {
			t.Error("Expected election to be inactive after reset")
		}

		fresh, err := env.store.PartyByName(context.Background(), "Unity Alliance")
		if err != nil {
			t.Fatalf("Failed to reload party: %v", err)
		}
		if fresh.UID == "" || fresh.UID == oldUID {
			t.Errorf("Expected a fresh uid, got %q (old %q)", fresh.UID, oldUID)
		}
		if fresh.Votes != 0 {
			t.Errorf("Expected party tally reset to 0, got %d", fresh.Votes)
		}

		if uid, ok := env.ledger.Candidates()["Unity Alliance"]; !ok || uid != fresh.UID {
			t.Error("Party not re-registered on the fresh contract under its new uid")
		}

		// Ledger vote state is gone with the old contract; the voter can cast
		// again in the new election.
		voted, err := env.ledger.HasVoted(context.Background(), "XOE1854504")
		if err != nil {
			t.Fatalf("HasVoted failed: %v", err)
		}
		if voted {
			t.Error("Expected ledger vote state to be cleared by redeploy")
		}
	})
}
