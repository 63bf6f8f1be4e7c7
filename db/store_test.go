// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ballotcore/ballotcore/models"
)

// openTestStore cannot use testutil (import cycle), so it opens the
// in-memory database directly.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := CreateSchema(sqlDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(sqlDB)
}

func testParty(name string) models.Party {
	return models.Party{
		ID:        uuid.NewString(),
		Name:      name,
		Symbol:    "sym",
		CreatedAt: time.Now().UTC(),
	}
}

func testVote(voterID string) models.VoteRecord {
	return models.VoteRecord{
		ID:              uuid.NewString(),
		VoterID:         voterID,
		EncryptedChoice: "sealed",
		VoteHash:        "0xabc",
		TxHash:          "0xdef",
		Timestamp:       time.Now().UTC(),
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := models.User{
		ID:             uuid.NewString(),
		Username:       "alice",
		CredentialHash: "hash",
		VoterID:        "XOE1854504",
		Role:           models.RoleVoter,
		CreatedAt:      time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := user
	dup.ID = uuid.NewString()
	dup.Username = "alice2"
	if err := store.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate for reused voter id, got %v", err)
	}

	loaded, err := store.UserByVoterID(ctx, "XOE1854504")
	if err != nil {
		t.Fatalf("UserByVoterID failed: %v", err)
	}
	if loaded.Username != "alice" {
		t.Errorf("Expected first registration to win, got %q", loaded.Username)
	}
}

func TestMintPartyUID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateParty(ctx, testParty("Unity Alliance")); err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}

	first, err := store.MintPartyUID(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("First mint failed: %v", err)
	}
	if first == "" {
		t.Fatal("Expected a non-empty uid")
	}

	// A second mint must return the persisted value, never a new one.
	second, err := store.MintPartyUID(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("Second mint failed: %v", err)
	}
	if second != first {
		t.Errorf("Uid changed across mints: %q vs %q", first, second)
	}
}

func TestInsertVoteDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateParty(ctx, testParty("Unity Alliance")); err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}
	if err := store.InsertVote(ctx, testVote("XOE1854504"), "Unity Alliance"); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}

	err := store.InsertVote(ctx, testVote("XOE1854504"), "Unity Alliance")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	// The failed insert must not bump the party tally.
	party, err := store.PartyByName(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("PartyByName failed: %v", err)
	}
	if party.Votes != 1 {
		t.Errorf("Expected party tally 1, got %d", party.Votes)
	}

	voted, err := store.HasVoted(ctx, "XOE1854504")
	if err != nil {
		t.Fatalf("HasVoted failed: %v", err)
	}
	if !voted {
		t.Error("Expected HasVoted true")
	}
}

func TestSetActiveCompareAndSet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Fresh settings row is inactive.
	flipped, err := store.SetActive(ctx, false, true)
	if err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if !flipped {
		t.Fatal("Expected first open to flip")
	}

	// Same transition again loses the compare.
	flipped, err = store.SetActive(ctx, false, true)
	if err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if flipped {
		t.Error("Expected redundant open to be a no-op")
	}

	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if !settings.IsActive {
		t.Error("Expected election active after CAS open")
	}

	flipped, err = store.SetActive(ctx, true, false)
	if err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if !flipped {
		t.Error("Expected close to flip")
	}
}

func TestUpdateSettingsWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := "2026-05-01T09:00:00Z"
	end := "2026-05-01T17:00:00Z"
	regClosed := false
	err := store.UpdateSettings(ctx, models.UpdateSettingsRequest{
		StartTime:        &start,
		EndTime:          &end,
		RegistrationOpen: &regClosed,
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.StartTime == nil || !settings.StartTime.Equal(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start time: %v", settings.StartTime)
	}
	if settings.EndTime == nil || !settings.EndTime.Equal(time.Date(2026, 5, 1, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected end time: %v", settings.EndTime)
	}
	if settings.RegistrationOpen {
		t.Error("Expected registration closed")
	}

	bad := "not-a-timestamp"
	if err := store.UpdateSettings(ctx, models.UpdateSettingsRequest{StartTime: &bad}); err == nil {
		t.Error("Expected error for malformed timestamp")
	}
}

func TestResetElection(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.CreateParty(ctx, testParty("Unity Alliance")); err != nil {
		t.Fatalf("CreateParty failed: %v", err)
	}
	uid, err := store.MintPartyUID(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("MintPartyUID failed: %v", err)
	}
	if err := store.InsertVote(ctx, testVote("XOE1854504"), "Unity Alliance"); err != nil {
		t.Fatalf("InsertVote failed: %v", err)
	}
	if err := store.InsertInvalidVote(ctx, models.InvalidVote{
		ID:        uuid.NewString(),
		TxHash:    "0xfeed",
		VoterID:   "BAD0000001",
		Reason:    "storage offline",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("InsertInvalidVote failed: %v", err)
	}
	if _, err := store.SetActive(ctx, false, true); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if err := store.ResetElection(ctx); err != nil {
		t.Fatalf("ResetElection failed: %v", err)
	}

	if n, _ := store.CountVotes(ctx); n != 0 {
		t.Errorf("Expected 0 votes after reset, got %d", n)
	}
	invalid, _ := store.InvalidVotes(ctx)
	if len(invalid) != 0 {
		t.Errorf("Expected empty invalid-vote log after reset, got %d", len(invalid))
	}

	party, err := store.PartyByName(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("PartyByName failed: %v", err)
	}
	if party.Votes != 0 {
		t.Errorf("Expected party tally reset, got %d", party.Votes)
	}
	if party.UID != "" {
		t.Errorf("Expected uid detached, got %q", party.UID)
	}

	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.IsActive {
		t.Error("Expected election inactive after reset")
	}

	// Fresh mint after reset must not reuse the old uid.
	fresh, err := store.MintPartyUID(ctx, "Unity Alliance")
	if err != nil {
		t.Fatalf("MintPartyUID after reset failed: %v", err)
	}
	if fresh == uid {
		t.Error("Uid was reused after reset")
	}
}
