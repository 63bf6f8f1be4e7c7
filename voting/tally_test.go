// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/encryption"
	"github.com/ballotcore/ballotcore/models"
	"github.com/ballotcore/ballotcore/testutil"
	"github.com/ballotcore/ballotcore/voting"
)

func insertSealedVote(t *testing.T, store *db.Store, codec *encryption.Codec, voterID, party, voteHash string) {
	t.Helper()

	sealed, err := codec.Seal(party)
	if err != nil {
		t.Fatalf("Failed to seal choice: %v", err)
	}
	err = store.InsertVote(context.Background(), models.VoteRecord{
		ID:              uuid.NewString(),
		VoterID:         voterID,
		EncryptedChoice: sealed,
		VoteHash:        voteHash,
		Timestamp:       time.Now().UTC(),
	}, party)
	if err != nil {
		t.Fatalf("Failed to insert vote: %v", err)
	}
}

func TestTallyLockedWhileActive(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	testutil.OpenElection(t, sqlDB, nil, nil)

	codec, _ := encryption.NewCodec(testutil.TestEncryptionKey)
	tally := voting.NewTally(db.NewStore(sqlDB), codec, clock.System{})

	_, err := tally.FinalResults(context.Background())
	if !errors.Is(err, voting.ErrTallyLocked) {
		t.Errorf("Expected ErrTallyLocked while active, got %v", err)
	}
}

func TestTallyLockedBeforeEndTime(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	end := base.Add(time.Hour)
	endStr := end.Format(time.RFC3339)
	if err := store.UpdateSettings(context.Background(), models.UpdateSettingsRequest{EndTime: &endStr}); err != nil {
		t.Fatalf("Failed to set end time: %v", err)
	}

	codec, _ := encryption.NewCodec(testutil.TestEncryptionKey)

	// Inactive but the scheduled end has not arrived: still sealed.
	clk := clock.NewFake(base)
	tally := voting.NewTally(store, codec, clk)
	if _, err := tally.FinalResults(context.Background()); !errors.Is(err, voting.ErrTallyLocked) {
		t.Errorf("Expected ErrTallyLocked before end time, got %v", err)
	}

	clk.Set(end.Add(time.Minute))
	if _, err := tally.FinalResults(context.Background()); err != nil {
		t.Errorf("Expected unlocked results after end time, got %v", err)
	}
}

func TestTallyAggregates(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)
	testutil.CreateTestParty(t, sqlDB, "Unity Alliance", "")
	testutil.CreateTestParty(t, sqlDB, "Progress Front", "")

	codec, _ := encryption.NewCodec(testutil.TestEncryptionKey)
	insertSealedVote(t, store, codec, "VOTER001", "Unity Alliance", "0xaaa")
	insertSealedVote(t, store, codec, "VOTER002", "Unity Alliance", "0xbbb")
	insertSealedVote(t, store, codec, "VOTER003", "Progress Front", "")

	tally := voting.NewTally(store, codec, clock.System{})
	result, err := tally.FinalResults(context.Background())
	if err != nil {
		t.Fatalf("FinalResults failed: %v", err)
	}

	if result.TotalVotes != 3 {
		t.Errorf("Expected 3 total votes, got %d", result.TotalVotes)
	}
	if result.VerifiedVotes != 2 {
		t.Errorf("Expected 2 verified votes, got %d", result.VerifiedVotes)
	}
	if result.Tally["Unity Alliance"] != 2 {
		t.Errorf("Expected 2 votes for Unity Alliance, got %d", result.Tally["Unity Alliance"])
	}
	if result.Tally["Progress Front"] != 1 {
		t.Errorf("Expected 1 vote for Progress Front, got %d", result.Tally["Progress Front"])
	}
}

func TestTallySkipsUndecryptableRecords(t *testing.T) {
	sqlDB := testutil.SetupTestDB(t)
	store := db.NewStore(sqlDB)
	testutil.CreateTestParty(t, sqlDB, "Unity Alliance", "")

	codec, _ := encryption.NewCodec(testutil.TestEncryptionKey)
	insertSealedVote(t, store, codec, "VOTER001", "Unity Alliance", "0xaaa")

	// A record sealed under a different key cannot be opened.
	otherKey := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	otherCodec, err := encryption.NewCodec(otherKey)
	if err != nil {
		t.Fatalf("Failed to build second codec: %v", err)
	}
	insertSealedVote(t, store, otherCodec, "VOTER002", "Unity Alliance", "0xbbb")

	tally := voting.NewTally(store, codec, clock.System{})
	result, err := tally.FinalResults(context.Background())
	if err != nil {
		t.Fatalf("FinalResults failed: %v", err)
	}

	if result.TotalVotes != 2 {
		t.Errorf("Expected 2 total votes, got %d", result.TotalVotes)
	}
	if result.Tally["Unity Alliance"] != 1 {
		t.Errorf("Undecryptable record must be skipped, got %d", result.Tally["Unity Alliance"])
	}
	if result.VerifiedVotes != 2 {
		t.Errorf("Expected 2 verified votes, got %d", result.VerifiedVotes)
	}
}
