// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ballotcore/ballotcore/cliparse"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/ledger"
	"github.com/ballotcore/ballotcore/models"
)

// TestEncryptionKey is 32 bytes of hex, good enough for tests only.
const TestEncryptionKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

// SetupTestDB opens a fresh in-memory database with the full schema. The
// single connection keeps every statement on the same in-memory instance.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.CreateSchema(sqlDB); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      "sqlite",
		AdminKeySalt:      "test-admin-salt",
		EncryptionKey:     TestEncryptionKey,
		LedgerStrict:      true,
		SchedulerInterval: 3 * time.Second,
	}
}

// CreateTestParty inserts a party and returns its name. A non-empty uid
// registers it as a ledger candidate too, mirroring the admin flow.
func CreateTestParty(t *testing.T, sqlDB *sql.DB, name, uid string) models.Party {
	t.Helper()

	p := models.Party{
		ID:        uuid.NewString(),
		Name:      name,
		UID:       uid,
		Symbol:    "sym-" + name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.NewStore(sqlDB).CreateParty(context.Background(), p); err != nil {
		t.Fatalf("Failed to create test party: %v", err)
	}
	return p
}

// CreateTestVoter registers a voter account and returns the voter ID.
func CreateTestVoter(t *testing.T, sqlDB *sql.DB, voterID string) string {
	t.Helper()

	u := models.User{
		ID:             uuid.NewString(),
		Username:       "voter-" + voterID,
		CredentialHash: "x", // never checked in vote-path tests
		VoterID:        voterID,
		Role:           models.RoleVoter,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.NewStore(sqlDB).CreateUser(context.Background(), u); err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
	return voterID
}

// OpenElection marks the election active with the given window. Nil bounds
// leave the corresponding column NULL.
func OpenElection(t *testing.T, sqlDB *sql.DB, start, end *time.Time) {
	t.Helper()

	_, err := sqlDB.Exec(`
		UPDATE settings SET is_active = TRUE, start_time = $1, end_time = $2 WHERE id = 1
	`, nullableTime(start), nullableTime(end))
	if err != nil {
		t.Fatalf("Failed to open test election: %v", err)
	}
}

// CloseElection flips the election inactive, leaving the window untouched.
func CloseElection(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	if _, err := sqlDB.Exec(`UPDATE settings SET is_active = FALSE WHERE id = 1`); err != nil {
		t.Fatalf("Failed to close test election: %v", err)
	}
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// --- Fake ledger ---

// Submission records one accepted SubmitVote call.
type Submission struct {
	PartyName string
	PartyUID  string
	VoterID   string
	VoteHash  string
}

// FakeLedger is an in-memory stand-in for the contract client. Setting
// SubmitErr makes every write fail with that error; the duplicate check still
// mirrors the real contract's hasVoted revert.
type FakeLedger struct {
	mu          sync.Mutex
	SubmitErr   error
	voted       map[string]string // voter id -> vote hash
	candidates  map[string]string // party name -> uid
	submissions []Submission
	txSeq       int
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		voted:      make(map[string]string),
		candidates: make(map[string]string),
	}
}

func (f *FakeLedger) SubmitVote(ctx context.Context, partyName, partyUID, voterID, voteHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	if _, ok := f.voted[voterID]; ok {
		return "", ledger.ErrAlreadyVoted
	}
	f.voted[voterID] = voteHash
	f.txSeq++
	tx := fmt.Sprintf("0x%064x", f.txSeq)
	f.submissions = append(f.submissions, Submission{
		PartyName: partyName,
		PartyUID:  partyUID,
		VoterID:   voterID,
		VoteHash:  voteHash,
	})
	return tx, nil
}

func (f *FakeLedger) HasVoted(ctx context.Context, voterID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.voted[voterID]
	return ok, nil
}

func (f *FakeLedger) VoteHash(ctx context.Context, voterID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voted[voterID], nil
}

func (f *FakeLedger) AddCandidate(ctx context.Context, name, uid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	f.candidates[name] = uid
	f.txSeq++
	return fmt.Sprintf("0x%064x", f.txSeq), nil
}

// Redeploy simulates a contract swap: all ledger-side vote state is gone.
func (f *FakeLedger) Redeploy(ctx context.Context, electionName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}
	f.voted = make(map[string]string)
	f.candidates = make(map[string]string)
	f.txSeq++
	return fmt.Sprintf("0x%040x", f.txSeq), nil
}

// Submissions returns a copy of the accepted writes in order.
func (f *FakeLedger) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.submissions))
	copy(out, f.submissions)
	return out
}

// Candidates returns the registered party name to uid mapping.
func (f *FakeLedger) Candidates() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.candidates))
	for k, v := range f.candidates {
		out[k] = v
	}
	return out
}

// --- HTTP helpers ---

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
