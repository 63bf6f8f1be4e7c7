// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ballotcore/ballotcore/auth"
	"github.com/ballotcore/ballotcore/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the façade over the relational datastore. All methods take a
// context because every call may block on the database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// isDuplicateErr matches unique-constraint violations for both supported
// drivers (modernc sqlite and lib/pq).
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, voter_id, role, photo_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Username, u.CredentialHash, u.VoterID, u.Role, u.PhotoHash, u.CreatedAt)
	if isDuplicateErr(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByVoterID(ctx context.Context, voterID string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, voter_id, role, COALESCE(photo_hash, ''), created_at
		FROM users WHERE voter_id = $1
	`, strings.TrimSpace(voterID)).Scan(&u.ID, &u.Username, &u.CredentialHash, &u.VoterID, &u.Role, &u.PhotoHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'voter'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// --- Parties ---

func (s *Store) CreateParty(ctx context.Context, p models.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (id, name, uid, symbol, description, manifesto, image_url, votes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
	`, p.ID, p.Name, nullable(p.UID), p.Symbol, p.Description, p.Manifesto, p.ImageURL, p.CreatedAt)
	if isDuplicateErr(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *Store) PartyByName(ctx context.Context, name string) (models.Party, error) {
	var p models.Party
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(uid, ''), COALESCE(symbol, ''), COALESCE(description, ''),
		       COALESCE(manifesto, ''), COALESCE(image_url, ''), votes, created_at
		FROM parties WHERE name = $1
	`, name).Scan(&p.ID, &p.Name, &p.UID, &p.Symbol, &p.Description, &p.Manifesto, &p.ImageURL, &p.Votes, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Party{}, ErrNotFound
	}
	if err != nil {
		return models.Party{}, fmt.Errorf("query party: %w", err)
	}
	return p, nil
}

func (s *Store) Parties(ctx context.Context) ([]models.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(uid, ''), COALESCE(symbol, ''), COALESCE(description, ''),
		       COALESCE(manifesto, ''), COALESCE(image_url, ''), votes, created_at
		FROM parties ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query parties: %w", err)
	}
	defer rows.Close()

	var parties []models.Party
	for rows.Next() {
		var p models.Party
		if err := rows.Scan(&p.ID, &p.Name, &p.UID, &p.Symbol, &p.Description, &p.Manifesto, &p.ImageURL, &p.Votes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

// MintPartyUID assigns a fresh UUID to a party that does not have one yet and
// returns the persisted value. The conditional UPDATE makes concurrent mints
// race-safe: whichever write lands first wins and the loser re-reads it.
func (s *Store) MintPartyUID(ctx context.Context, name string) (string, error) {
	uid := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties SET uid = $1 WHERE name = $2 AND uid IS NULL
	`, uid, name)
	if err != nil {
		return "", fmt.Errorf("mint party uid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("mint party uid: %w", err)
	}
	if n == 1 {
		return uid, nil
	}

	// Lost the race, or the party already had one: read what is persisted.
	p, err := s.PartyByName(ctx, name)
	if err != nil {
		return "", err
	}
	if p.UID == "" {
		return "", fmt.Errorf("party %q has no uid after mint", name)
	}
	return p.UID, nil
}

// --- Votes ---

// InsertVote persists a vote row and bumps the denormalized party counter in
// one transaction. A second row for the same voter fails with ErrDuplicate
// via the UNIQUE constraint, never by a read-then-write check.
func (s *Store) InsertVote(ctx context.Context, rec models.VoteRecord, partyName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO votes (id, voter_id, encrypted_choice, vote_hash, tx_hash, booth_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.VoterID, rec.EncryptedChoice, rec.VoteHash, rec.TxHash, rec.BoothID, rec.Timestamp)
	if isDuplicateErr(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE parties SET votes = votes + 1 WHERE name = $1
	`, partyName); err != nil {
		return fmt.Errorf("bump party tally: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote tx: %w", err)
	}
	return nil
}

func (s *Store) HasVoted(ctx context.Context, voterID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM votes WHERE voter_id = $1)
	`, strings.TrimSpace(voterID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query has-voted: %w", err)
	}
	return exists, nil
}

func (s *Store) VoteByVoter(ctx context.Context, voterID string) (models.VoteRecord, error) {
	var rec models.VoteRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, voter_id, encrypted_choice, COALESCE(vote_hash, ''), COALESCE(tx_hash, ''),
		       COALESCE(booth_id, ''), timestamp
		FROM votes WHERE voter_id = $1
	`, strings.TrimSpace(voterID)).Scan(&rec.ID, &rec.VoterID, &rec.EncryptedChoice, &rec.VoteHash, &rec.TxHash, &rec.BoothID, &rec.Timestamp)
	if err == sql.ErrNoRows {
		return models.VoteRecord{}, ErrNotFound
	}
	if err != nil {
		return models.VoteRecord{}, fmt.Errorf("query vote: %w", err)
	}
	return rec, nil
}

func (s *Store) AllVotes(ctx context.Context) ([]models.VoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, voter_id, encrypted_choice, COALESCE(vote_hash, ''), COALESCE(tx_hash, ''),
		       COALESCE(booth_id, ''), timestamp
		FROM votes ORDER BY timestamp
	`)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	var votes []models.VoteRecord
	for rows.Next() {
		var rec models.VoteRecord
		if err := rows.Scan(&rec.ID, &rec.VoterID, &rec.EncryptedChoice, &rec.VoteHash, &rec.TxHash, &rec.BoothID, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		votes = append(votes, rec)
	}
	return votes, rows.Err()
}

func (s *Store) CountVotes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

// --- Invalid votes (reconciliation log) ---

func (s *Store) InsertInvalidVote(ctx context.Context, iv models.InvalidVote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invalid_votes (id, tx_hash, voter_id, reason, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, iv.ID, iv.TxHash, iv.VoterID, iv.Reason, iv.Timestamp)
	if err != nil {
		return fmt.Errorf("insert invalid vote: %w", err)
	}
	return nil
}

func (s *Store) InvalidVotes(ctx context.Context) ([]models.InvalidVote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tx_hash, voter_id, COALESCE(reason, ''), timestamp
		FROM invalid_votes ORDER BY timestamp
	`)
	if err != nil {
		return nil, fmt.Errorf("query invalid votes: %w", err)
	}
	defer rows.Close()

	var list []models.InvalidVote
	for rows.Next() {
		var iv models.InvalidVote
		if err := rows.Scan(&iv.ID, &iv.TxHash, &iv.VoterID, &iv.Reason, &iv.Timestamp); err != nil {
			return nil, fmt.Errorf("scan invalid vote: %w", err)
		}
		list = append(list, iv)
	}
	return list, rows.Err()
}

// --- Settings ---

func (s *Store) Settings(ctx context.Context) (models.ElectionSettings, error) {
	var set models.ElectionSettings
	var start, end sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT is_active, registration_open, start_time, end_time, min_voting_age
		FROM settings WHERE id = 1
	`).Scan(&set.IsActive, &set.RegistrationOpen, &start, &end, &set.MinVotingAge)
	if err == sql.ErrNoRows {
		return models.ElectionSettings{}, ErrNotFound
	}
	if err != nil {
		return models.ElectionSettings{}, fmt.Errorf("query settings: %w", err)
	}
	if start.Valid {
		t := start.Time.UTC()
		set.StartTime = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		set.EndTime = &t
	}
	return set, nil
}

// SetActive flips the active flag with compare-and-set semantics: the write
// lands only if the flag currently equals from. Returns whether the flip
// happened. Both writers of this flag (the scheduler and the admin override)
// must go through here so they cannot race each other into a blind overwrite.
func (s *Store) SetActive(ctx context.Context, from, to bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE settings SET is_active = $1 WHERE id = 1 AND is_active = $2
	`, to, from)
	if err != nil {
		return false, fmt.Errorf("set active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set active: %w", err)
	}
	return n == 1, nil
}

// UpdateSettings applies a partial update to the non-active fields. Changes
// to the active flag must go through SetActive.
func (s *Store) UpdateSettings(ctx context.Context, req models.UpdateSettingsRequest) error {
	if req.RegistrationOpen != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE settings SET registration_open = $1 WHERE id = 1`, *req.RegistrationOpen); err != nil {
			return fmt.Errorf("update registration_open: %w", err)
		}
	}
	if req.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			return fmt.Errorf("parse start_time: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE settings SET start_time = $1 WHERE id = 1`, t.UTC()); err != nil {
			return fmt.Errorf("update start_time: %w", err)
		}
	}
	if req.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			return fmt.Errorf("parse end_time: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE settings SET end_time = $1 WHERE id = 1`, t.UTC()); err != nil {
			return fmt.Errorf("update end_time: %w", err)
		}
	}
	if req.MinVotingAge != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE settings SET min_voting_age = $1 WHERE id = 1`, *req.MinVotingAge); err != nil {
			return fmt.Errorf("update min_voting_age: %w", err)
		}
	}
	return nil
}

// --- Election reset ---

// ResetElection wipes vote data and detaches party UIDs. UIDs are never
// reused: the caller re-registers every party against the fresh contract,
// minting new ones.
func (s *Store) ResetElection(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM votes`,
		`DELETE FROM invalid_votes`,
		`UPDATE parties SET votes = 0, uid = NULL`,
		`UPDATE settings SET is_active = FALSE WHERE id = 1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset election: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset tx: %w", err)
	}
	return nil
}

// --- Audit log ---

func (s *Store) AppendAudit(ctx context.Context, action, userID, details, ipHash string, ts time.Time) error {
	id, err := auth.GenerateID(16)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, user_id, details, ip_hash, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, action, userID, details, ipHash, ts)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
