// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAdminKey    = errors.New("invalid admin key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// adminKeyScope is the fixed HMAC message for the election admin key; the
// deployment is a single election so there is one key per salt.
const adminKeyScope = "election-admin"

// bcryptCost matches the original deployment's cost factor.
const bcryptCost = 12

var voterIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAdminKey creates the HMAC-based admin key for this deployment.
// This is deterministic and verifiable.
func GenerateAdminKey(salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(adminKeyScope))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid
func ValidateAdminKey(adminKey, salt string) error {
	expected := GenerateAdminKey(salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ValidVoterID reports whether a voter identifier is well formed after
// trimming incidental whitespace: non-empty and alphanumeric only.
func ValidVoterID(voterID string) bool {
	return voterIDPattern.MatchString(strings.TrimSpace(voterID))
}

// HashCredential hashes a voter's password with bcrypt.
func HashCredential(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash credential: %w", err)
	}
	return string(hashed), nil
}

// CheckCredential verifies a password against its bcrypt hash.
func CheckCredential(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPhoto tokenizes a registration photo: only the one-way digest is
// stored, never the raw image data.
func HashPhoto(photoBase64 string) string {
	sum := sha256.Sum256([]byte(photoBase64))
	return hex.EncodeToString(sum[:])
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}
