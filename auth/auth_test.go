// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id, err := GenerateID(16)
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(id))
	}

	other, _ := GenerateID(16)
	if id == other {
		t.Error("two generated IDs should differ")
	}
}

func TestAdminKeyRoundTrip(t *testing.T) {
	key := GenerateAdminKey("salt-1")

	if err := ValidateAdminKey(key, "salt-1"); err != nil {
		t.Errorf("valid key rejected: %v", err)
	}
	if err := ValidateAdminKey(key, "salt-2"); !errors.Is(err, ErrInvalidAdminKey) {
		t.Error("key validated against wrong salt")
	}
	if err := ValidateAdminKey("forged", "salt-1"); !errors.Is(err, ErrInvalidAdminKey) {
		t.Error("forged key validated")
	}
}

func TestValidVoterID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{"ABC123", true},
		{"  ABC123  ", true}, // incidental whitespace trimmed
		{"xoe1854504", true},
		{"", false},
		{"   ", false},
		{"ABC-123", false},
		{"ABC 123", false},
	}
	for _, tc := range cases {
		if got := ValidVoterID(tc.id); got != tc.valid {
			t.Errorf("ValidVoterID(%q) = %v, expected %v", tc.id, got, tc.valid)
		}
	}
}

func TestCredentialHashing(t *testing.T) {
	hash, err := HashCredential("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "hunter2" {
		t.Error("credential stored in plain text")
	}

	if err := CheckCredential("hunter2", hash); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}
	if err := CheckCredential("wrong", hash); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("wrong password accepted")
	}
}

func TestHashPhoto(t *testing.T) {
	a := HashPhoto("photo-data")
	b := HashPhoto("photo-data")
	if a != b {
		t.Error("photo hash must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if HashPhoto("other-data") == a {
		t.Error("different photos must hash differently")
	}
}

func TestHashIP(t *testing.T) {
	h := HashIP("10.0.0.1", "salt")
	if len(h) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(h))
	}
	if HashIP("10.0.0.1", "salt") != h {
		t.Error("IP hash must be deterministic")
	}
	if HashIP("10.0.0.2", "salt") == h {
		t.Error("different IPs must hash differently")
	}
}
