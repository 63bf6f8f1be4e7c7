// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var ErrCiphertext = errors.New("malformed or tampered ciphertext")

// Codec seals and opens the party-choice field of a vote row with
// AES-256-GCM. Every Seal call draws a fresh random nonce, so equal
// plaintexts never produce equal ciphertexts and the stored column is
// useless for frequency analysis.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a 32-byte hex-encoded key.
func NewCodec(hexKey string) (*Codec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (c *Codec) Seal(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (c *Codec) Open(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrCiphertext
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrCiphertext
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plaintext), nil
}

// VoteHash computes the integrity digest binding an encrypted choice to its
// voter and timestamp. The hash is stored alongside the vote row and
// submitted to the external ledger, so the two stores can be cross-checked
// record by record.
func VoteHash(encryptedChoice, voterID string, ts time.Time) string {
	h := sha256.New()
	h.Write([]byte(encryptedChoice))
	h.Write([]byte("|"))
	h.Write([]byte(voterID))
	h.Write([]byte("|"))
	h.Write([]byte(ts.UTC().Format(time.RFC3339Nano)))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
