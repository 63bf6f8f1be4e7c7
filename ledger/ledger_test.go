// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// unboundClient builds a Client the way Dial does when LEDGER_CONTRACT_ADDR
// is left empty. No RPC endpoint is involved.
func unboundClient(t *testing.T) *Client {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(votingABI))
	if err != nil {
		t.Fatalf("Failed to parse contract ABI: %v", err)
	}
	key, err := crypto.HexToECDSA("fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19")
	if err != nil {
		t.Fatalf("Failed to parse test key: %v", err)
	}
	return &Client{
		parsed:  parsed,
		key:     key,
		chainID: big.NewInt(1337),
	}
}

func TestUnboundContractReturnsUnavailable(t *testing.T) {
	c := unboundClient(t)
	ctx := context.Background()

	t.Run("SubmitVote", func(t *testing.T) {
		_, err := c.SubmitVote(ctx, "Unity Alliance", "a2f1c6e0-0000-0000-0000-000000000001", "XOE1854504", "0xabc")
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("HasVoted", func(t *testing.T) {
		if _, err := c.HasVoted(ctx, "XOE1854504"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("VoteHash", func(t *testing.T) {
		if _, err := c.VoteHash(ctx, "XOE1854504"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("AddCandidate", func(t *testing.T) {
		if _, err := c.AddCandidate(ctx, "Unity Alliance", "a2f1c6e0-0000-0000-0000-000000000001"); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("CandidatesCount", func(t *testing.T) {
		if _, err := c.CandidatesCount(ctx); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("CandidateAt", func(t *testing.T) {
		if _, err := c.CandidateAt(ctx, 1); !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("PositionalFallbackWithoutUID", func(t *testing.T) {
		_, err := c.SubmitVote(ctx, "Unity Alliance", "", "XOE1854504", "0xabc")
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("Expected ErrUnavailable, got %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"already voted revert", errors.New("execution reverted: Already voted"), ErrAlreadyVoted},
		{"unknown candidate revert", errors.New("execution reverted: Unknown candidate"), ErrUnknownCandidate},
		{"invalid candidate revert", errors.New("execution reverted: Invalid candidate id"), ErrUnknownCandidate},
		{"other revert", errors.New("execution reverted: Election closed"), ErrRejected},
		{"transport failure", errors.New("connection refused"), ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
