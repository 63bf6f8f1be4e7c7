// Copyright (c) 2026 The ballotcore Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ballotcore/ballotcore/clock"
	"github.com/ballotcore/ballotcore/db"
	"github.com/ballotcore/ballotcore/encryption"
	"github.com/ballotcore/ballotcore/models"
	"github.com/dustin/go-humanize"
)

// ErrTallyLocked means the election has not finished; results stay sealed
// until it is inactive and past its end time.
var ErrTallyLocked = errors.New("results are locked until the election closes")

// Tally decrypts the stored ballots and aggregates them per party, but only
// after the voting window has closed.
type Tally struct {
	store *db.Store
	codec *encryption.Codec
	clk   clock.Clock
}

func NewTally(store *db.Store, codec *encryption.Codec, clk clock.Clock) *Tally {
	return &Tally{store: store, codec: codec, clk: clk}
}

// FinalResults computes the per-party counts. Records that fail to decrypt
// are skipped and logged; a record is verified when it carries a vote hash.
func (t *Tally) FinalResults(ctx context.Context) (models.TallyResult, error) {
	settings, err := t.store.Settings(ctx)
	if err != nil {
		return models.TallyResult{}, fmt.Errorf("read settings: %w", err)
	}
	if settings.IsActive {
		return models.TallyResult{}, fmt.Errorf("%w: election still active", ErrTallyLocked)
	}
	if settings.EndTime != nil && t.clk.Now().UTC().Before(*settings.EndTime) {
		return models.TallyResult{}, fmt.Errorf("%w: end time not reached", ErrTallyLocked)
	}

	votes, err := t.store.AllVotes(ctx)
	if err != nil {
		return models.TallyResult{}, fmt.Errorf("load votes: %w", err)
	}

	tally := make(map[string]int)
	verified := 0
	for _, v := range votes {
		if v.VoteHash != "" {
			verified++
		}
		choice, err := t.codec.Open(v.EncryptedChoice)
		if err != nil {
			slog.Warn("skipping undecryptable vote record", "vote_id", v.ID, "error", err)
			continue
		}
		tally[choice]++
	}

	slog.Info("final tally computed",
		"total_votes", humanize.Comma(int64(len(votes))),
		"verified_votes", humanize.Comma(int64(verified)))
	return models.TallyResult{
		Tally:         tally,
		TotalVotes:    len(votes),
		VerifiedVotes: verified,
	}, nil
}
