// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Batch sizes accepted by the engine.
const (
	SinglePull = 1
	TenPull    = 10
)

// Pull is one executed pull. Immutable once created; the ledger of Pull
// records is the audit trail.
type Pull struct {
	ID       ulid.ULID
	TenantID ulid.ULID
	PlayerID ulid.ULID
	BannerID ulid.ULID

	// BatchID groups the pulls of one request. A ten-pull shares one BatchID
	// across its ten records.
	BatchID ulid.ULID
	// RequestID is the client-supplied idempotency key, empty if none.
	RequestID string
	// Sequence is monotonic per (player, banner), starting at 1.
	Sequence int64

	Rarity   RarityTier
	ItemID   ulid.ULID
	Featured bool

	// UsedHardPity is true iff the hard-pity check forced this win.
	UsedHardPity bool
	// PitySnapshot is PullsSinceTopRarity as observed before this pull.
	PitySnapshot int

	Cost      int64
	Currency  string
	CreatedAt time.Time
}

// PullRequest is the engine's input contract.
type PullRequest struct {
	TenantID ulid.ULID
	PlayerID ulid.ULID
	BannerID ulid.ULID
	// Count must be SinglePull or TenPull.
	Count int
	// RequestID, when set, makes the request idempotent: repeating it replays
	// the recorded pulls instead of executing again.
	RequestID string
}

// Validate checks the request contract.
func (r PullRequest) Validate() error {
	if r.TenantID.IsZero() {
		return &InvalidConfigurationError{Field: "tenant_id", Message: "cannot be zero"}
	}
	if r.PlayerID.IsZero() {
		return &InvalidConfigurationError{Field: "player_id", Message: "cannot be zero"}
	}
	if r.BannerID.IsZero() {
		return &InvalidConfigurationError{Field: "banner_id", Message: "cannot be zero"}
	}
	if r.Count != SinglePull && r.Count != TenPull {
		return &InvalidConfigurationError{Field: "count", Message: "must be 1 or 10"}
	}
	return nil
}

// PullResult is the engine's output: the ordered pulls plus the post-pull
// pity summary.
type PullResult struct {
	Pulls []Pull
	Pity  Summary
	// Replayed is true when the result was served from the ledger for a
	// repeated request ID.
	Replayed bool
}
