// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// PityState is the per-(tenant, player, banner) pity bookkeeping. Values are
// immutable from the caller's perspective: RecordPull returns a new state and
// the engine persists it, so there is no hidden mutation to reason about under
// concurrency.
type PityState struct {
	TenantID ulid.ULID
	PlayerID ulid.ULID
	BannerID ulid.ULID

	// PullsSinceTopRarity counts pulls since the last top-rarity win.
	PullsSinceTopRarity int
	// PullsSinceFeatured counts pulls since the last featured win.
	PullsSinceFeatured int
	// GuaranteedFeaturedNext is set after a lost 50/50: the next top-rarity
	// result is featured unconditionally.
	GuaranteedFeaturedNext bool

	TotalPulls     int64
	TotalTopRarity int64
	TotalFeatured  int64
	LastPullAt     time.Time

	// Frozen is set when the banner ends. Frozen states reject further pulls
	// but are retained for audit.
	Frozen bool
}

// NewPityState returns the zero-progress state created lazily on a player's
// first pull against a banner.
func NewPityState(tenantID, playerID, bannerID ulid.ULID) PityState {
	return PityState{
		TenantID: tenantID,
		PlayerID: playerID,
		BannerID: bannerID,
	}
}

// IsAtSoftPity reports whether the soft-pity ramp applies to the next pull.
func IsAtSoftPity(s PityState, cfg PityConfig) bool {
	return s.PullsSinceTopRarity >= cfg.SoftPityStart
}

// IsAtHardPity reports whether the state has reached the hard-pity threshold.
func IsAtHardPity(s PityState, cfg PityConfig) bool {
	return s.PullsSinceTopRarity >= cfg.HardPityThreshold
}

// PullsUntilHardPity returns how many more pulls until the hard guarantee.
// A result of 1 means the very next pull is guaranteed top rarity.
func PullsUntilHardPity(s PityState, cfg PityConfig) int {
	remaining := cfg.HardPityThreshold - s.PullsSinceTopRarity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordPull applies one pull outcome to the state and returns the new state.
//
// Counters only ever increment by one or reset to zero on the matching win:
//   - top-rarity win resets PullsSinceTopRarity
//   - featured win additionally resets PullsSinceFeatured and clears the
//     guarantee flag
//   - a top-rarity win that is not featured (the lost 50/50) sets the
//     guarantee flag
//
// A featured outcome is only meaningful on a top-rarity win; wasFeatured is
// ignored otherwise.
func RecordPull(s PityState, wasTopRarity, wasFeatured bool, at time.Time) (PityState, error) {
	if s.Frozen {
		return s, ErrBannerClosed
	}

	next := s
	next.TotalPulls++
	next.LastPullAt = at

	if !wasTopRarity {
		next.PullsSinceTopRarity++
		next.PullsSinceFeatured++
		return next, nil
	}

	next.PullsSinceTopRarity = 0
	next.TotalTopRarity++
	if wasFeatured {
		next.PullsSinceFeatured = 0
		next.TotalFeatured++
		next.GuaranteedFeaturedNext = false
	} else {
		next.PullsSinceFeatured++
		next.GuaranteedFeaturedNext = true
	}
	return next, nil
}

// Summary is the post-pull pity view returned to callers.
type Summary struct {
	PullsSinceTopRarity    int
	PullsSinceFeatured     int
	GuaranteedFeaturedNext bool
	PullsUntilHardPity     int
	TotalPulls             int64
}

// Summarize builds the caller-facing summary of a state under a pity config.
func Summarize(s PityState, cfg PityConfig) Summary {
	return Summary{
		PullsSinceTopRarity:    s.PullsSinceTopRarity,
		PullsSinceFeatured:     s.PullsSinceFeatured,
		GuaranteedFeaturedNext: s.GuaranteedFeaturedNext,
		PullsUntilHardPity:     PullsUntilHardPity(s, cfg),
		TotalPulls:             s.TotalPulls,
	}
}
