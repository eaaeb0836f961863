// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"time"
)

// outcome is the resolved result of one pull before it is persisted.
type outcome struct {
	Rarity       RarityTier
	Item         PoolItem
	Featured     bool
	UsedHardPity bool
	PitySnapshot int
}

// resolvePull computes one pull outcome against a pool and pity state, and
// returns the outcome together with the advanced state. It is pure except for
// consuming draws from src, which makes it shared ground for the engine, the
// simulator, and the property tests.
//
// Phases, in order:
//  1. hard-pity force: if this pull is the HardPityThreshold-th since the
//     last top-rarity win, the rarity is forced with no draw consumed
//  2. weighted draw over the soft-pity-adjusted distribution otherwise
//  3. feature split on a top-rarity win: guarantee flag first, 50/50 flip
//     second
//  4. uniform item selection among eligible items
//  5. pity state advance via RecordPull
func resolvePull(pool *Pool, state PityState, src Source, at time.Time) (outcome, PityState, error) {
	cfg := pool.Pity
	out := outcome{PitySnapshot: state.PullsSinceTopRarity}

	// This pull is number PullsSinceTopRarity+1 since the last win; at the
	// threshold the win is unconditional and no draw is consumed.
	if PullsUntilHardPity(state, cfg) <= 1 {
		out.Rarity = cfg.TopRarity
		out.UsedHardPity = true
	} else {
		dist := EffectiveDistribution(pool.Distribution, cfg, state.PullsSinceTopRarity)
		rarity, err := Resolve(dist, drawWeight(src))
		if err != nil {
			return outcome{}, state, err
		}
		out.Rarity = rarity
	}

	var wantFeatured *bool
	if out.Rarity == cfg.TopRarity && cfg.FeaturedGuarantee {
		if state.GuaranteedFeaturedNext {
			out.Featured = true
		} else {
			out.Featured = coinFlip(src)
		}
		wantFeatured = &out.Featured
	}

	items := pool.EligibleItems(out.Rarity, wantFeatured)
	if len(items) == 0 {
		// Validated pools cannot get here; refuse to downgrade the rarity.
		return outcome{}, state, &PoolConfigurationError{BannerID: pool.ID, Rarity: out.Rarity, Featured: wantFeatured}
	}
	out.Item = items[uniformN(src, uint64(len(items)))]

	next, err := RecordPull(state, out.Rarity == cfg.TopRarity, out.Featured, at)
	if err != nil {
		return outcome{}, state, err
	}
	return out, next, nil
}
