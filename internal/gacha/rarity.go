// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

// Package gacha implements the pull and pity engine: rarity resolution,
// pity tracking, the pull execution engine, and the append-only pull ledger
// boundary.
package gacha

import (
	"sort"
)

// RarityTier identifies one rarity bucket of a pool (e.g. "common", "legendary").
type RarityTier string

// Weight is a fixed-point probability weight in units of 1/10000 of a percent.
// A full distribution sums to exactly TotalWeight. Integer weights avoid
// floating-point drift accumulating over millions of pulls.
type Weight int64

const (
	// WeightScale is the number of Weight units per percent.
	WeightScale Weight = 10000
	// TotalWeight is the weight of a complete distribution (100%).
	TotalWeight Weight = 100 * WeightScale
)

// Percent returns the weight as a floating-point percentage, for display and
// reporting only. Engine arithmetic stays in fixed point.
func (w Weight) Percent() float64 {
	return float64(w) / float64(WeightScale)
}

// RarityDistribution maps rarity tiers to fixed-point weights.
// A valid distribution has at least one tier, strictly positive weights,
// and weights summing to exactly TotalWeight.
type RarityDistribution map[RarityTier]Weight

// Validate checks the distribution invariants.
func (d RarityDistribution) Validate() error {
	if len(d) == 0 {
		return &InvalidConfigurationError{Field: "rarity_distribution", Message: "must contain at least one tier"}
	}
	var sum Weight
	for tier, w := range d {
		if tier == "" {
			return &InvalidConfigurationError{Field: "rarity_distribution", Message: "tier name cannot be empty"}
		}
		if w <= 0 {
			return &InvalidConfigurationError{Field: "rarity_distribution", Message: "weight for tier " + string(tier) + " must be positive"}
		}
		sum += w
	}
	if sum != TotalWeight {
		return &InvalidConfigurationError{Field: "rarity_distribution", Message: "weights must sum to exactly 100%"}
	}
	return nil
}

// Tiers returns the tiers ordered by weight descending, ties broken by tier
// name ascending. This is the canonical order used to build cumulative
// thresholds, so resolution is deterministic for a given draw.
func (d RarityDistribution) Tiers() []RarityTier {
	tiers := make([]RarityTier, 0, len(d))
	for t := range d {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool {
		if d[tiers[i]] != d[tiers[j]] {
			return d[tiers[i]] > d[tiers[j]]
		}
		return tiers[i] < tiers[j]
	})
	return tiers
}

// Clone returns a copy of the distribution.
func (d RarityDistribution) Clone() RarityDistribution {
	out := make(RarityDistribution, len(d))
	for t, w := range d {
		out[t] = w
	}
	return out
}

// Normalize converts raw weights (any positive scale, need not sum to 100)
// into a RarityDistribution summing to exactly TotalWeight.
//
// Each weight is scaled with round-half-up; any residual from rounding is
// applied to the heaviest tier so the sum is exact. Relative ordering of
// tiers is preserved.
func Normalize(raw map[RarityTier]float64) (RarityDistribution, error) {
	if len(raw) == 0 {
		return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "must contain at least one tier"}
	}
	var sum float64
	for tier, w := range raw {
		if tier == "" {
			return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "tier name cannot be empty"}
		}
		if w < 0 {
			return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "weight for tier " + string(tier) + " cannot be negative"}
		}
		sum += w
	}
	if sum <= 0 {
		return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "weights must sum to a positive value"}
	}

	dist := make(RarityDistribution, len(raw))
	for tier, w := range raw {
		scaled := roundHalfUp(w / sum * float64(TotalWeight))
		if scaled <= 0 {
			return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "weight for tier " + string(tier) + " rounds to zero"}
		}
		dist[tier] = scaled
	}

	// Rounding can leave the sum a few units off exact. Settle the residual
	// on the heaviest tier, which absorbs it with the least relative skew.
	var total Weight
	for _, w := range dist {
		total += w
	}
	if total != TotalWeight {
		heaviest := dist.Tiers()[0]
		adjusted := dist[heaviest] + (TotalWeight - total)
		if adjusted <= 0 {
			return nil, &InvalidConfigurationError{Field: "rarity_distribution", Message: "weights too skewed to normalize"}
		}
		dist[heaviest] = adjusted
	}
	return dist, nil
}

// Resolve maps a uniform draw in [0, TotalWeight) to a rarity tier by walking
// cumulative thresholds in canonical tier order. The distribution must already
// be normalized (sum exactly TotalWeight).
//
// If the draw is out of range the resolver fails closed: it returns the most
// common tier rather than dropping the pull.
func Resolve(dist RarityDistribution, draw Weight) (RarityTier, error) {
	if err := dist.Validate(); err != nil {
		return "", err
	}
	tiers := dist.Tiers()
	var cumulative Weight
	for _, tier := range tiers {
		cumulative += dist[tier]
		if draw < cumulative {
			return tier, nil
		}
	}
	// Unreachable for draws in [0, TotalWeight) since the sum is exact, but a
	// caller handing us an out-of-range draw still gets a pull.
	return tiers[0], nil
}

func roundHalfUp(v float64) Weight {
	return Weight(v + 0.5)
}
