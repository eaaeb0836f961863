// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

// softPityCeiling caps the ramped top-rarity weight at half the draw space.
// The ramp must stop short of certainty: the guarantee belongs to the
// hard-pity force, and a ramp that reaches 100% early would make the forced
// win unreachable in practice.
const softPityCeiling = TotalWeight / 2

// EffectiveDistribution returns the distribution to draw from given the
// current pity progress.
//
// Below SoftPityStart the pool distribution is returned unchanged. From
// SoftPityStart onward the top-rarity weight ramps linearly pull-by-pull,
// reaching softPityCeiling at HardPityThreshold-1; the remaining weight is
// split among the other tiers in proportion to their base weights, so the
// result still sums to exactly TotalWeight.
//
// The ramp is monotone non-decreasing in pullsSinceTop and never exceeds
// softPityCeiling. The engine's hard-pity forcing is the guarantee; droughts
// that outlast the ramp end there.
func EffectiveDistribution(dist RarityDistribution, cfg PityConfig, pullsSinceTop int) RarityDistribution {
	if pullsSinceTop < cfg.SoftPityStart {
		return dist
	}

	base := dist[cfg.TopRarity]
	if base >= softPityCeiling {
		// The pool already pays out above the ceiling; nothing to ramp.
		return dist
	}
	// Ramp from the base weight at SoftPityStart to the ceiling at
	// HardPityThreshold-1 (the last pull before the hard force).
	span := int64(cfg.HardPityThreshold - 1 - cfg.SoftPityStart)
	if span <= 0 {
		span = 1
	}
	progress := int64(pullsSinceTop - cfg.SoftPityStart)
	if progress > span {
		progress = span
	}
	topW := base + Weight(int64(softPityCeiling-base)*progress/span)
	if topW > softPityCeiling {
		topW = softPityCeiling
	}

	out := make(RarityDistribution, len(dist))
	remaining := TotalWeight - topW
	otherBase := TotalWeight - base

	// Scale the other tiers proportionally, then settle rounding residue on
	// the heaviest non-top tier so the sum stays exact.
	var assigned Weight
	var heaviest RarityTier
	for _, tier := range dist.Tiers() {
		if tier == cfg.TopRarity {
			continue
		}
		if heaviest == "" {
			heaviest = tier
		}
		w := Weight(int64(dist[tier]) * int64(remaining) / int64(otherBase))
		if w <= 0 {
			w = 1
		}
		out[tier] = w
		assigned += w
	}
	out[cfg.TopRarity] = topW
	if residue := remaining - assigned; residue != 0 {
		adjusted := out[heaviest] + residue
		if adjusted <= 0 {
			// Residue swallowed a sliver tier; push the difference onto the
			// top weight instead to keep every weight positive.
			out[cfg.TopRarity] += adjusted - 1
			adjusted = 1
		}
		out[heaviest] = adjusted
	}
	return out
}
