// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreforge/loreforge/internal/gacha"
)

func TestNormalize_SumsExact(t *testing.T) {
	cases := []struct {
		name string
		raw  map[gacha.RarityTier]float64
	}{
		{"already percentages", map[gacha.RarityTier]float64{"common": 90, "rare": 10}},
		{"arbitrary scale", map[gacha.RarityTier]float64{"common": 897, "rare": 100, "legendary": 3}},
		{"thirds", map[gacha.RarityTier]float64{"a": 1, "b": 1, "c": 1}},
		{"sevenths", map[gacha.RarityTier]float64{"a": 1, "b": 2, "c": 4}},
		{"skewed", map[gacha.RarityTier]float64{"common": 99.4, "legendary": 0.6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dist, err := gacha.Normalize(tc.raw)
			require.NoError(t, err)
			require.NoError(t, dist.Validate())

			var sum gacha.Weight
			for _, w := range dist {
				sum += w
			}
			assert.Equal(t, gacha.TotalWeight, sum)
		})
	}
}

func TestNormalize_PreservesOrdering(t *testing.T) {
	dist, err := gacha.Normalize(map[gacha.RarityTier]float64{
		"common":    89.7,
		"rare":      10,
		"legendary": 0.3,
	})
	require.NoError(t, err)
	assert.Greater(t, dist["common"], dist["rare"])
	assert.Greater(t, dist["rare"], dist["legendary"])
}

func TestNormalize_Errors(t *testing.T) {
	t.Run("empty map", func(t *testing.T) {
		_, err := gacha.Normalize(nil)
		var cfgErr *gacha.InvalidConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := gacha.Normalize(map[gacha.RarityTier]float64{"a": 50, "b": -1})
		var cfgErr *gacha.InvalidConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("zero sum", func(t *testing.T) {
		_, err := gacha.Normalize(map[gacha.RarityTier]float64{"a": 0, "b": 0})
		var cfgErr *gacha.InvalidConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("empty tier name", func(t *testing.T) {
		_, err := gacha.Normalize(map[gacha.RarityTier]float64{"": 100})
		var cfgErr *gacha.InvalidConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestResolve_Thresholds(t *testing.T) {
	dist, err := gacha.Normalize(map[gacha.RarityTier]float64{"common": 90, "rare": 10})
	require.NoError(t, err)

	cases := []struct {
		name string
		draw gacha.Weight // in percent for readability
		want gacha.RarityTier
	}{
		{"low draw hits common", 5, "common"},
		{"boundary below common edge", 89, "common"},
		{"first rare draw", 90, "rare"},
		{"high draw hits rare", 95, "rare"},
		{"top of range", 99, "rare"},
		{"zero draw", 0, "common"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, err := gacha.Resolve(dist, tc.draw*gacha.WeightScale)
			require.NoError(t, err)
			assert.Equal(t, tc.want, tier)
		})
	}
}

// TestResolve_ExhaustiveSweep verifies that sweeping every draw in
// [0, TotalWeight) lands each tier exactly its configured weight's worth of
// draws. The cumulative-threshold walk makes this an exact identity, not an
// approximation.
func TestResolve_ExhaustiveSweep(t *testing.T) {
	dist, err := gacha.Normalize(map[gacha.RarityTier]float64{"a": 60, "b": 30, "c": 10})
	require.NoError(t, err)

	counts := make(map[gacha.RarityTier]int64)
	for draw := gacha.Weight(0); draw < gacha.TotalWeight; draw++ {
		tier, err := gacha.Resolve(dist, draw)
		require.NoError(t, err)
		counts[tier]++
	}
	for tier, w := range dist {
		assert.Equal(t, int64(w), counts[tier], "tier %s", tier)
	}
}

func TestResolve_DeterministicTieBreak(t *testing.T) {
	dist, err := gacha.Normalize(map[gacha.RarityTier]float64{"beta": 50, "alpha": 50})
	require.NoError(t, err)

	// Equal weights break ties by tier name, so the first half of the draw
	// space always belongs to "alpha".
	tier, err := gacha.Resolve(dist, 0)
	require.NoError(t, err)
	assert.Equal(t, gacha.RarityTier("alpha"), tier)

	tier, err = gacha.Resolve(dist, gacha.TotalWeight/2)
	require.NoError(t, err)
	assert.Equal(t, gacha.RarityTier("beta"), tier)
}

func TestResolve_FailsClosed(t *testing.T) {
	dist, err := gacha.Normalize(map[gacha.RarityTier]float64{"common": 90, "rare": 10})
	require.NoError(t, err)

	// An out-of-range draw must still produce a pull, landing on the most
	// common tier.
	tier, err := gacha.Resolve(dist, gacha.TotalWeight+1)
	require.NoError(t, err)
	assert.Equal(t, gacha.RarityTier("common"), tier)
}

func TestResolve_RejectsUnnormalized(t *testing.T) {
	_, err := gacha.Resolve(gacha.RarityDistribution{"a": 1}, 0)
	var cfgErr *gacha.InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
