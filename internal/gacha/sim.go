// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"math"
	"sort"
	"time"
)

// SimConfig controls a simulation run.
type SimConfig struct {
	// Pulls is the number of pulls to simulate.
	Pulls int
	// Seed seeds the deterministic RNG stream.
	Seed uint64
}

// SimReport summarizes a simulation: observed rarity frequencies, featured
// outcomes, and the distribution of intervals between top-rarity wins.
type SimReport struct {
	Pulls        int
	RarityCounts map[RarityTier]int
	// RarityRates is counts normalized to frequencies in [0,1].
	RarityRates   map[RarityTier]float64
	FeaturedCount int
	HardPityCount int
	GuaranteeWins int

	// Interval statistics over pulls-between-top-rarity-wins.
	MeanInterval float64
	P50Interval  float64
	P90Interval  float64
	P99Interval  float64
	MaxInterval  int
}

// Simulate runs cfg.Pulls pulls against the pool entirely in memory: no
// persistence, no wallet, a fresh pity state, and a seeded RNG. Identical
// configs produce identical reports, which is what the statistical
// convergence suite and the `simulate` CLI subcommand rely on.
func Simulate(pool *Pool, cfg SimConfig) (*SimReport, error) {
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	if cfg.Pulls <= 0 {
		return nil, &InvalidConfigurationError{Field: "pulls", Message: "must be positive"}
	}

	src := NewSeededSource(cfg.Seed)
	state := NewPityState(pool.ID, pool.ID, pool.ID)
	now := time.Unix(0, 0).UTC()

	report := &SimReport{
		Pulls:        cfg.Pulls,
		RarityCounts: make(map[RarityTier]int, len(pool.Distribution)),
		RarityRates:  make(map[RarityTier]float64, len(pool.Distribution)),
	}
	var intervals []int
	sinceWin := 0

	for i := 0; i < cfg.Pulls; i++ {
		guaranteed := state.GuaranteedFeaturedNext
		out, next, err := resolvePull(pool, state, src, now)
		if err != nil {
			return nil, err
		}
		report.RarityCounts[out.Rarity]++
		if out.Featured {
			report.FeaturedCount++
			if guaranteed {
				report.GuaranteeWins++
			}
		}
		if out.UsedHardPity {
			report.HardPityCount++
		}
		sinceWin++
		if out.Rarity == pool.Pity.TopRarity {
			intervals = append(intervals, sinceWin)
			sinceWin = 0
		}
		state = next
	}

	for tier, n := range report.RarityCounts {
		report.RarityRates[tier] = float64(n) / float64(cfg.Pulls)
	}
	if len(intervals) > 0 {
		var sum int
		for _, v := range intervals {
			sum += v
			if v > report.MaxInterval {
				report.MaxInterval = v
			}
		}
		report.MeanInterval = float64(sum) / float64(len(intervals))
		report.P50Interval = percentile(intervals, 0.50)
		report.P90Interval = percentile(intervals, 0.90)
		report.P99Interval = percentile(intervals, 0.99)
	}
	return report, nil
}

// percentile returns the linearly interpolated p-quantile of xs.
func percentile(xs []int, p float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	if n == 1 || p <= 0 {
		return float64(cp[0])
	}
	if p >= 1 {
		return float64(cp[n-1])
	}
	pos := p * float64(n-1)
	i := int(math.Floor(pos))
	f := pos - float64(i)
	if i+1 >= n {
		return float64(cp[i])
	}
	return float64(cp[i])*(1-f) + float64(cp[i+1])*f
}

// ChiSquare computes the chi-square goodness-of-fit statistic of the observed
// rarity counts against the pool's configured distribution. Callers compare
// the statistic against a critical value for len(dist)-1 degrees of freedom.
func ChiSquare(report *SimReport, dist RarityDistribution) float64 {
	var stat float64
	for tier, w := range dist {
		expected := float64(report.Pulls) * float64(w) / float64(TotalWeight)
		if expected == 0 {
			continue
		}
		observed := float64(report.RarityCounts[tier])
		d := observed - expected
		stat += d * d / expected
	}
	return stat
}
