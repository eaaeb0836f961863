// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// PoolItem is one awardable unit of a pool. Immutable once defined.
type PoolItem struct {
	ID       ulid.ULID
	Name     string
	Rarity   RarityTier
	Featured bool // true for the promotional item(s) of the banner
}

// PityConfig is the per-pool pity configuration.
type PityConfig struct {
	// SoftPityStart is the pull count (since the last top-rarity win) at
	// which top-rarity odds begin ramping up.
	SoftPityStart int
	// HardPityThreshold is the pull count at which top rarity is guaranteed.
	HardPityThreshold int
	// TopRarity is the tier pity applies to.
	TopRarity RarityTier
	// FeaturedGuarantee enables the 50/50 split with loss carry-over.
	FeaturedGuarantee bool
}

// Validate checks the pity configuration invariants.
func (c PityConfig) Validate() error {
	if c.SoftPityStart <= 0 {
		return &InvalidConfigurationError{Field: "pity.soft_pity_start", Message: "must be a positive integer"}
	}
	if c.HardPityThreshold <= 0 {
		return &InvalidConfigurationError{Field: "pity.hard_pity_threshold", Message: "must be a positive integer"}
	}
	if c.SoftPityStart >= c.HardPityThreshold {
		return &InvalidConfigurationError{Field: "pity.soft_pity_start", Message: "must be less than hard_pity_threshold"}
	}
	if c.TopRarity == "" {
		return &InvalidConfigurationError{Field: "pity.top_rarity", Message: "cannot be empty"}
	}
	return nil
}

// Pool is the full configuration of one banner: its items, rarity
// distribution, pity rules, and pull cost. Created at banner launch and
// immutable for the banner's lifetime.
type Pool struct {
	ID           ulid.ULID // banner ID
	Name         string
	Items        []PoolItem
	Distribution RarityDistribution
	Pity         PityConfig
	CostPerPull  int64
	Currency     string
	StartsAt     time.Time
	EndsAt       time.Time // zero means no scheduled end
	CreatedAt    time.Time
}

// Validate checks every pool invariant. A pool failing validation is rejected
// before activation so pull-time defensive checks never fire.
func (p *Pool) Validate() error {
	if p.ID.IsZero() {
		return &InvalidConfigurationError{Field: "id", Message: "cannot be zero"}
	}
	if p.Name == "" {
		return &InvalidConfigurationError{Field: "name", Message: "cannot be empty"}
	}
	if err := p.Distribution.Validate(); err != nil {
		return err
	}
	if err := p.Pity.Validate(); err != nil {
		return err
	}
	if _, ok := p.Distribution[p.Pity.TopRarity]; !ok {
		return &InvalidConfigurationError{Field: "pity.top_rarity", Message: "tier " + string(p.Pity.TopRarity) + " is not in the rarity distribution"}
	}
	if p.CostPerPull <= 0 {
		return &InvalidConfigurationError{Field: "cost_per_pull", Message: "must be positive"}
	}
	if p.Currency == "" {
		return &InvalidConfigurationError{Field: "currency", Message: "cannot be empty"}
	}
	if !p.EndsAt.IsZero() && !p.EndsAt.After(p.StartsAt) {
		return &InvalidConfigurationError{Field: "ends_at", Message: "must be after starts_at"}
	}

	if len(p.Items) == 0 {
		return &InvalidConfigurationError{Field: "items", Message: "must contain at least one item"}
	}
	byRarity := make(map[RarityTier]int)
	featuredTop := 0
	standardTop := 0
	for _, item := range p.Items {
		if item.ID.IsZero() {
			return &InvalidConfigurationError{Field: "items", Message: "item " + item.Name + " has a zero ID"}
		}
		if item.Name == "" {
			return &InvalidConfigurationError{Field: "items", Message: "item " + item.ID.String() + " has an empty name"}
		}
		if _, ok := p.Distribution[item.Rarity]; !ok {
			return &InvalidConfigurationError{Field: "items", Message: "item " + item.Name + " has rarity " + string(item.Rarity) + " not in the distribution"}
		}
		byRarity[item.Rarity]++
		if item.Rarity == p.Pity.TopRarity {
			if item.Featured {
				featuredTop++
			} else {
				standardTop++
			}
		}
	}
	for tier := range p.Distribution {
		if byRarity[tier] == 0 {
			return &InvalidConfigurationError{Field: "items", Message: "no item for rarity tier " + string(tier)}
		}
	}
	// The 50/50 needs somewhere to land on both sides of the flip.
	if p.Pity.FeaturedGuarantee {
		if featuredTop == 0 {
			return &InvalidConfigurationError{Field: "items", Message: "featured guarantee enabled but no featured " + string(p.Pity.TopRarity) + " item"}
		}
		if standardTop == 0 {
			return &InvalidConfigurationError{Field: "items", Message: "featured guarantee enabled but no standard " + string(p.Pity.TopRarity) + " item"}
		}
	}
	return nil
}

// Active reports whether pulls are accepted at the given instant.
func (p *Pool) Active(at time.Time) bool {
	if at.Before(p.StartsAt) {
		return false
	}
	if !p.EndsAt.IsZero() && !at.Before(p.EndsAt) {
		return false
	}
	return true
}

// EligibleItems returns the items matching the rarity tier, further filtered
// by the featured flag when the feature split applies (featured != nil).
func (p *Pool) EligibleItems(tier RarityTier, featured *bool) []PoolItem {
	var out []PoolItem
	for _, item := range p.Items {
		if item.Rarity != tier {
			continue
		}
		if featured != nil && item.Featured != *featured {
			continue
		}
		out = append(out, item)
	}
	return out
}
