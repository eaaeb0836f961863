// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"fmt"
	"os"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// PoolDocument is the external pool definition format. Documents are YAML
// (JSON parses as YAML, so .json files work too), schema-validated before
// unmarshaling, then converted to a Pool with full semantic validation.
type PoolDocument struct {
	ID    string             `koanf:"id" json:"id,omitempty" jsonschema:"description=Banner ULID, generated when omitted"`
	Name  string             `koanf:"name" json:"name" jsonschema:"minLength=1"`
	Items []PoolItemDocument `koanf:"items" json:"items" jsonschema:"minItems=1"`
	// RarityDistribution maps tier name to a raw weight; weights need not
	// pre-sum to 100.
	RarityDistribution map[string]float64 `koanf:"rarity_distribution" json:"rarity_distribution"`
	Pity               PityDocument       `koanf:"pity" json:"pity"`
	CostPerPull        int64              `koanf:"cost_per_pull" json:"cost_per_pull" jsonschema:"minimum=1"`
	Currency           string             `koanf:"currency" json:"currency" jsonschema:"minLength=1"`
	// StartsAt and EndsAt are RFC 3339 timestamps; both optional.
	StartsAt string `koanf:"starts_at" json:"starts_at,omitempty" jsonschema:"format=date-time"`
	EndsAt   string `koanf:"ends_at" json:"ends_at,omitempty" jsonschema:"format=date-time"`
}

// PoolItemDocument is one item entry of a pool document.
type PoolItemDocument struct {
	ID       string `koanf:"id" json:"id,omitempty" jsonschema:"description=Item ULID, generated when omitted"`
	Name     string `koanf:"name" json:"name" jsonschema:"minLength=1"`
	Rarity   string `koanf:"rarity" json:"rarity" jsonschema:"minLength=1"`
	Featured bool   `koanf:"is_featured" json:"is_featured,omitempty"`
}

// PityDocument is the pity section of a pool document.
type PityDocument struct {
	SoftPityStart     int    `koanf:"soft_pity_start" json:"soft_pity_start" jsonschema:"minimum=1"`
	HardPityThreshold int    `koanf:"hard_pity_threshold" json:"hard_pity_threshold" jsonschema:"minimum=1"`
	TopRarity         string `koanf:"top_rarity" json:"top_rarity" jsonschema:"minLength=1"`
	FeaturedGuarantee bool   `koanf:"featured_guarantee_enabled" json:"featured_guarantee_enabled,omitempty"`
}

// LoadPoolFile reads, schema-validates, and converts a pool definition
// document. Malformed pools are rejected here with InvalidConfiguration and
// never reach storage.
func LoadPoolFile(path string) (*Pool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("POOL_READ_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateSchema(raw); err != nil {
		return nil, oops.Code("POOL_SCHEMA_INVALID").With("path", path).Wrap(err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
		return nil, oops.Code("POOL_PARSE_FAILED").With("path", path).Wrap(err)
	}
	var doc PoolDocument
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, oops.Code("POOL_PARSE_FAILED").With("path", path).Wrap(err)
	}
	return doc.ToPool()
}

// ToPool converts the document into a validated Pool. Missing IDs are
// generated; the rarity distribution is normalized to fixed point.
func (d *PoolDocument) ToPool() (*Pool, error) {
	id, err := parseOrNewULID(d.ID, "id")
	if err != nil {
		return nil, err
	}

	raw := make(map[RarityTier]float64, len(d.RarityDistribution))
	for tier, w := range d.RarityDistribution {
		raw[RarityTier(tier)] = w
	}
	dist, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	items := make([]PoolItem, len(d.Items))
	for i, it := range d.Items {
		itemID, err := parseOrNewULID(it.ID, fmt.Sprintf("items[%d].id", i))
		if err != nil {
			return nil, err
		}
		items[i] = PoolItem{
			ID:       itemID,
			Name:     it.Name,
			Rarity:   RarityTier(it.Rarity),
			Featured: it.Featured,
		}
	}

	pool := &Pool{
		ID:           id,
		Name:         d.Name,
		Items:        items,
		Distribution: dist,
		Pity: PityConfig{
			SoftPityStart:     d.Pity.SoftPityStart,
			HardPityThreshold: d.Pity.HardPityThreshold,
			TopRarity:         RarityTier(d.Pity.TopRarity),
			FeaturedGuarantee: d.Pity.FeaturedGuarantee,
		},
		CostPerPull: d.CostPerPull,
		Currency:    d.Currency,
		CreatedAt:   time.Now(),
	}
	if d.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, d.StartsAt)
		if err != nil {
			return nil, &InvalidConfigurationError{Field: "starts_at", Message: "must be an RFC 3339 timestamp"}
		}
		pool.StartsAt = t
	}
	if d.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, d.EndsAt)
		if err != nil {
			return nil, &InvalidConfigurationError{Field: "ends_at", Message: "must be an RFC 3339 timestamp"}
		}
		pool.EndsAt = t
	}
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	return pool, nil
}

func parseOrNewULID(s, field string) (ulid.ULID, error) {
	if s == "" {
		return NewULID(), nil
	}
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, &InvalidConfigurationError{Field: field, Message: "not a valid ULID"}
	}
	return id, nil
}
