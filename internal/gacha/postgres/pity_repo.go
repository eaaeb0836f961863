// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/loreforge/loreforge/internal/gacha"
)

// PityStateRepository implements gacha.PityStateRepository using PostgreSQL.
type PityStateRepository struct {
	pool poolIface
}

// NewPityStateRepository creates a new PostgreSQL pity state repository.
func NewPityStateRepository(pool poolIface) *PityStateRepository {
	return &PityStateRepository{pool: pool}
}

const pityStateColumns = `tenant_id, player_id, banner_id,
	pulls_since_top_rarity, pulls_since_featured, guaranteed_featured_next,
	total_pulls, total_top_rarity, total_featured, last_pull_at, frozen`

// Get retrieves a pity state.
func (r *PityStateRepository) Get(ctx context.Context, tenantID, playerID, bannerID ulid.ULID) (*gacha.PityState, error) {
	q := queryEngine(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT `+pityStateColumns+`
		FROM pity_states
		WHERE tenant_id = $1 AND player_id = $2 AND banner_id = $3
	`, tenantID.String(), playerID.String(), bannerID.String())
	return scanPityState(row, playerID)
}

// GetForUpdate retrieves a pity state under a row lock. Call inside a
// transaction; the lock serializes concurrent pulls for the same
// (tenant, player, banner) across processes.
func (r *PityStateRepository) GetForUpdate(ctx context.Context, tenantID, playerID, bannerID ulid.ULID) (*gacha.PityState, error) {
	q := queryEngine(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT `+pityStateColumns+`
		FROM pity_states
		WHERE tenant_id = $1 AND player_id = $2 AND banner_id = $3
		FOR UPDATE
	`, tenantID.String(), playerID.String(), bannerID.String())
	return scanPityState(row, playerID)
}

// Upsert writes a pity state, inserting the row on a player's first pull.
func (r *PityStateRepository) Upsert(ctx context.Context, state *gacha.PityState) error {
	q := queryEngine(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO pity_states (`+pityStateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tenant_id, player_id, banner_id) DO UPDATE SET
			pulls_since_top_rarity = $4,
			pulls_since_featured = $5,
			guaranteed_featured_next = $6,
			total_pulls = $7,
			total_top_rarity = $8,
			total_featured = $9,
			last_pull_at = $10,
			frozen = $11
	`, state.TenantID.String(), state.PlayerID.String(), state.BannerID.String(),
		state.PullsSinceTopRarity, state.PullsSinceFeatured, state.GuaranteedFeaturedNext,
		state.TotalPulls, state.TotalTopRarity, state.TotalFeatured,
		timeToPtr(state.LastPullAt), state.Frozen)
	if err != nil {
		return oops.Code("PITY_UPSERT_FAILED").
			With("player_id", state.PlayerID.String()).
			With("banner_id", state.BannerID.String()).
			Wrap(classify(err))
	}
	return nil
}

// Freeze marks every pity state of a banner as frozen. Frozen rows reject
// further pulls but stay readable for audit.
func (r *PityStateRepository) Freeze(ctx context.Context, bannerID ulid.ULID) error {
	q := queryEngine(ctx, r.pool)
	_, err := q.Exec(ctx, `
		UPDATE pity_states SET frozen = TRUE WHERE banner_id = $1
	`, bannerID.String())
	if err != nil {
		return oops.Code("PITY_FREEZE_FAILED").With("banner_id", bannerID.String()).Wrap(classify(err))
	}
	return nil
}

func scanPityState(row pgx.Row, playerID ulid.ULID) (*gacha.PityState, error) {
	var (
		tenantStr, playerStr, bannerStr string
		state                           gacha.PityState
		lastPullAt                      *time.Time
	)
	err := row.Scan(&tenantStr, &playerStr, &bannerStr,
		&state.PullsSinceTopRarity, &state.PullsSinceFeatured, &state.GuaranteedFeaturedNext,
		&state.TotalPulls, &state.TotalTopRarity, &state.TotalFeatured,
		&lastPullAt, &state.Frozen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PITY_NOT_FOUND").With("player_id", playerID.String()).Wrap(gacha.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PITY_GET_FAILED").With("player_id", playerID.String()).Wrap(classify(err))
	}

	if state.TenantID, err = ulid.Parse(tenantStr); err != nil {
		return nil, oops.With("operation", "parse tenant_id").With("tenant_id", tenantStr).Wrap(err)
	}
	if state.PlayerID, err = ulid.Parse(playerStr); err != nil {
		return nil, oops.With("operation", "parse player_id").With("player_id", playerStr).Wrap(err)
	}
	if state.BannerID, err = ulid.Parse(bannerStr); err != nil {
		return nil, oops.With("operation", "parse banner_id").With("banner_id", bannerStr).Wrap(err)
	}
	if lastPullAt != nil {
		state.LastPullAt = *lastPullAt
	}
	return &state, nil
}
