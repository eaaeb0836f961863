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

// PoolRepository implements gacha.PoolRepository using PostgreSQL. A pool is
// stored across three tables: the banner row, its items, and its rarity
// weights. Create relies on the caller's transaction for atomicity.
type PoolRepository struct {
	pool poolIface
}

// NewPoolRepository creates a new PostgreSQL pool repository.
func NewPoolRepository(pool poolIface) *PoolRepository {
	return &PoolRepository{pool: pool}
}

// Get retrieves a pool with its items and rarity weights.
func (r *PoolRepository) Get(ctx context.Context, id ulid.ULID) (*gacha.Pool, error) {
	q := queryEngine(ctx, r.pool)

	row := q.QueryRow(ctx, `
		SELECT id, name, cost_per_pull, currency,
		       soft_pity_start, hard_pity_threshold, top_rarity, featured_guarantee,
		       starts_at, ends_at, created_at
		FROM pools WHERE id = $1
	`, id.String())
	pool, err := scanPoolRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("POOL_NOT_FOUND").With("id", id.String()).Wrap(gacha.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("POOL_GET_FAILED").With("id", id.String()).Wrap(classify(err))
	}

	if pool.Items, err = r.loadItems(ctx, q, id); err != nil {
		return nil, err
	}
	if pool.Distribution, err = r.loadWeights(ctx, q, id); err != nil {
		return nil, err
	}
	return pool, nil
}

// Create persists a pool, its items, and its rarity weights. Wrap the call in
// Transactor.InTransaction so a partial insert never becomes visible.
// Callers must validate the pool before calling this method.
func (r *PoolRepository) Create(ctx context.Context, pool *gacha.Pool) error {
	q := queryEngine(ctx, r.pool)

	_, err := q.Exec(ctx, `
		INSERT INTO pools (id, name, cost_per_pull, currency,
		                   soft_pity_start, hard_pity_threshold, top_rarity, featured_guarantee,
		                   starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, pool.ID.String(), pool.Name, pool.CostPerPull, pool.Currency,
		pool.Pity.SoftPityStart, pool.Pity.HardPityThreshold,
		string(pool.Pity.TopRarity), pool.Pity.FeaturedGuarantee,
		timeToPtr(pool.StartsAt), timeToPtr(pool.EndsAt), pool.CreatedAt)
	if err != nil {
		return oops.Code("POOL_CREATE_FAILED").With("id", pool.ID.String()).Wrap(classify(err))
	}

	for _, item := range pool.Items {
		_, err := q.Exec(ctx, `
			INSERT INTO pool_items (id, pool_id, name, rarity, is_featured)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID.String(), pool.ID.String(), item.Name, string(item.Rarity), item.Featured)
		if err != nil {
			return oops.Code("POOL_ITEM_CREATE_FAILED").
				With("pool_id", pool.ID.String()).
				With("item_id", item.ID.String()).
				Wrap(classify(err))
		}
	}

	for _, tier := range pool.Distribution.Tiers() {
		_, err := q.Exec(ctx, `
			INSERT INTO pool_rarity_weights (pool_id, rarity, weight)
			VALUES ($1, $2, $3)
		`, pool.ID.String(), string(tier), int64(pool.Distribution[tier]))
		if err != nil {
			return oops.Code("POOL_WEIGHT_CREATE_FAILED").
				With("pool_id", pool.ID.String()).
				With("rarity", string(tier)).
				Wrap(classify(err))
		}
	}
	return nil
}

// List retrieves all pools ordered by creation time.
func (r *PoolRepository) List(ctx context.Context) ([]*gacha.Pool, error) {
	q := queryEngine(ctx, r.pool)

	rows, err := q.Query(ctx, `
		SELECT id, name, cost_per_pull, currency,
		       soft_pity_start, hard_pity_threshold, top_rarity, featured_guarantee,
		       starts_at, ends_at, created_at
		FROM pools ORDER BY created_at
	`)
	if err != nil {
		return nil, oops.Code("POOL_QUERY_FAILED").Wrap(classify(err))
	}
	defer rows.Close()

	var pools []*gacha.Pool
	for rows.Next() {
		pool, err := scanPoolRow(rows)
		if err != nil {
			return nil, oops.Code("POOL_SCAN_FAILED").Wrap(err)
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POOL_QUERY_FAILED").Wrap(classify(err))
	}

	for _, pool := range pools {
		if pool.Items, err = r.loadItems(ctx, q, pool.ID); err != nil {
			return nil, err
		}
		if pool.Distribution, err = r.loadWeights(ctx, q, pool.ID); err != nil {
			return nil, err
		}
	}
	return pools, nil
}

func (r *PoolRepository) loadItems(ctx context.Context, q querier, poolID ulid.ULID) ([]gacha.PoolItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, rarity, is_featured
		FROM pool_items WHERE pool_id = $1
		ORDER BY rarity, name
	`, poolID.String())
	if err != nil {
		return nil, oops.Code("POOL_ITEMS_QUERY_FAILED").With("pool_id", poolID.String()).Wrap(classify(err))
	}
	defer rows.Close()

	var items []gacha.PoolItem
	for rows.Next() {
		var (
			idStr, name, rarity string
			featured            bool
		)
		if err := rows.Scan(&idStr, &name, &rarity, &featured); err != nil {
			return nil, oops.Code("POOL_ITEM_SCAN_FAILED").With("pool_id", poolID.String()).Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("POOL_ITEM_SCAN_FAILED").With("item_id", idStr).Wrap(err)
		}
		items = append(items, gacha.PoolItem{
			ID:       id,
			Name:     name,
			Rarity:   gacha.RarityTier(rarity),
			Featured: featured,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POOL_ITEMS_QUERY_FAILED").With("pool_id", poolID.String()).Wrap(classify(err))
	}
	return items, nil
}

func (r *PoolRepository) loadWeights(ctx context.Context, q querier, poolID ulid.ULID) (gacha.RarityDistribution, error) {
	rows, err := q.Query(ctx, `
		SELECT rarity, weight FROM pool_rarity_weights WHERE pool_id = $1
	`, poolID.String())
	if err != nil {
		return nil, oops.Code("POOL_WEIGHTS_QUERY_FAILED").With("pool_id", poolID.String()).Wrap(classify(err))
	}
	defer rows.Close()

	dist := make(gacha.RarityDistribution)
	for rows.Next() {
		var (
			rarity string
			weight int64
		)
		if err := rows.Scan(&rarity, &weight); err != nil {
			return nil, oops.Code("POOL_WEIGHT_SCAN_FAILED").With("pool_id", poolID.String()).Wrap(err)
		}
		dist[gacha.RarityTier(rarity)] = gacha.Weight(weight)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POOL_WEIGHTS_QUERY_FAILED").With("pool_id", poolID.String()).Wrap(classify(err))
	}
	return dist, nil
}

// scanPoolRow scans one pool banner row. Items and weights are loaded
// separately.
func scanPoolRow(row pgx.Row) (*gacha.Pool, error) {
	var (
		idStr            string
		pool             gacha.Pool
		topRarity        string
		startsAt, endsAt *time.Time
	)
	err := row.Scan(&idStr, &pool.Name, &pool.CostPerPull, &pool.Currency,
		&pool.Pity.SoftPityStart, &pool.Pity.HardPityThreshold,
		&topRarity, &pool.Pity.FeaturedGuarantee,
		&startsAt, &endsAt, &pool.CreatedAt)
	if err != nil {
		return nil, err
	}
	pool.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse pool id").With("id", idStr).Wrap(err)
	}
	pool.Pity.TopRarity = gacha.RarityTier(topRarity)
	if startsAt != nil {
		pool.StartsAt = *startsAt
	}
	if endsAt != nil {
		pool.EndsAt = *endsAt
	}
	return &pool, nil
}

// timeToPtr converts a time to a pointer for SQL parameters, mapping the zero
// time to NULL.
func timeToPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
