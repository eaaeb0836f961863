// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/loreforge/loreforge/internal/gacha"
)

// PullLedgerRepository implements gacha.PullLedger using PostgreSQL. The
// pulls table is append-only; a unique index on (tenant, player, banner,
// sequence) rejects any double-execution that slips past the in-process
// serialization.
type PullLedgerRepository struct {
	pool poolIface
}

// NewPullLedgerRepository creates a new PostgreSQL pull ledger.
func NewPullLedgerRepository(pool poolIface) *PullLedgerRepository {
	return &PullLedgerRepository{pool: pool}
}

const pullColumns = `id, tenant_id, player_id, banner_id, batch_id, request_id,
	sequence, rarity, item_id, featured, used_hard_pity, pity_snapshot,
	cost, currency, created_at`

// Append persists one pull record. A sequence collision means another writer
// committed the same pull concurrently; it is surfaced as retryable so the
// caller re-reads state and replays or re-executes.
func (r *PullLedgerRepository) Append(ctx context.Context, pull *gacha.Pull) error {
	q := queryEngine(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO pulls (`+pullColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, pull.ID.String(), pull.TenantID.String(), pull.PlayerID.String(), pull.BannerID.String(),
		pull.BatchID.String(), nullIfEmpty(pull.RequestID),
		pull.Sequence, string(pull.Rarity), pull.ItemID.String(),
		pull.Featured, pull.UsedHardPity, pull.PitySnapshot,
		pull.Cost, pull.Currency, pull.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("LEDGER_SEQUENCE_CONFLICT").
				With("player_id", pull.PlayerID.String()).
				With("sequence", pull.Sequence).
				Wrap(errors.Join(gacha.ErrRetryable, err))
		}
		return oops.Code("LEDGER_APPEND_FAILED").With("pull_id", pull.ID.String()).Wrap(classify(err))
	}
	return nil
}

// ListByPlayerBanner retrieves a player's pulls on a banner ordered by
// sequence, paginated by AfterSequence.
func (r *PullLedgerRepository) ListByPlayerBanner(ctx context.Context, tenantID, playerID, bannerID ulid.ULID, opts gacha.ListOptions) ([]*gacha.Pull, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = gacha.DefaultLimit
	}

	q := queryEngine(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT `+pullColumns+`
		FROM pulls
		WHERE tenant_id = $1 AND player_id = $2 AND banner_id = $3 AND sequence > $4
		ORDER BY sequence
		LIMIT $5
	`, tenantID.String(), playerID.String(), bannerID.String(), opts.AfterSequence, limit)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").With("player_id", playerID.String()).Wrap(classify(err))
	}
	defer rows.Close()

	return scanPulls(rows)
}

// ListByRequestID retrieves the pulls recorded for an idempotency key,
// ordered by sequence.
func (r *PullLedgerRepository) ListByRequestID(ctx context.Context, tenantID, playerID, bannerID ulid.ULID, requestID string) ([]*gacha.Pull, error) {
	q := queryEngine(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT `+pullColumns+`
		FROM pulls
		WHERE tenant_id = $1 AND player_id = $2 AND banner_id = $3 AND request_id = $4
		ORDER BY sequence
	`, tenantID.String(), playerID.String(), bannerID.String(), requestID)
	if err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").With("request_id", requestID).Wrap(classify(err))
	}
	defer rows.Close()

	return scanPulls(rows)
}

func scanPulls(rows pgx.Rows) ([]*gacha.Pull, error) {
	var pulls []*gacha.Pull
	for rows.Next() {
		pull, err := scanPullRow(rows)
		if err != nil {
			return nil, err
		}
		pulls = append(pulls, pull)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LEDGER_QUERY_FAILED").Wrap(classify(err))
	}
	return pulls, nil
}

func scanPullRow(row pgx.Row) (*gacha.Pull, error) {
	var (
		idStr, tenantStr, playerStr, bannerStr, batchStr, rarity, itemStr string
		requestID                                                         *string
		pull                                                              gacha.Pull
	)
	err := row.Scan(&idStr, &tenantStr, &playerStr, &bannerStr, &batchStr, &requestID,
		&pull.Sequence, &rarity, &itemStr, &pull.Featured, &pull.UsedHardPity, &pull.PitySnapshot,
		&pull.Cost, &pull.Currency, &pull.CreatedAt)
	if err != nil {
		return nil, oops.Code("LEDGER_SCAN_FAILED").Wrap(err)
	}

	for _, f := range []struct {
		dst  *ulid.ULID
		src  string
		name string
	}{
		{&pull.ID, idStr, "id"},
		{&pull.TenantID, tenantStr, "tenant_id"},
		{&pull.PlayerID, playerStr, "player_id"},
		{&pull.BannerID, bannerStr, "banner_id"},
		{&pull.BatchID, batchStr, "batch_id"},
		{&pull.ItemID, itemStr, "item_id"},
	} {
		id, err := ulid.Parse(f.src)
		if err != nil {
			return nil, oops.With("operation", "parse "+f.name).With(f.name, f.src).Wrap(err)
		}
		*f.dst = id
	}
	pull.Rarity = gacha.RarityTier(rarity)
	if requestID != nil {
		pull.RequestID = *requestID
	}
	return &pull, nil
}

// nullIfEmpty converts an empty string to NULL for SQL parameters.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
