// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// DefaultLimit is the default page size for ledger listings.
const DefaultLimit = 100

// ListOptions controls ledger pagination. Listings are ordered by sequence
// ascending and restartable from AfterSequence.
type ListOptions struct {
	Limit         int
	AfterSequence int64
}

// PoolRepository manages pool persistence. Pools are written once at banner
// launch and read-only afterwards.
type PoolRepository interface {
	// Get retrieves a pool by banner ID.
	Get(ctx context.Context, id ulid.ULID) (*Pool, error)

	// Create persists a new pool. The pool must already be validated.
	Create(ctx context.Context, pool *Pool) error

	// List returns all pools.
	List(ctx context.Context) ([]*Pool, error)
}

// PityStateRepository manages pity state persistence. The engine is the only
// writer; states are never deleted while the banner is active.
type PityStateRepository interface {
	// Get retrieves the state for a (tenant, player, banner) triple.
	// Returns ErrNotFound if the player has never pulled on the banner.
	Get(ctx context.Context, tenantID, playerID, bannerID ulid.ULID) (*PityState, error)

	// GetForUpdate retrieves the state with a row lock held for the duration
	// of the ambient transaction, serializing concurrent pulls for the same
	// (player, banner) across processes. Returns ErrNotFound if absent.
	GetForUpdate(ctx context.Context, tenantID, playerID, bannerID ulid.ULID) (*PityState, error)

	// Upsert writes the state, creating the row on first pull.
	Upsert(ctx context.Context, state *PityState) error

	// Freeze marks every state of a banner closed, rejecting further pulls
	// while retaining the rows for audit.
	Freeze(ctx context.Context, bannerID ulid.ULID) error
}

// PullLedger is the append-only audit boundary. No update or delete is
// exposed.
type PullLedger interface {
	// Append persists one pull record.
	Append(ctx context.Context, pull *Pull) error

	// ListByPlayerBanner returns pulls for a (player, banner) ordered by
	// sequence ascending, paginated via opts.
	ListByPlayerBanner(ctx context.Context, tenantID, playerID, bannerID ulid.ULID, opts ListOptions) ([]*Pull, error)

	// ListByRequestID returns the pulls recorded for an idempotency key,
	// ordered by sequence ascending. An empty slice means the request was
	// never executed.
	ListByRequestID(ctx context.Context, tenantID, playerID, bannerID ulid.ULID, requestID string) ([]*Pull, error)
}

// Transactor runs a function inside one storage transaction. Every effect of
// a pull (pity write, wallet debit, ledger append) commits atomically through
// it, or not at all.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
