// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

// Package postgres implements the gacha repository interfaces on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/loreforge/loreforge/internal/store"
)

// poolIface abstracts the subset of *pgxpool.Pool the repositories use, so
// unit tests can substitute a pgxmock pool.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier is satisfied by both the pool and an open pgx.Tx. Repository
// methods run their statements through it so they participate in whichever
// transaction the caller opened.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryEngine returns the context transaction when one is active, otherwise
// the pool itself.
func queryEngine(ctx context.Context, pool poolIface) querier {
	if tx, ok := store.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}
