// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// txKey is the context key under which the active pgx.Tx travels.
type txKey struct{}

// WithTx returns a context carrying the transaction. Repository packages
// extract it with TxFromContext so statements issued through a transactor's
// callback run on the same transaction regardless of which repository issues
// them.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the context transaction, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}
