// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreforge/loreforge/internal/store"
)

func TestTxFromContext(t *testing.T) {
	ctx := context.Background()

	_, ok := store.TxFromContext(ctx)
	assert.False(t, ok, "a bare context must not carry a transaction")

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	txCtx := store.WithTx(ctx, tx)
	got, ok := store.TxFromContext(txCtx)
	require.True(t, ok)
	assert.Equal(t, tx, got)

	// The original context stays transaction-free.
	_, ok = store.TxFromContext(ctx)
	assert.False(t, ok)
}
