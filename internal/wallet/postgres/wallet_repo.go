// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

// Package postgres implements the wallet interface on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/loreforge/loreforge/internal/store"
	"github.com/loreforge/loreforge/internal/wallet"
)

// poolIface abstracts the subset of *pgxpool.Pool the repository uses, so
// unit tests can substitute a pgxmock pool.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is satisfied by both the pool and an open pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queryEngine returns the context transaction when one is active, otherwise
// the pool. A debit issued inside a transactor callback commits or rolls back
// with the rest of the transaction's writes.
func queryEngine(ctx context.Context, pool poolIface) querier {
	if tx, ok := store.TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

// WalletRepository implements wallet.Wallet using PostgreSQL. Debits are a
// single conditional UPDATE, so the balance can never go negative no matter
// how many debits race.
type WalletRepository struct {
	pool poolIface
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(pool poolIface) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Balance returns the current balance of a (tenant, player, currency)
// account. An account that was never credited reports a zero balance.
func (r *WalletRepository) Balance(ctx context.Context, tenantID, playerID ulid.ULID, currency string) (int64, error) {
	var balance int64
	err := queryEngine(ctx, r.pool).QueryRow(ctx, `
		SELECT balance FROM wallet_accounts
		WHERE tenant_id = $1 AND player_id = $2 AND currency = $3
	`, tenantID.String(), playerID.String(), currency).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.Code("WALLET_BALANCE_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	return balance, nil
}

// Debit atomically subtracts amount from the account. Returns
// wallet.ErrInsufficientFunds when the balance cannot cover the amount,
// including when the account does not exist.
func (r *WalletRepository) Debit(ctx context.Context, tenantID, playerID ulid.ULID, currency string, amount int64) error {
	if amount <= 0 {
		return oops.Code("WALLET_INVALID_AMOUNT").With("amount", amount).Errorf("debit amount must be positive")
	}
	result, err := queryEngine(ctx, r.pool).Exec(ctx, `
		UPDATE wallet_accounts SET balance = balance - $4, updated_at = NOW()
		WHERE tenant_id = $1 AND player_id = $2 AND currency = $3 AND balance >= $4
	`, tenantID.String(), playerID.String(), currency, amount)
	if err != nil {
		return oops.Code("WALLET_DEBIT_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("WALLET_INSUFFICIENT_FUNDS").
			With("player_id", playerID.String()).
			With("currency", currency).
			Wrap(wallet.ErrInsufficientFunds)
	}
	return nil
}

// Credit adds amount to the account, creating it on first use.
func (r *WalletRepository) Credit(ctx context.Context, tenantID, playerID ulid.ULID, currency string, amount int64) error {
	if amount <= 0 {
		return oops.Code("WALLET_INVALID_AMOUNT").With("amount", amount).Errorf("credit amount must be positive")
	}
	_, err := queryEngine(ctx, r.pool).Exec(ctx, `
		INSERT INTO wallet_accounts (tenant_id, player_id, currency, balance, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (tenant_id, player_id, currency)
		DO UPDATE SET balance = wallet_accounts.balance + $4, updated_at = NOW()
	`, tenantID.String(), playerID.String(), currency, amount)
	if err != nil {
		return oops.Code("WALLET_CREDIT_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	return nil
}
