// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

// Package wallet defines the currency collaborator the pull engine charges
// against. The engine treats it as an external transactional participant: a
// debit issued inside the engine's transaction commits or rolls back with it.
package wallet

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
)

// ErrInsufficientFunds is returned when a debit would take a balance below
// zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrAccountNotFound is returned when no account exists for the
// (tenant, player, currency) triple.
var ErrAccountNotFound = errors.New("account not found")

// Wallet manages player currency balances.
type Wallet interface {
	// Balance returns the current balance. A missing account reads as zero.
	Balance(ctx context.Context, tenantID, playerID ulid.ULID, currency string) (int64, error)

	// Debit atomically subtracts amount, failing with ErrInsufficientFunds
	// if the balance cannot cover it. Amount must be positive.
	Debit(ctx context.Context, tenantID, playerID ulid.ULID, currency string, amount int64) error

	// Credit atomically adds amount, creating the account if needed. Amount
	// must be positive.
	Credit(ctx context.Context, tenantID, playerID ulid.ULID, currency string, amount int64) error
}
