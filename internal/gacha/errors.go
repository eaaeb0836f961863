// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Sentinel errors surfaced by the engine and its collaborators.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBannerClosed is returned when a pull is attempted outside the
	// banner's active window, or against a frozen pity state. No state is
	// mutated.
	ErrBannerClosed = errors.New("banner closed")

	// ErrInsufficientFunds is returned when the wallet cannot cover the pull
	// cost. No pity progress is recorded.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRetryable marks a transient persistence failure. The transaction
	// committed nothing, so the caller may safely retry.
	ErrRetryable = errors.New("retryable")

	// ErrTimeout is returned when the transactional persistence step did not
	// complete within the caller's deadline. Nothing was committed.
	ErrTimeout = errors.New("timeout")
)

// InvalidConfigurationError reports a malformed pool definition. Pools failing
// validation are rejected at load time and never activated.
type InvalidConfigurationError struct {
	Field   string
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// PoolConfigurationError reports a runtime defensive check failure: a resolved
// rarity had no eligible item. This should be impossible for a validated pool
// and is fatal for the pool; the engine never downgrades the rarity to paper
// over it.
type PoolConfigurationError struct {
	BannerID ulid.ULID
	Rarity   RarityTier
	Featured *bool // nil when the feature split did not apply
}

func (e *PoolConfigurationError) Error() string {
	if e.Featured != nil {
		return fmt.Sprintf("pool %s has no item for rarity %q (featured=%t)", e.BannerID, e.Rarity, *e.Featured)
	}
	return fmt.Sprintf("pool %s has no item for rarity %q", e.BannerID, e.Rarity)
}
