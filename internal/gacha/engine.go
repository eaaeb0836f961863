// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package gacha

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/loreforge/loreforge/internal/wallet"
)

// EngineConfig holds dependencies for the pull engine.
type EngineConfig struct {
	Pools      PoolRepository
	PityStates PityStateRepository
	Ledger     PullLedger
	Wallet     wallet.Wallet
	Tx         Transactor

	// RNG defaults to the crypto-backed source. Inject a seeded source for
	// deterministic replay.
	RNG Source
	// Clock defaults to time.Now. Injected for banner-window tests.
	Clock func() time.Time
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// Engine executes pulls: it is the only writer of pity state and the only
// appender to the pull ledger. One engine serves all (tenant, player, banner)
// pairs; pulls for different pairs run fully in parallel, pulls for the same
// pair are serialized.
type Engine struct {
	pools   PoolRepository
	states  PityStateRepository
	ledger  PullLedger
	wallet  wallet.Wallet
	tx      Transactor
	rng     Source
	clock   func() time.Time
	logger  *slog.Logger
	metrics *Metrics
	locks   *keyedMutex
}

// NewEngine creates a pull engine from the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		pools:   cfg.Pools,
		states:  cfg.PityStates,
		ledger:  cfg.Ledger,
		wallet:  cfg.Wallet,
		tx:      cfg.Tx,
		rng:     cfg.RNG,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		locks:   newKeyedMutex(),
	}
	if e.rng == nil {
		e.rng = DefaultSource()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Pull executes req.Count pulls as one atomic transaction: pity state write,
// wallet debit, and ledger appends all commit together or not at all.
//
// A repeated request ID replays the recorded pulls without charging again.
func (e *Engine) Pull(ctx context.Context, req PullRequest) (*PullResult, error) {
	if err := req.Validate(); err != nil {
		e.metrics.recordFailure("invalid_request")
		return nil, err
	}

	pool, err := e.pools.Get(ctx, req.BannerID)
	if err != nil {
		e.metrics.recordFailure("pool_load")
		return nil, oops.Code("POOL_LOAD_FAILED").With("banner_id", req.BannerID.String()).Wrap(err)
	}
	now := e.clock()
	if !pool.Active(now) {
		e.metrics.recordFailure("banner_closed")
		return nil, ErrBannerClosed
	}

	unlock := e.locks.Lock(lockKey(req.TenantID, req.PlayerID, req.BannerID))
	defer unlock()

	// Fast path: a request this process already committed replays without
	// opening a transaction. The authoritative duplicate check runs again
	// inside the transaction, under the pity row lock, where a concurrent
	// process's commit is visible.
	if req.RequestID != "" {
		replayed, err := e.replay(ctx, req, pool)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return replayed, nil
		}
	}

	var result *PullResult
	var recorded []pullMetric
	err = e.tx.InTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		result, recorded, txErr = e.executeBatch(txCtx, req, pool, now)
		return txErr
	})
	if err != nil {
		return nil, e.mapTxError(ctx, err, req)
	}

	// Success counters only move for work that committed; a rolled-back
	// batch never counts its pulls or spend.
	for _, rec := range recorded {
		e.metrics.recordPull(pool, rec.out, rec.guaranteed)
	}
	if result.Replayed {
		return result, nil
	}

	e.logger.InfoContext(ctx, "pulls executed",
		"tenant_id", req.TenantID.String(),
		"player_id", req.PlayerID.String(),
		"banner_id", req.BannerID.String(),
		"count", req.Count,
		"pity", result.Pity.PullsSinceTopRarity,
	)
	return result, nil
}

// pullMetric is a resolved pull held back for recording after commit.
type pullMetric struct {
	out        outcome
	guaranteed bool
}

// executeBatch runs inside the transaction: read state and balance, compute
// outcomes, write new state, debit, append. A ten-pull is ten sequential
// single pulls sharing a batch ID; pity carries across them exactly as it
// would across separate requests.
//
// The request-ID duplicate check repeats here after the row lock is held:
// two processes racing the same request serialize on the lock, and the loser
// then sees the winner's committed pulls instead of executing its own.
func (e *Engine) executeBatch(ctx context.Context, req PullRequest, pool *Pool, now time.Time) (*PullResult, []pullMetric, error) {
	state, err := e.loadState(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if req.RequestID != "" {
		replayed, err := e.replay(ctx, req, pool)
		if err != nil {
			return nil, nil, err
		}
		if replayed != nil {
			return replayed, nil, nil
		}
	}
	if state.Frozen {
		e.metrics.recordFailure("banner_closed")
		return nil, nil, ErrBannerClosed
	}

	totalCost := pool.CostPerPull * int64(req.Count)
	balance, err := e.wallet.Balance(ctx, req.TenantID, req.PlayerID, pool.Currency)
	if err != nil {
		return nil, nil, oops.Code("WALLET_BALANCE_FAILED").With("player_id", req.PlayerID.String()).Wrap(err)
	}
	if balance < totalCost {
		e.metrics.recordFailure("insufficient_funds")
		return nil, nil, ErrInsufficientFunds
	}
	if err := e.wallet.Debit(ctx, req.TenantID, req.PlayerID, pool.Currency, totalCost); err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			e.metrics.recordFailure("insufficient_funds")
			return nil, nil, ErrInsufficientFunds
		}
		return nil, nil, oops.Code("WALLET_DEBIT_FAILED").With("player_id", req.PlayerID.String()).Wrap(err)
	}

	batchID := NewULID()
	pulls := make([]Pull, 0, req.Count)
	recorded := make([]pullMetric, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		guaranteed := state.GuaranteedFeaturedNext
		out, next, err := resolvePull(pool, state, e.rng, now)
		if err != nil {
			return nil, nil, err
		}

		pull := Pull{
			ID:           NewULID(),
			TenantID:     req.TenantID,
			PlayerID:     req.PlayerID,
			BannerID:     req.BannerID,
			BatchID:      batchID,
			RequestID:    req.RequestID,
			Sequence:     state.TotalPulls + 1,
			Rarity:       out.Rarity,
			ItemID:       out.Item.ID,
			Featured:     out.Featured,
			UsedHardPity: out.UsedHardPity,
			PitySnapshot: out.PitySnapshot,
			Cost:         pool.CostPerPull,
			Currency:     pool.Currency,
			CreatedAt:    now,
		}
		if err := e.ledger.Append(ctx, &pull); err != nil {
			return nil, nil, oops.Code("LEDGER_APPEND_FAILED").With("pull_id", pull.ID.String()).Wrap(err)
		}
		pulls = append(pulls, pull)
		state = next
		recorded = append(recorded, pullMetric{out: out, guaranteed: guaranteed})
	}

	if err := e.states.Upsert(ctx, &state); err != nil {
		return nil, nil, oops.Code("PITY_SAVE_FAILED").With("player_id", req.PlayerID.String()).Wrap(err)
	}

	return &PullResult{
		Pulls: pulls,
		Pity:  Summarize(state, pool.Pity),
	}, recorded, nil
}

// loadState fetches the row-locked state, creating the zero state lazily on
// the first pull.
func (e *Engine) loadState(ctx context.Context, req PullRequest) (PityState, error) {
	state, err := e.states.GetForUpdate(ctx, req.TenantID, req.PlayerID, req.BannerID)
	if errors.Is(err, ErrNotFound) {
		return NewPityState(req.TenantID, req.PlayerID, req.BannerID), nil
	}
	if err != nil {
		return PityState{}, oops.Code("PITY_LOAD_FAILED").With("player_id", req.PlayerID.String()).Wrap(err)
	}
	return *state, nil
}

// replay checks the ledger for a previously executed request ID and rebuilds
// its result. Returns nil when the request was never executed. It runs twice
// per request: once before the transaction as a cheap fast path, and once
// inside it after the row lock, which is the check that holds against
// concurrent processes.
func (e *Engine) replay(ctx context.Context, req PullRequest, pool *Pool) (*PullResult, error) {
	prior, err := e.ledger.ListByRequestID(ctx, req.TenantID, req.PlayerID, req.BannerID, req.RequestID)
	if err != nil {
		return nil, oops.Code("LEDGER_LIST_FAILED").With("request_id", req.RequestID).Wrap(err)
	}
	if len(prior) == 0 {
		return nil, nil
	}

	state, err := e.states.Get(ctx, req.TenantID, req.PlayerID, req.BannerID)
	if err != nil {
		return nil, oops.Code("PITY_LOAD_FAILED").With("player_id", req.PlayerID.String()).Wrap(err)
	}
	pulls := make([]Pull, len(prior))
	for i, p := range prior {
		pulls[i] = *p
	}
	e.logger.InfoContext(ctx, "replayed idempotent pull request",
		"request_id", req.RequestID,
		"player_id", req.PlayerID.String(),
		"count", len(pulls),
	)
	return &PullResult{
		Pulls:    pulls,
		Pity:     Summarize(*state, pool.Pity),
		Replayed: true,
	}, nil
}

// History lists a player's pulls on a banner from the ledger, ordered by
// sequence ascending.
func (e *Engine) History(ctx context.Context, tenantID, playerID, bannerID ulid.ULID, opts ListOptions) ([]*Pull, error) {
	pulls, err := e.ledger.ListByPlayerBanner(ctx, tenantID, playerID, bannerID, opts)
	if err != nil {
		return nil, oops.Code("LEDGER_LIST_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	return pulls, nil
}

// PityStatus returns the current pity summary for a (player, banner) pair
// without executing a pull. A player who never pulled gets the zero summary.
func (e *Engine) PityStatus(ctx context.Context, tenantID, playerID, bannerID ulid.ULID) (*Summary, error) {
	pool, err := e.pools.Get(ctx, bannerID)
	if err != nil {
		return nil, oops.Code("POOL_LOAD_FAILED").With("banner_id", bannerID.String()).Wrap(err)
	}
	state, err := e.states.Get(ctx, tenantID, playerID, bannerID)
	if errors.Is(err, ErrNotFound) {
		fresh := NewPityState(tenantID, playerID, bannerID)
		s := Summarize(fresh, pool.Pity)
		return &s, nil
	}
	if err != nil {
		return nil, oops.Code("PITY_LOAD_FAILED").With("player_id", playerID.String()).Wrap(err)
	}
	s := Summarize(*state, pool.Pity)
	return &s, nil
}

// CloseBanner freezes every pity state of a banner. Frozen states reject
// pulls with ErrBannerClosed and stay readable for audit.
func (e *Engine) CloseBanner(ctx context.Context, bannerID ulid.ULID) error {
	if err := e.states.Freeze(ctx, bannerID); err != nil {
		return oops.Code("BANNER_FREEZE_FAILED").With("banner_id", bannerID.String()).Wrap(err)
	}
	e.logger.InfoContext(ctx, "banner closed", "banner_id", bannerID.String())
	return nil
}

// mapTxError classifies transaction failures for the caller: deadline and
// cancellation become ErrTimeout, transient storage failures keep their
// ErrRetryable mark, and domain errors pass through unchanged.
func (e *Engine) mapTxError(ctx context.Context, err error, req PullRequest) error {
	switch {
	case errors.Is(err, ErrBannerClosed), errors.Is(err, ErrInsufficientFunds):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		e.metrics.recordFailure("timeout")
		e.logger.WarnContext(ctx, "pull transaction timed out",
			"player_id", req.PlayerID.String(),
			"banner_id", req.BannerID.String(),
		)
		return oops.Code("PULL_TIMEOUT").Wrap(errors.Join(ErrTimeout, err))
	case errors.Is(err, ErrRetryable):
		e.metrics.recordFailure("retryable")
		return err
	default:
		e.metrics.recordFailure("transaction")
		return err
	}
}

func lockKey(tenantID, playerID, bannerID ulid.ULID) string {
	return tenantID.String() + "/" + playerID.String() + "/" + bannerID.String()
}
