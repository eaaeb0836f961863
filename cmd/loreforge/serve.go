// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/gacha"
	gachapg "github.com/loreforge/loreforge/internal/gacha/postgres"
	"github.com/loreforge/loreforge/internal/logging"
	"github.com/loreforge/loreforge/internal/observability"
	"github.com/loreforge/loreforge/internal/store"
	walletpg "github.com/loreforge/loreforge/internal/wallet/postgres"
	"github.com/loreforge/loreforge/pkg/errutil"
)

const (
	// Default interval between expired-banner sweeps.
	defaultSweepInterval = time.Minute
	// Timeout for the readiness database ping.
	readinessPingTimeout = 2 * time.Second
	// Timeout for graceful shutdown of the metrics server.
	shutdownTimeout = 5 * time.Second
)

// serveConfig holds configuration for the serve command.
type serveConfig struct {
	sweepInterval time.Duration
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pull engine process",
		Long: `Runs the pull engine as a long-lived process: connects to PostgreSQL,
serves metrics and health endpoints, and periodically freezes pity state on
banners whose window has ended. The pull API itself is exposed by embedding
the engine; this process carries its operational surface.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.sweepInterval, "sweep-interval", defaultSweepInterval, "interval between expired-banner sweeps")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *serveConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (set DATABASE_URL or database_url)")
	}

	logging.SetDefault("loreforge", version, conf.LogFormat)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, conf.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	if conf.AutoMigrate {
		if err := runAutoMigrate(conf.DatabaseURL); err != nil {
			return err
		}
	}

	obs := observability.NewServer(conf.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), readinessPingTimeout)
		defer cancel()
		return db.Ping(pingCtx) == nil
	})

	pools := gachapg.NewPoolRepository(db)
	engine := gacha.NewEngine(gacha.EngineConfig{
		Pools:      pools,
		PityStates: gachapg.NewPityStateRepository(db),
		Ledger:     gachapg.NewPullLedgerRepository(db),
		Wallet:     walletpg.NewWalletRepository(db),
		Tx:         gachapg.NewTransactor(db),
		Logger:     slog.Default(),
		Metrics:    gacha.NewMetrics(obs.Registry()),
	})

	errCh, err := obs.Start()
	if err != nil {
		return oops.Code("METRICS_START_FAILED").With("addr", conf.MetricsAddr).Wrap(err)
	}

	slog.Info("engine process started", "metrics_addr", obs.Addr(), "sweep_interval", cfg.sweepInterval)

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		runBannerSweep(ctx, engine, pools, cfg.sweepInterval)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = oops.Code("METRICS_SERVE_FAILED").Wrap(err)
		}
	}
	stop()
	<-sweepDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := obs.Stop(shutdownCtx); err != nil {
		slog.Warn("metrics server shutdown failed", "error", err)
	}

	return serveErr
}

func runAutoMigrate(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() { _ = migrator.Close() }()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

// runBannerSweep periodically freezes pity state on banners whose window has
// ended, so closed banners reject pulls even from processes holding a stale
// pool cache.
func runBannerSweep(ctx context.Context, engine *gacha.Engine, pools gacha.PoolRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepExpiredBanners(ctx, engine, pools)
		}
	}
}

func sweepExpiredBanners(ctx context.Context, engine *gacha.Engine, pools gacha.PoolRepository) {
	all, err := pools.List(ctx)
	if err != nil {
		errutil.LogError(slog.Default(), "banner sweep: listing pools failed", err)
		return
	}

	now := time.Now().UTC()
	for _, pool := range all {
		if pool.EndsAt.IsZero() || now.Before(pool.EndsAt) {
			continue
		}
		if err := engine.CloseBanner(ctx, pool.ID); err != nil {
			errutil.LogError(slog.Default(), "banner sweep: close failed", err)
			continue
		}
		slog.Debug("banner sweep: closed expired banner", "banner_id", pool.ID, "ended_at", pool.EndsAt)
	}
}
