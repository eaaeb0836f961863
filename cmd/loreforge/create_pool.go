// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/gacha"
	"github.com/loreforge/loreforge/internal/gacha/postgres"
	"github.com/loreforge/loreforge/internal/store"
)

// Default timeout for the create-pool command.
const defaultCreatePoolTimeout = 30 * time.Second

// createPoolConfig holds configuration for the create-pool command.
type createPoolConfig struct {
	timeout time.Duration
}

// NewCreatePoolCmd creates the create-pool subcommand.
func NewCreatePoolCmd() *cobra.Command {
	cfg := &createPoolConfig{}

	cmd := &cobra.Command{
		Use:   "create-pool <file>",
		Short: "Load a pool document into the database",
		Long: `Validates a pool document and persists it as a new banner pool.
This command is idempotent - re-running it with a document that carries an
explicit banner ID will not create duplicates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreatePool(cmd, args[0], cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCreatePoolTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runCreatePool(cmd *cobra.Command, path string, cfg *createPoolConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (set DATABASE_URL or database_url)")
	}

	pool, err := gacha.LoadPoolFile(path)
	if err != nil {
		return oops.Code("POOL_INVALID").With("path", path).Wrap(err)
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.Connect(ctx, conf.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	repo := postgres.NewPoolRepository(db)
	tx := postgres.NewTransactor(db)

	err = tx.InTransaction(ctx, func(ctx context.Context) error {
		return repo.Create(ctx, pool)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			cmd.Printf("Pool %s already exists, skipping\n", pool.ID)
			slog.Info("pool already created", "banner_id", pool.ID, "name", pool.Name)
			return nil
		}
		return oops.Code("POOL_CREATE_FAILED").With("banner_id", pool.ID).Wrap(err)
	}

	cmd.Printf("Created pool %s: %s (%d items)\n", pool.ID, pool.Name, len(pool.Items))
	slog.Info("pool created", "banner_id", pool.ID, "name", pool.Name, "items", len(pool.Items))
	return nil
}
