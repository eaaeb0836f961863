// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/store"
)

// migrateConfig holds configuration for the migrate command.
type migrateConfig struct {
	down   bool
	steps  int
	force  int
	status bool
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cfg := &migrateConfig{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run pending database migrations against the PostgreSQL database.
By default all pending migrations are applied. Use --down to roll back
everything, --steps to apply or roll back a fixed number, or --status to
show the current schema version without changing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.down, "down", false, "roll back all migrations")
	cmd.Flags().IntVar(&cfg.steps, "steps", 0, "apply (positive) or roll back (negative) this many migrations")
	cmd.Flags().IntVar(&cfg.force, "force", -1, "force the schema version without running migrations (recovery only)")
	cmd.Flags().BoolVar(&cfg.status, "status", false, "show current schema version and pending migrations")

	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *migrateConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (set DATABASE_URL or database_url)")
	}

	migrator, err := store.NewMigrator(conf.DatabaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() { _ = migrator.Close() }()

	switch {
	case cfg.status:
		return printMigrationStatus(cmd, migrator)
	case cfg.force >= 0:
		cmd.Printf("Forcing schema version to %d...\n", cfg.force)
		if err := migrator.Force(cfg.force); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "force version").Wrap(err)
		}
	case cfg.steps != 0:
		cmd.Printf("Running %d migration step(s)...\n", cfg.steps)
		if err := migrator.Steps(cfg.steps); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run steps").Wrap(err)
		}
	case cfg.down:
		cmd.Println("Rolling back all migrations...")
		if err := migrator.Down(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "roll back").Wrap(err)
		}
	default:
		cmd.Println("Running migrations...")
		if err := migrator.Up(); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	cmd.Println("Migrations completed successfully")
	return nil
}

func printMigrationStatus(cmd *cobra.Command, migrator *store.Migrator) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "read version").Wrap(err)
	}
	if version == 0 {
		cmd.Println("Schema version: none (no migrations applied)")
	} else {
		name, nameErr := store.MigrationName(version)
		if nameErr != nil || name == "" {
			name = "unknown"
		}
		cmd.Printf("Schema version: %d (%s), dirty: %t\n", version, name, dirty)
	}

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "list pending").Wrap(err)
	}
	if len(pending) == 0 {
		cmd.Println("No pending migrations")
		return nil
	}
	for _, v := range pending {
		name, nameErr := store.MigrationName(v)
		if nameErr != nil || name == "" {
			name = "unknown"
		}
		cmd.Printf("Pending: %d (%s)\n", v, name)
	}
	return nil
}
