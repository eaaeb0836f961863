// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"context"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/store"
	walletpg "github.com/loreforge/loreforge/internal/wallet/postgres"
)

// Default timeout for the grant-currency command.
const defaultGrantTimeout = 30 * time.Second

// grantConfig holds configuration for the grant-currency command.
type grantConfig struct {
	timeout time.Duration
}

// NewGrantCurrencyCmd creates the grant-currency subcommand.
func NewGrantCurrencyCmd() *cobra.Command {
	cfg := &grantConfig{}

	cmd := &cobra.Command{
		Use:   "grant-currency <tenant-id> <player-id> <currency> <amount>",
		Short: "Credit currency to a player wallet",
		Long: `Credits a positive amount of currency to a player wallet, creating the
account on first grant. Intended for support and test environments.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrantCurrency(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultGrantTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runGrantCurrency(cmd *cobra.Command, args []string, cfg *grantConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if conf.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (set DATABASE_URL or database_url)")
	}

	tenantID, err := ulid.Parse(args[0])
	if err != nil {
		return oops.Code("ARGUMENT_INVALID").With("tenant_id", args[0]).Wrap(err)
	}
	playerID, err := ulid.Parse(args[1])
	if err != nil {
		return oops.Code("ARGUMENT_INVALID").With("player_id", args[1]).Wrap(err)
	}
	currency := args[2]
	amount, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil || amount <= 0 {
		return oops.Code("ARGUMENT_INVALID").With("amount", args[3]).Errorf("amount must be a positive integer")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.Connect(ctx, conf.DatabaseURL)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	wallets := walletpg.NewWalletRepository(db)
	if err := wallets.Credit(ctx, tenantID, playerID, currency, amount); err != nil {
		return oops.Code("GRANT_FAILED").With("player_id", playerID).With("currency", currency).Wrap(err)
	}

	balance, err := wallets.Balance(ctx, tenantID, playerID, currency)
	if err != nil {
		return oops.Code("GRANT_FAILED").With("operation", "read balance").Wrap(err)
	}

	cmd.Printf("Credited %d %s to player %s (balance: %d)\n", amount, currency, playerID, balance)
	return nil
}
