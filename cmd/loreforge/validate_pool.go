// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/gacha"
)

// NewValidatePoolCmd creates the validate-pool subcommand.
func NewValidatePoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-pool <file>...",
		Short: "Validate pool documents without a database connection",
		Long: `Validates pool documents against the schema and every pool invariant:
rarity weights, pity thresholds, featured item coverage, and banner windows.
Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch pool configuration errors early:
  loreforge validate-pool pools/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidatePool(args)
		},
	}
}

func runValidatePool(paths []string) error {
	var errors []string
	for _, path := range paths {
		if _, err := gacha.LoadPoolFile(path); err != nil {
			errors = append(errors, fmt.Sprintf("  %s: %v", path, err))
		}
	}

	if len(errors) > 0 {
		for _, e := range errors {
			slog.Error("pool validation failed", "detail", e)
		}
		return fmt.Errorf("validation failed: %d of %d pool documents invalid", len(errors), len(paths))
	}

	slog.Info("all pool documents valid", "count", len(paths))
	return nil
}
