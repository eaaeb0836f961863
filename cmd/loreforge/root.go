package main

import (
	"github.com/spf13/cobra"

	"github.com/loreforge/loreforge/internal/config"
	"github.com/loreforge/loreforge/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the LoreForge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loreforge",
		Short: "LoreForge - a gacha pull and pity engine",
		Long: `LoreForge runs banner pulls with soft/hard pity, featured guarantees,
and an append-only pull ledger backed by PostgreSQL.`,
	}

	defaults := config.Default()

	// Global flags. Unset flags defer to the config file and environment.
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	cmd.PersistentFlags().String("metrics-addr", defaults.MetricsAddr, "metrics/health listen address")
	cmd.PersistentFlags().String("log-format", defaults.LogFormat, "log output format (json or text)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreatePoolCmd())
	cmd.AddCommand(NewGrantCurrencyCmd())
	cmd.AddCommand(NewValidatePoolCmd())
	cmd.AddCommand(NewSimulateCmd())

	return cmd
}

// loadConfig resolves configuration for a subcommand: file, then environment,
// then any flags set on the command line. When --config is not given, the XDG
// config directory is searched for a config.yaml.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		path = xdg.ConfigFile()
	}
	return config.Load(path, cmd.Flags())
}
