// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreforge/loreforge/internal/config"
	"github.com/loreforge/loreforge/pkg/errutil"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "loreforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
database_url: postgres://localhost:5432/loreforge
metrics_addr: ":9200"
log_format: text
auto_migrate: true
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/loreforge", cfg.DatabaseURL)
	assert.Equal(t, ":9200", cfg.MetricsAddr)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
metrics_addr: ":9200"
log_format: text
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("metrics-addr", "", "")
	flags.String("log-format", "", "")
	require.NoError(t, flags.Set("metrics-addr", ":9300"))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, ":9300", cfg.MetricsAddr)
	assert.Equal(t, "text", cfg.LogFormat, "unset flags must not clobber file values")
}

func TestLoad_DatabaseURLFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env:5432/loreforge")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env:5432/loreforge", cfg.DatabaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_RejectsUnknownLogFormat(t *testing.T) {
	path := writeConfigFile(t, `log_format: xml`)

	_, err := config.Load(path, nil)

	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}
