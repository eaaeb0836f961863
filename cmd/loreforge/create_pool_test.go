// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePoolCommand_Properties(t *testing.T) {
	cmd := NewCreatePoolCmd()

	assert.Contains(t, cmd.Use, "create-pool")
	assert.Contains(t, cmd.Long, "idempotent", "Long description should mention idempotency")
}

func TestCreatePoolCommand_NoDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""
	path := writePoolDoc(t, validPoolDoc)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"create-pool", path})

	err := cmd.Execute()
	require.Error(t, err, "Expected error when no database URL is configured")
	assert.Contains(t, err.Error(), "database URL")
}

func TestCreatePoolCommand_InvalidDocumentRejectedBeforeConnect(t *testing.T) {
	// An invalid document must fail validation before any connection attempt,
	// so a bogus database URL never gets dialed.
	t.Setenv("DATABASE_URL", "postgres://127.0.0.1:1/never")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	configFile = ""
	path := writePoolDoc(t, "not a pool document")

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"create-pool", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "Connecting to database")
}

func TestCreatePoolCommand_RequiresFile(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"create-pool"})

	err := cmd.Execute()
	require.Error(t, err, "create-pool requires a pool document argument")
}
