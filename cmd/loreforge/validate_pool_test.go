// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePoolCommand_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"validate-pool", "--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Validates pool documents")
	assert.Contains(t, output, "CI pipelines")
}

func TestValidatePoolCommand_RequiresArgs(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"validate-pool"})

	err := cmd.Execute()
	require.Error(t, err, "validate-pool requires at least one file argument")
}

func TestValidatePoolCommand_ValidDocument(t *testing.T) {
	// Must work without a database connection.
	t.Setenv("DATABASE_URL", "")
	path := writePoolDoc(t, validPoolDoc)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"validate-pool", path})

	require.NoError(t, cmd.Execute())
}

func TestValidatePoolCommand_InvalidDocument(t *testing.T) {
	// Drop the currency field so schema validation fails.
	doc := strings.Replace(validPoolDoc, "currency: gems\n", "", 1)
	path := writePoolDoc(t, doc)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"validate-pool", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 pool documents invalid")
}

func TestValidatePoolCommand_MixedDocuments(t *testing.T) {
	good := writePoolDoc(t, validPoolDoc)
	bad := writePoolDoc(t, "not a pool document")

	err := runValidatePool([]string{good, bad})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 pool documents invalid")
}

func TestValidatePoolCommand_MissingFile(t *testing.T) {
	err := runValidatePool([]string{"/nonexistent/pool.yaml"})

	require.Error(t, err)
}
