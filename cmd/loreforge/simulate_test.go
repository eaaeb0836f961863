// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LoreForge Contributors

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSimulateCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"simulate"}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestSimulateCommand_Help(t *testing.T) {
	output, err := runSimulateCmd(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, output, "--pulls")
	assert.Contains(t, output, "--seed")
	assert.Contains(t, output, "reproducible")
}

func TestSimulateCommand_TableOutput(t *testing.T) {
	path := writePoolDoc(t, validPoolDoc)

	output, err := runSimulateCmd(t, path, "--pulls", "2000", "--seed", "7")

	require.NoError(t, err)
	assert.Contains(t, output, "Starfall Banner")
	assert.Contains(t, output, "2000 pulls")
	assert.Contains(t, output, "legendary")
	assert.Contains(t, output, "Hard pity wins:")
	assert.Contains(t, output, "Top-rarity interval:")
}

func TestSimulateCommand_Deterministic(t *testing.T) {
	path := writePoolDoc(t, validPoolDoc)

	first, err := runSimulateCmd(t, path, "--pulls", "2000", "--seed", "42")
	require.NoError(t, err)
	second, err := runSimulateCmd(t, path, "--pulls", "2000", "--seed", "42")
	require.NoError(t, err)

	assert.Equal(t, first, second, "same seed must produce identical reports")
}

func TestSimulateCommand_JSONOutput(t *testing.T) {
	path := writePoolDoc(t, validPoolDoc)

	output, err := runSimulateCmd(t, path, "--pulls", "1000", "--seed", "1", "--json")
	require.NoError(t, err)

	var report struct {
		Pulls        int            `json:"Pulls"`
		RarityCounts map[string]int `json:"RarityCounts"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, 1000, report.Pulls)

	total := 0
	for _, n := range report.RarityCounts {
		total += n
	}
	assert.Equal(t, 1000, total)
}

func TestSimulateCommand_InvalidDocument(t *testing.T) {
	path := writePoolDoc(t, "not a pool document")

	_, err := runSimulateCmd(t, path)

	require.Error(t, err)
}

func TestSimulateCommand_RequiresFile(t *testing.T) {
	_, err := runSimulateCmd(t)

	require.Error(t, err, "simulate requires a pool document argument")
}
