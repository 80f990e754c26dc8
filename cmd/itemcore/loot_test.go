// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/loot"
	"github.com/holomush/itemcore/pkg/errutil"
)

func TestLootCmd_Generate(t *testing.T) {
	types := writeTypes(t, testTypes)

	out, err := execute(t, "loot", "--types-file", types, "bag { 30x coin, rune }")
	require.NoError(t, err)
	assert.Contains(t, out, "bag")
	assert.Contains(t, out, "  coin")
	assert.Contains(t, out, "  rune")
}

func TestLootCmd_Check(t *testing.T) {
	types := writeTypes(t, testTypes)
	file := filepath.Join(t.TempDir(), "drop.loot")
	require.NoError(t, os.WriteFile(file, []byte("# goblin\n2x rune\nbag {5x coin}\n"), 0o600))

	out, err := execute(t, "loot", "--types-file", types, "--check", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "2x rune, bag { 5x coin }", strings.TrimSpace(out))
}

func TestLootCmd_Errors(t *testing.T) {
	types := writeTypes(t, testTypes)

	_, err := execute(t, "loot", "--types-file", types, "dragon")
	errutil.AssertErrorCode(t, err, loot.CodeUnknownType)

	_, err = execute(t, "loot", "--types-file", types, "rune { coin }")
	errutil.AssertErrorCode(t, err, loot.CodeNotContainer)

	_, err = execute(t, "loot", "--types-file", types)
	errutil.AssertErrorCode(t, err, "LOOT_ARGS")
}
