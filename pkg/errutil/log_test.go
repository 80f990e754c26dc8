// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/pkg/errutil"
)

func TestCode(t *testing.T) {
	inner := oops.Code("STORE_CORRUPT").Errorf("bad blob")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: errors.New("plain"), want: ""},
		{name: "oops without code", err: oops.With("k", "v").Errorf("no code")},
		{name: "coded", err: inner, want: "STORE_CORRUPT"},
		{name: "context added outside", err: oops.With("slot", "backpack").Wrap(inner), want: "STORE_CORRUPT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errutil.Code(tt.err))
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("SAVER_QUEUE_FULL").
		With("owner_id", "p1").
		Errorf("save queue is full")
	errutil.LogError(logger, "snapshot dropped", err)

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "snapshot dropped", entry["msg"])
	assert.Equal(t, "SAVER_QUEUE_FULL", entry["code"])
	assert.Equal(t, map[string]any{"owner_id": "p1"}, entry["context"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	entry := decode(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "standard error", entry["error"])
	assert.NotContains(t, entry, "code")
}

func TestLogWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogWarn(logger, "tick skipped", oops.Code("DISPATCH_QUEUE_FULL").Errorf("queue full"))

	entry := decode(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "DISPATCH_QUEUE_FULL", entry["code"])
}
