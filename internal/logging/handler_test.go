// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/itemcore/pkg/errutil"
)

func newBuffered(t *testing.T, format string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, closer, err := New(Options{Service: "itemcore", Version: "1.0.0", Format: format, Writer: &buf})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer.Close() })
	return logger, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "not one JSON line: %s", buf.String())
	return entry
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", ""} {
		t.Run("json/"+format, func(t *testing.T) {
			logger, buf := newBuffered(t, format)
			logger.Info("item moved", "serial", "01J0")

			entry := decode(t, buf)
			assert.Equal(t, "item moved", entry["msg"])
			assert.Equal(t, "itemcore", entry["service"])
			assert.Equal(t, "1.0.0", entry["version"])
			assert.Equal(t, "01J0", entry["serial"])
		})
	}

	logger, buf := newBuffered(t, "text")
	logger.Info("item moved")
	assert.Contains(t, buf.String(), "msg=\"item moved\"")
	assert.Contains(t, buf.String(), "service=itemcore")
}

func TestNew_TraceContext(t *testing.T) {
	logger, buf := newBuffered(t, "json")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "traced")
	entry := decode(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])

	buf.Reset()
	logger.With("task", "tick").WithGroup("hook").InfoContext(context.Background(), "untraced", "depth", 2)
	entry = decode(t, buf)
	assert.NotContains(t, entry, "trace_id")
	assert.Equal(t, "tick", entry["task"])
	assert.Equal(t, map[string]any{"depth": float64(2)}, entry["hook"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	errutil.AssertErrorCode(t, err, CodeBadLevel)
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itemcore.log")
	logger, closer, err := New(Options{
		Service: "itemcore",
		Version: "1.0.0",
		Level:   "info",
		File:    path,
	})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("saved", "owner", "p1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry), "one JSON line expected: %s", data)
	assert.Equal(t, "saved", entry["msg"])
	assert.Equal(t, "p1", entry["owner"])
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	errutil.AssertErrorCode(t, err, CodeBadLevel)
}
