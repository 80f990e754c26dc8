// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/pkg/errutil"
)

// scriptedWriter fails the first failures[owner] writes for an owner.
type scriptedWriter struct {
	mu       sync.Mutex
	failures map[string]int
	fatal    map[string]bool
	calls    map[string]int
	block    chan struct{}
}

func newScriptedWriter() *scriptedWriter {
	return &scriptedWriter{failures: map[string]int{}, fatal: map[string]bool{}, calls: map[string]int{}}
}

func (w *scriptedWriter) SaveBelongings(ctx context.Context, ownerID string, _ map[world.EquipSlot]persist.Node) error {
	if w.block != nil {
		select {
		case <-w.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[ownerID]++
	if w.fatal[ownerID] {
		return oops.Code(CodeOwnerUnknown).Wrap(ErrOwnerUnknown)
	}
	if w.failures[ownerID] > 0 {
		w.failures[ownerID]--
		return errors.New("connection reset")
	}
	return nil
}

func (w *scriptedWriter) callsFor(ownerID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[ownerID]
}

type results struct {
	mu   sync.Mutex
	errs map[string]error
}

func (r *results) record(ownerID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[ownerID] = err
}

func TestSaver_RetriesUntilSaved(t *testing.T) {
	defer goleak.VerifyNone(t)

	writer := newScriptedWriter()
	writer.failures["p1"] = 2
	writer.fatal["p2"] = true
	res := &results{errs: map[string]error{}}

	s := NewSaver(writer, WithRetries(3, time.Millisecond), WithResultFunc(res.record))
	require.NoError(t, s.Enqueue("p1", map[world.EquipSlot]persist.Node{world.SlotHead: helmetNode}))
	require.NoError(t, s.Enqueue("p2", nil))
	require.NoError(t, s.Close(context.Background()))

	assert.NoError(t, res.errs["p1"])
	assert.Equal(t, 3, writer.callsFor("p1"))
	assert.ErrorIs(t, res.errs["p2"], ErrOwnerUnknown)
	assert.Equal(t, 1, writer.callsFor("p2"), "unknown owners are not retried")
}

func TestSaver_GivesUpAfterRetries(t *testing.T) {
	defer goleak.VerifyNone(t)

	writer := newScriptedWriter()
	writer.failures["p1"] = 10
	res := &results{errs: map[string]error{}}

	s := NewSaver(writer, WithRetries(2, time.Millisecond), WithResultFunc(res.record))
	require.NoError(t, s.Enqueue("p1", nil))
	require.NoError(t, s.Close(context.Background()))

	assert.EqualError(t, res.errs["p1"], "connection reset")
	assert.Equal(t, 3, writer.callsFor("p1"))
}

func TestSaver_QueueFullAndClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	writer := newScriptedWriter()
	writer.block = make(chan struct{})
	s := NewSaver(writer, WithQueueSize(1))

	// The worker takes the first job and blocks; the second fills the queue.
	require.NoError(t, s.Enqueue("p1", nil))
	require.Eventually(t, func() bool { return len(s.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, s.Enqueue("p2", nil))
	errutil.AssertErrorCode(t, s.Enqueue("p3", nil), CodeQueueFull)

	close(writer.block)
	require.NoError(t, s.Close(context.Background()))
	errutil.AssertErrorCode(t, s.Enqueue("p4", nil), CodeSaverClosed)
	require.NoError(t, s.Close(context.Background()), "closing twice is fine")
	assert.Equal(t, 1, writer.callsFor("p2"))
}

func TestSaver_CloseHonoursDeadline(t *testing.T) {
	defer goleak.VerifyNone(t)

	writer := newScriptedWriter()
	writer.block = make(chan struct{})
	s := NewSaver(writer)
	require.NoError(t, s.Enqueue("p1", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, writer.callsFor("p1"))
}

func TestSaver_LogsFailureWithCode(t *testing.T) {
	defer goleak.VerifyNone(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	writer := newScriptedWriter()
	writer.fatal["p2"] = true

	s := NewSaver(writer, WithSaverLogger(logger))
	require.NoError(t, s.Enqueue("p2", map[world.EquipSlot]persist.Node{world.SlotHead: helmetNode}))
	require.NoError(t, s.Close(context.Background()))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "one error line expected: %s", buf.String())
	assert.Equal(t, "saving belongings failed", entry["msg"])
	assert.Equal(t, CodeOwnerUnknown, entry["code"])
	assert.Equal(t, "p2", entry["owner_id"])
	assert.Equal(t, float64(1), entry["slots"])
}
