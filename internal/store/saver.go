// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/pkg/errutil"
)

// Saver error codes.
const (
	CodeQueueFull   = "SAVER_QUEUE_FULL"
	CodeSaverClosed = "SAVER_CLOSED"
)

// Saver defaults.
const (
	DefaultQueueSize  = 256
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 50 * time.Millisecond
	DefaultMaxDelay   = 2 * time.Second
)

// BelongingsWriter persists one owner's belongings.
type BelongingsWriter interface {
	SaveBelongings(ctx context.Context, ownerID string, roots map[world.EquipSlot]persist.Node) error
}

type saveJob struct {
	ownerID string
	roots   map[world.EquipSlot]persist.Node
}

// Saver writes snapshots in the background. It never touches the live
// world; callers hand it detached snapshots taken on the engine goroutine.
type Saver struct {
	writer     BelongingsWriter
	logger     *slog.Logger
	queueSize  int
	maxRetries uint64
	baseDelay  time.Duration
	maxDelay   time.Duration
	onResult   func(ownerID string, err error)

	mu     sync.Mutex
	closed bool
	queue  chan saveJob
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// SaverOption configures a Saver.
type SaverOption func(*Saver)

// WithQueueSize bounds how many snapshots may wait to be written.
func WithQueueSize(n int) SaverOption {
	return func(s *Saver) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithRetries sets how often a failed write is retried and the first delay.
func WithRetries(n uint64, base time.Duration) SaverOption {
	return func(s *Saver) {
		s.maxRetries = n
		if base > 0 {
			s.baseDelay = base
		}
	}
}

// WithSaverLogger sets the logger.
func WithSaverLogger(l *slog.Logger) SaverOption {
	return func(s *Saver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResultFunc registers a callback run on the saver goroutine after each
// snapshot is written or given up on.
func WithResultFunc(fn func(ownerID string, err error)) SaverOption {
	return func(s *Saver) { s.onResult = fn }
}

// NewSaver starts a background saver.
func NewSaver(writer BelongingsWriter, opts ...SaverOption) *Saver {
	s := &Saver{
		writer:     writer,
		logger:     slog.Default(),
		queueSize:  DefaultQueueSize,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.queue = make(chan saveJob, s.queueSize)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.run()
	return s
}

// Enqueue schedules a snapshot for writing. It never blocks.
func (s *Saver) Enqueue(ownerID string, roots map[world.EquipSlot]persist.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return oops.Code(CodeSaverClosed).With("owner_id", ownerID).Errorf("saver is closed")
	}
	select {
	case s.queue <- saveJob{ownerID: ownerID, roots: roots}:
		return nil
	default:
		return oops.Code(CodeQueueFull).
			With("owner_id", ownerID).
			With("queue_size", s.queueSize).
			Errorf("save queue is full")
	}
}

// Close stops accepting snapshots and waits until the queue is drained.
// If ctx ends first, in-flight retries are abandoned and ctx.Err() is
// returned once the worker has exited.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}

func (s *Saver) run() {
	defer close(s.done)
	for job := range s.queue {
		err := s.save(job)
		if err != nil {
			errutil.LogError(s.logger.With("owner_id", job.ownerID, "slots", len(job.roots)),
				"saving belongings failed", err)
		}
		if s.onResult != nil {
			s.onResult(job.ownerID, err)
		}
	}
}

func (s *Saver) save(job saveJob) error {
	b := retry.NewExponential(s.baseDelay)
	b = retry.WithCappedDuration(s.maxDelay, b)
	b = retry.WithMaxRetries(s.maxRetries, b)

	attempt := 0
	return retry.Do(s.ctx, b, func(ctx context.Context) error {
		attempt++
		err := s.writer.SaveBelongings(ctx, job.ownerID, job.roots)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrOwnerUnknown):
			return err
		default:
			errutil.LogWarn(s.logger.With("owner_id", job.ownerID, "attempt", attempt),
				"saving belongings, retrying", err)
			return retry.RetryableError(err)
		}
	})
}
