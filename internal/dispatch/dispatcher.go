// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dispatch serializes every world mutation onto one goroutine. The
// world is not safe for concurrent use; network handlers, timers and the
// saver hand their work to a Dispatcher instead of touching it directly.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/itemcore/pkg/errutil"
)

// Error codes returned by the dispatcher.
const (
	CodeQueueFull = "DISPATCH_QUEUE_FULL"
	CodeStopped   = "DISPATCH_STOPPED"
	CodePanic     = "DISPATCH_PANIC"
	CodeRunning   = "DISPATCH_RUNNING"
	CodeInterval  = "DISPATCH_BAD_INTERVAL"
)

// DefaultQueueSize is the queue capacity when none is configured.
const DefaultQueueSize = 1024

var tracer = otel.Tracer("itemcore/dispatch")

// Func is a unit of engine work. The context is cancelled when the
// dispatcher stops.
type Func func(ctx context.Context) error

type task struct {
	name string
	fn   Func
	link trace.Link
	done chan error
}

type ticker struct {
	name     string
	interval time.Duration
	fn       Func
}

// Dispatcher runs queued tasks one at a time on the goroutine calling Run.
type Dispatcher struct {
	queue   chan task
	logger  *slog.Logger
	tickers []ticker

	mu      sync.RWMutex
	started bool
	stopped bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan task, n)
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a dispatcher. Tasks may be posted before Run starts.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  make(chan task, DefaultQueueSize),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Every registers fn to run on the engine goroutine at every interval.
// Ticks that find the queue full are skipped. Every must be called before
// Run.
func (d *Dispatcher) Every(name string, interval time.Duration, fn Func) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return oops.Code(CodeRunning).With("task", name).Errorf("dispatcher already running")
	}
	if interval <= 0 {
		return oops.Code(CodeInterval).With("task", name).Errorf("tick interval must be positive")
	}
	d.tickers = append(d.tickers, ticker{name: name, interval: interval, fn: fn})
	return nil
}

// Post queues fn without waiting for it.
func (d *Dispatcher) Post(name string, fn Func) error {
	return d.enqueue(task{name: name, fn: fn})
}

// Call queues fn and waits for its result. It must not be called from a
// task, which would deadlock the engine goroutine.
func (d *Dispatcher) Call(ctx context.Context, name string, fn Func) error {
	t := task{
		name: name,
		fn:   fn,
		link: trace.LinkFromContext(ctx),
		done: make(chan error, 1),
	}
	if err := d.enqueue(t); err != nil {
		return err
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return oops.With("task", name).Wrap(ctx.Err())
	}
}

// Len returns the number of queued tasks.
func (d *Dispatcher) Len() int { return len(d.queue) }

func (d *Dispatcher) enqueue(t task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return oops.Code(CodeStopped).With("task", t.name).Errorf("dispatcher stopped")
	}
	select {
	case d.queue <- t:
		QueueDepth.Set(float64(len(d.queue)))
		return nil
	default:
		recordTask(t.name, StatusDropped, 0)
		return oops.Code(CodeQueueFull).With("task", t.name).With("capacity", cap(d.queue)).Errorf("dispatch queue full")
	}
}

// Run executes tasks until ctx is cancelled. Tasks still queued then are
// discarded and their callers receive a stopped error. Run may be called
// once.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return oops.Code(CodeRunning).Errorf("dispatcher already running")
	}
	d.started = true
	tickers := d.tickers
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, tk := range tickers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.tick(ctx, tk)
		}()
	}
	d.logger.Debug("dispatcher running", "queue", cap(d.queue), "tickers", len(tickers))

	for {
		if ctx.Err() != nil {
			d.stop()
			wg.Wait()
			return nil
		}
		select {
		case <-ctx.Done():
		case t := <-d.queue:
			QueueDepth.Set(float64(len(d.queue)))
			d.run(ctx, t)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context, tk ticker) {
	tm := time.NewTicker(tk.interval)
	defer tm.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tm.C:
			if err := d.Post(tk.name, tk.fn); err != nil {
				d.logger.Warn("tick skipped", "task", tk.name, "error", err)
			}
		}
	}
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	dropped := 0
	for {
		select {
		case t := <-d.queue:
			dropped++
			recordTask(t.name, StatusCanceled, 0)
			if t.done != nil {
				t.done <- oops.Code(CodeStopped).With("task", t.name).Errorf("dispatcher stopped")
			}
		default:
			QueueDepth.Set(0)
			if dropped > 0 {
				d.logger.Info("dispatcher stopped with queued tasks", "dropped", dropped)
			}
			return
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, t task) {
	opts := []trace.SpanStartOption{trace.WithAttributes(attribute.String("task.name", t.name))}
	if t.link.SpanContext.IsValid() {
		opts = append(opts, trace.WithLinks(t.link))
	}
	ctx, span := tracer.Start(ctx, "dispatch.task", opts...)
	start := time.Now()

	status := StatusOK
	err := d.invoke(ctx, t)
	switch {
	case errutil.Code(err) == CodePanic:
		status = StatusPanic
	case err != nil:
		status = StatusError
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if t.done == nil {
			d.logger.WarnContext(ctx, "engine task failed", append([]any{"task", t.name}, errutil.Attrs(err)...)...)
		}
	}
	span.End()
	recordTask(t.name, status, time.Since(start))

	if t.done != nil {
		t.done <- err
	}
}

func (d *Dispatcher) invoke(ctx context.Context, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code(CodePanic).With("task", t.name).Errorf("task panicked: %v", r)
		}
	}()
	return t.fn(ctx)
}
