// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package world implements object containment: items, the holders that own
// them, and the two-phase move transactions every item change goes through.
//
// All state is owned by a single goroutine (the dispatcher). Nothing in this
// package locks; background work must operate on detached snapshots.
package world

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/itemtype"
)

// Error codes for item lifecycle failures.
const (
	CodeUnknownType  = "WORLD_UNKNOWN_TYPE"
	CodeBadCount     = "WORLD_BAD_COUNT"
	CodeUniqueRange  = "WORLD_UNIQUE_ID_RANGE"
	CodeUniqueTaken  = "WORLD_UNIQUE_ID_TAKEN"
	CodeBadSlot      = "WORLD_BAD_SLOT"
	CodeSlotOccupied = "WORLD_SLOT_OCCUPIED"
	CodeItemHeld     = "WORLD_ITEM_HELD"
)

// Unique id bounds.
const (
	MinUniqueID = 1000
	MaxUniqueID = 65535
)

// Defaults applied by New.
const (
	DefaultMaxTileItems    = 1000
	DefaultNotifyDepthWarn = 16
)

// ErrNilRegistry is returned by New when no type registry is supplied.
var ErrNilRegistry = errors.New("type registry is required")

// Handle is the stable arena address of an item. A handle stops resolving
// once its item is released, even if the slot is reused.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h was never assigned.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.index, h.gen)
}

type arenaSlot struct {
	item *Item
	gen  uint32
}

// World owns every live item and the collaborators notified about changes.
type World struct {
	types      *itemtype.Registry
	logger     *slog.Logger
	recorder   Recorder
	spectators Spectators
	hooks      []Hook

	slots   []arenaSlot
	free    []uint32
	live    int
	uniques map[uint16]*Item
	entropy io.Reader

	maxTileItems    int
	notifyDepthWarn int
	depth           int
}

// Option configures a World during construction.
type Option func(*World)

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		w.logger = l
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(w *World) {
		w.recorder = r
	}
}

// WithSpectators replaces the default spectator query, which returns the
// observers of creatures standing on the tile.
func WithSpectators(s Spectators) Option {
	return func(w *World) {
		w.spectators = s
	}
}

// WithHook registers a rule hook run after every committed change that
// reaches a tile or a creature.
func WithHook(h Hook) Option {
	return func(w *World) {
		w.hooks = append(w.hooks, h)
	}
}

// WithMaxTileItems bounds the number of items one tile can hold.
func WithMaxTileItems(n int) Option {
	return func(w *World) {
		w.maxTileItems = n
	}
}

// WithNotifyDepthWarn sets the hook nesting depth past which a warning is logged.
func WithNotifyDepthWarn(n int) Option {
	return func(w *World) {
		w.notifyDepthWarn = n
	}
}

// WithEntropy sets the entropy source for item serials.
func WithEntropy(r io.Reader) Option {
	return func(w *World) {
		w.entropy = r
	}
}

// New creates an empty world backed by the given type registry.
func New(types *itemtype.Registry, opts ...Option) (*World, error) {
	if types == nil {
		return nil, ErrNilRegistry
	}
	w := &World{
		types:           types,
		logger:          slog.Default(),
		recorder:        nopRecorder{},
		uniques:         make(map[uint16]*Item),
		maxTileItems:    DefaultMaxTileItems,
		notifyDepthWarn: DefaultNotifyDepthWarn,
	}
	w.spectators = tileSpectators{}
	for _, opt := range opts {
		opt(w)
	}
	if w.entropy == nil {
		w.entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return w, nil
}

// AddHook registers a rule hook after construction.
func (w *World) AddHook(h Hook) {
	w.hooks = append(w.hooks, h)
}

// Types returns the type registry.
func (w *World) Types() *itemtype.Registry {
	return w.types
}

// Logger returns the engine logger.
func (w *World) Logger() *slog.Logger {
	return w.logger
}

// Len returns the number of live items.
func (w *World) Len() int {
	return w.live
}

// Item resolves a handle. It returns nil for released or unknown handles.
func (w *World) Item(h Handle) *Item {
	if h.IsZero() || int(h.index) >= len(w.slots) {
		return nil
	}
	s := w.slots[h.index]
	if s.gen != h.gen {
		return nil
	}
	return s.item
}

// ByUniqueID returns the live item carrying a unique id, or nil.
func (w *World) ByUniqueID(id uint16) *Item {
	return w.uniques[id]
}

// CreateItem creates an unowned item. Count is the stack size for stackable
// types and is ignored otherwise.
func (w *World) CreateItem(typeID uint16, count int) (*Item, error) {
	return w.CreateItemWithSerial(typeID, count, ulid.ULID{})
}

// CreateItemWithSerial creates an unowned item with a known serial. A zero
// serial is replaced by a fresh one.
func (w *World) CreateItemWithSerial(typeID uint16, count int, serial ulid.ULID) (*Item, error) {
	t := w.types.Get(typeID)
	if t == nil {
		return nil, oops.Code(CodeUnknownType).With("type_id", typeID).Errorf("unknown item type %d", typeID)
	}
	if !t.Stackable {
		count = 1
	} else if count < 1 || count > itemtype.MaxStack {
		return nil, oops.Code(CodeBadCount).
			With("type_id", typeID).
			With("count", count).
			Errorf("stack count %d out of range", count)
	}
	if serial.IsZero() {
		serial = w.newSerial()
	}
	it := &Item{world: w, typ: t, count: count, serial: serial}
	if t.Container {
		it.container = newContainer(it, t.Capacity)
	}
	w.alloc(it)
	return it, nil
}

// CreateContainer creates an unowned container with an explicit capacity.
func (w *World) CreateContainer(typeID uint16, capacity int) (*Container, error) {
	it, err := w.CreateItem(typeID, 1)
	if err != nil {
		return nil, err
	}
	if it.container == nil {
		w.Release(it)
		return nil, oops.Code(CodeUnknownType).With("type_id", typeID).Errorf("type %d is not a container", typeID)
	}
	if capacity > 0 {
		it.container.capacity = capacity
	}
	return it.container, nil
}

// Clone creates an unowned copy of it, including container contents.
// Unique ids are not copied.
func (w *World) Clone(it *Item) *Item {
	c := &Item{
		world:    w,
		typ:      it.typ,
		count:    it.count,
		actionID: it.actionID,
		serial:   w.newSerial(),
	}
	if it.container != nil {
		c.container = newContainer(c, it.container.capacity)
		for _, child := range it.container.children {
			c.container.AddItemBack(w.Clone(child))
		}
	}
	w.alloc(c)
	return c
}

// Release destroys an item. It is detached from its holder first, then its
// unique id is freed and container contents are released recursively.
// Releasing an already released item does nothing.
func (w *World) Release(it *Item) {
	if it == nil || it.removed {
		return
	}
	if p := it.parent; p != nil {
		p.RemoveThing(it, it.count)
		it.parent = nil
	}
	w.destroy(it)
}

func (w *World) destroy(it *Item) {
	if c := it.container; c != nil {
		for _, child := range c.children {
			child.parent = nil
			w.destroy(child)
		}
		c.children = nil
		c.weight = it.baseWeight()
	}
	if it.uniqueID != 0 {
		delete(w.uniques, it.uniqueID)
	}
	it.removed = true
	s := &w.slots[it.handle.index]
	s.item = nil
	s.gen++
	w.free = append(w.free, it.handle.index)
	w.live--
}

func (w *World) alloc(it *Item) {
	if n := len(w.free); n > 0 {
		idx := w.free[n-1]
		w.free = w.free[:n-1]
		s := &w.slots[idx]
		s.item = it
		it.handle = Handle{index: idx, gen: s.gen}
	} else {
		w.slots = append(w.slots, arenaSlot{item: it, gen: 1})
		it.handle = Handle{index: uint32(len(w.slots) - 1), gen: 1}
	}
	w.live++
}

func (w *World) newSerial() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), w.entropy)
}
