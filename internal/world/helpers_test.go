// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/internal/world"
)

const (
	typeCoin     uint16 = 1
	typeBag      uint16 = 2
	typeBackpack uint16 = 3
	typeSword    uint16 = 4
	typeStatue   uint16 = 5
	typeHelmet   uint16 = 6
	typeHalberd  uint16 = 7
	typeApple    uint16 = 8
	typeRune     uint16 = 9
	typeBox      uint16 = 10
	typeAnchor   uint16 = 11
)

func testTypes(t *testing.T) *itemtype.Registry {
	t.Helper()
	reg, err := itemtype.New([]itemtype.Type{
		{ID: typeCoin, Name: "coin", Weight: 0.1, Stackable: true, Pickupable: true},
		{ID: typeBag, Name: "bag", Weight: 8, Pickupable: true, Container: true, Capacity: 8, Slot: itemtype.SlotBackpack},
		{ID: typeBackpack, Name: "backpack", Weight: 18, Pickupable: true, Container: true, Capacity: 20, Slot: itemtype.SlotBackpack},
		{ID: typeSword, Name: "sword", Weight: 35, Pickupable: true, Slot: itemtype.SlotHand},
		{ID: typeStatue, Name: "statue", Weight: 500, Fixed: true},
		{ID: typeHelmet, Name: "helmet", Weight: 30, Pickupable: true, Slot: itemtype.SlotHead},
		{ID: typeHalberd, Name: "halberd", Weight: 90, Pickupable: true, Slot: itemtype.SlotTwoHand},
		{ID: typeApple, Name: "apple", Weight: 1.5, Stackable: true, Pickupable: true},
		{ID: typeRune, Name: "rune", Weight: 0.5, Pickupable: true},
		{ID: typeBox, Name: "box", Weight: 4, Pickupable: true, Container: true, Capacity: 4},
		{ID: typeAnchor, Name: "anchor", Weight: 2, Pickupable: true, Fixed: true},
	})
	require.NoError(t, err)
	return reg
}

func newWorld(t *testing.T, opts ...world.Option) *world.World {
	t.Helper()
	w, err := world.New(testTypes(t), opts...)
	require.NoError(t, err)
	return w
}

func mustItem(t *testing.T, w *world.World, typeID uint16, count int) *world.Item {
	t.Helper()
	it, err := w.CreateItem(typeID, count)
	require.NoError(t, err)
	return it
}

func mustContainer(t *testing.T, w *world.World, typeID uint16) *world.Container {
	t.Helper()
	c := mustItem(t, w, typeID, 1).Container()
	require.NotNil(t, c)
	return c
}

// place adds an unowned item through the two-phase protocol and fails the
// test if the holder refuses it.
func place(t *testing.T, w *world.World, h world.Holder, it *world.Item) {
	t.Helper()
	rest, rv := w.AddItem(h, it, world.IndexWherever, 0, false)
	require.Equal(t, world.NoError, rv)
	require.Zero(t, rest)
}

// recomputeWeight derives the weight of an item from scratch.
func recomputeWeight(it *world.Item) float64 {
	w := it.Type().Weight
	if it.IsStackable() {
		w *= float64(it.Count())
	}
	if c := it.Container(); c != nil {
		for _, child := range c.Items() {
			w += recomputeWeight(child)
		}
	}
	return w
}

// requireWeights checks every container under c against a full recompute.
func requireWeights(t *testing.T, c *world.Container) {
	t.Helper()
	require.InDelta(t, recomputeWeight(c.Item()), c.Weight(), 1e-9, "container %s", world.Describe(c))
	for _, child := range c.Items() {
		if sub := child.Container(); sub != nil {
			requireWeights(t, sub)
		}
	}
}

type recordingObserver struct {
	id   string
	seen []world.Notification
}

func (o *recordingObserver) ObserverID() string { return o.id }

func (o *recordingObserver) Notify(n world.Notification) { o.seen = append(o.seen, n) }

func (o *recordingObserver) kinds() []world.NotifyKind {
	out := make([]world.NotifyKind, 0, len(o.seen))
	for _, n := range o.seen {
		out = append(out, n.Kind)
	}
	return out
}

type countingRecorder struct {
	moves         map[world.ReturnValue]int
	links         map[world.Link]int
	depthExceeded int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		moves: make(map[world.ReturnValue]int),
		links: make(map[world.Link]int),
	}
}

func (r *countingRecorder) RecordMove(rv world.ReturnValue)    { r.moves[rv]++ }
func (r *countingRecorder) RecordNotification(link world.Link) { r.links[link]++ }
func (r *countingRecorder) RecordDepthExceeded()               { r.depthExceeded++ }
