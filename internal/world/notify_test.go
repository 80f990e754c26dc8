// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/world"
)

type mockHook struct {
	mock.Mock
}

func (m *mockHook) OnAdd(ev world.HookEvent)    { m.Called(ev) }
func (m *mockHook) OnRemove(ev world.HookEvent) { m.Called(ev) }

type eventLog struct {
	adds    []world.HookEvent
	removes []world.HookEvent
}

func (l *eventLog) OnAdd(ev world.HookEvent)    { l.adds = append(l.adds, ev) }
func (l *eventLog) OnRemove(ev world.HookEvent) { l.removes = append(l.removes, ev) }

func TestPostNotification_Links(t *testing.T) {
	log := &eventLog{}
	rec := newCountingRecorder()
	w := newWorld(t, world.WithHook(log), world.WithRecorder(rec))
	tile := w.NewTile(world.Position{X: 3, Y: 4, Z: 7})
	outer := mustContainer(t, w, typeBackpack)
	inner := mustContainer(t, w, typeBag)

	place(t, w, tile, outer.Item())
	place(t, w, outer, inner.Item())
	rune := mustItem(t, w, typeRune, 1)
	place(t, w, inner, rune)

	require.Len(t, log.adds, 3)
	assert.Equal(t, world.LinkOwner, log.adds[0].Link, "direct tile add")
	assert.Equal(t, world.LinkNear, log.adds[1].Link, "add inside a container on the tile")
	assert.Equal(t, world.LinkNear, log.adds[2].Link, "nested adds climb to the tile")
	for _, ev := range log.adds {
		assert.Equal(t, world.Holder(tile), ev.Holder)
		assert.Equal(t, 1, ev.Depth)
	}
	assert.Same(t, rune, log.adds[2].Thing)
	assert.Equal(t, 1, rec.links[world.LinkOwner])
	assert.Equal(t, 2, rec.links[world.LinkNear])

	require.Equal(t, world.NoError, w.RemoveItem(rune, world.CountAll, 0, false))
	require.Len(t, log.removes, 1)
	assert.Equal(t, world.LinkNear, log.removes[0].Link)
}

func TestPostNotification_CarriedItemsReachTheCreature(t *testing.T) {
	hook := &mockHook{}
	w := newWorld(t, world.WithHook(hook))
	tile := w.NewTile(world.Position{})
	c := w.NewCreature("p1", "Ann", 500)
	tile.AddThing(world.IndexWherever, c)
	bp := mustContainer(t, w, typeBag)
	require.NoError(t, c.Equipment().Restore(world.SlotBackpack, bp.Item()))

	rune := mustItem(t, w, typeRune, 1)
	hook.On("OnAdd", mock.MatchedBy(func(ev world.HookEvent) bool {
		return ev.Link == world.LinkTopParent && ev.Holder == world.Holder(c.Equipment()) && ev.Thing == world.Thing(rune)
	})).Once()
	place(t, w, bp, rune)

	helmet := mustItem(t, w, typeHelmet, 1)
	hook.On("OnAdd", mock.MatchedBy(func(ev world.HookEvent) bool {
		return ev.Link == world.LinkOwner && ev.Index == int(world.SlotHead)
	})).Once()
	_, rv := w.AddItem(c.Equipment(), helmet, world.IndexWherever, 0, false)
	require.Equal(t, world.NoError, rv)

	hook.AssertExpectations(t)
}

// bounceHook moves every item that lands on one tile to the other tile
// until it runs out of moves.
type bounceHook struct {
	w         *world.World
	a, b      *world.Tile
	remaining int
	maxDepth  int
}

func (h *bounceHook) OnAdd(ev world.HookEvent) {
	h.maxDepth = max(h.maxDepth, ev.Depth)
	it, ok := ev.Thing.(*world.Item)
	if !ok || h.remaining == 0 {
		return
	}
	h.remaining--
	to := h.a
	if ev.Holder == world.Holder(h.a) {
		to = h.b
	}
	h.w.MoveItem(ev.Holder, to, world.IndexWherever, it, it.Count(), 0, nil)
}

func (h *bounceHook) OnRemove(ev world.HookEvent) {
	h.maxDepth = max(h.maxDepth, ev.Depth)
}

func TestPostNotification_ReentrantChainsAreReportedNotCut(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	rec := newCountingRecorder()
	w := newWorld(t, world.WithRecorder(rec), world.WithNotifyDepthWarn(3), world.WithLogger(logger))
	a := w.NewTile(world.Position{X: 1})
	b := w.NewTile(world.Position{X: 2})
	coins := mustItem(t, w, typeCoin, 10)
	place(t, w, a, coins)

	hook := &bounceHook{w: w, a: a, b: b, remaining: 4}
	w.AddHook(hook)

	_, rv := w.MoveItem(a, b, world.IndexWherever, coins, 10, 0, nil)
	require.Equal(t, world.NoError, rv)

	assert.Zero(t, hook.remaining)
	assert.Equal(t, 5, rec.moves[world.NoError])
	assert.Equal(t, 5, hook.maxDepth)
	assert.Equal(t, 4, rec.depthExceeded)
	assert.Equal(t, world.Holder(b), coins.Parent())
	assert.Contains(t, buf.String(), "hook nesting exceeds warning depth")
}

func TestSpectators_Override(t *testing.T) {
	watcher := &recordingObserver{id: "camera"}
	w := newWorld(t, world.WithSpectators(world.SpectatorsFunc(func(*world.Tile) []world.Observer {
		return []world.Observer{watcher}
	})))
	tile := w.NewTile(world.Position{X: 5})
	coins := mustItem(t, w, typeCoin, 3)
	place(t, w, tile, coins)

	require.Len(t, watcher.seen, 1)
	n := watcher.seen[0]
	assert.Equal(t, world.NotifyAdd, n.Kind)
	assert.Equal(t, typeCoin, n.TypeID)
	assert.Equal(t, 3, n.Count)
	assert.Equal(t, coins.Serial(), n.Serial)
	assert.Equal(t, 0, n.Index)
}

type funcObserver func(world.Notification)

func (funcObserver) ObserverID() string { return "func" }

func (f funcObserver) Notify(n world.Notification) { f(n) }

func TestDeliver_RemovalIsCommittedFirst(t *testing.T) {
	w := newWorld(t)
	tile := w.NewTile(world.Position{X: 1, Y: 1, Z: 7})
	c := w.NewCreature("p1", "Ann", 500)
	tile.AddThing(world.IndexWherever, c)
	bp := mustContainer(t, w, typeBackpack)
	require.NoError(t, c.Equipment().Restore(world.SlotBackpack, bp.Item()))

	var (
		current  *world.Item
		from     world.Holder
		observed int
	)
	c.SetObserver(funcObserver(func(n world.Notification) {
		if n.Kind != world.NotifyRemove || current == nil {
			return
		}
		observed++
		assert.Nil(t, current.Parent(), "parent is cleared before observers run")
		assert.Negative(t, from.IndexOf(current), "holder no longer lists the item")
	}))

	helmet := mustItem(t, w, typeHelmet, 1)
	rune := mustItem(t, w, typeRune, 1)
	apple := mustItem(t, w, typeApple, 3)
	place(t, w, c.Equipment(), helmet)
	place(t, w, bp, rune)
	place(t, w, tile, apple)
	require.Same(t, helmet, c.Equipment().SlotItem(world.SlotHead))

	for _, tc := range []struct {
		it *world.Item
		h  world.Holder
	}{
		{helmet, c.Equipment()},
		{rune, bp},
		{apple, tile},
	} {
		current, from = tc.it, tc.h
		require.Equal(t, world.NoError, w.RemoveItem(tc.it, world.CountAll, 0, false))
	}
	assert.Equal(t, 3, observed)
}
