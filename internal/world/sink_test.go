// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/world"
)

func TestScriptSink(t *testing.T) {
	w := newWorld(t)
	tile := w.NewTile(world.Position{X: 1, Y: 1})
	sink := w.NewScriptSink()

	apple := mustItem(t, w, typeApple, 5)
	sink.Adopt(apple)
	assert.Equal(t, 1, sink.Len())
	assert.Equal(t, world.Holder(sink), apple.Parent())
	assert.Equal(t, "sink", world.Describe(sink))

	_, rv := w.AddItem(sink, mustItem(t, w, typeRune, 1), world.IndexWherever, 0, false)
	assert.Equal(t, world.NotPossible, rv, "sinks refuse regular adds")

	moved, rv := w.MoveItem(sink, tile, world.IndexWherever, apple, 5, 0, nil)
	require.Equal(t, world.NoError, rv)
	assert.Same(t, apple, moved)
	assert.Zero(t, sink.Len())
	assert.Equal(t, world.Holder(tile), apple.Parent())

	bag := mustContainer(t, w, typeBag)
	place(t, w, bag, mustItem(t, w, typeRune, 1))
	sink.Adopt(bag.Item())
	sink.Adopt(mustItem(t, w, typeCoin, 7))
	before := w.Len()

	assert.Equal(t, 2, sink.Sweep())
	assert.Zero(t, sink.Len())
	assert.Equal(t, before-3, w.Len(), "contents are released with their container")
	assert.True(t, bag.Item().IsRemoved())
	assert.False(t, apple.IsRemoved())
}

func TestScriptSink_PartialMoveKeepsRemainder(t *testing.T) {
	w := newWorld(t)
	tile := w.NewTile(world.Position{})
	sink := w.NewScriptSink()
	coins := mustItem(t, w, typeCoin, 50)
	sink.Adopt(coins)

	moved, rv := w.MoveItem(sink, tile, world.IndexWherever, coins, 20, 0, nil)
	require.Equal(t, world.NoError, rv)
	assert.NotSame(t, coins, moved)
	assert.Equal(t, 20, moved.Count())
	assert.Equal(t, 30, coins.Count())
	assert.Equal(t, 1, sink.Len())
}
