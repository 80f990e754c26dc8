// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/itemcore/internal/world"
)

func TestContentIterator(t *testing.T) {
	w := newWorld(t)
	root := mustContainer(t, w, typeBackpack)
	bagA := mustContainer(t, w, typeBag)
	bagB := mustContainer(t, w, typeBag)
	empty := mustContainer(t, w, typeBox)
	rune := mustItem(t, w, typeRune, 1)
	coin := mustItem(t, w, typeCoin, 7)
	apple := mustItem(t, w, typeApple, 2)

	root.AddItemBack(rune)
	root.AddItemBack(bagA.Item())
	root.AddItemBack(empty.Item())
	bagA.AddItemBack(coin)
	bagA.AddItemBack(bagB.Item())
	bagB.AddItemBack(apple)

	ci := root.Iterator()
	var got []*world.Item
	for it, ok := ci.Next(); ok; it, ok = ci.Next() {
		got = append(got, it)
	}
	assert.Equal(t, []*world.Item{rune, bagA.Item(), empty.Item(), coin, bagB.Item(), apple}, got)

	_, ok := ci.Next()
	assert.False(t, ok, "an exhausted iterator stays exhausted")

	assert.Equal(t, 6, root.ItemHoldingCount())
	assert.True(t, root.IsHoldingItem(apple))
	assert.False(t, bagB.IsHoldingItem(coin))
	assert.Equal(t, 7, root.DeepItemTypeCount(typeCoin, world.SubtypeAny))
	assert.Zero(t, root.ItemTypeCount(typeCoin, world.SubtypeAny), "direct count skips nested items")
}

func TestContentIterator_Empty(t *testing.T) {
	w := newWorld(t)
	c := mustContainer(t, w, typeBag)

	_, ok := c.Iterator().Next()
	assert.False(t, ok)
	assert.Zero(t, c.ItemHoldingCount())
}

func TestContainer_ContentsStopsEarly(t *testing.T) {
	w := newWorld(t)
	c := mustContainer(t, w, typeBag)
	for range 3 {
		c.AddItemBack(mustItem(t, w, typeRune, 1))
	}

	seen := 0
	for range c.Contents() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
