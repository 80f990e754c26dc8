// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"github.com/holomush/itemcore/internal/world"
)

// TempHandleBase is the first handle given to items without a unique id.
// It lies above every valid unique id so the two ranges never collide.
const TempHandleBase uint32 = 70000

// Handles translates between items and the numbers scripts hold. Items with
// a unique id are addressed by it; everything else gets a temporary handle
// that is valid until Reset. A handle to a released item resolves to nil.
type Handles struct {
	world  *world.World
	next   uint32
	temp   map[uint32]world.Handle
	byItem map[world.Handle]uint32
}

// NewHandles creates an empty handle table for w.
func NewHandles(w *world.World) *Handles {
	h := &Handles{world: w}
	h.Reset()
	return h
}

// HandleOf returns the script handle of it, allocating a temporary handle
// on first use. Nil items map to 0.
func (h *Handles) HandleOf(it *world.Item) uint32 {
	if it == nil || it.IsRemoved() {
		return 0
	}
	if uid := it.UniqueID(); uid != 0 {
		return uint32(uid)
	}
	if id, ok := h.byItem[it.Handle()]; ok {
		return id
	}
	id := h.next
	h.next++
	h.temp[id] = it.Handle()
	h.byItem[it.Handle()] = id
	return id
}

// Resolve returns the live item behind a script handle, or nil.
func (h *Handles) Resolve(id uint32) *world.Item {
	switch {
	case id >= TempHandleBase:
		ah, ok := h.temp[id]
		if !ok {
			return nil
		}
		return h.world.Item(ah)
	case id >= world.MinUniqueID && id <= world.MaxUniqueID:
		return h.world.ByUniqueID(uint16(id))
	}
	return nil
}

// Len returns the number of temporary handles handed out since Reset.
func (h *Handles) Len() int { return len(h.temp) }

// Reset forgets every temporary handle.
func (h *Handles) Reset() {
	h.next = TempHandleBase
	h.temp = make(map[uint32]world.Handle)
	h.byItem = make(map[world.Handle]uint32)
}
