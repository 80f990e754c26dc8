// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// Flags alter how holders evaluate a query.
type Flags uint32

const (
	// FlagNoLimit bypasses slot and weight limits.
	FlagNoLimit Flags = 1 << iota
	// FlagChildIsOwner marks a query forwarded upward by a nested container
	// that has already validated the request itself.
	FlagChildIsOwner
	// FlagIgnoreNotMovable allows removing items whose type is fixed.
	FlagIgnoreNotMovable
	// FlagIgnoreAutoStack disables merging into existing partial stacks.
	FlagIgnoreAutoStack
	// FlagIgnoreCapacity skips the carry weight check of equipment.
	FlagIgnoreCapacity
)

// Has reports whether all bits of o are set in f.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// Index sentinels understood by Holder.QueryDestination and Holder.QueryAdd.
const (
	// IndexWherever places the thing wherever it fits best.
	IndexWherever = -1
	// IndexMoveUp redirects the destination to the holder of the container.
	IndexMoveUp = 254
	// IndexAutoPlace is the client encoding of IndexWherever.
	IndexAutoPlace = 255
)

// CountAll removes the whole stack in World.RemoveItem.
const CountAll = -1

func isWherever(index int) bool {
	return index == IndexWherever || index == IndexAutoPlace
}
