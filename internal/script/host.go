// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/itemcore/internal/world"
)

// Holder names scripts may pass instead of a container handle.
const (
	HolderActor  = "actor"
	HolderGround = "ground"
)

func (r *Runtime) register() {
	for name, fn := range map[string]lua.LGFunction{
		"create_item": r.createItem,
		"place":       r.place,
		"move":        r.move,
		"remove":      r.remove,
		"count":       r.count,
		"size":        r.size,
		"item_at":     r.itemAt,
		"info":        r.info,
		"holder_of":   r.holderOf,
		"log":         r.log,
	} {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

// pushError pushes nil and a message, the usual failure return.
func pushError(L *lua.LState, msg string) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(msg))
	return 2
}

func (r *Runtime) pushResult(L *lua.LState, rv world.ReturnValue, it *world.Item) int {
	L.Push(lua.LString(rv.String()))
	if rv.OK() && it != nil {
		L.Push(r.push(it))
	} else {
		L.Push(lua.LNil)
	}
	return 2
}

func (r *Runtime) itemArg(L *lua.LState, n int) *world.Item {
	v, ok := L.Get(n).(lua.LNumber)
	if !ok || v < 0 || v > math.MaxUint32 {
		return nil
	}
	return r.handles.Resolve(uint32(v))
}

func (r *Runtime) holderArg(L *lua.LState, n int) world.Holder {
	switch v := L.Get(n).(type) {
	case lua.LString:
		switch string(v) {
		case HolderActor:
			if r.cur.actor != nil {
				return r.cur.actor.Equipment()
			}
		case HolderGround:
			if r.cur.ground != nil {
				return r.cur.ground
			}
		}
	case lua.LNumber:
		if it := r.itemArg(L, n); it != nil {
			if c := it.Container(); c != nil {
				return c
			}
		}
	}
	return nil
}

// create_item(type [, count]) -> handle | nil, err
func (r *Runtime) createItem(L *lua.LState) int {
	typeID := L.CheckInt(1)
	count := L.OptInt(2, 1)
	if typeID <= 0 || typeID > math.MaxUint16 {
		return pushError(L, "invalid item type")
	}
	it, err := r.world.CreateItem(uint16(typeID), count)
	if err != nil {
		return pushError(L, err.Error())
	}
	r.cur.sink.Adopt(it)
	L.Push(r.push(it))
	L.Push(lua.LNil)
	return 2
}

// place(item, holder [, index]) -> result, handle
func (r *Runtime) place(L *lua.LState) int {
	it := r.itemArg(L, 1)
	if it == nil {
		return pushError(L, "unknown item")
	}
	if it.Parent() != world.Holder(r.cur.sink) {
		return pushError(L, "item is already placed")
	}
	to := r.holderArg(L, 2)
	if to == nil {
		return pushError(L, "unknown holder")
	}
	moved, rv := r.world.MoveItem(r.cur.sink, to, L.OptInt(3, world.IndexWherever), it, it.Count(), 0, r.cur.actor)
	return r.pushResult(L, rv, moved)
}

// move(item, holder [, index [, count]]) -> result, handle
func (r *Runtime) move(L *lua.LState) int {
	it := r.itemArg(L, 1)
	if it == nil {
		return pushError(L, "unknown item")
	}
	to := r.holderArg(L, 2)
	if to == nil {
		return pushError(L, "unknown holder")
	}
	index := L.OptInt(3, world.IndexWherever)
	count := L.OptInt(4, it.Count())
	moved, rv := r.world.MoveItem(it.Parent(), to, index, it, count, 0, r.cur.actor)
	return r.pushResult(L, rv, moved)
}

// remove(item [, count]) -> result
func (r *Runtime) remove(L *lua.LState) int {
	it := r.itemArg(L, 1)
	if it == nil {
		return pushError(L, "unknown item")
	}
	rv := r.world.RemoveItem(it, L.OptInt(2, world.CountAll), 0, false)
	L.Push(lua.LString(rv.String()))
	return 1
}

// count(holder, type) -> number
func (r *Runtime) count(L *lua.LState) int {
	h := r.holderArg(L, 1)
	typeID := L.CheckInt(2)
	if h == nil || typeID <= 0 || typeID > math.MaxUint16 {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(h.ItemTypeCount(uint16(typeID), world.SubtypeAny)))
	return 1
}

// size(holder) -> number of things directly inside
func (r *Runtime) size(L *lua.LState) int {
	h := r.holderArg(L, 1)
	n := 0
	if h != nil {
		for i := h.FirstIndex(); i < h.LastIndex(); i++ {
			if h.ThingAt(i) != nil {
				n++
			}
		}
	}
	L.Push(lua.LNumber(n))
	return 1
}

// item_at(holder, index) -> handle | nil
func (r *Runtime) itemAt(L *lua.LState) int {
	h := r.holderArg(L, 1)
	index := L.CheckInt(2)
	if h == nil {
		L.Push(lua.LNil)
		return 1
	}
	if it, ok := h.ThingAt(index).(*world.Item); ok {
		L.Push(r.push(it))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

// info(item) -> table | nil
func (r *Runtime) info(L *lua.LState) int {
	it := r.itemArg(L, 1)
	if it == nil {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	L.SetField(t, "type", lua.LNumber(it.TypeID()))
	L.SetField(t, "name", lua.LString(it.Type().Name))
	L.SetField(t, "count", lua.LNumber(it.Count()))
	L.SetField(t, "uid", lua.LNumber(it.UniqueID()))
	L.SetField(t, "aid", lua.LNumber(it.ActionID()))
	L.SetField(t, "weight", lua.LNumber(it.Weight()))
	if c := it.Container(); c != nil {
		L.SetField(t, "container", lua.LTrue)
		L.SetField(t, "size", lua.LNumber(c.Size()))
		L.SetField(t, "capacity", lua.LNumber(c.Capacity()))
	} else {
		L.SetField(t, "container", lua.LFalse)
	}
	L.Push(t)
	return 1
}

// holder_of(item) -> description, container handle | nil
func (r *Runtime) holderOf(L *lua.LState) int {
	it := r.itemArg(L, 1)
	if it == nil {
		return pushError(L, "unknown item")
	}
	p := it.Parent()
	L.Push(lua.LString(world.Describe(p)))
	if c, ok := p.(*world.Container); ok {
		L.Push(r.push(c.Item()))
	} else {
		L.Push(lua.LNil)
	}
	return 2
}

// log(level, message)
func (r *Runtime) log(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	logger := r.logger.With("source", "lua")
	switch level {
	case "debug":
		logger.Debug(msg)
	case "warn":
		logger.Warn(msg)
	case "error":
		logger.Error(msg)
	default:
		logger.Info(msg)
	}
	return 0
}
