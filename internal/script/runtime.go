// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package script runs Lua item scripts against the world. Scripts address
// items through handles and may create, move and remove items; they also
// receive add and remove hooks after the engine commits a change.
//
//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package script

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/itemcore/internal/world"
)

// Error codes returned by the runtime.
const (
	CodeState      = "SCRIPT_STATE"
	CodeLoad       = "SCRIPT_LOAD"
	CodeCall       = "SCRIPT_CALL"
	CodeNoFunction = "SCRIPT_NO_FUNCTION"
	CodeClosed     = "SCRIPT_CLOSED"
)

// ErrNilWorld is returned by New when no world is given.
var ErrNilWorld = errors.New("script: world is nil")

// Lua globals called as hooks.
const (
	hookOnAdd    = "on_add"
	hookOnRemove = "on_remove"
)

var _ world.Hook = (*Runtime)(nil)

// scope is what host functions act on during a call.
type scope struct {
	sink   *world.ScriptSink
	actor  *world.Creature
	ground *world.Tile
}

// Runtime owns one sandboxed Lua state bound to a world. It is not safe for
// concurrent use; like the world it runs on the engine goroutine.
type Runtime struct {
	world   *world.World
	handles *Handles
	logger  *slog.Logger
	timeout time.Duration
	libs    []safeLibrary
	L       *lua.LState

	cur    scope
	depth  int
	cancel context.CancelFunc
	swept  int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used by the runtime and the Lua log function.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCallTimeout bounds the run time of every top-level call.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Runtime) { r.timeout = d }
}

// New creates a runtime with a fresh sandboxed state.
func New(w *world.World, opts ...Option) (*Runtime, error) {
	if w == nil {
		return nil, ErrNilWorld
	}
	r := &Runtime{
		world:   w,
		handles: NewHandles(w),
		logger:  slog.Default(),
		libs:    defaultSafeLibraries(),
	}
	for _, opt := range opts {
		opt(r)
	}
	L, err := newState(r.libs)
	if err != nil {
		return nil, err
	}
	r.L = L
	r.register()
	return r, nil
}

// Close releases the Lua state. Hooks arriving later are ignored.
func (r *Runtime) Close() {
	if r.L != nil {
		r.L.Close()
		r.L = nil
	}
}

// Handles returns the runtime's handle table.
func (r *Runtime) Handles() *Handles { return r.handles }

// Global returns the value of a Lua global, or nil once closed.
func (r *Runtime) Global(name string) lua.LValue {
	if r.L == nil {
		return lua.LNil
	}
	return r.L.GetGlobal(name)
}

// Swept returns how many items scripts left unplaced and had released.
func (r *Runtime) Swept() int { return r.swept }

// Load runs a chunk of Lua source, typically defining functions.
func (r *Runtime) Load(ctx context.Context, name, code string) error {
	if r.L == nil {
		return oops.Code(CodeClosed).With("script", name).Errorf("runtime is closed")
	}
	leave := r.enter(ctx, nil, nil)
	defer leave()
	if err := r.L.DoString(code); err != nil {
		return oops.Code(CodeLoad).In("script").With("script", name).Wrap(err)
	}
	return nil
}

// LoadFile runs the Lua file at path.
func (r *Runtime) LoadFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return oops.Code(CodeLoad).In("script").With("path", path).Hint("failed to read script").Wrap(err)
	}
	return r.Load(ctx, filepath.Base(path), string(code))
}

// Call runs the global Lua function fn on behalf of actor, who may be nil.
// Items the script creates but never places are released afterwards.
func (r *Runtime) Call(ctx context.Context, actor *world.Creature, fn string, args ...lua.LValue) error {
	if r.L == nil {
		return oops.Code(CodeClosed).With("function", fn).Errorf("runtime is closed")
	}
	f := r.L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return oops.Code(CodeNoFunction).With("function", fn).Errorf("no Lua function %q", fn)
	}
	var ground *world.Tile
	if actor != nil {
		ground = actor.Tile()
	}
	leave := r.enter(ctx, actor, ground)
	defer leave()
	if err := r.L.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, args...); err != nil {
		return oops.Code(CodeCall).In("script").With("function", fn).Wrap(err)
	}
	return nil
}

// OnAdd implements world.Hook by calling on_add(item, holder_kind).
func (r *Runtime) OnAdd(ev world.HookEvent) { r.hook(hookOnAdd, ev) }

// OnRemove implements world.Hook by calling on_remove(item, holder_kind).
func (r *Runtime) OnRemove(ev world.HookEvent) { r.hook(hookOnRemove, ev) }

func (r *Runtime) hook(name string, ev world.HookEvent) {
	if r.L == nil {
		return
	}
	it, ok := ev.Thing.(*world.Item)
	if !ok {
		return
	}
	f := r.L.GetGlobal(name)
	if f.Type() != lua.LTFunction {
		return
	}

	var (
		kind   string
		actor  *world.Creature
		ground *world.Tile
	)
	switch h := ev.Holder.(type) {
	case *world.Tile:
		kind, ground = "tile", h
	case *world.Equipment:
		kind, actor = "equipment", h.Owner()
		ground = actor.Tile()
	default:
		return
	}

	leave := r.enter(context.Background(), actor, ground)
	defer leave()
	err := r.L.CallByParam(lua.P{Fn: f, NRet: 0, Protect: true}, r.push(it), lua.LString(kind))
	if err != nil {
		r.logger.Warn("script hook failed",
			"hook", name,
			"holder", world.Describe(ev.Holder),
			"depth", ev.Depth,
			"error", err)
	}
}

// enter opens a scope. The outermost scope owns a fresh sink, the temporary
// handles and the call deadline; nested scopes only swap actor and ground.
func (r *Runtime) enter(ctx context.Context, actor *world.Creature, ground *world.Tile) func() {
	prev := r.cur
	if r.depth == 0 {
		r.cur.sink = r.world.NewScriptSink()
		if r.timeout > 0 {
			ctx, r.cancel = context.WithTimeout(ctx, r.timeout)
		}
		r.L.SetContext(ctx)
	}
	r.depth++
	r.cur.actor, r.cur.ground = actor, ground

	return func() {
		r.depth--
		r.cur.actor, r.cur.ground = prev.actor, prev.ground
		if r.depth > 0 {
			return
		}
		if n := r.cur.sink.Sweep(); n > 0 {
			r.swept += n
			r.logger.Debug("released items left unplaced by script", "count", n)
		}
		r.cur.sink = nil
		r.handles.Reset()
		if r.L != nil {
			r.L.RemoveContext()
		}
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
	}
}

func (r *Runtime) push(it *world.Item) lua.LValue {
	if id := r.handles.HandleOf(it); id != 0 {
		return lua.LNumber(id)
	}
	return lua.LNil
}
