// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package core runs the item engine for logged-in players. All world access
// happens in tasks on a dispatch.Dispatcher; the exported methods are safe
// to call from any goroutine except from inside such a task.
package core

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/itemcore/internal/dispatch"
	"github.com/holomush/itemcore/internal/loot"
	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/script"
	"github.com/holomush/itemcore/internal/world"
	"github.com/holomush/itemcore/pkg/errutil"
)

// Error codes returned by the engine.
const (
	CodeAlreadyOnline = "CORE_ALREADY_ONLINE"
	CodeNotOnline     = "CORE_NOT_ONLINE"
	CodeNoScript      = "CORE_NO_SCRIPT"
	CodeEmptyPlayer   = "CORE_EMPTY_PLAYER"
)

// DefaultCapacity is the carry capacity of a new player.
const DefaultCapacity = 400

// Lua function called on every engine tick, if defined.
const tickFunction = "on_tick"

// ObserverFactory creates the observer that receives a player's
// notifications.
type ObserverFactory func(playerID string) (world.Observer, error)

// Engine owns the world and the players in it.
type Engine struct {
	world     *world.World
	tasks     *dispatch.Dispatcher
	store     Belongings
	saves     SaveQueue
	observers ObserverFactory
	script    *script.Runtime
	capacity  float64
	logger    *slog.Logger

	sessions map[string]*session
	tiles    map[world.Position]*world.Tile
}

// Option configures an Engine.
type Option func(*Engine)

// WithSaveQueue sends snapshots to q instead of writing nothing.
func WithSaveQueue(q SaveQueue) Option {
	return func(e *Engine) { e.saves = q }
}

// WithObservers attaches an observer to every player at login.
func WithObservers(f ObserverFactory) Option {
	return func(e *Engine) { e.observers = f }
}

// WithScript runs Lua calls and ticks on rt.
func WithScript(rt *script.Runtime) Option {
	return func(e *Engine) { e.script = rt }
}

// WithCapacity sets the carry capacity of new players.
func WithCapacity(c float64) Option {
	return func(e *Engine) { e.capacity = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine for w. Tasks run on d; belongings load from
// store.
func NewEngine(w *world.World, d *dispatch.Dispatcher, store Belongings, opts ...Option) *Engine {
	e := &Engine{
		world:    w,
		tasks:    d,
		store:    store,
		capacity: DefaultCapacity,
		logger:   slog.Default(),
		sessions: make(map[string]*session),
		tiles:    make(map[world.Position]*world.Tile),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schedule registers the periodic save and tick tasks. Call it before the
// dispatcher runs.
func (e *Engine) Schedule(saveEvery, tickEvery time.Duration) error {
	if err := e.tasks.Every("save_all", saveEvery, func(ctx context.Context) error {
		_, err := e.saveAll(ctx)
		return err
	}); err != nil {
		return err
	}
	return e.tasks.Every("tick", tickEvery, e.tick)
}

func (e *Engine) tile(pos world.Position) *world.Tile {
	t, ok := e.tiles[pos]
	if !ok {
		t = e.world.NewTile(pos)
		e.tiles[pos] = t
	}
	return t
}

func (e *Engine) lookup(id string) (*session, error) {
	s, ok := e.sessions[id]
	if !ok {
		return nil, oops.Code(CodeNotOnline).With("player_id", id).Errorf("player %q is not online", id)
	}
	return s, nil
}

// Login loads a player's belongings and places the player at pos.
func (e *Engine) Login(ctx context.Context, id, name string, pos world.Position) error {
	if id == "" {
		return oops.Code(CodeEmptyPlayer).Errorf("player id is required")
	}
	if err := e.store.EnsureOwner(ctx, id, name); err != nil {
		return err
	}
	roots, err := e.store.LoadBelongings(ctx, id)
	if err != nil {
		return err
	}

	return e.tasks.Call(ctx, "login", func(context.Context) error {
		if _, ok := e.sessions[id]; ok {
			return oops.Code(CodeAlreadyOnline).With("player_id", id).Errorf("player %q is already online", id)
		}
		c := e.world.NewCreature(id, name, e.capacity)
		if err := persist.RestoreEquipment(e.world, c.Equipment(), roots); err != nil {
			e.releaseWorn(c)
			return oops.With("player_id", id).Wrap(err)
		}
		if e.observers != nil {
			obs, err := e.observers(id)
			if err != nil {
				e.releaseWorn(c)
				return err
			}
			c.SetObserver(obs)
		}
		e.tile(pos).AddThing(world.IndexWherever, c)
		e.sessions[id] = &session{id: id, name: name, creature: c, since: time.Now()}
		e.logger.Info("player logged in", "player_id", id, "position", pos.String(), "slots", len(roots))
		return nil
	})
}

// Logout saves a player's belongings and removes the player from the world.
func (e *Engine) Logout(ctx context.Context, id string) error {
	var roots map[world.EquipSlot]persist.Node
	err := e.tasks.Call(ctx, "logout", func(context.Context) error {
		s, err := e.lookup(id)
		if err != nil {
			return err
		}
		roots = persist.SnapshotEquipment(s.creature.Equipment())
		s.creature.SetObserver(nil)
		s.creature.Remove()
		e.releaseWorn(s.creature)
		delete(e.sessions, id)
		e.logger.Info("player logged out", "player_id", id, "slots", len(roots))
		return nil
	})
	if err != nil {
		return err
	}
	if e.saves == nil {
		return nil
	}
	return e.saves.Enqueue(id, roots)
}

func (e *Engine) releaseWorn(c *world.Creature) {
	eq := c.Equipment()
	for _, s := range world.Slots() {
		if it := eq.SlotItem(s); it != nil {
			e.world.Release(it)
		}
	}
}

// SaveAll queues a snapshot of every online player and returns how many
// were queued.
func (e *Engine) SaveAll(ctx context.Context) (int, error) {
	var n int
	err := e.tasks.Call(ctx, "save_all", func(ctx context.Context) error {
		var err error
		n, err = e.saveAll(ctx)
		return err
	})
	return n, err
}

func (e *Engine) saveAll(context.Context) (int, error) {
	if e.saves == nil {
		return 0, nil
	}
	n := 0
	var firstErr error
	for id, s := range e.sessions {
		if err := e.saves.Enqueue(id, persist.SnapshotEquipment(s.creature.Equipment())); err != nil {
			errutil.LogWarn(e.logger.With("player_id", id), "snapshot not queued", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}

// Loot generates a loot table for a player, into what the player carries or
// onto the ground below. It returns how many top-level items were created.
func (e *Engine) Loot(ctx context.Context, id, table string, ground bool) (int, error) {
	t, err := loot.Parse(table)
	if err != nil {
		return 0, err
	}
	var placed int
	err = e.tasks.Call(ctx, "loot", func(context.Context) error {
		s, err := e.lookup(id)
		if err != nil {
			return err
		}
		var to world.Holder = s.creature.Equipment()
		if ground {
			to = s.creature.Tile()
		}
		items, rv, err := loot.Generate(e.world, to, t)
		placed = len(items)
		if err != nil {
			return err
		}
		return rv.Err()
	})
	return placed, err
}

// Invoke calls the Lua function fn on behalf of a player.
func (e *Engine) Invoke(ctx context.Context, id, fn string, args ...string) error {
	if e.script == nil {
		return oops.Code(CodeNoScript).With("function", fn).Errorf("no script loaded")
	}
	return e.tasks.Call(ctx, "invoke", func(ctx context.Context) error {
		s, err := e.lookup(id)
		if err != nil {
			return err
		}
		values := make([]lua.LValue, len(args))
		for i, a := range args {
			values[i] = lua.LString(a)
		}
		return e.script.Call(ctx, s.creature, fn, values...)
	})
}

func (e *Engine) tick(ctx context.Context) error {
	if e.script == nil || e.script.Global(tickFunction).Type() != lua.LTFunction {
		return nil
	}
	return e.script.Call(ctx, nil, tickFunction)
}

// Sessions lists online players ordered by id.
func (e *Engine) Sessions(ctx context.Context) ([]SessionInfo, error) {
	var out []SessionInfo
	err := e.tasks.Call(ctx, "sessions", func(context.Context) error {
		out = make([]SessionInfo, 0, len(e.sessions))
		for _, s := range e.sessions {
			out = append(out, s.info())
		}
		return nil
	})
	slices.SortFunc(out, func(a, b SessionInfo) int {
		return strings.Compare(a.PlayerID, b.PlayerID)
	})
	return out, err
}
