// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"github.com/oklog/ulid/v2"
)

// Link describes how the receiver of a post notification relates to the
// holder where the change happened.
type Link uint8

// Links passed to PostAddNotification and PostRemoveNotification.
const (
	// LinkOwner means the receiver is the holder that changed.
	LinkOwner Link = iota
	// LinkParent means the receiver is the top container of the holder.
	LinkParent
	// LinkTopParent means the receiver is the creature carrying the holder.
	LinkTopParent
	// LinkNear means the receiver is the tile under the top container.
	LinkNear
)

var linkNames = [...]string{
	LinkOwner:     "owner",
	LinkParent:    "parent",
	LinkTopParent: "top_parent",
	LinkNear:      "near",
}

func (l Link) String() string {
	if int(l) < len(linkNames) {
		return linkNames[l]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (l Link) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// NotifyKind is the kind of change delivered to observers.
type NotifyKind uint8

// Notification kinds.
const (
	NotifyAdd NotifyKind = iota
	NotifyUpdate
	NotifyRemove
)

func (k NotifyKind) String() string {
	switch k {
	case NotifyAdd:
		return "add"
	case NotifyUpdate:
		return "update"
	case NotifyRemove:
		return "remove"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k NotifyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notification is a committed change as seen by an observer.
type Notification struct {
	Kind   NotifyKind `json:"kind"`
	Holder string     `json:"holder"`
	Index  int        `json:"index"`
	Serial ulid.ULID  `json:"serial"`
	TypeID uint16     `json:"type_id"`
	Count  int        `json:"count"`
}

// Observer receives notifications, typically on behalf of one client.
type Observer interface {
	ObserverID() string
	Notify(n Notification)
}

// Spectators answers who is watching a tile.
type Spectators interface {
	SpectatorsOf(t *Tile) []Observer
}

// SpectatorsFunc adapts a function to Spectators.
type SpectatorsFunc func(t *Tile) []Observer

// SpectatorsOf implements Spectators.
func (f SpectatorsFunc) SpectatorsOf(t *Tile) []Observer {
	return f(t)
}

type tileSpectators struct{}

func (tileSpectators) SpectatorsOf(t *Tile) []Observer {
	var out []Observer
	for _, c := range t.creatures {
		if c.observer != nil {
			out = append(out, c.observer)
		}
	}
	return out
}

// HookEvent is passed to rule hooks after a change reaches a tile or a
// creature's equipment.
type HookEvent struct {
	Thing Thing
	// Holder is the tile or equipment receiving the notification.
	Holder Holder
	// Other is the previous holder for adds and the next holder for removes.
	// Either may be nil.
	Other Holder
	Index int
	Link  Link
	// Depth is the hook nesting depth, starting at 1.
	Depth int
}

// Hook runs game rules in reaction to committed changes. Hooks run
// synchronously and may call back into the world.
type Hook interface {
	OnAdd(ev HookEvent)
	OnRemove(ev HookEvent)
}

// Recorder receives engine metrics.
type Recorder interface {
	RecordMove(result ReturnValue)
	RecordNotification(link Link)
	RecordDepthExceeded()
}

type nopRecorder struct{}

func (nopRecorder) RecordMove(ReturnValue)   {}
func (nopRecorder) RecordNotification(Link) {}
func (nopRecorder) RecordDepthExceeded()    {}

// audience returns who sees changes made inside h. Changes inside a
// creature's equipment reach only that creature; changes anywhere under a
// tile reach every spectator of the tile.
func (w *World) audience(h Holder) []Observer {
	for cur := h; cur != nil; cur = cur.Parent() {
		switch v := cur.(type) {
		case *Equipment:
			if v.owner.observer == nil {
				return nil
			}
			return []Observer{v.owner.observer}
		case *Tile:
			return w.spectators.SpectatorsOf(v)
		}
	}
	return nil
}

func (w *World) deliver(h Holder, kind NotifyKind, index int, it *Item) {
	if it == nil {
		return
	}
	obs := w.audience(h)
	if len(obs) == 0 {
		return
	}
	n := Notification{
		Kind:   kind,
		Holder: Describe(h),
		Index:  index,
		Serial: it.serial,
		TypeID: it.typ.ID,
		Count:  it.Count(),
	}
	for _, o := range obs {
		o.Notify(n)
	}
}

// runHooks tracks nesting depth across re-entrant hook chains. Deep chains
// are reported, never cut.
func (w *World) runHooks(add bool, ev HookEvent) {
	w.recorder.RecordNotification(ev.Link)
	if len(w.hooks) == 0 {
		return
	}
	w.depth++
	defer func() { w.depth-- }()
	ev.Depth = w.depth
	if w.notifyDepthWarn > 0 && w.depth > w.notifyDepthWarn {
		w.recorder.RecordDepthExceeded()
		w.logger.Warn("hook nesting exceeds warning depth",
			"depth", w.depth,
			"limit", w.notifyDepthWarn,
			"link", ev.Link.String(),
			"holder", Describe(ev.Holder))
	}
	for _, h := range w.hooks {
		if add {
			h.OnAdd(ev)
		} else {
			h.OnRemove(ev)
		}
	}
}
