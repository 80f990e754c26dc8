// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loot

import (
	"github.com/holomush/itemcore/internal/world"
)

// Generate creates the items of t inside to. Entries are placed in order;
// an entry either lands completely or not at all, and the first entry that
// does not fit stops generation with its result. Items placed by earlier
// entries stay. The returned items are the new top-level items in to.
func Generate(w *world.World, to world.Holder, t *Table) ([]*world.Item, world.ReturnValue, error) {
	if err := Check(w.Types(), t); err != nil {
		return nil, world.NotPossible, err
	}
	var placed []*world.Item
	for _, e := range t.Entries {
		items, rv, err := generateEntry(w, to, e)
		placed = append(placed, items...)
		if err != nil || rv != world.NoError {
			return placed, rv, err
		}
	}
	return placed, world.NoError, nil
}

func generateEntry(w *world.World, to world.Holder, e *Entry) ([]*world.Item, world.ReturnValue, error) {
	typ := w.Types().ByName(e.Name)
	if typ.Stackable {
		return w.CreateItems(to, typ.ID, e.Units(), 0)
	}

	built := make([]*world.Item, 0, e.Units())
	releaseAll := func() {
		for _, it := range built {
			w.Release(it)
		}
	}
	for range e.Units() {
		it, err := w.CreateItem(typ.ID, 1)
		if err != nil {
			releaseAll()
			return nil, world.NotPossible, err
		}
		built = append(built, it)
		if c := it.Container(); c != nil && len(e.Contents) > 0 {
			if _, rv, err := Generate(w, c, &Table{Entries: e.Contents}); err != nil || rv != world.NoError {
				releaseAll()
				return nil, rv, err
			}
		}
	}

	if rv := w.RoomFor(to, built[0], len(built), 0); rv != world.NoError {
		releaseAll()
		return nil, rv, nil
	}
	for i, it := range built {
		if _, rv := w.AddItem(to, it, world.IndexWherever, 0, false); rv != world.NoError {
			for _, done := range built[:i] {
				w.RemoveItem(done, world.CountAll, 0, false)
			}
			for _, rest := range built[i:] {
				w.Release(rest)
			}
			return nil, rv, nil
		}
	}
	return built, world.NoError, nil
}
