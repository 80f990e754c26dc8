// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/script"
)

func TestHandles(t *testing.T) {
	w := newWorld(t)
	h := script.NewHandles(w)

	named := mustItem(t, w, typeRune, 1)
	require.NoError(t, named.SetUniqueID(4242))
	a := mustItem(t, w, typeRune, 1)
	b := mustItem(t, w, typeCoin, 10)

	assert.Equal(t, uint32(4242), h.HandleOf(named))
	assert.Equal(t, script.TempHandleBase, h.HandleOf(a))
	assert.Equal(t, script.TempHandleBase+1, h.HandleOf(b))
	assert.Equal(t, script.TempHandleBase, h.HandleOf(a), "handles are stable")
	assert.Equal(t, 2, h.Len())
	assert.Zero(t, h.HandleOf(nil))

	assert.Same(t, named, h.Resolve(4242))
	assert.Same(t, b, h.Resolve(script.TempHandleBase+1))
	for _, id := range []uint32{0, 999, 65536, script.TempHandleBase + 7} {
		assert.Nil(t, h.Resolve(id), "handle %d", id)
	}

	w.Release(b)
	assert.Nil(t, h.Resolve(script.TempHandleBase+1), "released items do not resolve")
	assert.Zero(t, h.HandleOf(b))

	h.Reset()
	assert.Nil(t, h.Resolve(script.TempHandleBase))
	assert.Same(t, named, h.Resolve(4242), "unique ids survive a reset")
	assert.Equal(t, script.TempHandleBase, h.HandleOf(a))
}
