// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package itemtype_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/pkg/errutil"
)

const sampleTypes = `
format: "1.2.0"
types:
  - id: 1987
    name: bag
    weight: 8
    pickupable: true
    container: true
    capacity: 8
    slot: backpack
  - id: 3031
    name: gold_coin
    weight: 0.1
    stackable: true
    pickupable: true
  - id: 1775
    name: fountain
    weight: 0
    fixed: true
`

func TestParse(t *testing.T) {
	reg, err := itemtype.Parse([]byte(sampleTypes))
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())

	bag := reg.Get(1987)
	require.NotNil(t, bag)
	assert.True(t, bag.Container)
	assert.Equal(t, 8, bag.Capacity)
	assert.Equal(t, itemtype.SlotBackpack, bag.Slot)
	assert.True(t, bag.Movable())

	coin := reg.ByName("gold_coin")
	require.NotNil(t, coin)
	assert.True(t, coin.Stackable)
	assert.InDelta(t, 0.1, coin.Weight, 1e-9)

	fountain := reg.Get(1775)
	require.NotNil(t, fountain)
	assert.False(t, fountain.Movable())
	assert.False(t, fountain.Pickupable)

	assert.Nil(t, reg.Get(1))
	assert.Nil(t, reg.ByName("nothing"))

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, uint16(1775), all[0].ID, "All is ordered by id")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		code string
	}{
		{
			name: "unknown field",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a, weight: 1, colour: red}\n",
			code: itemtype.CodeSchemaInvalid,
		},
		{
			name: "missing weight",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a}\n",
			code: itemtype.CodeSchemaInvalid,
		},
		{
			name: "unsupported format",
			data: "format: \"2.0.0\"\ntypes: []\n",
			code: itemtype.CodeFormatUnsupported,
		},
		{
			name: "garbage format",
			data: "format: \"one\"\ntypes: []\n",
			code: itemtype.CodeFormatUnsupported,
		},
		{
			name: "duplicate id",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a, weight: 1}\n  - {id: 1, name: b, weight: 1}\n",
			code: itemtype.CodeDuplicateID,
		},
		{
			name: "duplicate name",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a, weight: 1}\n  - {id: 2, name: a, weight: 1}\n",
			code: itemtype.CodeDuplicateName,
		},
		{
			name: "container without capacity",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a, weight: 1, container: true}\n",
			code: itemtype.CodeInvalidType,
		},
		{
			name: "stackable container",
			data: "format: \"1.0.0\"\ntypes:\n  - {id: 1, name: a, weight: 1, container: true, capacity: 4, stackable: true}\n",
			code: itemtype.CodeInvalidType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := itemtype.Parse([]byte(tt.data))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestRegistry_Match(t *testing.T) {
	reg, err := itemtype.Parse([]byte(sampleTypes))
	require.NoError(t, err)

	got, err := reg.Match("*o*")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, typ := range got {
		names = append(names, typ.Name)
	}
	assert.Equal(t, []string{"fountain", "gold_coin"}, names)

	_, err = reg.Match("[")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, itemtype.CodeBadPattern)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTypes), 0o600))

	reg, err := itemtype.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	_, err = itemtype.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestGenerateSchema(t *testing.T) {
	data, err := itemtype.GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), itemtype.SchemaID)
	assert.Contains(t, string(data), `"capacity"`)
}
