// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package itemtype

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// Error codes for registry loading failures.
const (
	CodeSchemaInvalid     = "TYPES_SCHEMA_INVALID"
	CodeFormatUnsupported = "TYPES_FORMAT_UNSUPPORTED"
	CodeDuplicateID       = "TYPES_DUPLICATE_ID"
	CodeDuplicateName     = "TYPES_DUPLICATE_NAME"
	CodeInvalidType       = "TYPES_INVALID_TYPE"
	CodeBadPattern        = "TYPES_BAD_PATTERN"
)

// SupportedFormat is the constraint a type file's format version must satisfy.
const SupportedFormat = "^1.0.0"

// File is the on-disk layout of a type table.
type File struct {
	Format string `yaml:"format" json:"format" jsonschema:"minLength=1"`
	Types  []Type `yaml:"types" json:"types"`
}

// Registry is an immutable lookup table of item types.
// It is safe for concurrent readers once built.
type Registry struct {
	byID   map[uint16]*Type
	byName map[string]*Type
	order  []*Type
}

// New builds a registry from types after checking table-wide invariants.
func New(types []Type) (*Registry, error) {
	r := &Registry{
		byID:   make(map[uint16]*Type, len(types)),
		byName: make(map[string]*Type, len(types)),
		order:  make([]*Type, 0, len(types)),
	}
	for i := range types {
		t := types[i]
		if err := validateType(&t); err != nil {
			return nil, err
		}
		if _, ok := r.byID[t.ID]; ok {
			return nil, oops.Code(CodeDuplicateID).With("id", t.ID).Errorf("duplicate type id %d", t.ID)
		}
		if _, ok := r.byName[t.Name]; ok {
			return nil, oops.Code(CodeDuplicateName).With("name", t.Name).Errorf("duplicate type name %q", t.Name)
		}
		r.byID[t.ID] = &t
		r.byName[t.Name] = &t
		r.order = append(r.order, &t)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i].ID < r.order[j].ID })
	return r, nil
}

func validateType(t *Type) error {
	b := oops.Code(CodeInvalidType).With("id", t.ID).With("name", t.Name)
	switch {
	case t.ID == 0:
		return b.Errorf("type id must be positive")
	case t.Name == "":
		return b.Errorf("type name is required")
	case t.Weight < 0:
		return b.Errorf("weight cannot be negative")
	case t.Container && t.Capacity <= 0:
		return b.Errorf("container type needs a positive capacity")
	case !t.Container && t.Capacity != 0:
		return b.Errorf("capacity is only valid on container types")
	case t.Container && t.Stackable:
		return b.Errorf("container types cannot be stackable")
	case !t.Slot.Valid():
		return b.With("slot", t.Slot).Errorf("unknown slot %q", t.Slot)
	}
	return nil
}

// Parse validates YAML type table data against the schema and builds a registry.
func Parse(data []byte) (*Registry, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code(CodeSchemaInvalid).Wrap(err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code(CodeSchemaInvalid).Wrap(err)
	}

	v, err := semver.NewVersion(f.Format)
	if err != nil {
		return nil, oops.Code(CodeFormatUnsupported).With("format", f.Format).Wrap(err)
	}
	c, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return nil, oops.Code(CodeFormatUnsupported).Wrap(err)
	}
	if !c.Check(v) {
		return nil, oops.Code(CodeFormatUnsupported).
			With("format", f.Format).
			With("supported", SupportedFormat).
			Errorf("type file format %s is not supported", f.Format)
	}

	return New(f.Types)
}

// Load reads and parses a type table file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("itemtype").With("path", path).Hint("failed to read type file").Wrap(err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, oops.In("itemtype").With("path", path).Wrap(err)
	}
	return r, nil
}

// Get returns the type with the given id, or nil.
func (r *Registry) Get(id uint16) *Type {
	return r.byID[id]
}

// ByName returns the type with the given name, or nil.
func (r *Registry) ByName(name string) *Type {
	return r.byName[name]
}

// All returns every type ordered by id.
func (r *Registry) All() []*Type {
	out := make([]*Type, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of types.
func (r *Registry) Len() int {
	return len(r.order)
}

// Match returns the types whose names match a glob pattern, ordered by id.
func (r *Registry) Match(pattern string) ([]*Type, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, oops.Code(CodeBadPattern).With("pattern", pattern).Wrap(err)
	}
	var out []*Type
	for _, t := range r.order {
		if g.Match(t.Name) {
			out = append(out, t)
		}
	}
	return out, nil
}
