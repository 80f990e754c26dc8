// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loot

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/samber/oops"

	"github.com/holomush/itemcore/internal/itemtype"
)

// Error codes for loot tables.
const (
	CodeParse        = "LOOT_PARSE"
	CodeTooDeep      = "LOOT_TOO_DEEP"
	CodeBadCount     = "LOOT_BAD_COUNT"
	CodeUnknownType  = "LOOT_UNKNOWN_TYPE"
	CodeNotContainer = "LOOT_NOT_CONTAINER"
)

// MaxNestingDepth bounds how deep contents may nest.
const MaxNestingDepth = 8

// MaxCount bounds the count of a single entry.
const MaxCount = 10000

// parser is the singleton participle parser instance.
var parser *participle.Parser[Table]

func init() {
	var err error
	parser, err = participle.Build[Table](
		participle.Lexer(lootLexer),
		participle.Elide("whitespace", "comment"),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to build loot parser: %v", err))
	}
}

// Parse parses a loot table and checks its shape. Type names are checked by
// Check.
func Parse(text string) (*Table, error) {
	t, err := parser.ParseString("", text)
	if err != nil {
		return nil, oops.Code(CodeParse).Wrapf(err, "parsing loot table")
	}
	if err := validateEntries(t.Entries, 0); err != nil {
		return nil, err
	}
	return t, nil
}

func validateEntries(entries []*Entry, depth int) error {
	if depth > MaxNestingDepth {
		return oops.Code(CodeTooDeep).With("max", MaxNestingDepth).Errorf("contents nest deeper than %d", MaxNestingDepth)
	}
	for _, e := range entries {
		if e.Count < 0 || e.Count > MaxCount {
			return oops.Code(CodeBadCount).
				With("name", e.Name).
				With("count", e.Count).
				Errorf("%s: count %d out of range at %s", e.Name, e.Count, e.Pos)
		}
		if err := validateEntries(e.Contents, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Check resolves every type name against reg.
func Check(reg *itemtype.Registry, t *Table) error {
	return checkEntries(reg, t.Entries)
}

func checkEntries(reg *itemtype.Registry, entries []*Entry) error {
	for _, e := range entries {
		typ := reg.ByName(e.Name)
		if typ == nil {
			return oops.Code(CodeUnknownType).With("name", e.Name).Errorf("unknown item type %q at %s", e.Name, e.Pos)
		}
		if len(e.Contents) > 0 && !typ.Container {
			return oops.Code(CodeNotContainer).With("name", e.Name).Errorf("%s cannot hold contents", e.Name)
		}
		if err := checkEntries(reg, e.Contents); err != nil {
			return err
		}
	}
	return nil
}
