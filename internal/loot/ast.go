// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package loot parses loot tables and generates their items into a holder.
//
// A table is a list of entries, each an optional count, a type name and,
// for container types, the contents to put inside:
//
//	3x gold_coin, bag { 50x gold_coin, rune }, 2x apple
package loot

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// lootLexer keeps "3x" apart as a count and its multiplier.
var lootLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[{},]`},
	{Name: "comment", Pattern: `#[^\n]*`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Table is a parsed loot table.
//
// Grammar: entry*
type Table struct {
	Entries []*Entry `parser:"@@*" json:"entries"`
}

// Entry is one line of a table.
//
// Grammar: [ Int "x" ] Ident [ "{" entry* "}" ] [ "," ]
type Entry struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Count    int            `parser:"(@Int 'x')?" json:"count,omitempty"`
	Name     string         `parser:"@Ident" json:"name"`
	Contents []*Entry       `parser:"('{' @@* '}')?" json:"contents,omitempty"`
	Comma    string         `parser:"','?" json:"-"`
}

// Units returns the number of units the entry asks for.
func (e *Entry) Units() int {
	if e.Count == 0 {
		return 1
	}
	return e.Count
}

// String renders the table in canonical form.
func (t *Table) String() string {
	var b strings.Builder
	writeEntries(&b, t.Entries)
	return b.String()
}

func writeEntries(b *strings.Builder, entries []*Entry) {
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		if e.Count > 1 {
			b.WriteString(strconv.Itoa(e.Count))
			b.WriteString("x ")
		}
		b.WriteString(e.Name)
		if len(e.Contents) > 0 {
			b.WriteString(" { ")
			writeEntries(b, e.Contents)
			b.WriteString(" }")
		}
	}
}
