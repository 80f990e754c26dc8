// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rodaine/table"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/internal/loot"
	"github.com/holomush/itemcore/internal/world"
)

// NewLootCmd creates the loot subcommand.
func NewLootCmd() *cobra.Command {
	var (
		typesFile string
		tableFile string
		checkOnly bool
	)

	cmd := &cobra.Command{
		Use:   "loot [TABLE]",
		Short: "Check or roll a loot table",
		Long: `Parse a loot table such as "backpack { 20x coin, rune }", check it
against the type table and generate it onto an empty tile.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := lootText(args, tableFile)
			if err != nil {
				return err
			}
			reg, err := itemtype.Load(typesFile)
			if err != nil {
				return err
			}
			t, err := loot.Parse(text)
			if err != nil {
				return err
			}
			if err := loot.Check(reg, t); err != nil {
				return err
			}
			if checkOnly {
				cmd.Println(t.String())
				return nil
			}

			w, err := world.New(reg)
			if err != nil {
				return err
			}
			tile := w.NewTile(world.Position{})
			items, rv, err := loot.Generate(w, tile, t)
			if err != nil {
				return err
			}

			tbl := table.New("Serial", "Item", "Count", "Weight").WithWriter(cmd.OutOrStdout())
			for _, it := range items {
				addLootRows(tbl, it, 0)
			}
			tbl.Print()
			if err := rv.Err(); err != nil {
				return oops.With("placed", len(items)).Wrap(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typesFile, "types-file", defaultTypesFile, "item type table")
	cmd.Flags().StringVarP(&tableFile, "file", "f", "", "read the loot table from a file")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "only check the table and print it back")
	return cmd
}

func lootText(args []string, path string) (string, error) {
	switch {
	case len(args) == 1 && path != "":
		return "", oops.Code("LOOT_ARGS").Errorf("give a table or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case path != "":
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", oops.With("path", path).Wrap(err)
		}
		return string(data), nil
	}
	return "", oops.Code("LOOT_ARGS").Errorf("a loot table is required")
}

func addLootRows(tbl table.Table, it *world.Item, depth int) {
	tbl.AddRow(it.Serial().String(), strings.Repeat("  ", depth)+it.Type().Name, it.Count(), it.Weight())
	if c := it.Container(); c != nil {
		for _, child := range c.Items() {
			addLootRows(tbl, child, depth+1)
		}
	}
}
