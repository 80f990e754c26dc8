// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rodaine/table"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/itemcore/internal/itemtype"
)

const defaultTypesFile = "items.yaml"

// NewTypesCmd creates the types subcommand.
func NewTypesCmd() *cobra.Command {
	var typesFile string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "Inspect item type tables",
	}
	cmd.PersistentFlags().StringVar(&typesFile, "types-file", defaultTypesFile, "item type table")

	cmd.AddCommand(newTypesListCmd(&typesFile))
	cmd.AddCommand(newTypesValidateCmd())
	cmd.AddCommand(newTypesSchemaCmd())
	return cmd
}

func newTypesListCmd(typesFile *string) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List item types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := itemtype.Load(*typesFile)
			if err != nil {
				return err
			}
			types := reg.All()
			if match != "" {
				if types, err = reg.Match(match); err != nil {
					return err
				}
			}

			tbl := table.New("ID", "Name", "Weight", "Flags", "Capacity", "Slot").WithWriter(cmd.OutOrStdout())
			for _, t := range types {
				capacity := "-"
				if t.Container {
					capacity = fmt.Sprint(t.Capacity)
				}
				slot := string(t.Slot)
				if slot == "" {
					slot = "-"
				}
				tbl.AddRow(t.ID, t.Name, t.Weight, typeFlags(t), capacity, slot)
			}
			tbl.Print()
			cmd.Printf("%d of %d types\n", len(types), reg.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "only list types whose name matches this glob")
	return cmd
}

func typeFlags(t *itemtype.Type) string {
	var b []byte
	for _, f := range []struct {
		on bool
		c  byte
	}{
		{t.Stackable, 's'},
		{t.Pickupable, 'p'},
		{t.Fixed, 'f'},
		{t.Container, 'c'},
	} {
		if f.on {
			b = append(b, f.c)
		} else {
			b = append(b, '-')
		}
	}
	return string(b)
}

func newTypesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check type table files against the schema and table rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				reg, err := itemtype.Load(path)
				if err != nil {
					failed++
					cmd.PrintErrf("%s: %v\n", path, err)
					continue
				}
				cmd.Printf("%s: ok (%d types)\n", path, reg.Len())
			}
			if failed > 0 {
				return oops.Code(itemtype.CodeSchemaInvalid).
					With("failed", failed).
					Errorf("%d of %d files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newTypesSchemaCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for type table files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := itemtype.GenerateSchema()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
				return oops.With("path", out).Wrap(err)
			}
			if err := os.WriteFile(out, schema, 0o600); err != nil {
				return oops.With("path", out).Wrap(err)
			}
			cmd.Printf("Generated %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the schema to this file")
	return cmd
}
