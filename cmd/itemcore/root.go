// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the itemcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "itemcore",
		Short: "itemcore - item containment engine",
		Long: `itemcore keeps every item in a world inside exactly one holder:
a tile, a creature's equipment or a container. It serves the engine
over NATS and ships tools for type tables, loot tables and migrations.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewTypesCmd())
	cmd.AddCommand(NewLootCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
