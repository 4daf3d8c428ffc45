// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"github.com/spf13/cobra"
)

// configFile is the --config value shared by all subcommands.
var configFile string

// NewRootCmd creates the root command for the fauxid CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fauxid",
		Short: "fauxid - a reference identity provider",
		Long: `fauxid is an in-memory identity provider that enforces the rules of a
production one: unique emails, credential checks, access and refresh tokens,
rate-limited password resets and account lifecycle events.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/fauxid/config.yaml if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewDemoCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
