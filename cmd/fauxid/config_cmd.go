// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fauxid/fauxid/internal/config"
)

// NewConfigCmd creates the config subcommand group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file against the schema and semantic rules",
		Long: `Check a config file against the schema and semantic rules. Without an
argument the --config file, or the default XDG config file, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			explicit := configFile
			if len(args) == 1 {
				explicit = args[0]
			}
			path, err := resolveConfigPath(explicit, nil)
			if err != nil {
				return err
			}
			if path == "" {
				return oops.Code("CONFIG_NOT_FOUND").Errorf("no config file given and none found in the default location")
			}

			cfg, err := config.Load(path, nil)
			if err != nil {
				cmd.PrintErrf("%s: %s\n", path, config.FormatSchemaError(err))
				return err
			}
			cmd.Printf("%s: ok (version %s, tokens %s, hasher %s)\n", path, cfg.Version, cfg.Tokens.Format, cfg.Passwords.Hasher)
			return nil
		},
	}
}
