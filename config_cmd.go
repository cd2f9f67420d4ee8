package main

import (
	"fmt"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if !showSecrets {
				cfg = cfg.Masked()
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			if path, err := config.EnvFilePath(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "# env file: %s\n", path)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print credentials in full")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the env file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := config.EnvFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, path)
	return cmd
}
