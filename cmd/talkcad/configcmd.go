package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Faultbox/talkcad/internal/config"
)

func (a *app) newConfigCmd() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "save [path]",
		Short: "Write the effective config (without the API key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(config.ConfigDir(), "config.yaml")
			save := a.cfg.Save
			if len(args) == 1 {
				path = args[0]
				save = func() error { return a.cfg.SaveTo(path) }
			}
			if err := save(); err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
			return nil
		},
	})
	return cfgCmd
}
