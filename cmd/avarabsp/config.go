package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/avarabsp/internal/config"
)

var configSave bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configSave, "save", false, "Also write it to the user config directory")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := cfg.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	if configSave {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved to %s\n", config.ConfigDir())
	}
	return nil
}
