// avarabsp converts between editor meshes and avarabsp BSP-polygon documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/avarabsp/internal/config"
	"github.com/Faultbox/avarabsp/internal/logger"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "avarabsp",
	Short: "Convert meshes to and from avarabsp JSON documents",
	Long: `avarabsp exports mesh objects from an OBJ scene into avarabsp BSP-polygon
documents (one per object) and imports such documents back into OBJ or
binary glTF scenes.`,
	Version:           "1.0.0",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
}

// setup loads the configuration and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		// Console logging so the failure is visible
		_ = logger.Init("info", "")
		return err
	}
	cfg = loaded

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if cfg == nil {
			// Flag parsing failed before setup ran
			_ = logger.Init("info", "")
		}
		logger.Error("command failed", zap.Error(err))
		logger.Sync()
		fmt.Fprintln(os.Stderr, "avarabsp: failed")
		os.Exit(1)
	}
	logger.Sync()
}
