package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/avarabsp/internal/exporter"
	"github.com/Faultbox/avarabsp/internal/logger"
	"github.com/Faultbox/avarabsp/pkg/formats"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <scene.obj>",
	Short: "Write one avarabsp document per mesh object in an OBJ scene",
	Long: `Export reads every object of an OBJ scene and writes <stem>_<object><ext>
next to the --output base path for each mesh object.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Base output path, e.g. level.json")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	opts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}
	names, err := cfg.NameDecoder()
	if err != nil {
		return err
	}

	scene, err := formats.ReadOBJ(args[0], formats.OBJOptions{Names: names})
	if err != nil {
		return err
	}

	written, err := exporter.ExportScene(scene, exportOutput, opts)
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if err != nil {
		return err
	}

	logger.Info("export finished", zap.String("scene", args[0]), zap.Int("documents", len(written)))
	return nil
}
