package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/avarabsp/internal/importer"
	"github.com/Faultbox/avarabsp/internal/logger"
	"github.com/Faultbox/avarabsp/pkg/formats"
	"github.com/Faultbox/avarabsp/pkg/mesh"
)

var importOutput string

var importCmd = &cobra.Command{
	Use:   "import <doc.json>...",
	Short: "Rebuild meshes from avarabsp documents into an OBJ or GLB scene",
	Long: `Import reads each document, rebuilds its mesh with per-loop colors and the
configured X rotation, and writes all imported objects into one scene file.
The output format follows the --output extension: .obj or .glb.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output scene (.obj or .glb)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	opts, err := cfg.ImportOptions()
	if err != nil {
		return err
	}

	write, err := sceneWriter(importOutput)
	if err != nil {
		return err
	}

	scene := mesh.NewScene()
	linked, importErr := importer.ImportFiles(args, scene, opts)
	if linked > 0 {
		if err := write(importOutput, scene); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d object(s)\n", importOutput, linked)
	}

	logger.Info("import finished",
		zap.Int("selected", len(args)),
		zap.Int("linked", linked),
		zap.String("output", importOutput))
	return importErr
}

// sceneWriter picks the sink format from the output extension.
func sceneWriter(path string) (func(string, *mesh.Scene) error, error) {
	if path == "" {
		return nil, fmt.Errorf("missing --output")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return formats.WriteOBJ, nil
	case ".glb":
		return formats.WriteGLB, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want .obj or .glb)", filepath.Ext(path))
	}
}
