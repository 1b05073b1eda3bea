package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Faultbox/avarabsp/pkg/avarabsp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <doc.json>",
	Short: "Validate an avarabsp document and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := avarabsp.ReadFile(args[0])
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), args[0], doc)
}

func printSummary(w io.Writer, path string, doc *avarabsp.Document) error {
	fmt.Fprintln(w, "avarabsp Document")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "File: %s\n\n", path)

	fmt.Fprintln(w, "Tables:")
	fmt.Fprintf(w, "  Points:    %d\n", len(doc.Points))
	fmt.Fprintf(w, "  Colors:    %d\n", len(doc.Colors))
	fmt.Fprintf(w, "  Normals:   %d\n", len(doc.Normals))
	fmt.Fprintf(w, "  Polys:     %d\n", len(doc.Polys))
	fmt.Fprintf(w, "  Triangles: %d\n\n", doc.TriangleCount())

	fmt.Fprintln(w, "Bounds:")
	fmt.Fprintf(w, "  Min:    %s\n", formatVec(doc.Bounds.Min))
	fmt.Fprintf(w, "  Max:    %s\n", formatVec(doc.Bounds.Max))
	fmt.Fprintf(w, "  Center: %s\n", formatVec(doc.Center))
	fmt.Fprintf(w, "  Radius1: %.6f\n", doc.Radius1)
	fmt.Fprintf(w, "  Radius2: %.6f\n\n", doc.Radius2)

	kinds := make(map[avarabsp.ColorKind]int)
	for _, c := range doc.Colors {
		kinds[c.Kind]++
	}
	fmt.Fprintln(w, "Colors:")
	for _, k := range []avarabsp.ColorKind{avarabsp.ColorFloat, avarabsp.ColorPacked, avarabsp.ColorMarker, avarabsp.ColorHex} {
		if kinds[k] > 0 {
			fmt.Fprintf(w, "  %-7s %d\n", k.String()+":", kinds[k])
		}
	}
	for i, c := range doc.Colors {
		rgba, err := c.Resolve()
		if err != nil {
			return fmt.Errorf("color %d: %w", i, err)
		}
		fmt.Fprintf(w, "  [%d] %s\n", i, avarabsp.HexString(rgba))
	}
	return nil
}

func formatVec(v [3]float32) string {
	return fmt.Sprintf("(%.6f, %.6f, %.6f)", v[0], v[1], v[2])
}
