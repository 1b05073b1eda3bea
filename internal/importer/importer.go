// Package importer rebuilds host mesh objects from avarabsp documents.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/avarabsp/internal/logger"
	"github.com/Faultbox/avarabsp/pkg/avarabsp"
	"github.com/Faultbox/avarabsp/pkg/math"
	"github.com/Faultbox/avarabsp/pkg/mesh"
)

// Mode controls how many of the selected files one invocation imports.
type Mode int

const (
	ModeAll   Mode = iota // Every file, failures collected per file
	ModeFirst             // Only the first file
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeFirst:
		return "first"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMode parses "all" or "first".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "all":
		return ModeAll, nil
	case "first":
		return ModeFirst, nil
	default:
		return ModeAll, fmt.Errorf("unknown import mode %q", s)
	}
}

// NormalHook receives the per-polygon normals of a document once the object
// has been rebuilt. polyNormals[i] is normals[polys[i].normal] and
// facePoly[f] is the document polygon that face f was cut from.
type NormalHook func(obj *mesh.Object, polyNormals []math.Vec3, facePoly []int)

// Options configures an import.
type Options struct {
	RotateXDegrees float32
	Mode           Mode
	NormalHook     NormalHook // nil leaves geometric face normals in place
}

// DefaultOptions rotates by +90° about X and imports every file.
func DefaultOptions() Options {
	return Options{RotateXDegrees: 90, Mode: ModeAll}
}

// ApplyNormals is a NormalHook that replaces each face normal, and the
// normals of its loops, with the normal of its source polygon.
func ApplyNormals(obj *mesh.Object, polyNormals []math.Vec3, facePoly []int) {
	for f, poly := range facePoly {
		n := polyNormals[poly]
		p := &obj.Polygons[f]
		p.Normal = n
		for l := p.LoopStart; l < p.LoopStart+p.LoopTotal; l++ {
			obj.Loops[l].Normal = n
		}
	}
}

// FacePolygons maps each rebuilt face, in order, to its document polygon.
func FacePolygons(doc *avarabsp.Document) []int {
	out := make([]int, 0, doc.TriangleCount())
	for i, p := range doc.Polys {
		for k := 0; k+2 < len(p.Tris); k += 3 {
			out = append(out, i)
		}
	}
	return out
}

// Import builds a mesh object named name from doc. Each triangle becomes one
// face whose loops carry the RGB of its source polygon with alpha 1.
func Import(doc *avarabsp.Document, name string, opts Options) (*mesh.Object, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	colors := make([]mesh.Color, len(doc.Colors))
	for i, c := range doc.Colors {
		rgba, err := c.Resolve()
		if err != nil {
			return nil, fmt.Errorf("color %d: %w", i, err)
		}
		colors[i] = rgba
	}

	polyNormals := make([]math.Vec3, len(doc.Polys))
	for i, p := range doc.Polys {
		polyNormals[i] = math.V3(doc.Normals[p.Normal])
	}
	facePoly := FacePolygons(doc)

	obj := mesh.NewObject(name)
	obj.Vertices = make([]math.Vec3, len(doc.Points))
	for i, pt := range doc.Points {
		obj.Vertices[i] = math.V3(pt)
	}
	for _, p := range doc.Polys {
		for k := 0; k+2 < len(p.Tris); k += 3 {
			f := obj.AddPolygon(p.Tris[k], p.Tris[k+1], p.Tris[k+2])
			obj.Triangles = append(obj.Triangles, mesh.Triangle{
				V:       [3]int{p.Tris[k], p.Tris[k+1], p.Tris[k+2]},
				Polygon: f,
			})
		}
	}
	obj.Transform = math.RotateX(math.Radians(opts.RotateXDegrees))

	obj.Colors = make([]mesh.Color, len(obj.Loops))
	for f, poly := range facePoly {
		c := colors[doc.Polys[poly].Color]
		c[3] = 1
		p := obj.Polygons[f]
		for l := p.LoopStart; l < p.LoopStart+p.LoopTotal; l++ {
			obj.Colors[l] = c
		}
	}

	if opts.NormalHook != nil {
		opts.NormalHook(obj, polyNormals, facePoly)
	}

	logger.Debug("imported object",
		zap.String("object", name),
		zap.Int("vertices", len(obj.Vertices)),
		zap.Int("faces", len(obj.Polygons)))

	return obj, nil
}

// ObjectName derives an object name from a document path by dropping the
// directory and the .json / .avarabsp.json extension.
func ObjectName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".avarabsp.json", ".json"} {
		if strings.HasSuffix(base, ext) && len(base) > len(ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// ImportFile reads one document and links the rebuilt object into sink.
// Nothing is linked if any step fails.
func ImportFile(path string, sink mesh.Sink, opts Options) (*mesh.Object, error) {
	doc, err := avarabsp.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := Import(doc, ObjectName(path), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := sink.Link(obj); err != nil {
		return nil, fmt.Errorf("%s: link: %w", path, err)
	}
	return obj, nil
}

// ImportFiles imports the selected paths into sink and returns how many
// objects were linked. In ModeAll each file succeeds or fails on its own and
// the failures are combined into the returned error; in ModeFirst only
// paths[0] is read.
func ImportFiles(paths []string, sink mesh.Sink, opts Options) (int, error) {
	if len(paths) == 0 {
		return 0, fmt.Errorf("%w: no input files", avarabsp.ErrInput)
	}
	if opts.Mode == ModeFirst && len(paths) > 1 {
		logger.Warn("importing only the first selected file", zap.Int("ignored", len(paths)-1))
		paths = paths[:1]
	}

	var errs error
	linked := 0
	for _, p := range paths {
		if _, err := ImportFile(p, sink, opts); err != nil {
			logger.Error("import failed", zap.String("path", p), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Info("imported avarabsp document", zap.String("path", p))
		linked++
	}
	return linked, errs
}
