// Package exporter serializes host mesh objects into avarabsp documents.
package exporter

import (
	"fmt"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/Faultbox/avarabsp/internal/logger"
	"github.com/Faultbox/avarabsp/pkg/avarabsp"
	"github.com/Faultbox/avarabsp/pkg/math"
	"github.com/Faultbox/avarabsp/pkg/mesh"
	"github.com/Faultbox/avarabsp/pkg/triangulate"
)

// ExportObject builds the document for one mesh object.
func ExportObject(o *mesh.Object, opts Options) (*avarabsp.Document, error) {
	if len(o.Polygons) == 0 {
		return nil, fmt.Errorf("%w: %s", avarabsp.ErrNoPolygons, o.Name)
	}
	if len(o.Vertices) == 0 {
		return nil, fmt.Errorf("%w: %s", avarabsp.ErrNoVertices, o.Name)
	}

	if o.Transform != (math.Mat4{}) && !o.Transform.IsIdentity() {
		logger.Debug("object transform not applied, exporting in object space", zap.String("object", o.Name))
	}

	corners := o.BoundBox()
	var lo, hi math.Vec3
	if opts.Bounds == BoundsComponentwise {
		lo, hi = ComponentwiseBounds(corners[:])
	} else {
		lo, hi = DominanceBounds(corners[:])
	}

	tris := o.Triangles
	if len(tris) == 0 {
		tris = triangulate.Object(o, opts.Triangulation)
	}
	byPoly := make([][]int, len(o.Polygons))
	for _, t := range tris {
		if t.Polygon < 0 || t.Polygon >= len(o.Polygons) {
			return nil, fmt.Errorf("%w: triangle tagged with polygon %d (polygons=%d)",
				avarabsp.ErrIndexOutOfRange, t.Polygon, len(o.Polygons))
		}
		byPoly[t.Polygon] = append(byPoly[t.Polygon], t.V[0], t.V[1], t.V[2])
	}

	doc := &avarabsp.Document{
		Points: make([][3]float32, len(o.Vertices)),
		Polys:  make([]avarabsp.Poly, len(o.Polygons)),
		Bounds: avarabsp.Bounds{Min: lo.Array(), Max: hi.Array()},
		Center: Center(corners).Array(),
	}
	for i, v := range o.Vertices {
		doc.Points[i] = v.Array()
	}

	normalIndex := make(map[[3]float32]int)
	colorIndex := make(map[avarabsp.Color]int)

	for i := range o.Polygons {
		n, err := polygonNormal(o, i, opts.Normals)
		if err != nil {
			return nil, err
		}
		key := n.Array()
		ni, ok := normalIndex[key]
		if !ok {
			ni = len(doc.Normals)
			normalIndex[key] = ni
			doc.Normals = append(doc.Normals, key)
		}

		c := polygonColor(o, i, opts.Colors)
		ci, ok := colorIndex[c]
		if !ok {
			ci = len(doc.Colors)
			colorIndex[c] = ci
			doc.Colors = append(doc.Colors, c)
		}

		poly := avarabsp.Poly{Color: ci, Normal: ni, Tris: byPoly[i]}
		if poly.Tris == nil {
			poly.Tris = []int{}
		}
		if opts.Adjacency {
			front, back := avarabsp.NoAdjacency, avarabsp.NoAdjacency
			poly.Front, poly.Back = &front, &back
		}
		doc.Polys[i] = poly
	}

	doc.Radius1, doc.Radius2 = Radii(lo, hi, opts.Radius)

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", o.Name, err)
	}

	logger.Debug("exported object",
		zap.String("object", o.Name),
		zap.Int("points", len(doc.Points)),
		zap.Int("polys", len(doc.Polys)),
		zap.Int("normals", len(doc.Normals)),
		zap.Int("colors", len(doc.Colors)))

	return doc, nil
}

// DominanceBounds folds corners into a min and a max where a candidate only
// replaces the running value if it is strictly smaller (or larger) on every
// axis at once. Ties keep the earlier corner, so a flat box keeps corner 0
// as its max.
func DominanceBounds(corners []math.Vec3) (lo, hi math.Vec3) {
	if len(corners) == 0 {
		return
	}
	lo, hi = corners[0], corners[0]
	for _, c := range corners[1:] {
		if c.AllLess(lo) {
			lo = c
		}
		if c.AllGreater(hi) {
			hi = c
		}
	}
	return lo, hi
}

// ComponentwiseBounds returns the per-axis minimum and maximum.
func ComponentwiseBounds(corners []math.Vec3) (lo, hi math.Vec3) {
	if len(corners) == 0 {
		return
	}
	lo, hi = corners[0], corners[0]
	for _, c := range corners[1:] {
		lo = lo.Min(c)
		hi = hi.Max(c)
	}
	return lo, hi
}

// Center is the mean of the eight corners.
func Center(corners [8]math.Vec3) math.Vec3 {
	var sum math.Vec3
	for _, c := range corners {
		sum = sum.Add(c)
	}
	return sum.Scale(0.125)
}

// Radii returns radius1 and radius2 for the given bounds.
func Radii(lo, hi math.Vec3, mode RadiusMode) (r1, r2 float32) {
	r1 = lo.Length()
	if mode == RadiusFixedOne {
		r1 = 1
	}
	return r1, hi.Sub(lo).Length() / 2
}

func polygonNormal(o *mesh.Object, i int, mode NormalMode) (math.Vec3, error) {
	p := o.Polygons[i]
	switch mode {
	case NormalLoop:
		return o.Loops[p.LoopStart].Normal, nil
	case NormalLegacyLoopIndex:
		if i >= len(o.Loops) {
			return math.Vec3{}, fmt.Errorf("%w: loop %d (loops=%d)", avarabsp.ErrIndexOutOfRange, i, len(o.Loops))
		}
		return o.Loops[i].Normal, nil
	default:
		return p.Normal, nil
	}
}

// polygonColor samples the first loop of polygon i. Polygons are assumed to
// be uniformly colored.
func polygonColor(o *mesh.Object, i int, enc ColorEncoding) avarabsp.Color {
	if !o.HasColors() {
		switch enc {
		case PackedRGB24:
			return avarabsp.PackedColor(mesh.White)
		case MarkerOrDirect:
			return avarabsp.MarkerColor(0)
		default:
			return avarabsp.FloatColor(mesh.White)
		}
	}

	c := o.Colors[o.Polygons[i].LoopStart]
	switch enc {
	case PackedRGB24:
		return avarabsp.PackedColor(c)
	case MarkerOrDirect:
		if m := avarabsp.MarkerFor(c); m >= 0 {
			return avarabsp.MarkerColor(m)
		}
		return avarabsp.FloatColor(c)
	default:
		return avarabsp.FloatColor(c)
	}
}

var (
	extPattern     = regexp.MustCompile(`^(.*?)(\.avarabsp\.json|\.json)?$`)
	unsafeNameChar = regexp.MustCompile(`[/\\:*?"<>|]`)
)

// OutputPath substitutes the object name into the stem of base:
// "dir/level.json" + "Cube" -> "dir/level_Cube.json".
func OutputPath(base, objectName, ext string) (string, error) {
	if base == "" {
		return "", avarabsp.ErrNoOutputPath
	}
	if ext == "" {
		ext = ExtJSON
	}
	dir, file := filepath.Split(base)
	m := extPattern.FindStringSubmatch(file)
	name := unsafeNameChar.ReplaceAllString(objectName, "_")
	return dir + m[1] + "_" + name + ext, nil
}

// ExportScene writes one document per mesh object provided by p and returns
// the written paths. Non-mesh objects are skipped. The first failure aborts
// the export; files already written are left in place. Objects whose names
// map to an already written path get a numeric suffix ("_2", "_3", ...).
func ExportScene(p mesh.Provider, base string, opts Options) ([]string, error) {
	if base == "" {
		return nil, avarabsp.ErrNoOutputPath
	}

	objs, err := p.Objects()
	if err != nil {
		return nil, err
	}

	var written []string
	seen := make(map[string]bool)
	for _, o := range objs {
		if o.Kind != mesh.KindMesh {
			logger.Debug("skipping non-mesh object", zap.String("object", o.Name), zap.Stringer("kind", o.Kind))
			continue
		}

		doc, err := ExportObject(o, opts)
		if err != nil {
			return written, fmt.Errorf("export %s: %w", o.Name, err)
		}

		path, err := uniquePath(base, o.Name, opts.Extension, seen)
		if err != nil {
			return written, err
		}
		if err := avarabsp.WriteFile(path, doc, opts.Indent); err != nil {
			return written, fmt.Errorf("export %s: %w", o.Name, err)
		}
		logger.Info("wrote avarabsp document", zap.String("object", o.Name), zap.String("path", path))
		written = append(written, path)
	}

	if len(written) == 0 {
		logger.Warn("no mesh objects to export", zap.Int("objects", len(objs)))
	}
	return written, nil
}

func uniquePath(base, objectName, ext string, seen map[string]bool) (string, error) {
	path, err := OutputPath(base, objectName, ext)
	if err != nil {
		return "", err
	}
	for n := 2; seen[path]; n++ {
		if path, err = OutputPath(base, fmt.Sprintf("%s_%d", objectName, n), ext); err != nil {
			return "", err
		}
	}
	seen[path] = true
	return path, nil
}
