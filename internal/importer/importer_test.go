package importer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/avarabsp/internal/exporter"
	"github.com/Faultbox/avarabsp/pkg/avarabsp"
	"github.com/Faultbox/avarabsp/pkg/math"
	"github.com/Faultbox/avarabsp/pkg/mesh"
	"github.com/Faultbox/avarabsp/pkg/triangulate"
)

var (
	green  = mesh.Color{0, 1, 0, 0.5}
	orange = mesh.Color{1, 0.5, 0, 1}
)

// makePrism builds a triangular prism: two triangles and three quads.
func makePrism() *mesh.Object {
	o := mesh.NewObject("prism")
	o.Vertices = []math.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	faces := [][]int{{0, 2, 1}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}}
	for i, f := range faces {
		idx := o.AddPolygon(f...)
		c := orange
		if i%2 == 0 {
			c = green
		}
		p := o.Polygons[idx]
		for l := p.LoopStart; l < p.LoopStart+p.LoopTotal; l++ {
			o.SetLoopColor(l, c)
		}
	}
	return o
}

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	src := makePrism()
	want := triangulate.Object(src, triangulate.Fan)

	doc, err := exporter.ExportObject(src, exporter.DefaultOptions())
	if err != nil {
		t.Fatalf("ExportObject failed: %v", err)
	}
	obj, err := Import(doc, "prism", DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(obj.Vertices) != len(src.Vertices) {
		t.Errorf("vertex count = %d, want %d", len(obj.Vertices), len(src.Vertices))
	}
	if len(obj.Triangles) != len(want) {
		t.Fatalf("triangle count = %d, want %d", len(obj.Triangles), len(want))
	}
	facePoly := FacePolygons(doc)
	for i := range want {
		if obj.Triangles[i].V != want[i].V {
			t.Errorf("triangle %d = %v, want %v", i, obj.Triangles[i].V, want[i].V)
		}
		if obj.Triangles[i].Polygon != i {
			t.Errorf("triangle %d should map to face %d, got %d", i, i, obj.Triangles[i].Polygon)
		}
		if facePoly[i] != want[i].Polygon {
			t.Errorf("face %d source poly = %d, want %d", i, facePoly[i], want[i].Polygon)
		}
	}
	for i, v := range src.Vertices {
		if obj.Vertices[i] != v {
			t.Errorf("vertex %d = %v, want %v", i, obj.Vertices[i], v)
		}
	}
	if obj.Transform != math.RotateX(math.Radians(90)) {
		t.Errorf("transform = %v, want +90° about X", obj.Transform)
	}
}

func TestImportLoopColors(t *testing.T) {
	doc, err := exporter.ExportObject(makePrism(), exporter.DefaultOptions())
	if err != nil {
		t.Fatalf("ExportObject failed: %v", err)
	}
	obj, err := Import(doc, "prism", DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if !obj.HasColors() {
		t.Fatal("expected a color layer")
	}
	opaqueGreen := mesh.Color{0, 1, 0, 1}
	for f, poly := range FacePolygons(doc) {
		want := orange
		if poly%2 == 0 {
			want = opaqueGreen
		}
		p := obj.Polygons[f]
		for l := p.LoopStart; l < p.LoopStart+p.LoopTotal; l++ {
			if obj.Colors[l] != want {
				t.Errorf("face %d loop %d color = %v, want %v", f, l, obj.Colors[l], want)
			}
		}
	}
}

func TestImportMarkerAndPackedColors(t *testing.T) {
	doc := &avarabsp.Document{
		Points:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Colors:  []avarabsp.Color{avarabsp.MarkerColor(2), {Kind: avarabsp.ColorPacked, Packed: 0xFF7F00}},
		Normals: [][3]float32{{0, 0, 1}},
		Polys: []avarabsp.Poly{
			{Color: 0, Normal: 0, Tris: []int{0, 1, 2}},
			{Color: 1, Normal: 0, Tris: []int{1, 3, 2}},
		},
	}

	obj, err := Import(doc, "quad", DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got := avarabsp.HexString(obj.Colors[0]); got != "#0333ff" {
		t.Errorf("marker(2) loop color = %s, want #0333ff", got)
	}
	if got, want := obj.Colors[3], avarabsp.Unpack(0xFF7F00); got != want {
		t.Errorf("packed loop color = %v, want %v", got, want)
	}
	if obj.Colors[5][3] != 1 {
		t.Errorf("alpha = %v, want 1", obj.Colors[5][3])
	}
}

func TestImportNormalsHook(t *testing.T) {
	doc := &avarabsp.Document{
		Points:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Colors:  []avarabsp.Color{avarabsp.MarkerColor(0)},
		Normals: [][3]float32{{0, 1, 0}},
		Polys:   []avarabsp.Poly{{Tris: []int{0, 1, 2}}},
	}

	obj, err := Import(doc, "tri", DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if obj.Polygons[0].Normal != (math.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Errorf("without a hook the face normal should be geometric, got %v", obj.Polygons[0].Normal)
	}

	var seen []math.Vec3
	opts := DefaultOptions()
	opts.NormalHook = func(o *mesh.Object, n []math.Vec3, facePoly []int) {
		seen = n
		ApplyNormals(o, n, facePoly)
	}
	obj, err = Import(doc, "tri", opts)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != (math.Vec3{X: 0, Y: 1, Z: 0}) {
		t.Errorf("hook received %v", seen)
	}
	if obj.Polygons[0].Normal != (math.Vec3{X: 0, Y: 1, Z: 0}) || obj.Loops[2].Normal != (math.Vec3{X: 0, Y: 1, Z: 0}) {
		t.Errorf("ApplyNormals did not write source normal: face %v loop %v", obj.Polygons[0].Normal, obj.Loops[2].Normal)
	}
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	base := func() *avarabsp.Document {
		return &avarabsp.Document{
			Points:  [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Colors:  []avarabsp.Color{avarabsp.MarkerColor(0)},
			Normals: [][3]float32{{0, 0, 1}},
			Polys:   []avarabsp.Poly{{Tris: []int{0, 1, 2}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *avarabsp.Document)
		wantErr error
	}{
		{"tris out of range", func(d *avarabsp.Document) { d.Polys[0].Tris[2] = 3 }, avarabsp.ErrIndexOutOfRange},
		{"color out of range", func(d *avarabsp.Document) { d.Polys[0].Color = 1 }, avarabsp.ErrIndexOutOfRange},
		{"normal out of range", func(d *avarabsp.Document) { d.Polys[0].Normal = -1 }, avarabsp.ErrIndexOutOfRange},
		{"tris not triples", func(d *avarabsp.Document) { d.Polys[0].Tris = []int{0, 1} }, avarabsp.ErrBadTris},
		{"bad marker", func(d *avarabsp.Document) { d.Colors[0] = avarabsp.MarkerColor(7) }, avarabsp.ErrBadColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mutate(d)
			obj, err := Import(d, "bad", DefaultOptions())
			if obj != nil {
				t.Error("expected no object")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	tests := map[string]string{
		"/tmp/level_Hull.json":          "level_Hull",
		"level_Hull.avarabsp.json":      "level_Hull",
		filepath.Join("a", "b", "x.js"): "x.js",
		".json":                         ".json",
	}
	for in, want := range tests {
		if got := ObjectName(in); got != want {
			t.Errorf("ObjectName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImportFiles(t *testing.T) {
	dir := t.TempDir()

	doc, err := exporter.ExportObject(makePrism(), exporter.DefaultOptions())
	if err != nil {
		t.Fatalf("ExportObject failed: %v", err)
	}
	good := filepath.Join(dir, "good.json")
	if err := avarabsp.WriteFile(good, doc, false); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	broken := writeDoc(t, dir, "broken.json", `{"points": [`)
	missing := filepath.Join(dir, "missing.json")

	t.Run("all isolates failures", func(t *testing.T) {
		scene := mesh.NewScene()
		n, err := ImportFiles([]string{broken, good, missing}, scene, DefaultOptions())
		if n != 1 || scene.Len() != 1 {
			t.Errorf("linked %d (scene %d), want 1", n, scene.Len())
		}
		if got := len(multierr.Errors(err)); got != 2 {
			t.Fatalf("expected 2 combined errors, got %d: %v", got, err)
		}
		if !errors.Is(err, avarabsp.ErrMalformedJSON) {
			t.Errorf("expected ErrMalformedJSON in %v", err)
		}
		if !errors.Is(err, avarabsp.ErrEnvironment) {
			t.Errorf("expected ErrEnvironment in %v", err)
		}
		objs, _ := scene.Objects()
		if objs[0].Name != "good" {
			t.Errorf("object name = %q, want good", objs[0].Name)
		}
	})

	t.Run("first ignores the rest", func(t *testing.T) {
		scene := mesh.NewScene()
		opts := DefaultOptions()
		opts.Mode = ModeFirst
		n, err := ImportFiles([]string{good, broken}, scene, opts)
		if err != nil {
			t.Fatalf("ImportFiles failed: %v", err)
		}
		if n != 1 || scene.Len() != 1 {
			t.Errorf("linked %d, want 1", n)
		}
	})

	t.Run("first aborts on error", func(t *testing.T) {
		scene := mesh.NewScene()
		opts := DefaultOptions()
		opts.Mode = ModeFirst
		n, err := ImportFiles([]string{broken, good}, scene, opts)
		if err == nil || n != 0 || scene.Len() != 0 {
			t.Errorf("expected failure with nothing linked, got n=%d err=%v", n, err)
		}
	})

	t.Run("no paths", func(t *testing.T) {
		_, err := ImportFiles(nil, mesh.NewScene(), DefaultOptions())
		if !errors.Is(err, avarabsp.ErrInput) {
			t.Errorf("expected input error, got %v", err)
		}
	})
}

type failingSink struct{}

func (failingSink) Link(*mesh.Object) error { return errors.New("scene is read-only") }

func TestImportFileSinkFailure(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "tri.json", `{"points": [[0,0,0],[1,0,0],[0,1,0]],
		"colors": [[1,1,1]], "normals": [[0,0,1]], "polys": [{"color": 0, "normal": 0, "tris": [0,1,2]}]}`)

	_, err := ImportFile(path, failingSink{}, DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("first"); err != nil || m != ModeFirst {
		t.Errorf("ParseMode(first) = %v, %v", m, err)
	}
	if m, err := ParseMode("all"); err != nil || m != ModeAll || m.String() != "all" {
		t.Errorf("ParseMode(all) = %v, %v", m, err)
	}
	if _, err := ParseMode("some"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestReexportImportedObject(t *testing.T) {
	doc, err := exporter.ExportObject(makePrism(), exporter.DefaultOptions())
	if err != nil {
		t.Fatalf("ExportObject failed: %v", err)
	}
	obj, err := Import(doc, "prism", DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	again, err := exporter.ExportObject(obj, exporter.DefaultOptions())
	if err != nil {
		t.Fatalf("re-export failed: %v", err)
	}
	// Every imported face is a triangle and becomes its own poly
	if len(again.Polys) != doc.TriangleCount() || again.TriangleCount() != doc.TriangleCount() {
		t.Errorf("re-export: %d polys, %d triangles, want %d", len(again.Polys), again.TriangleCount(), doc.TriangleCount())
	}
	if len(again.Colors) != 2 {
		t.Errorf("re-export should keep two distinct colors, got %d", len(again.Colors))
	}
}
