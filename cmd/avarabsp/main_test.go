package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/avarabsp/pkg/avarabsp"
	"github.com/Faultbox/avarabsp/pkg/formats"
)

const testScene = `o Hull
v 0 0 0 1 0 0
v 2 0 0 1 0 0
v 2 1 0 1 0 0
v 0 1 0 1 0 0
f 1 2 3 4
o Fin
v 0 0 1
v 1 0 1
v 0 1 1
f 5 6 7
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestExportImportInspect(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "avarabsp.yaml")
	writeFile(t, cfgPath, "logging:\n  level: error\n")
	scenePath := filepath.Join(dir, "scene.obj")
	writeFile(t, scenePath, testScene)

	out, err := execute(t, "--config", cfgPath, "export", scenePath, "-o", filepath.Join(dir, "level.json"))
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	hull := filepath.Join(dir, "level_Hull.json")
	fin := filepath.Join(dir, "level_Fin.json")
	if out != hull+"\n"+fin+"\n" {
		t.Errorf("export output = %q", out)
	}

	doc, err := avarabsp.ReadFile(hull)
	if err != nil {
		t.Fatalf("reading exported document: %v", err)
	}
	if len(doc.Polys) != 1 || doc.TriangleCount() != 2 {
		t.Errorf("hull: %d polys, %d triangles", len(doc.Polys), doc.TriangleCount())
	}

	objPath := filepath.Join(dir, "back.obj")
	out, err = execute(t, "--config", cfgPath, "import", hull, fin, "-o", objPath)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "2 object(s)") {
		t.Errorf("import output = %q", out)
	}
	scene, err := formats.ReadOBJ(objPath, formats.OBJOptions{})
	if err != nil {
		t.Fatalf("reading imported scene: %v", err)
	}
	objs, _ := scene.Objects()
	if len(objs) != 2 || objs[0].Name != "level_Hull" {
		t.Fatalf("imported objects = %d", len(objs))
	}
	if len(objs[0].Polygons) != 2 {
		t.Errorf("hull should import as 2 triangles, got %d faces", len(objs[0].Polygons))
	}

	out, err = execute(t, "--config", cfgPath, "inspect", hull)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Points:    4", "Triangles: 2", "[0] #ff0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestImportGLB(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "avarabsp.yaml")
	writeFile(t, cfgPath, "logging:\n  level: error\n")
	docPath := filepath.Join(dir, "tri.json")
	writeFile(t, docPath, `{"points":[[0,0,0],[1,0,0],[0,1,0]],"colors":["marker(1)"],"normals":[[0,0,1]],
"polys":[{"color":0,"normal":0,"tris":[0,1,2]}],"bounds":{"min":[0,0,0],"max":[1,1,0]},
"center":[0.5,0.5,0],"radius1":0,"radius2":0.7}`)

	glbPath := filepath.Join(dir, "tri.glb")
	if _, err := execute(t, "--config", cfgPath, "import", docPath, "-o", glbPath); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if info, err := os.Stat(glbPath); err != nil || info.Size() == 0 {
		t.Errorf("GLB not written: %v", err)
	}
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "avarabsp.yaml")
	writeFile(t, cfgPath, "logging:\n  level: error\n")
	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"points":[[0,0,0]],"polys":[{"color":0,"normal":0,"tris":[0,0]}]}`)

	if _, err := execute(t, "--config", cfgPath, "import", bad, "-o", filepath.Join(dir, "x.stl")); err == nil {
		t.Error("expected error for unsupported output extension")
	}
	if _, err := execute(t, "--config", cfgPath, "import", bad, "-o", filepath.Join(dir, "x.obj")); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, err := os.Stat(filepath.Join(dir, "x.obj")); !os.IsNotExist(err) {
		t.Error("nothing should be written when every document fails")
	}
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "avarabsp.yaml")
	writeFile(t, cfgPath, "export:\n  color_encoding: packed-rgb24\nlogging:\n  level: error\n")

	out, err := execute(t, "--config", cfgPath, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "color_encoding: packed-rgb24") {
		t.Errorf("config output = %q", out)
	}
}

func TestBadConfigFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "avarabsp.yaml")
	writeFile(t, cfgPath, "export:\n  radius_mode: enormous\n")

	if _, err := execute(t, "--config", cfgPath, "config"); err == nil {
		t.Error("expected unknown radius mode to fail")
	}
}
