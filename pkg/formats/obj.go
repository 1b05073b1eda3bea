package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/avarabsp/pkg/encoding"
	"github.com/Faultbox/avarabsp/pkg/math"
	"github.com/Faultbox/avarabsp/pkg/mesh"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ")
	ErrOBJIndex     = errors.New("OBJ index out of range")
)

// DefaultObjectName names faces that appear before any "o" or "g" line.
const DefaultObjectName = "Object"

// OBJOptions configures OBJ parsing.
type OBJOptions struct {
	Names *encoding.Decoder // Decoder for object names; nil means UTF-8
}

// ReadOBJ parses a Wavefront OBJ file into a scene.
func ReadOBJ(path string, opts OBJOptions) (*mesh.Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ: %w", err)
	}
	defer f.Close()

	return ParseOBJ(f, opts)
}

// objState accumulates file-global vertex data and the object being built.
type objState struct {
	opts OBJOptions

	positions []math.Vec3
	colors    []mesh.Color
	colored   []bool
	normals   []math.Vec3

	objects []*mesh.Object
	cur     *mesh.Object
	remap   map[int]int // global vertex -> index in cur
	tinted  bool        // cur references a colored vertex
	corners []mesh.Color
	loopN   [][]int // per polygon, normal indices or nil
}

// ParseOBJ parses OBJ data from a reader. "o" and "g" lines start a new
// object; vertex indices are global to the file and rebased per object.
// Supported statements: v (with optional r g b), vn, f, o, g. Others are
// ignored.
func ParseOBJ(r io.Reader, opts OBJOptions) (*mesh.Scene, error) {
	st := &objState{opts: opts}
	st.begin(DefaultObjectName)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		if err := st.statement(line); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedOBJ, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}
	st.finish()

	return mesh.NewScene(st.objects...), nil
}

func (st *objState) statement(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "v":
		return st.vertex(fields[1:])
	case "vn":
		n, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		st.normals = append(st.normals, math.Vec3{X: n[0], Y: n[1], Z: n[2]}.Normalize())
	case "f":
		return st.face(fields[1:])
	case "o", "g":
		name := strings.TrimSpace(line[len(fields[0]):])
		if name == "" {
			name = DefaultObjectName
		}
		st.begin(st.opts.Names.String([]byte(name)))
	}
	return nil
}

func (st *objState) vertex(args []string) error {
	var xyz, rgb []float32
	var err error
	switch len(args) {
	case 3, 4: // optional w is ignored
		xyz, err = parseFloats(args[:3], 3)
	case 6:
		if xyz, err = parseFloats(args[:3], 3); err == nil {
			rgb, err = parseFloats(args[3:], 3)
		}
	default:
		return fmt.Errorf("vertex needs 3, 4 or 6 values, got %d", len(args))
	}
	if err != nil {
		return err
	}

	st.positions = append(st.positions, math.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	if rgb != nil {
		st.colors = append(st.colors, mesh.Color{rgb[0], rgb[1], rgb[2], 1})
	} else {
		st.colors = append(st.colors, mesh.White)
	}
	st.colored = append(st.colored, rgb != nil)
	return nil
}

func (st *objState) face(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(args))
	}

	globals := make([]int, len(args))
	norms := make([]int, 0, len(args))
	for i, tok := range args {
		parts := strings.Split(tok, "/")
		v, err := resolveIndex(parts[0], len(st.positions))
		if err != nil {
			return err
		}
		globals[i] = v

		if len(parts) == 3 && parts[2] != "" {
			n, err := resolveIndex(parts[2], len(st.normals))
			if err != nil {
				return err
			}
			norms = append(norms, n)
		}
	}
	// Normals apply only when every corner names one
	if len(norms) != len(args) {
		norms = nil
	}

	verts := make([]int, len(globals))
	for i, g := range globals {
		verts[i] = st.local(g)
		st.corners = append(st.corners, st.colors[g])
		if st.colored[g] {
			st.tinted = true
		}
	}
	st.cur.AddPolygon(verts...)
	st.loopN = append(st.loopN, norms)
	return nil
}

// local maps a global vertex index to the current object's vertex list.
func (st *objState) local(global int) int {
	if idx, ok := st.remap[global]; ok {
		return idx
	}
	idx := len(st.cur.Vertices)
	st.cur.Vertices = append(st.cur.Vertices, st.positions[global])
	st.remap[global] = idx
	return idx
}

// begin starts a new object, or renames the current one if it is still empty.
func (st *objState) begin(name string) {
	if st.cur != nil && len(st.cur.Polygons) == 0 {
		st.cur.Name = name
		return
	}
	st.finish()
	st.cur = mesh.NewObject(name)
	st.remap = make(map[int]int)
	st.tinted = false
	st.corners = nil
	st.loopN = nil
}

// finish applies per-loop normals and colors and appends the current object.
func (st *objState) finish() {
	o := st.cur
	if o == nil || len(o.Polygons) == 0 {
		return
	}

	for p, norms := range st.loopN {
		if norms == nil {
			continue
		}
		poly := &o.Polygons[p]
		var sum math.Vec3
		for k, n := range norms {
			o.Loops[poly.LoopStart+k].Normal = st.normals[n]
			sum = sum.Add(st.normals[n])
		}
		if sum.Length() > 0 {
			poly.Normal = sum.Normalize()
		}
	}

	if st.tinted {
		o.Colors = st.corners
	}

	st.objects = append(st.objects, o)
	st.cur = nil
}

// resolveIndex converts a 1-based or negative OBJ index into a 0-based one.
func resolveIndex(tok string, count int) (int, error) {
	i, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", tok)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("%w: %d of %d", ErrOBJIndex, i, count)
	}
}

func parseFloats(args []string, n int) ([]float32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("need %d values, got %d", n, len(args))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", args[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

// WriteOBJ writes the mesh objects of scene to path with transforms baked
// into positions. Vertex colors are the average of the loop colors that
// reference each vertex.
func WriteOBJ(path string, scene *mesh.Scene) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing OBJ: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := EncodeOBJ(w, scene); err != nil {
		return err
	}
	return w.Flush()
}

// EncodeOBJ writes scene as OBJ text.
func EncodeOBJ(w io.Writer, scene *mesh.Scene) error {
	bw := &errWriter{w: w}
	bw.printf("# avarabsp\n")

	vertBase, normBase := 1, 1
	for _, o := range scene.Meshes() {
		bw.printf("o %s\n", o.Name)

		xf := transformOf(o)
		colors := vertexColors(o)
		for i, v := range o.Vertices {
			p := xf.TransformVec3(v)
			if colors != nil {
				c := colors[i]
				bw.printf("v %s %s %s %s %s %s\n", ff(p.X), ff(p.Y), ff(p.Z), ff(c[0]), ff(c[1]), ff(c[2]))
			} else {
				bw.printf("v %s %s %s\n", ff(p.X), ff(p.Y), ff(p.Z))
			}
		}
		for _, poly := range o.Polygons {
			n := xf.TransformDirection(poly.Normal).Normalize()
			bw.printf("vn %s %s %s\n", ff(n.X), ff(n.Y), ff(n.Z))
		}
		for p := range o.Polygons {
			bw.printf("f")
			for _, v := range o.PolygonVertices(p) {
				bw.printf(" %d//%d", vertBase+v, normBase+p)
			}
			bw.printf("\n")
		}

		vertBase += len(o.Vertices)
		normBase += len(o.Polygons)
	}
	return bw.err
}

// transformOf returns the object transform, treating the zero matrix as
// identity.
func transformOf(o *mesh.Object) math.Mat4 {
	if o.Transform == (math.Mat4{}) {
		return math.Identity()
	}
	return o.Transform
}

// vertexColors averages loop colors per vertex, or returns nil without a
// color layer.
func vertexColors(o *mesh.Object) []mesh.Color {
	if !o.HasColors() {
		return nil
	}
	sum := make([]mesh.Color, len(o.Vertices))
	count := make([]int, len(o.Vertices))
	for l, loop := range o.Loops {
		for k := 0; k < 4; k++ {
			sum[loop.Vertex][k] += o.Colors[l][k]
		}
		count[loop.Vertex]++
	}
	for i := range sum {
		if count[i] == 0 {
			sum[i] = mesh.White
			continue
		}
		for k := 0; k < 4; k++ {
			sum[i][k] /= float32(count[i])
		}
	}
	return sum
}

func ff(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
