// Package mesh defines the abstract editor mesh exchanged with the host:
// vertex positions, polygon loops with per-loop attributes, and the
// triangulation tagged by source polygon.
package mesh

import (
	"github.com/Faultbox/avarabsp/pkg/math"
)

// Kind identifies the type of a scene object.
type Kind int

const (
	KindMesh  Kind = iota // Polygon mesh
	KindEmpty             // Transform-only object
	KindOther             // Camera, light, curve...
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "Mesh"
	case KindEmpty:
		return "Empty"
	default:
		return "Other"
	}
}

// Color is a linear RGBA color with channels in [0,1].
type Color [4]float32

// White is the color assumed for meshes without color data.
var White = Color{1, 1, 1, 1}

// Loop is one (vertex, polygon) incidence.
type Loop struct {
	Vertex int       // Index into Object.Vertices
	Normal math.Vec3 // Split normal at this corner
}

// Polygon is a face described by a contiguous run of loops.
type Polygon struct {
	LoopStart int       // First loop index
	LoopTotal int       // Number of loops (>= 3)
	Normal    math.Vec3 // Face normal
}

// Triangle is one triangle of the tessellation, tagged with the polygon it
// was cut from.
type Triangle struct {
	V       [3]int // Vertex indices
	Polygon int    // Source polygon index
}

// Object is a scene object. Only KindMesh objects carry geometry.
type Object struct {
	Name      string
	Kind      Kind
	Vertices  []math.Vec3
	Loops     []Loop
	Polygons  []Polygon
	Colors    []Color    // One per loop; nil when the mesh has no color layer
	Triangles []Triangle // Host tessellation; empty means "not computed"
	Transform math.Mat4
}

// NewObject returns an empty mesh object with an identity transform.
func NewObject(name string) *Object {
	return &Object{
		Name:      name,
		Kind:      KindMesh,
		Transform: math.Identity(),
	}
}

// AddPolygon appends a polygon over the given vertex indices, creating its
// loops. The face and loop normals are set to the Newell normal.
func (o *Object) AddPolygon(verts ...int) int {
	start := len(o.Loops)
	for _, v := range verts {
		o.Loops = append(o.Loops, Loop{Vertex: v})
	}
	o.Polygons = append(o.Polygons, Polygon{LoopStart: start, LoopTotal: len(verts)})
	idx := len(o.Polygons) - 1
	n := o.FaceNormal(idx)
	o.Polygons[idx].Normal = n
	for i := start; i < len(o.Loops); i++ {
		o.Loops[i].Normal = n
	}
	return idx
}

// PolygonVertices returns the vertex indices of polygon i in loop order.
func (o *Object) PolygonVertices(i int) []int {
	p := o.Polygons[i]
	out := make([]int, p.LoopTotal)
	for k := 0; k < p.LoopTotal; k++ {
		out[k] = o.Loops[p.LoopStart+k].Vertex
	}
	return out
}

// FaceNormal computes the Newell normal of polygon i.
func (o *Object) FaceNormal(i int) math.Vec3 {
	verts := o.PolygonVertices(i)
	var n math.Vec3
	for k := range verts {
		a := o.Vertices[verts[k]]
		b := o.Vertices[verts[(k+1)%len(verts)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize()
}

// HasColors reports whether the object carries a per-loop color layer.
func (o *Object) HasColors() bool {
	return len(o.Colors) > 0 && len(o.Colors) == len(o.Loops)
}

// SetLoopColor writes the color of loop i, allocating the layer on first use.
func (o *Object) SetLoopColor(i int, c Color) {
	if len(o.Colors) != len(o.Loops) {
		layer := make([]Color, len(o.Loops))
		for k := range layer {
			layer[k] = White
		}
		copy(layer, o.Colors)
		o.Colors = layer
	}
	o.Colors[i] = c
}

// BoundBox returns the eight corners of the object-space axis-aligned
// bounding box in host order: ---, --+, -++, -+-, +--, +-+, +++, ++-.
// An object without vertices yields eight zero corners.
func (o *Object) BoundBox() [8]math.Vec3 {
	var lo, hi math.Vec3
	for i, v := range o.Vertices {
		if i == 0 {
			lo, hi = v, v
			continue
		}
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
	}
}
