// Package triangulate splits polygon loops into triangles tagged with the
// index of the polygon they came from.
package triangulate

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/avarabsp/pkg/math"
	"github.com/Faultbox/avarabsp/pkg/mesh"
)

// Mode selects the triangulation strategy.
type Mode int

const (
	Fan Mode = iota // (v0, vi, vi+1) for i in 1..n-2
	Ear             // Ear clipping on the polygon's projected plane
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case Fan:
		return "fan"
	case Ear:
		return "ear"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseMode parses "fan" or "ear".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fan", "":
		return Fan, nil
	case "ear":
		return Ear, nil
	default:
		return Fan, fmt.Errorf("unknown triangulation mode %q", s)
	}
}

// Object triangulates every polygon of o in polygon order.
func Object(o *mesh.Object, mode Mode) []mesh.Triangle {
	var out []mesh.Triangle
	for i := range o.Polygons {
		for _, tri := range Polygon(o.PolygonVertices(i), o.Vertices, mode) {
			out = append(out, mesh.Triangle{V: tri, Polygon: i})
		}
	}
	return out
}

// Polygon triangulates one loop of vertex indices. A loop of n >= 3 vertices
// always yields n-2 triangles; shorter loops yield none.
func Polygon(loop []int, positions []math.Vec3, mode Mode) [][3]int {
	if len(loop) < 3 {
		return nil
	}
	if mode == Ear && len(loop) > 3 {
		return earClip(loop, positions)
	}
	return fan(loop)
}

func fan(loop []int) [][3]int {
	tris := make([][3]int, 0, len(loop)-2)
	for i := 1; i < len(loop)-1; i++ {
		tris = append(tris, [3]int{loop[0], loop[i], loop[i+1]})
	}
	return tris
}

// earClip projects the loop onto its best-fit plane and clips convex ears
// that contain no other vertex. Whatever remains when no ear can be found
// (degenerate or self-intersecting input) is fanned.
func earClip(loop []int, positions []math.Vec3) [][3]int {
	pts := project(loop, positions)

	remaining := make([]int, len(loop))
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([][3]int, 0, len(loop)-2)
	for len(remaining) > 3 {
		ear := -1
		for i := range remaining {
			a := pts[remaining[(i+len(remaining)-1)%len(remaining)]]
			b := pts[remaining[i]]
			c := pts[remaining[(i+1)%len(remaining)]]
			if cross2(a, b, c) <= 0 {
				continue
			}
			if containsAny(pts, remaining, i, a, b, c) {
				continue
			}
			ear = i
			break
		}
		if ear < 0 {
			break
		}
		prev := remaining[(ear+len(remaining)-1)%len(remaining)]
		next := remaining[(ear+1)%len(remaining)]
		tris = append(tris, [3]int{loop[prev], loop[remaining[ear]], loop[next]})
		remaining = append(remaining[:ear], remaining[ear+1:]...)
	}

	rest := make([]int, len(remaining))
	for i, r := range remaining {
		rest[i] = loop[r]
	}
	return append(tris, fan(rest)...)
}

// project maps loop positions to 2D coordinates on a plane whose normal is
// the loop's Newell normal, so a counter-clockwise loop stays
// counter-clockwise.
func project(loop []int, positions []math.Vec3) []mgl32.Vec2 {
	var n mgl32.Vec3
	for k := range loop {
		a := positions[loop[k]]
		b := positions[loop[(k+1)%len(loop)]]
		n[0] += (a.Y - b.Y) * (a.Z + b.Z)
		n[1] += (a.Z - b.Z) * (a.X + b.X)
		n[2] += (a.X - b.X) * (a.Y + b.Y)
	}
	if n.Len() == 0 {
		n = mgl32.Vec3{0, 0, 1}
	}
	n = n.Normalize()

	xAxis := mgl32.Vec3{1, 0, 0}
	if mgl32.FloatEqual(abs(n.X()), 1) {
		xAxis = mgl32.Vec3{0, 0, 1}
	}
	yAxis := n.Cross(xAxis).Normalize()
	xAxis = yAxis.Cross(n).Normalize()

	out := make([]mgl32.Vec2, len(loop))
	for i, v := range loop {
		p := mgl32.Vec3{positions[v].X, positions[v].Y, positions[v].Z}
		out[i] = mgl32.Vec2{p.Dot(xAxis), p.Dot(yAxis)}
	}
	return out
}

func cross2(a, b, c mgl32.Vec2) float32 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

// containsAny reports whether a remaining vertex other than the ear's three
// corners lies inside or on triangle abc.
func containsAny(pts []mgl32.Vec2, remaining []int, ear int, a, b, c mgl32.Vec2) bool {
	n := len(remaining)
	skip := map[int]bool{
		remaining[(ear+n-1)%n]: true,
		remaining[ear]:         true,
		remaining[(ear+1)%n]:   true,
	}
	for _, r := range remaining {
		if skip[r] {
			continue
		}
		p := pts[r]
		if p == a || p == b || p == c {
			continue
		}
		if cross2(a, b, p) >= 0 && cross2(b, c, p) >= 0 && cross2(c, a, p) >= 0 {
			return true
		}
	}
	return false
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
