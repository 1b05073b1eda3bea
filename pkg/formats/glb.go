package formats

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/avarabsp/pkg/mesh"
	"github.com/Faultbox/avarabsp/pkg/triangulate"
)

// BuildGLTF converts the mesh objects of scene into a glTF document with
// one mesh and one node per object. Triangles are de-indexed so each corner
// carries its own loop color and face normal; transforms are baked into
// positions.
func BuildGLTF(scene *mesh.Scene) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "avarabsp"

	material := &gltf.Material{
		Name: "VertexColor",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	doc.Materials = []*gltf.Material{material}

	for _, o := range scene.Meshes() {
		positions, normals, colors := flatten(o)
		if len(positions) == 0 {
			continue
		}
		for _, c := range colors {
			if c[3] < 1 {
				material.AlphaMode = gltf.AlphaBlend
				break
			}
		}

		indices := make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}

		posAccessor := modeler.WritePosition(doc, positions)
		normalAccessor := modeler.WriteNormal(doc, normals)
		colorAccessor := modeler.WriteColor(doc, colors)
		indicesAccessor := modeler.WriteIndices(doc, indices)

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(posAccessor),
				gltf.NORMAL:   uint32(normalAccessor),
				gltf.COLOR_0:  uint32(colorAccessor),
			},
			Indices:  gltf.Index(uint32(indicesAccessor)),
			Material: gltf.Index(0),
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: o.Name, Primitives: []*gltf.Primitive{prim}})
		meshIdx := uint32(len(doc.Meshes) - 1)
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: o.Name, Mesh: gltf.Index(meshIdx)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	return doc
}

// WriteGLB writes scene as a binary glTF file.
func WriteGLB(path string, scene *mesh.Scene) error {
	if err := gltf.SaveBinary(BuildGLTF(scene), path); err != nil {
		return fmt.Errorf("writing GLB %s: %w", path, err)
	}
	return nil
}

// flatten expands the triangles of o into per-corner attribute arrays.
func flatten(o *mesh.Object) (positions, normals [][3]float32, colors [][4]float32) {
	tris := o.Triangles
	if len(tris) == 0 {
		tris = triangulate.Object(o, triangulate.Fan)
	}
	xf := transformOf(o)

	for _, tri := range tris {
		poly := o.Polygons[tri.Polygon]
		n := xf.TransformDirection(poly.Normal).Normalize().Array()
		for _, v := range tri.V {
			positions = append(positions, xf.TransformVec3(o.Vertices[v]).Array())
			normals = append(normals, n)
			colors = append(colors, cornerColor(o, poly, v))
		}
	}
	return positions, normals, colors
}

// cornerColor returns the color of the loop of poly that references vertex v.
func cornerColor(o *mesh.Object, poly mesh.Polygon, v int) [4]float32 {
	if !o.HasColors() {
		return mesh.White
	}
	for l := poly.LoopStart; l < poly.LoopStart+poly.LoopTotal; l++ {
		if o.Loops[l].Vertex == v {
			return o.Colors[l]
		}
	}
	return o.Colors[poly.LoopStart]
}
