// Package avarabsp implements the avarabsp BSP-polygon scene document: its
// JSON schema, color table encodings and structural validation.
package avarabsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// NoAdjacency marks an empty front/back BSP slot.
const NoAdjacency = 65535

// Bounds is an axis-aligned box in object space.
type Bounds struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

// Poly is one polygon record.
type Poly struct {
	Color  int   `json:"color"`  // Index into Document.Colors
	Normal int   `json:"normal"` // Index into Document.Normals
	Tris   []int `json:"tris"`   // Vertex ids, three per triangle
	Front  *int  `json:"front,omitempty"`
	Back   *int  `json:"back,omitempty"`
}

// TriangleCount returns len(Tris)/3.
func (p Poly) TriangleCount() int {
	return len(p.Tris) / 3
}

// Document is a parsed avarabsp file.
type Document struct {
	Points  [][3]float32 `json:"points"`
	Colors  []Color      `json:"colors"`
	Normals [][3]float32 `json:"normals"`
	Polys   []Poly       `json:"polys"`
	Bounds  Bounds       `json:"bounds"`
	Center  [3]float32   `json:"center"`
	Radius1 float32      `json:"radius1"`
	Radius2 float32      `json:"radius2"`
}

// TriangleCount returns the total number of triangles across all polys.
func (d *Document) TriangleCount() int {
	n := 0
	for _, p := range d.Polys {
		n += p.TriangleCount()
	}
	return n
}

// Validate checks every structural invariant an importer relies on, and
// that every value can be written as JSON.
func (d *Document) Validate() error {
	if err := d.checkFinite(); err != nil {
		return err
	}
	for i, c := range d.Colors {
		if err := c.check(); err != nil {
			return fmt.Errorf("color %d: %w", i, err)
		}
	}
	for i, p := range d.Polys {
		if len(p.Tris)%3 != 0 {
			return fmt.Errorf("%w: poly %d has %d ids", ErrBadTris, i, len(p.Tris))
		}
		if p.Color < 0 || p.Color >= len(d.Colors) {
			return fmt.Errorf("%w: poly %d color %d (colors=%d)", ErrIndexOutOfRange, i, p.Color, len(d.Colors))
		}
		if p.Normal < 0 || p.Normal >= len(d.Normals) {
			return fmt.Errorf("%w: poly %d normal %d (normals=%d)", ErrIndexOutOfRange, i, p.Normal, len(d.Normals))
		}
		for _, v := range p.Tris {
			if v < 0 || v >= len(d.Points) {
				return fmt.Errorf("%w: poly %d tris id %d (points=%d)", ErrIndexOutOfRange, i, v, len(d.Points))
			}
		}
	}
	return nil
}

func (d *Document) checkFinite() error {
	for i, p := range d.Points {
		if !finite(p[:]...) {
			return fmt.Errorf("%w: point %d = %v", ErrNonFinite, i, p)
		}
	}
	for i, n := range d.Normals {
		if !finite(n[:]...) {
			return fmt.Errorf("%w: normal %d = %v", ErrNonFinite, i, n)
		}
	}
	if !finite(d.Bounds.Min[:]...) || !finite(d.Bounds.Max[:]...) {
		return fmt.Errorf("%w: bounds %v", ErrNonFinite, d.Bounds)
	}
	if !finite(d.Center[:]...) {
		return fmt.Errorf("%w: center %v", ErrNonFinite, d.Center)
	}
	if !finite(d.Radius1, d.Radius2) {
		return fmt.Errorf("%w: radii %v, %v", ErrNonFinite, d.Radius1, d.Radius2)
	}
	return nil
}

func finite(vs ...float32) bool {
	for _, v := range vs {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, ErrInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode writes doc as JSON, indented with two spaces when indent is set.
func Encode(w io.Writer, doc *Document, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

// ReadFile opens, fully decodes and closes path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, environmentError("open", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteFile validates and encodes doc, then creates path and writes it.
// Nothing is created when doc cannot be encoded.
func WriteFile(path string, doc *Document, indent bool) (err error) {
	if err := doc.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc, indent); err != nil {
		if errors.Is(err, ErrInput) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return environmentError("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = environmentError("close", path, cerr)
		}
	}()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return environmentError("write", path, err)
	}
	return nil
}
