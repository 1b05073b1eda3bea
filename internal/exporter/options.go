package exporter

import (
	"fmt"

	"github.com/Faultbox/avarabsp/pkg/triangulate"
)

// ColorEncoding selects how color table entries are written.
type ColorEncoding int

const (
	FloatRGBA      ColorEncoding = iota // [r, g, b, a]
	PackedRGB24                         // (R<<16)|(G<<8)|B, floor scaled
	MarkerOrDirect                      // "marker(N)" for palette colors, floats otherwise
)

var colorEncodingNames = map[ColorEncoding]string{
	FloatRGBA:      "float-rgba",
	PackedRGB24:    "packed-rgb24",
	MarkerOrDirect: "marker-or-direct",
}

func (e ColorEncoding) String() string {
	if s, ok := colorEncodingNames[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(%d)", int(e))
}

// ParseColorEncoding parses a config name.
func ParseColorEncoding(s string) (ColorEncoding, error) {
	switch s {
	case "float-rgba":
		return FloatRGBA, nil
	case "packed-rgb24":
		return PackedRGB24, nil
	case "marker-or-direct":
		return MarkerOrDirect, nil
	default:
		return FloatRGBA, fmt.Errorf("unknown color encoding %q", s)
	}
}

// RadiusMode selects how radius1 is computed.
type RadiusMode int

const (
	RadiusMeasured RadiusMode = iota // |bounds.min|
	RadiusFixedOne                   // 1.0
)

func (m RadiusMode) String() string {
	switch m {
	case RadiusMeasured:
		return "measured"
	case RadiusFixedOne:
		return "fixed-one"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseRadiusMode parses a config name.
func ParseRadiusMode(s string) (RadiusMode, error) {
	switch s {
	case "measured":
		return RadiusMeasured, nil
	case "fixed-one":
		return RadiusFixedOne, nil
	default:
		return RadiusMeasured, fmt.Errorf("unknown radius mode %q", s)
	}
}

// NormalMode selects where a polygon's normal is read from.
type NormalMode int

const (
	NormalPolygon         NormalMode = iota // Face normal
	NormalLoop                              // Normal of the polygon's first loop
	NormalLegacyLoopIndex                   // Normal of the loop whose index equals the polygon index
)

func (m NormalMode) String() string {
	switch m {
	case NormalPolygon:
		return "polygon"
	case NormalLoop:
		return "loop"
	case NormalLegacyLoopIndex:
		return "legacy-loop-index"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseNormalMode parses a config name.
func ParseNormalMode(s string) (NormalMode, error) {
	switch s {
	case "polygon":
		return NormalPolygon, nil
	case "loop":
		return NormalLoop, nil
	case "legacy-loop-index":
		return NormalLegacyLoopIndex, nil
	default:
		return NormalPolygon, fmt.Errorf("unknown normal mode %q", s)
	}
}

// BoundsMode selects the min/max reduction over bound-box corners.
type BoundsMode int

const (
	BoundsDominance     BoundsMode = iota // Replace only when every axis dominates
	BoundsComponentwise                   // Per-axis min/max
)

func (m BoundsMode) String() string {
	switch m {
	case BoundsDominance:
		return "dominance"
	case BoundsComponentwise:
		return "componentwise"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// ParseBoundsMode parses a config name.
func ParseBoundsMode(s string) (BoundsMode, error) {
	switch s {
	case "dominance":
		return BoundsDominance, nil
	case "componentwise":
		return BoundsComponentwise, nil
	default:
		return BoundsDominance, fmt.Errorf("unknown bounds mode %q", s)
	}
}

// Extensions accepted for output files.
const (
	ExtJSON       = ".json"
	ExtLegacyJSON = ".avarabsp.json"
)

// Options configures an export.
type Options struct {
	Colors        ColorEncoding
	Radius        RadiusMode
	Normals       NormalMode
	Bounds        BoundsMode
	Triangulation triangulate.Mode
	Extension     string // ExtJSON or ExtLegacyJSON
	Adjacency     bool   // Emit front/back = NoAdjacency on every poly
	Indent        bool
}

// DefaultOptions returns the current format variant.
func DefaultOptions() Options {
	return Options{
		Colors:        FloatRGBA,
		Radius:        RadiusMeasured,
		Normals:       NormalPolygon,
		Bounds:        BoundsDominance,
		Triangulation: triangulate.Fan,
		Extension:     ExtJSON,
		Indent:        true,
	}
}
