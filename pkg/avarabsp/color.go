package avarabsp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/Faultbox/avarabsp/pkg/mesh"
)

// MarkerPalette is the fixed palette that "marker(N)" colors resolve against.
var MarkerPalette = [4]string{"#fefefe", "#fe0000", "#0333ff", "#929292"}

var markerPattern = regexp.MustCompile(`^marker\((\d+)\)$`)

// ColorKind is the wire encoding of a color table entry.
type ColorKind uint8

const (
	ColorFloat  ColorKind = iota // [r, g, b] or [r, g, b, a]
	ColorPacked                  // 0xRRGGBB integer
	ColorMarker                  // "marker(N)"
	ColorHex                     // "#rrggbb"
)

// String returns a human-readable encoding name.
func (k ColorKind) String() string {
	switch k {
	case ColorFloat:
		return "float"
	case ColorPacked:
		return "packed"
	case ColorMarker:
		return "marker"
	case ColorHex:
		return "hex"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Color is one entry of a document's color table. It is comparable, so
// exact-equality deduplication can key a map on it directly.
type Color struct {
	Kind     ColorKind
	RGBA     [4]float32 // ColorFloat channels
	Channels int        // ColorFloat channel count, 3 or 4
	Packed   uint32     // ColorPacked value
	Marker   int        // ColorMarker palette index
	Hex      string     // ColorHex value
}

// FloatColor encodes c as a 4-channel float array with every channel
// clamped to [0,1].
func FloatColor(c mesh.Color) Color {
	for i := range c {
		c[i] = unit(c[i])
	}
	return Color{Kind: ColorFloat, RGBA: c, Channels: 4}
}

// PackedColor encodes c as a 24-bit integer, dropping alpha.
func PackedColor(c mesh.Color) Color {
	return Color{Kind: ColorPacked, Packed: Pack(c)}
}

// MarkerColor references palette entry n.
func MarkerColor(n int) Color {
	return Color{Kind: ColorMarker, Marker: n}
}

// Pack converts the RGB channels of c to 0xRRGGBB. Each channel is clamped to
// [0,1] and scaled with floor(c*255).
func Pack(c mesh.Color) uint32 {
	return channelByte(c[0])<<16 | channelByte(c[1])<<8 | channelByte(c[2])
}

// Unpack converts 0xRRGGBB back to an opaque color.
func Unpack(v uint32) mesh.Color {
	return mesh.Color{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
		1,
	}
}

// unit clamps f to [0,1]; NaN becomes 0.
func unit(f float32) float32 {
	if f != f {
		return 0
	}
	return max(0, min(1, f))
}

func channelByte(f float32) uint32 {
	return uint32(math.Floor(float64(unit(f)) * 255))
}

func roundByte(f float32) uint32 {
	return uint32(math.Round(float64(unit(f)) * 255))
}

// ParseHex parses "#rrggbb" into an opaque color.
func ParseHex(s string) (mesh.Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return mesh.Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return mesh.Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return Unpack(uint32(v)), nil
}

// HexString formats the RGB channels of c as "#rrggbb", rounding each channel
// to the nearest byte.
func HexString(c mesh.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", roundByte(c[0]), roundByte(c[1]), roundByte(c[2]))
}

// MarkerFor returns the palette index whose entry equals the quantized RGB of
// c, or -1.
func MarkerFor(c mesh.Color) int {
	hex := HexString(c)
	for i, m := range MarkerPalette {
		if m == hex {
			return i
		}
	}
	return -1
}

// check reports a float entry with a channel outside [0,1].
func (c Color) check() error {
	if c.Kind != ColorFloat {
		return nil
	}
	for i, v := range c.RGBA[:c.channels()] {
		if v != v || v < 0 || v > 1 {
			return fmt.Errorf("%w: channel %d = %v outside [0,1]", ErrBadColor, i, v)
		}
	}
	return nil
}

func (c Color) channels() int {
	if c.Channels == 3 {
		return 3
	}
	return 4
}

// Resolve returns the RGBA value the entry stands for.
func (c Color) Resolve() (mesh.Color, error) {
	switch c.Kind {
	case ColorFloat:
		out := c.RGBA
		if c.Channels == 3 {
			out[3] = 1
		}
		return out, nil
	case ColorPacked:
		return Unpack(c.Packed), nil
	case ColorMarker:
		if c.Marker < 0 || c.Marker >= len(MarkerPalette) {
			return mesh.Color{}, fmt.Errorf("%w: marker(%d)", ErrBadColor, c.Marker)
		}
		return ParseHex(MarkerPalette[c.Marker])
	case ColorHex:
		return ParseHex(c.Hex)
	default:
		return mesh.Color{}, fmt.Errorf("%w: kind %s", ErrBadColor, c.Kind)
	}
}

// MarshalJSON writes the entry in its wire encoding.
func (c Color) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case ColorFloat:
		return json.Marshal(c.RGBA[:c.channels()])
	case ColorPacked:
		return json.Marshal(c.Packed)
	case ColorMarker:
		return json.Marshal(fmt.Sprintf("marker(%d)", c.Marker))
	case ColorHex:
		return json.Marshal(c.Hex)
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrBadColor, c.Kind)
	}
}

// UnmarshalJSON accepts a float array, a packed integer, "marker(N)" or
// "#rrggbb".
func (c *Color) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty value", ErrBadColor)
	}

	switch data[0] {
	case '[':
		var ch []float32
		if err := json.Unmarshal(data, &ch); err != nil {
			return fmt.Errorf("%w: %v", ErrBadColor, err)
		}
		if len(ch) < 3 || len(ch) > 4 {
			return fmt.Errorf("%w: %d channels", ErrBadColor, len(ch))
		}
		out := Color{Kind: ColorFloat, Channels: len(ch)}
		copy(out.RGBA[:], ch)
		if err := out.check(); err != nil {
			return err
		}
		*c = out
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrBadColor, err)
		}
		if m := markerPattern.FindStringSubmatch(s); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n >= len(MarkerPalette) {
				return fmt.Errorf("%w: %q", ErrBadColor, s)
			}
			*c = MarkerColor(n)
			return nil
		}
		if _, err := ParseHex(s); err != nil {
			return err
		}
		*c = Color{Kind: ColorHex, Hex: s}
	default:
		var v uint32
		if err := json.Unmarshal(data, &v); err != nil || v > 0xffffff {
			return fmt.Errorf("%w: %s", ErrBadColor, data)
		}
		*c = Color{Kind: ColorPacked, Packed: v}
	}
	return nil
}
