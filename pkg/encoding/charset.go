// Package encoding converts object names stored in legacy charsets to UTF-8.
package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// Charset names accepted in configuration.
const (
	UTF8        = "utf-8"
	Macintosh   = "macintosh"
	Windows1252 = "windows-1252"
	EUCKR       = "euc-kr"
)

// Lookup returns the decoder for a charset name. UTF-8 has no decoder and
// returns nil.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case UTF8, "utf8", "":
		return nil, nil
	case Macintosh, "mac-roman", "macroman":
		return charmap.Macintosh, nil
	case Windows1252, "cp1252":
		return charmap.Windows1252, nil
	case EUCKR, "euckr":
		return korean.EUCKR, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
}

// Decoder turns raw name bytes into UTF-8.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder returns a decoder for the named charset.
func NewDecoder(charset string) (*Decoder, error) {
	enc, err := Lookup(charset)
	if err != nil {
		return nil, err
	}
	return &Decoder{enc: enc}, nil
}

// String decodes data. With UTF-8 input, invalid sequences are replaced with
// U+FFFD. If a legacy decoder fails, the bytes are returned unchanged.
func (d *Decoder) String(data []byte) string {
	if d == nil || d.enc == nil {
		if utf8.Valid(data) {
			return string(data)
		}
		return strings.ToValidUTF8(string(data), "�")
	}
	out, _, err := transform.Bytes(d.enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
