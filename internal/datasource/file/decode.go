package file

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewDecodingReader wraps r so that its bytes come out as UTF-8 text.
//
// Accepted encoding names:
//
//	"", "utf8", "utf-8"     passthrough
//	"latin1", "iso-8859-1"  ISO 8859-1 (the usual encoding of leaked password
//	                        dumps such as rockyou.txt)
//	"utf16", "utf16le"      UTF-16 little-endian, BOM honored when present
//	"utf16be"               UTF-16 big-endian, BOM honored when present
//
// Unknown names are a configuration error. Decode failures surface as read
// errors on the returned reader, at the point in the stream where they occur.
func NewDecodingReader(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding
	switch name {
	case "", "utf8", "utf-8":
		return r, nil
	case "latin1", "iso-8859-1":
		enc = charmap.ISO8859_1
	case "utf16", "utf16le":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "utf16be":
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		return nil, fmt.Errorf("unknown input encoding %q", name)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
