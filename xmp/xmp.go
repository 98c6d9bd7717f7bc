// Package xmp gives access to the simple properties of an XMP packet while
// keeping the rest of the packet text untouched. Packets are decoded with
// seehuhn.de/go/xmp; updates are made in the original text.
package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"

	gox "seehuhn.de/go/xmp"
)

// Header is the signature that starts an XMP APP1 segment in a JPEG file.
var Header = []byte("http://ns.adobe.com/xap/1.0/\x00")

var ErrInvalid = errors.New("xmp: invalid packet")

// Qualified names of the properties that describe image geometry.
const (
	Orientation      = "tiff:Orientation"
	ImageWidth       = "tiff:ImageWidth"
	ImageLength      = "tiff:ImageLength"
	PixelXDimension  = "exif:PixelXDimension"
	PixelYDimension  = "exif:PixelYDimension"
	ThumbnailsWidth  = "xmp:ThumbnailsWidth"
	ThumbnailsHeight = "xmp:ThumbnailsHeight"
)

// Namespaces of the prefixes used by qualified names.
var prefixes = map[string]string{
	"http://ns.adobe.com/tiff/1.0/":               "tiff",
	"http://ns.adobe.com/exif/1.0/":               "exif",
	"http://ns.adobe.com/xap/1.0/":                "xmp",
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://ns.adobe.com/photoshop/1.0/":          "photoshop",
	"http://ns.adobe.com/exif/1.0/aux/":           "aux",
	"http://ns.adobe.com/xap/1.0/mm/":             "xmpMM",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
}

// Packet is the raw text of an XMP packet. Properties are read from the
// decoded packet and written in place in the text, either in attribute form
// (ns:Name="v") or in element form (<ns:Name>v</ns:Name>).
type Packet struct {
	raw []byte
}

// Parse checks that data is a valid XMP packet and returns it. The data is
// copied.
func Parse(data []byte) (*Packet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty packet", ErrInvalid)
	}
	if _, err := gox.Read(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &Packet{raw: bytes.Clone(data)}, nil
}

// Bytes returns the current packet text.
func (p *Packet) Bytes() []byte {
	return p.raw
}

func qualified(n xml.Name) string {
	if prefix, ok := prefixes[n.Space]; ok {
		return prefix + ":" + n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attributes returns the simple (text) properties of the packet by
// qualified name. Properties in a namespace without a well-known prefix are
// named {namespace}Name.
func (p *Packet) Attributes() map[string]string {
	attrs := make(map[string]string)
	decoded, err := gox.Read(bytes.NewReader(p.raw))
	if err != nil {
		return attrs
	}
	for name, v := range decoded.Properties {
		if t, ok := v.(gox.RawText); ok {
			attrs[qualified(name)] = strings.TrimSpace(t.Value)
		}
	}
	return attrs
}

// Get returns the value of the property name.
func (p *Packet) Get(name string) (string, bool) {
	v, ok := p.Attributes()[name]
	return v, ok
}

// Set replaces every value of the property name with value. A property that
// is absent is never added: Set then reports false and leaves the packet
// unchanged.
func (p *Packet) Set(name, value string) bool {
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(value))

	q := regexp.QuoteMeta(name)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(\s` + q + `\s*=\s*")[^"]*(")`),
		regexp.MustCompile(`(\s` + q + `\s*=\s*')[^']*(')`),
		regexp.MustCompile(`(<` + q + `(?:\s[^>]*)?>)[^<]*(</` + q + `\s*>)`),
	}
	found := false
	for _, re := range patterns {
		p.raw = re.ReplaceAllFunc(p.raw, func(m []byte) []byte {
			found = true
			sub := re.FindSubmatch(m)
			out := make([]byte, 0, len(sub[1])+esc.Len()+len(sub[2]))
			out = append(out, sub[1]...)
			out = append(out, esc.Bytes()...)
			return append(out, sub[2]...)
		})
	}
	return found
}
