// Package container decodes a JPEG file into a Document made of its raster
// and its metadata, and encodes it back. Segments the package does not
// interpret are carried through unchanged.
package container

import (
	"errors"
	"image"

	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/xmp"
)

var (
	// ErrFormat is returned when the input is not a decodable JPEG file.
	ErrFormat = errors.New("container: invalid JPEG")
	// ErrEncode is returned when a document cannot be serialized.
	ErrEncode = errors.New("container: cannot encode")
)

// Document is a decoded JPEG file.
type Document struct {
	Raster     image.Image
	Metadata   *exif.Metadata // nil if the file has no EXIF segment
	Thumbnail  *Thumbnail     // nil if the EXIF data has no JPEG thumbnail
	ICCProfile []byte         // reassembled from all ICC_PROFILE chunks
	XMP        *xmp.Packet

	segments []segment // APPn and COM segments before the frame, in order
	frame    []byte    // DQT, SOF, DHT, SOS, ... up to and including EOI
	decoded  image.Image
}

// Thumbnail is the JPEG thumbnail embedded in IFD1.
type Thumbnail struct {
	Raster image.Image
	Tags   *exif.Ifd // IFD1

	decoded image.Image
}

// Width and Height of the document raster.
func (d *Document) Width() int  { return d.Raster.Bounds().Dx() }
func (d *Document) Height() int { return d.Raster.Bounds().Dy() }

// RasterChanged reports whether Raster was replaced since decoding, in
// which case the frame is encoded again.
func (d *Document) RasterChanged() bool {
	return d.Raster != d.decoded
}

// Segments returns a short description of the carried segments, in file
// order.
func (d *Document) Segments() []string {
	desc := make([]string, 0, len(d.segments))
	for _, s := range d.segments {
		desc = append(desc, s.String())
	}
	return desc
}

func (t *Thumbnail) changed() bool {
	return t.Raster != t.decoded
}
