package autorotate

import (
	"fmt"

	"github.com/jrm-1535/autorotate/container"
	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/orientation"
	"github.com/jrm-1535/autorotate/xmp"
)

// Extracted holds the metadata that describes the geometry of a document.
// Dimensions absent from the document are not Valid.
type Extracted struct {
	Orientation orientation.Orientation

	ExifWidth, ExifHeight                 exif.Dimension // Exif PixelX/YDimension
	ImageWidth, ImageLength               exif.Dimension // IFD0
	RelatedImageWidth, RelatedImageHeight exif.Dimension // Interoperability IFD
	ThumbnailWidth, ThumbnailHeight       exif.Dimension // IFD1

	Thumbnail *container.Thumbnail
	GPS       *exif.Ifd
	XMP       *xmp.Packet
}

// Extract reads the orientation and the dimension tags of doc.
func Extract(doc *container.Document) (*Extracted, error) {
	md := doc.Metadata
	if md == nil {
		return nil, ErrMissingExif
	}
	ifd0 := md.Ifd(exif.PrimaryIfd)
	v, ok := ifd0.Lookup(exif.TagOrientation)
	if !ok {
		return nil, ErrMissingOrientation
	}
	code, ok := ifd0.Uint(exif.TagOrientation)
	if !ok {
		return nil, fmt.Errorf("%w: %s value %v", ErrUnsupportedOrientation, v.Type(), v)
	}
	o := orientation.Orientation(code)
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedOrientation, code)
	}

	ex := &Extracted{
		Orientation: o,
		ImageWidth:  ifd0.Dimension(exif.TagImageWidth),
		ImageLength: ifd0.Dimension(exif.TagImageLength),
		Thumbnail:   doc.Thumbnail,
		GPS:         md.Ifd(exif.GpsIfd),
		XMP:         doc.XMP,
	}
	if ifd := md.Ifd(exif.ExifIfd); ifd != nil {
		ex.ExifWidth = ifd.Dimension(exif.TagPixelXDimension)
		ex.ExifHeight = ifd.Dimension(exif.TagPixelYDimension)
	}
	if ifd := md.Ifd(exif.InteropIfd); ifd != nil {
		ex.RelatedImageWidth = ifd.Dimension(exif.TagRelatedImageWidth)
		ex.RelatedImageHeight = ifd.Dimension(exif.TagRelatedImageLength)
	}
	if ifd := md.Ifd(exif.ThumbnailIfd); ifd != nil {
		ex.ThumbnailWidth = ifd.Dimension(exif.TagImageWidth)
		ex.ThumbnailHeight = ifd.Dimension(exif.TagImageLength)
	}
	return ex, nil
}
