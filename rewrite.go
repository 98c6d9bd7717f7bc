package autorotate

import (
	"image"
	"strconv"

	"github.com/jrm-1535/autorotate/container"
	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/orientation"
	"github.com/jrm-1535/autorotate/xmp"
)

// Geometry is the size of the rasters after the transform.
type Geometry struct {
	Primary   image.Point
	Thumbnail *image.Point // nil if there is no thumbnail raster
}

// Rewrite updates every metadata location of doc that encodes orientation
// or dimensions, so that it describes rasters of geometry g stored with a
// normal orientation. Only tags present in ex are updated. The GPS IFD and
// the ICC profile are not touched.
//
// If a thumbnail has tags but no raster, its dimensions are derived from
// the stored ones with t.
func Rewrite(doc *container.Document, ex *Extracted, t orientation.Transform, g Geometry) {
	md := doc.Metadata
	w, h := uint32(g.Primary.X), uint32(g.Primary.Y)

	setUint(md.Ifd(exif.PrimaryIfd), exif.TagOrientation, uint32(orientation.Normal))
	setDimensions(md.Ifd(exif.PrimaryIfd), exif.TagImageWidth, exif.TagImageLength, ex.ImageWidth, ex.ImageLength, w, h)
	setDimensions(md.Ifd(exif.ExifIfd), exif.TagPixelXDimension, exif.TagPixelYDimension, ex.ExifWidth, ex.ExifHeight, w, h)
	setDimensions(md.Ifd(exif.InteropIfd), exif.TagRelatedImageWidth, exif.TagRelatedImageLength,
		ex.RelatedImageWidth, ex.RelatedImageHeight, w, h)

	var thumb *image.Point
	switch {
	case g.Thumbnail != nil:
		thumb = g.Thumbnail
	case ex.ThumbnailWidth.Valid && ex.ThumbnailHeight.Valid:
		tw, th := t.ApplyToDimensions(int(ex.ThumbnailWidth.Value), int(ex.ThumbnailHeight.Value))
		thumb = &image.Point{tw, th}
	}
	if _, ok := md.Ifd(exif.ThumbnailIfd).Lookup(exif.TagOrientation); ok {
		setUint(md.Ifd(exif.ThumbnailIfd), exif.TagOrientation, uint32(orientation.Normal))
	}
	if thumb != nil {
		setDimensions(md.Ifd(exif.ThumbnailIfd), exif.TagImageWidth, exif.TagImageLength,
			ex.ThumbnailWidth, ex.ThumbnailHeight, uint32(thumb.X), uint32(thumb.Y))
	}

	if doc.XMP == nil {
		return
	}
	values := map[string]uint32{
		xmp.Orientation:     uint32(orientation.Normal),
		xmp.ImageWidth:      w,
		xmp.ImageLength:     h,
		xmp.PixelXDimension: w,
		xmp.PixelYDimension: h,
	}
	if thumb != nil {
		values[xmp.ThumbnailsWidth] = uint32(thumb.X)
		values[xmp.ThumbnailsHeight] = uint32(thumb.Y)
	}
	for name, v := range values {
		doc.XMP.Set(name, strconv.FormatUint(uint64(v), 10))
	}
}

func setDimensions(ifd *exif.Ifd, wTag, hTag exif.Tag, oldW, oldH exif.Dimension, w, h uint32) {
	if oldW.Valid {
		setUint(ifd, wTag, w)
	}
	if oldH.Valid {
		setUint(ifd, hTag, h)
	}
}

// setUint only fails for reserved tags, which dimension and orientation
// tags are not.
func setUint(ifd *exif.Ifd, tag exif.Tag, v uint32) {
	if ifd == nil {
		return
	}
	if err := ifd.SetUint(tag, v); err != nil {
		panic(err)
	}
}
