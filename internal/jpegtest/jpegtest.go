// Package jpegtest builds JPEG files with metadata segments for tests.
package jpegtest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrm-1535/autorotate/exif"
)

// Gradient returns a w x h raster where neighbouring pixels differ.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	return img
}

// Encode returns img as a bare JPEG file.
func Encode(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// Segment returns a marker segment made of the concatenated parts.
func Segment(marker byte, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	seg := []byte{0xff, marker, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(body)+2))
	return append(seg, body...)
}

// Build returns a JPEG file of img with the given segments inserted after
// SOI.
func Build(t testing.TB, img image.Image, segments ...[]byte) []byte {
	t.Helper()
	enc := Encode(t, img)
	out := []byte{0xff, 0xd8}
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, enc[2:]...)
}

// Exif returns the APP1 segment holding md.
func Exif(t testing.TB, md *exif.Metadata) []byte {
	t.Helper()
	data, err := md.Bytes()
	require.NoError(t, err)
	return Segment(0xe1, data)
}

// XMP returns the APP1 segment holding packet.
func XMP(packet string) []byte {
	return Segment(0xe1, []byte("http://ns.adobe.com/xap/1.0/\x00"), []byte(packet))
}

// ICC returns the APP2 segments holding profile, split in chunks of at
// most size bytes.
func ICC(profile []byte, size int) []byte {
	count := (len(profile) + size - 1) / size
	var out []byte
	for seq := 1; len(profile) > 0; seq++ {
		n := min(size, len(profile))
		out = append(out, Segment(0xe2, []byte("ICC_PROFILE\x00"), []byte{byte(seq), byte(count)}, profile[:n])...)
		profile = profile[n:]
	}
	return out
}

// Orientation returns a metadata tree with IFD0 Orientation set to code,
// Exif pixel dimensions w x h, and optionally a JPEG thumbnail.
func Orientation(t testing.TB, code uint16, w, h uint32, thumb image.Image) *exif.Metadata {
	t.Helper()
	md := exif.New(binary.BigEndian)
	require.NoError(t, md.Ifd(exif.PrimaryIfd).Set(exif.TagOrientation, exif.Shorts{code}))
	exifIfd := md.CreateIfd(exif.ExifIfd)
	require.NoError(t, exifIfd.SetUint(exif.TagPixelXDimension, w))
	require.NoError(t, exifIfd.SetUint(exif.TagPixelYDimension, h))
	if thumb != nil {
		md.SetThumbnail(Encode(t, thumb))
		b := thumb.Bounds()
		tags := md.Ifd(exif.ThumbnailIfd)
		require.NoError(t, tags.SetUint(exif.TagImageWidth, uint32(b.Dx())))
		require.NoError(t, tags.SetUint(exif.TagImageLength, uint32(b.Dy())))
	}
	return md
}
