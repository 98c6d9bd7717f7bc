package container

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/garyhouston/jpegsegs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/internal/jpegtest"
	"github.com/jrm-1535/autorotate/xmp"
)

const packet = `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
	`<rdf:Description xmlns:tiff="http://ns.adobe.com/tiff/1.0/" tiff:Orientation="6"/></rdf:RDF></x:xmpmeta>`

func codec() *Codec {
	return New(Options{}, zerolog.Nop())
}

func profile(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}

func TestDecodeRejectsNonJPEG(t *testing.T) {
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, jpegtest.Gradient(4, 4)))

	for name, data := range map[string][]byte{
		"text":  []byte("definitely not an image"),
		"png":   pngData.Bytes(),
		"empty": nil,
		"soi":   {0xff, 0xd8, 0xff},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := codec().Decode(data)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeWithoutExif(t *testing.T) {
	doc, err := codec().Decode(jpegtest.Encode(t, jpegtest.Gradient(16, 8)))
	require.NoError(t, err)
	assert.Nil(t, doc.Metadata)
	assert.Nil(t, doc.Thumbnail)
	assert.Nil(t, doc.XMP)
	assert.Equal(t, 16, doc.Width())
	assert.Equal(t, 8, doc.Height())
}

func TestRoundTripUnchanged(t *testing.T) {
	md := jpegtest.Orientation(t, 6, 64, 32, jpegtest.Gradient(16, 8))
	data := jpegtest.Build(t, jpegtest.Gradient(64, 32),
		jpegtest.Segment(0xe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")),
		jpegtest.Exif(t, md),
		jpegtest.XMP(packet),
		jpegtest.ICC(profile(70000), _iccChunkSize),
		jpegtest.Segment(0xfe, []byte("a comment")),
	)

	doc, err := codec().Decode(data)
	require.NoError(t, err)
	require.NotNil(t, doc.Metadata)
	require.NotNil(t, doc.Thumbnail)
	require.NotNil(t, doc.XMP)
	assert.Equal(t, profile(70000), doc.ICCProfile)
	assert.Equal(t, image.Pt(16, 8), doc.Thumbnail.Raster.Bounds().Size())
	assert.Same(t, doc.Metadata.Ifd(exif.ThumbnailIfd), doc.Thumbnail.Tags)
	assert.False(t, doc.RasterChanged())
	assert.Equal(t, []string{"APP0 (14 bytes)", "APP1 (Exif)", "APP1 (XMP)",
		"APP2 (ICC profile)", "APP2 (ICC profile)", "COM (9 bytes)"}, doc.Segments())

	out, err := codec().Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestICCOutOfSequenceKeptVerbatim(t *testing.T) {
	chunk := jpegtest.Segment(0xe2, []byte("ICC_PROFILE\x00"), []byte{2, 2}, profile(10))
	data := jpegtest.Build(t, jpegtest.Gradient(8, 8), chunk)
	doc, err := codec().Decode(data)
	require.NoError(t, err)
	assert.Nil(t, doc.ICCProfile)

	out, err := codec().Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestEncodeChangedRaster(t *testing.T) {
	md := jpegtest.Orientation(t, 6, 64, 32, jpegtest.Gradient(16, 8))
	data := jpegtest.Build(t, jpegtest.Gradient(64, 32),
		jpegtest.Exif(t, md),
		jpegtest.Segment(0xee, []byte("Adobe\x00\x64\x00\x00\x00\x00\x01")),
		jpegtest.Segment(0xfe, []byte("kept")),
	)
	doc, err := codec().Decode(data)
	require.NoError(t, err)

	doc.Raster = imaging.Rotate90(doc.Raster)
	doc.Thumbnail.Raster = imaging.Rotate90(doc.Thumbnail.Raster)
	require.True(t, doc.RasterChanged())

	out, err := codec().Encode(doc)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(out, []byte("Adobe\x00")))

	again, err := codec().Decode(out)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(32, 64), again.Raster.Bounds().Size())
	assert.Equal(t, image.Pt(8, 16), again.Thumbnail.Raster.Bounds().Size())
	assert.Equal(t, []string{"APP1 (Exif)", "COM (4 bytes)"}, again.Segments())

	n, ok := again.Metadata.Ifd(exif.ThumbnailIfd).Uint(exif.TagJPEGInterchangeFormatLength)
	require.True(t, ok)
	assert.EqualValues(t, len(again.Metadata.Thumbnail()), n)

	cfg, err := DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
}

func TestEncodeAddsMetadata(t *testing.T) {
	data := jpegtest.Build(t, jpegtest.Gradient(8, 8),
		jpegtest.Segment(0xe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")))
	doc, err := codec().Decode(data)
	require.NoError(t, err)

	doc.Metadata = exif.New(binary.LittleEndian)
	require.NoError(t, doc.Metadata.Ifd(exif.PrimaryIfd).Set(exif.TagOrientation, exif.Shorts{1}))
	doc.XMP, err = xmp.Parse([]byte(packet))
	require.NoError(t, err)
	doc.ICCProfile = profile(100)

	out, err := codec().Encode(doc)
	require.NoError(t, err)
	again, err := codec().Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"APP0 (14 bytes)", "APP1 (Exif)", "APP1 (XMP)", "APP2 (ICC profile)"}, again.Segments())
	assert.Equal(t, profile(100), again.ICCProfile)
	o, _ := again.Metadata.Ifd(exif.PrimaryIfd).Uint(exif.TagOrientation)
	assert.EqualValues(t, 1, o)
}

func TestEncodeOversizedSegment(t *testing.T) {
	doc, err := codec().Decode(jpegtest.Encode(t, jpegtest.Gradient(8, 8)))
	require.NoError(t, err)
	big := strings.Replace(packet, "</rdf:RDF>", strings.Repeat(" ", 70000)+"</rdf:RDF>", 1)
	doc.XMP, err = xmp.Parse([]byte(big))
	require.NoError(t, err)

	_, err = codec().Encode(doc)
	assert.ErrorIs(t, err, ErrEncode)

	_, err = codec().Encode(&Document{})
	assert.ErrorIs(t, err, ErrEncode)
}

func TestICCChunkBoundary(t *testing.T) {
	doc, err := codec().Decode(jpegtest.Encode(t, jpegtest.Gradient(8, 8)))
	require.NoError(t, err)
	doc.ICCProfile = profile(_iccChunkSize + 1)

	out, err := codec().Encode(doc)
	require.NoError(t, err)
	segs, _, err := scan(out)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Len(t, segs[0].data, _maxSegmentSize)
	assert.Equal(t, []byte{1, 2}, segs[0].data[len(_iccHeader):len(_iccHeader)+2])
	assert.Equal(t, []byte{2, 2}, segs[1].data[len(_iccHeader):len(_iccHeader)+2])
	assert.Len(t, segs[1].data, len(_iccHeader)+2+1)

	again, err := codec().Decode(out)
	require.NoError(t, err)
	assert.Equal(t, profile(_iccChunkSize+1), again.ICCProfile)
}

func TestSegmentNames(t *testing.T) {
	var buf seekBuffer
	d, err := jpegsegs.NewDumper(&buf)
	require.NoError(t, err)

	err = writeSegment(d, _COM, make([]byte, _maxSegmentSize+1))
	assert.ErrorIs(t, err, ErrEncode)
	assert.ErrorContains(t, err, "COM segment")

	err = writeSegment(d, _APPE, make([]byte, _maxSegmentSize+1))
	assert.ErrorContains(t, err, "APP14 segment")

	assert.Equal(t, "COM (3 bytes)", segment{marker: _COM, data: []byte("abc")}.String())
	assert.Equal(t, "marker 0xdb", markerName(0xdb))
}

func TestScanInvalid(t *testing.T) {
	valid := jpegtest.Build(t, jpegtest.Gradient(8, 8), jpegtest.Segment(0xfe, []byte("note")))
	for name, data := range map[string][]byte{
		"no SOI":    valid[2:],
		"truncated": valid[:8],
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := scan(data)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestUndecodableThumbnail(t *testing.T) {
	md := exif.New(binary.BigEndian)
	require.NoError(t, md.Ifd(exif.PrimaryIfd).Set(exif.TagOrientation, exif.Shorts{1}))
	md.SetThumbnail([]byte{0xff, 0xd8, 0xff, 0xd9})
	data := jpegtest.Build(t, jpegtest.Gradient(8, 8), jpegtest.Exif(t, md))

	_, err := codec().Decode(data)
	assert.ErrorIs(t, err, ErrFormat)
}
