package exif

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeThumb = []byte{0xff, 0xd8, 0xff, 0xdb, 1, 2, 3, 0xff, 0xd9}

func sampleTree(t *testing.T, order binary.ByteOrder) *Metadata {
	t.Helper()
	m := New(order)
	ifd0 := m.Ifd(PrimaryIfd)
	require.NoError(t, ifd0.Set(TagOrientation, Shorts{6}))
	require.NoError(t, ifd0.Set(TagMake, NewASCII("Acme Cameras")))
	require.NoError(t, ifd0.Set(TagXResolution, Rationals{{72, 1}}))

	exifIfd := m.CreateIfd(ExifIfd)
	require.NoError(t, exifIfd.Set(TagPixelXDimension, Longs{800}))
	require.NoError(t, exifIfd.Set(TagPixelYDimension, Shorts{600}))
	require.NoError(t, exifIfd.Set(TagMakerNote, Undefined{1, 2, 3, 4, 5}))

	interop := m.CreateIfd(InteropIfd)
	require.NoError(t, interop.Set(TagInteropIndex, NewASCII("R98")))
	require.NoError(t, interop.Set(TagRelatedImageWidth, Shorts{800}))

	gps := m.CreateIfd(GpsIfd)
	require.NoError(t, gps.Set(TagGPSLatitudeRef, NewASCII("N")))
	require.NoError(t, gps.Set(TagGPSLatitude, Rationals{{48, 1}, {51, 1}, {2405, 100}}))
	require.NoError(t, gps.Set(TagGPSAltitude, Rationals{{35, 1}}))

	m.SetThumbnail(fakeThumb)
	require.NoError(t, m.Ifd(ThumbnailIfd).Set(TagImageWidth, Shorts{160}))
	return m
}

func TestSerializeParseRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			m := sampleTree(t, order)
			data, err := m.Bytes()
			require.NoError(t, err)

			parsed, err := Parse(data, nil)
			require.NoError(t, err)
			assert.Equal(t, order, parsed.ByteOrder())

			o, ok := parsed.Ifd(PrimaryIfd).Uint(TagOrientation)
			assert.True(t, ok)
			assert.EqualValues(t, 6, o)

			v, ok := parsed.Lookup(PrimaryIfd, TagMake)
			require.True(t, ok)
			assert.Equal(t, "Acme Cameras", v.(ASCII).Text())

			assert.Equal(t, Dimension{800, true}, parsed.Ifd(ExifIfd).Dimension(TagPixelXDimension))
			assert.Equal(t, Dimension{600, true}, parsed.Ifd(ExifIfd).Dimension(TagPixelYDimension))
			assert.Equal(t, Dimension{800, true}, parsed.Ifd(InteropIfd).Dimension(TagRelatedImageWidth))
			assert.Equal(t, Dimension{}, parsed.Ifd(InteropIfd).Dimension(TagRelatedImageLength))

			lat, ok := parsed.Lookup(GpsIfd, TagGPSLatitude)
			require.True(t, ok)
			assert.Equal(t, Rationals{{48, 1}, {51, 1}, {2405, 100}}, lat)

			assert.Equal(t, fakeThumb, parsed.Thumbnail())
			assert.Equal(t, JPEG, parsed.ThumbnailCompression())
			n, _ := parsed.Ifd(ThumbnailIfd).Uint(TagJPEGInterchangeFormatLength)
			assert.EqualValues(t, len(fakeThumb), n)

			again, err := parsed.Bytes()
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestSerializeEmptyTree(t *testing.T) {
	data, err := New(binary.BigEndian).Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("Exif\x00\x00MM\x00\x2a\x00\x00\x00\x08\x00\x00\x00\x00\x00\x00"), data)

	m, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Zero(t, m.Ifd(PrimaryIfd).Len())
	assert.Nil(t, m.Ifd(ThumbnailIfd))
	assert.Nil(t, m.Thumbnail())
}

func TestSetThumbnailUpdatesLength(t *testing.T) {
	m := sampleTree(t, binary.LittleEndian)
	bigger := append(bytes.Clone(fakeThumb), 0, 0, 0, 0, 0, 0, 0)
	m.SetThumbnail(bigger)

	data, err := m.Bytes()
	require.NoError(t, err)
	parsed, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Equal(t, bigger, parsed.Thumbnail())
	n, _ := parsed.Ifd(ThumbnailIfd).Uint(TagJPEGInterchangeFormatLength)
	assert.EqualValues(t, len(bigger), n)
}

func TestSetKeepsEntryOrder(t *testing.T) {
	m := sampleTree(t, binary.LittleEndian)
	ifd0 := m.Ifd(PrimaryIfd)
	before := ifd0.Tags()

	require.NoError(t, ifd0.SetUint(TagOrientation, 1))
	assert.Equal(t, before, ifd0.Tags())

	require.NoError(t, ifd0.Set(TagSoftware, NewASCII("autorotate")))
	tags := ifd0.Tags()
	for i := 1; i < len(tags); i++ {
		assert.Less(t, tags[i-1], tags[i])
	}
	assert.Equal(t, len(before)+1, len(tags))

	assert.True(t, ifd0.Delete(TagSoftware))
	assert.False(t, ifd0.Delete(TagSoftware))
	assert.Equal(t, before, ifd0.Tags())
}

func TestSetUintKeepsType(t *testing.T) {
	m := sampleTree(t, binary.LittleEndian)
	exifIfd := m.Ifd(ExifIfd)

	require.NoError(t, exifIfd.SetUint(TagPixelYDimension, 800))
	v, _ := exifIfd.Lookup(TagPixelYDimension)
	assert.Equal(t, Shorts{800}, v)

	require.NoError(t, exifIfd.SetUint(TagPixelYDimension, 70000))
	v, _ = exifIfd.Lookup(TagPixelYDimension)
	assert.Equal(t, Longs{70000}, v)

	require.NoError(t, exifIfd.SetUint(TagPixelXDimension, 600))
	v, _ = exifIfd.Lookup(TagPixelXDimension)
	assert.Equal(t, Longs{600}, v)
}

func TestReservedTags(t *testing.T) {
	m := sampleTree(t, binary.LittleEndian)
	assert.ErrorIs(t, m.Ifd(PrimaryIfd).Set(TagExifIFD, Longs{0}), ErrReserved)
	assert.ErrorIs(t, m.Ifd(ExifIfd).Set(TagInteropIFD, Longs{0}), ErrReserved)
	assert.ErrorIs(t, m.Ifd(ThumbnailIfd).Set(TagJPEGInterchangeFormatLength, Longs{0}), ErrReserved)
	assert.False(t, m.Ifd(PrimaryIfd).Delete(TagGPSIFD))
}

func TestNilIfd(t *testing.T) {
	var m Metadata
	ifd := m.Ifd(PrimaryIfd)
	require.Nil(t, ifd)
	_, ok := ifd.Lookup(TagOrientation)
	assert.False(t, ok)
	_, ok = ifd.Uint(TagOrientation)
	assert.False(t, ok)
	assert.Equal(t, Dimension{}, ifd.Dimension(TagImageWidth))
}

func TestParseInvalid(t *testing.T) {
	valid, err := sampleTree(t, binary.LittleEndian).Bytes()
	require.NoError(t, err)

	patched := func(at int, b ...byte) []byte {
		d := bytes.Clone(valid)
		copy(d[at:], b)
		return d
	}
	cases := map[string][]byte{
		"empty":          nil,
		"no header":      []byte("JFIF\x00\x00II\x2a\x00\x08\x00\x00\x00"),
		"byte order":     patched(6, 'X', 'X'),
		"magic":          patched(8, 0x2b, 0x00),
		"ifd0 offset":    patched(10, 0xff, 0xff, 0x00, 0x00),
		"truncated ifd0": valid[:20],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(data, nil)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

// twoEntries returns a little endian EXIF segment whose IFD0 holds
// Orientation followed by tag (a SHORT value). The second entry starts at
// byte 28 of the segment.
func twoEntries(t *testing.T, tag Tag) []byte {
	t.Helper()
	m := New(binary.LittleEndian)
	require.NoError(t, m.Ifd(PrimaryIfd).Set(TagOrientation, Shorts{3}))
	require.NoError(t, m.Ifd(PrimaryIfd).Set(tag, Shorts{1}))
	data, err := m.Bytes()
	require.NoError(t, err)
	return data
}

func TestUnknownPolicy(t *testing.T) {
	data := twoEntries(t, TagSoftware)
	binary.LittleEndian.PutUint16(data[30:], 99) // unknown TIFF type

	m, err := Parse(data, &Control{Unknown: Keep})
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagOrientation}, m.Ifd(PrimaryIfd).Tags())

	_, err = Parse(data, &Control{Unknown: Stop})
	assert.ErrorIs(t, err, ErrInvalid)

	data = twoEntries(t, 0xbeef)
	m, err = Parse(data, &Control{Unknown: Keep})
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagOrientation, 0xbeef}, m.Ifd(PrimaryIfd).Tags())

	m, err = Parse(data, &Control{Unknown: Remove})
	require.NoError(t, err)
	assert.Equal(t, []Tag{TagOrientation}, m.Ifd(PrimaryIfd).Tags())
}

func TestEmbeddedIfdLoop(t *testing.T) {
	m := New(binary.LittleEndian)
	require.NoError(t, m.Ifd(PrimaryIfd).Set(TagOrientation, Shorts{1}))
	require.NoError(t, m.CreateIfd(ExifIfd).Set(TagPixelXDimension, Shorts{4}))
	data, err := m.Bytes()
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[36:], _headerSize) // Exif IFD pointer back to IFD0

	parsed, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Nil(t, parsed.Ifd(ExifIfd))
	assert.Equal(t, []Tag{TagOrientation}, parsed.Ifd(PrimaryIfd).Tags())

	_, err = Parse(data, &Control{Unknown: Stop})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFormat(t *testing.T) {
	var b bytes.Buffer
	m := sampleTree(t, binary.BigEndian)
	require.NoError(t, m.Format(&b, []IfdId{PrimaryIfd, GpsIfd, ThumbnailIfd}))
	out := b.String()
	assert.Contains(t, out, "Orientation: [6]")
	assert.Contains(t, out, `Make: "Acme Cameras"`)
	assert.Contains(t, out, "GPSLatitude: [48/1 51/1 2405/100]")
	assert.Contains(t, out, "<JPEG thumbnail, 9 bytes>")
}
