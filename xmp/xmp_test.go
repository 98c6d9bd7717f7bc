package xmp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packet = `<?xpacket begin="` + "\ufeff" + `" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:tiff="http://ns.adobe.com/tiff/1.0/"
    xmlns:exif="http://ns.adobe.com/exif/1.0/"
    tiff:Orientation="6"
    tiff:ImageWidth='800'
    exif:PixelXDimension="800">
   <exif:PixelYDimension>600</exif:PixelYDimension>
   <tiff:Make>Acme</tiff:Make>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(packet))
	require.NoError(t, err)
	assert.Equal(t, packet, string(p.Bytes()))

	for _, bad := range []string{"", "  \n", "<a", "<a b=c/>", `<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF`} {
		_, err := Parse([]byte(bad))
		assert.ErrorIs(t, err, ErrInvalid, "%q", bad)
	}
}

func TestAttributes(t *testing.T) {
	p, err := Parse([]byte(packet))
	require.NoError(t, err)
	attrs := p.Attributes()
	assert.Equal(t, "6", attrs[Orientation])
	assert.Equal(t, "800", attrs[ImageWidth])
	assert.Equal(t, "800", attrs[PixelXDimension])
	assert.Equal(t, "600", attrs[PixelYDimension])
	assert.Equal(t, "Acme", attrs["tiff:Make"])
	assert.NotContains(t, attrs, "xmlns:tiff")
	assert.NotContains(t, attrs, "rdf:about")

	_, ok := p.Get(ImageLength)
	assert.False(t, ok)
}

func TestSet(t *testing.T) {
	p, err := Parse([]byte(packet))
	require.NoError(t, err)

	assert.True(t, p.Set(Orientation, "1"))
	assert.True(t, p.Set(ImageWidth, "600"))
	assert.True(t, p.Set(PixelXDimension, "600"))
	assert.True(t, p.Set(PixelYDimension, "800"))

	attrs := p.Attributes()
	assert.Equal(t, "1", attrs[Orientation])
	assert.Equal(t, "600", attrs[ImageWidth])
	assert.Equal(t, "600", attrs[PixelXDimension])
	assert.Equal(t, "800", attrs[PixelYDimension])
	assert.Equal(t, "Acme", attrs["tiff:Make"])

	raw := string(p.Bytes())
	assert.Contains(t, raw, `tiff:ImageWidth='600'`)
	assert.Contains(t, raw, `<exif:PixelYDimension>800</exif:PixelYDimension>`)
}

func TestSetNeverAdds(t *testing.T) {
	p, err := Parse([]byte(packet))
	require.NoError(t, err)
	before := string(p.Bytes())

	assert.False(t, p.Set(ImageLength, "600"))
	assert.False(t, p.Set(ThumbnailsWidth, "160"))
	assert.Equal(t, before, string(p.Bytes()))
	assert.False(t, strings.Contains(before, ImageLength))
}

func TestSetEscapes(t *testing.T) {
	p, err := Parse([]byte(strings.Replace(packet, `tiff:Orientation="6"`, `tiff:Model="t"`, 1)))
	require.NoError(t, err)
	assert.True(t, p.Set("tiff:Model", `a "b" & c`))
	v, ok := p.Get("tiff:Model")
	assert.True(t, ok)
	assert.Equal(t, `a "b" & c`, v)
}
