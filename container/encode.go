package container

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/garyhouston/jpegsegs"

	"github.com/jrm-1535/autorotate/xmp"
)

// Encode serializes doc. Metadata segments are regenerated in place from the
// document, other segments are written back as decoded. The original frame
// is reused when the raster did not change.
func (c *Codec) Encode(doc *Document) ([]byte, error) {
	if doc == nil || doc.Raster == nil {
		return nil, fmt.Errorf("%w: no raster", ErrEncode)
	}
	frame := doc.frame
	reencoded := frame == nil || doc.RasterChanged()
	if reencoded {
		enc, err := encodeJPEG(doc.Raster, c.opts.Quality)
		if err != nil {
			return nil, err
		}
		frame = enc[2:] // without SOI
	}
	if t := doc.Thumbnail; t != nil && doc.Metadata != nil && t.changed() {
		enc, err := encodeJPEG(t.Raster, c.opts.ThumbnailQuality)
		if err != nil {
			return nil, fmt.Errorf("thumbnail: %w", err)
		}
		doc.Metadata.SetThumbnail(enc)
		t.decoded = t.Raster
	}

	var buf seekBuffer
	d, err := jpegsegs.NewDumper(&buf) // writes SOI
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	var wroteExif, wroteXMP, wroteICC bool
	for _, s := range c.layout(doc) {
		var err error
		switch s.kind {
		case kindExif:
			if doc.Metadata == nil || wroteExif {
				continue
			}
			var data []byte
			if data, err = doc.Metadata.Bytes(); err == nil {
				err = writeSegment(d, _APP1, data)
			}
			wroteExif = true
		case kindXMP:
			if doc.XMP == nil || wroteXMP {
				continue
			}
			err = writeSegment(d, _APP1, xmp.Header, doc.XMP.Bytes())
			wroteXMP = true
		case kindICC:
			if wroteICC {
				continue
			}
			err = writeICC(d, doc.ICCProfile)
			wroteICC = true
		default:
			if reencoded && s.marker == _APPE && bytes.HasPrefix(s.data, []byte(_adobeHeader)) {
				continue // describes the replaced frame
			}
			err = writeSegment(d, s.marker, s.data)
		}
		if err != nil {
			if !errors.Is(err, ErrEncode) {
				err = fmt.Errorf("%w: %w", ErrEncode, err)
			}
			return nil, err
		}
	}
	_, _ = buf.Write(frame)

	c.log.Debug().
		Bool("reencoded", reencoded).
		Int("size", len(buf.Bytes())).
		Msg("Encoded JPEG")
	return buf.Bytes(), nil
}

// layout returns the segments to write, adding a place for metadata the
// document gained since decoding: Exif and XMP after a leading JFIF APP0,
// ICC after them.
func (c *Codec) layout(doc *Document) []segment {
	has := map[kind]bool{}
	for _, s := range doc.segments {
		has[s.kind] = true
	}
	var missing []segment
	if doc.Metadata != nil && !has[kindExif] {
		missing = append(missing, segment{marker: _APP1, kind: kindExif})
	}
	if doc.XMP != nil && !has[kindXMP] {
		missing = append(missing, segment{marker: _APP1, kind: kindXMP})
	}
	if len(doc.ICCProfile) > 0 && !has[kindICC] {
		missing = append(missing, segment{marker: _APP2, kind: kindICC})
	}
	if len(missing) == 0 {
		return doc.segments
	}
	at := 0
	if len(doc.segments) > 0 && doc.segments[0].marker == _APP0 {
		at = 1
	}
	out := make([]segment, 0, len(doc.segments)+len(missing))
	out = append(out, doc.segments[:at]...)
	out = append(out, missing...)
	return append(out, doc.segments[at:]...)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
