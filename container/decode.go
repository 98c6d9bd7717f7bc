package container

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/xmp"
)

const (
	DefaultQuality          = 90
	DefaultThumbnailQuality = 85
)

// Options control how documents are decoded and encoded.
type Options struct {
	Quality          int           // JPEG quality of a re-encoded raster
	ThumbnailQuality int           // JPEG quality of a re-encoded thumbnail
	Control          *exif.Control // EXIF parsing policy, nil for defaults
}

// Codec decodes and encodes JPEG documents. It has no mutable state and may
// be used concurrently.
type Codec struct {
	opts Options
	log  zerolog.Logger
}

// New returns a Codec using opts. Zero qualities are replaced by defaults.
func New(opts Options, log zerolog.Logger) *Codec {
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.ThumbnailQuality == 0 {
		opts.ThumbnailQuality = DefaultThumbnailQuality
	}
	return &Codec{opts: opts, log: log}
}

// Decode splits a JPEG file into a Document. The EXIF, XMP and ICC segments
// are interpreted, other segments are kept for Encode.
func (c *Codec) Decode(data []byte) (*Document, error) {
	if mt := mimetype.Detect(data); !mt.Is("image/jpeg") {
		return nil, fmt.Errorf("%w: detected %s", ErrFormat, mt.String())
	}
	segs, frame, err := scan(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{frame: frame}

	var chunks []iccChunk
	for _, s := range segs {
		switch s.kind {
		case kindExif:
			if doc.Metadata != nil {
				c.log.Warn().Msg("Ignoring extra Exif segment")
				s.kind = kindOther
				break
			}
			if doc.Metadata, err = exif.Parse(s.data, c.opts.Control); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFormat, err)
			}
		case kindXMP:
			if doc.XMP != nil {
				s.kind = kindOther
				break
			}
			if doc.XMP, err = xmp.Parse(s.data[len(xmp.Header):]); err != nil {
				c.log.Warn().Err(err).Msg("Keeping unreadable XMP packet as is")
				s.kind = kindOther
			}
		case kindICC:
			chunks = append(chunks, iccChunkOf(s))
		}
		doc.segments = append(doc.segments, s)
	}
	if doc.ICCProfile, err = assembleICC(chunks); err != nil {
		c.log.Warn().Err(err).Msg("Keeping ICC chunks as is")
		for i := range doc.segments {
			if doc.segments[i].kind == kindICC {
				doc.segments[i].kind = kindOther
			}
		}
	}

	if doc.decoded, err = jpeg.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	doc.Raster = doc.decoded

	if md := doc.Metadata; md != nil && md.Thumbnail() != nil {
		if cmp := md.ThumbnailCompression(); cmp != exif.JPEG {
			return nil, fmt.Errorf("%w: %s thumbnail", ErrFormat, cmp)
		}
		img, err := jpeg.Decode(bytes.NewReader(md.Thumbnail()))
		if err != nil {
			return nil, fmt.Errorf("%w: thumbnail: %w", ErrFormat, err)
		}
		doc.Thumbnail = &Thumbnail{Raster: img, Tags: md.Ifd(exif.ThumbnailIfd), decoded: img}
	}
	c.log.Debug().
		Int("width", doc.Width()).
		Int("height", doc.Height()).
		Bool("exif", doc.Metadata != nil).
		Bool("thumbnail", doc.Thumbnail != nil).
		Bool("xmp", doc.XMP != nil).
		Int("icc_size", len(doc.ICCProfile)).
		Int("segments", len(doc.segments)).
		Msg("Decoded JPEG")
	return doc, nil
}

// DecodeConfig returns the dimensions of a JPEG image without decoding it.
func DecodeConfig(data []byte) (image.Config, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return cfg, nil
}
