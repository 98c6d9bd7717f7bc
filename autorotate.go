// Package autorotate normalizes the orientation of JPEG images: the raster
// is rotated and mirrored so that the EXIF orientation becomes 1, and all
// metadata describing orientation or dimensions is updated to match.
package autorotate

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/jrm-1535/autorotate/container"
	"github.com/jrm-1535/autorotate/orientation"
)

// Codec decodes JPEG files into documents and encodes them back.
type Codec interface {
	Decode(data []byte) (*container.Document, error)
	Encode(doc *container.Document) ([]byte, error)
}

// Engine normalizes images. It has no mutable state and can be shared
// between goroutines.
type Engine struct {
	Codec Codec
	Log   zerolog.Logger
}

// New returns an engine using codec, or a container codec with default
// options if codec is nil.
func New(codec Codec, log zerolog.Logger) *Engine {
	if codec == nil {
		codec = container.New(container.Options{}, log)
	}
	return &Engine{Codec: codec, Log: log}
}

// Rotate returns data with its raster normalized and its metadata rewritten.
// Either the complete result or an error is returned.
func (e *Engine) Rotate(data []byte) ([]byte, error) {
	doc, err := e.Codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	e.stage(Decoded).Int("size", len(data)).Msg("Stage reached")

	if _, err = e.Normalize(doc); err != nil {
		return nil, err
	}

	out, err := e.Codec.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	e.stage(Reassembled).Int("size", len(out)).Msg("Stage reached")
	return out, nil
}

// Normalize transforms the rasters of a decoded document and rewrites its
// metadata in place. It returns what was extracted before rewriting.
func (e *Engine) Normalize(doc *container.Document) (*Extracted, error) {
	ex, err := Extract(doc)
	if err != nil {
		return nil, err
	}
	e.stage(Validated).Stringer("orientation", ex.Orientation).Msg("Stage reached")

	t, ok := orientation.Resolve(int(ex.Orientation))
	if !ok {
		// Extract only returns valid orientations
		panic(fmt.Sprintf("no transform for orientation %d", ex.Orientation))
	}
	doc.Raster = t.Apply(doc.Raster)
	g := Geometry{Primary: doc.Raster.Bounds().Size()}
	if doc.Thumbnail != nil && doc.Thumbnail.Raster != nil {
		doc.Thumbnail.Raster = t.Apply(doc.Thumbnail.Raster)
		size := doc.Thumbnail.Raster.Bounds().Size()
		g.Thumbnail = &size
	}
	e.stage(Transformed).
		Int("rotation", t.Rotation).
		Bool("mirror", t.Mirror).
		Interface("size", g.Primary).
		Msg("Stage reached")

	Rewrite(doc, ex, t, g)
	e.stage(Rewritten).Msg("Stage reached")
	return ex, nil
}

// RotateReader reads the whole image from r before normalizing it. Read
// errors are returned unchanged.
func (e *Engine) RotateReader(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return e.Rotate(data)
}

// RotateFile normalizes the image stored at path. A directory is not a valid
// image; other file system errors are returned unchanged.
func (e *Engine) RotateFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.Rotate(data)
}

func (e *Engine) stage(s Stage) *zerolog.Event {
	return e.Log.Debug().Stringer("stage", s)
}

var _ Codec = (*container.Codec)(nil)
