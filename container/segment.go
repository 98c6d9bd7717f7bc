package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/garyhouston/jpegsegs"

	"github.com/jrm-1535/autorotate/exif"
	"github.com/jrm-1535/autorotate/xmp"
)

// JPEG markers
const (
	_APP0 = 0xe0
	_APP1 = 0xe1
	_APP2 = 0xe2
	_APPE = 0xee // Adobe
	_APPF = 0xef
	_COM  = 0xfe
)

const (
	_iccHeader   = "ICC_PROFILE\x00"
	_adobeHeader = "Adobe"

	_maxSegmentSize = 0xffff - 2 // segment length includes itself
	_iccChunkSize   = _maxSegmentSize - len(_iccHeader) - 2
)

// What a segment holds. Metadata segments are regenerated from the
// document when encoding; others are written back verbatim.
type kind int

const (
	kindOther kind = iota
	kindExif
	kindXMP
	kindICC
)

type segment struct {
	marker byte
	kind   kind
	data   []byte // without marker and length
}

func markerName(marker byte) string {
	if marker == _COM {
		return "COM"
	}
	if marker >= _APP0 && marker <= _APPF {
		return fmt.Sprintf("APP%d", marker-_APP0)
	}
	return fmt.Sprintf("marker %#02x", marker)
}

func (s segment) String() string {
	name := markerName(s.marker)
	switch s.kind {
	case kindExif:
		return name + " (Exif)"
	case kindXMP:
		return name + " (XMP)"
	case kindICC:
		return name + " (ICC profile)"
	}
	return fmt.Sprintf("%s (%d bytes)", name, len(s.data))
}

func isAppOrCom(marker byte) bool {
	return (marker >= _APP0 && marker <= _APPF) || marker == _COM
}

func classify(marker byte, data []byte) kind {
	switch {
	case marker == _APP1 && bytes.HasPrefix(data, exif.Header):
		return kindExif
	case marker == _APP1 && bytes.HasPrefix(data, xmp.Header):
		return kindXMP
	case marker == _APP2 && bytes.HasPrefix(data, []byte(_iccHeader)) && len(data) >= len(_iccHeader)+2:
		return kindICC
	}
	return kindOther
}

// scan splits data into the leading APPn/COM segments and the frame, which
// starts with the first other marker and runs to the end of data.
func scan(data []byte) ([]segment, []byte, error) {
	r := bytes.NewReader(data)
	scanner, err := jpegsegs.NewScanner(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	var segs []segment
	for {
		start, _ := r.Seek(0, io.SeekCurrent)
		marker, body, err := scanner.Scan()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, nil, fmt.Errorf("%w: truncated before frame", ErrFormat)
			}
			return nil, nil, fmt.Errorf("%w: segment at %#x: %w", ErrFormat, start, err)
		}
		m := byte(marker)
		if !isAppOrCom(m) {
			return segs, data[start:], nil
		}
		segs = append(segs, segment{marker: m, kind: classify(m, body), data: body})
	}
}

// writeSegment dumps one segment made of the concatenated parts.
func writeSegment(d *jpegsegs.Dumper, marker byte, parts ...[]byte) error {
	body := bytes.Join(parts, nil)
	if len(body) > _maxSegmentSize {
		return fmt.Errorf("%w: %s segment of %d bytes", ErrEncode, markerName(marker), len(body))
	}
	return d.Dump(jpegsegs.Marker(marker), body)
}

// seekBuffer is the in-memory io.WriteSeeker a jpegsegs.Dumper writes to.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte {
	return b.buf
}
