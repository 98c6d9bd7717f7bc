package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

/*
   Metadata:

     IFD0 (Primary) ===================================
       n    (2 byte count)                            ^
       ...  (12-byte entries)                         |
       _ExifIFD ----------                            |
       ...                |         fixed size = (n * 12) + 2 + 4
       _GpsIFD ---------  |                           |
       ...              | |                           v
  -- next IFD (4 bytes) | | ===========================
  |  < IFD0 data        | |
  |     GPS IFD <-------  | (optional)
  |     < GPS IFD data >  |
  |     EXIF IFD <--------
  |       _IOP ----------
  |     < EXIF IFD data  |
  |       IOP IFD <------
  |       < IOP IFD data >
  |     > (end EXIF IFD)
  |  > (end IFD0)
  -> IFD1 (Thumbnail, optional)
       ...
     < IFD1 data
       Thumbnail JPEG image
     >
     next IFD = 0

   Embedded IFDs are pointed to from a parent IFD and do not use the next IFD
   pointer. Their exact location in the data area does not matter, which is
   why the tree can be serialized with a different layout than it was read.
*/

type parser struct {
	md      *Metadata
	data    []byte // starts at TIFF header
	visited map[uint32]bool

	thumbOffset, thumbLen uint32
	hasThumbOffset        bool
	hasThumbLen           bool
}

func (p *parser) u16(offset uint32) uint16 {
	return p.md.endian.Uint16(p.data[offset:])
}

func (p *parser) u32(offset uint32) uint32 {
	return p.md.endian.Uint32(p.data[offset:])
}

func getEndianess(data []byte) (binary.ByteOrder, error) {
	// TIFF header starts with 2 bytes indicating the byte ordering ("II" short
	// for Intel or "MM" short for Motorola, indicating little or big endian
	// respectively)
	switch {
	case bytes.Equal(data[:2], []byte("II")):
		return binary.LittleEndian, nil
	case bytes.Equal(data[:2], []byte("MM")):
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: unknown byte ordering %q", ErrInvalid, data[:2])
}

// Parse parses the EXIF metadata in data, which must start with the EXIF
// header ("Exif\x00\x00") and contain the whole TIFF structure. The control
// argument may be nil, in which case undecodable entries are silently
// skipped.
//
// It returns the metadata tree in case of success or an error wrapping
// ErrInvalid in case of failure.
func Parse(data []byte, c *Control) (*Metadata, error) {
	if len(data) < _originOffset+_headerSize || !bytes.Equal(data[:_originOffset], Header) {
		return nil, fmt.Errorf("%w: missing EXIF header", ErrInvalid)
	}
	m := new(Metadata)
	if c != nil {
		m.Control = *c
	}
	p := &parser{md: m, data: data[_originOffset:], visited: make(map[uint32]bool)}

	var err error
	if m.endian, err = getEndianess(p.data); err != nil {
		return nil, err
	}
	if magic := p.u16(2); magic != 0x2a {
		return nil, fmt.Errorf("%w: invalid TIFF identifier %#04x", ErrInvalid, magic)
	}

	var next uint32
	m.root, next, err = p.parseIfd(PrimaryIfd, p.u32(4))
	if err != nil {
		return nil, err
	}
	if next == 0 {
		return m, nil
	}
	thumb, more, err := p.parseIfd(ThumbnailIfd, next)
	if err == nil {
		err = p.checkThumbnail(thumb)
	}
	if err != nil {
		if m.Unknown&Stop != 0 {
			return nil, err
		}
		m.warn(ThumbnailIfd, 0, "dropping thumbnail IFD: %v", err)
		m.ifds[ThumbnailIfd] = nil
		m.thumb = nil
		return m, nil
	}
	m.root.next = thumb
	if more != 0 {
		m.warn(ThumbnailIfd, 0, "ignoring IFDs chained after the thumbnail IFD")
	}
	return m, nil
}

// parseIfd makes a new Ifd, checks all entries and stores the corresponding
// values in it. It returns the new Ifd, the offset of the next IFD in list
// (0 if none) and an error if it failed.
func (p *parser) parseIfd(id IfdId, start uint32) (*Ifd, uint32, error) {
	if start < _headerSize || uint64(start)+_shortSize > uint64(len(p.data)) {
		return nil, 0, fmt.Errorf("%w: %s IFD offset %#08x out of bounds", ErrInvalid, id, start)
	}
	if p.visited[start] {
		return nil, 0, fmt.Errorf("%w: %s IFD offset %#08x already visited", ErrInvalid, id, start)
	}
	p.visited[start] = true

	/*
	   Image File Directory starts with the number of following directory
	   entries (2 bytes) followed by that number of entries (12 bytes) and one
	   extra offset to the next IFD (4 bytes)
	*/
	n := uint32(p.u16(start))
	end := uint64(start) + _shortSize + uint64(n)*_ifdEntrySize + _longSize
	if end > uint64(len(p.data)) {
		return nil, 0, fmt.Errorf("%w: %s IFD truncated (%d entries)", ErrInvalid, id, n)
	}

	ifd := &Ifd{id: id, md: p.md, entries: make([]*entry, 0, n)}
	offset := start + _shortSize
	for i := uint32(0); i < n; i++ {
		tag := Tag(p.u16(offset))
		typ := Type(p.u16(offset + 2))
		count := p.u32(offset + 4)
		e, err := p.parseEntry(ifd, tag, typ, count, offset+8)
		if err != nil {
			return nil, 0, err
		}
		if e != nil {
			ifd.entries = append(ifd.entries, e)
		}
		offset += _ifdEntrySize
	}
	p.md.ifds[id] = ifd
	return ifd, p.u32(offset), nil
}

// parseEntry is called with a valid entry (tag, type, count and the offset
// of the value|offset field). It returns the entry to store, or nil if the
// entry must be skipped.
func (p *parser) parseEntry(ifd *Ifd, tag Tag, typ Type, count uint32, at uint32) (*entry, error) {
	if child, ok := tag.pointsTo(ifd.id); ok {
		if (typ != TypeLong && typ != typeIFD) || count != 1 {
			return p.broken(ifd.id, tag, "invalid %s IFD pointer (%s, count %d)", child, typ, count)
		}
		if p.md.ifds[child] != nil {
			return p.broken(ifd.id, tag, "duplicate %s IFD pointer", child)
		}
		sub, _, err := p.parseIfd(child, p.u32(at))
		if err != nil {
			if p.md.Unknown&Stop != 0 {
				return nil, err
			}
			p.md.warn(ifd.id, tag, "skipping embedded IFD: %v", err)
			if child == ExifIfd {
				p.md.ifds[InteropIfd] = nil
			}
			return nil, nil
		}
		return &entry{tag: tag, value: &ifdValue{ifd: sub}}, nil
	}

	size := uint64(typ.size()) * uint64(count)
	if size == 0 {
		return p.broken(ifd.id, tag, "unknown type %s or zero count", typ)
	}
	if p.md.Unknown&Remove != 0 && !tag.known(ifd.id) {
		p.md.warn(ifd.id, tag, "removing unknown tag")
		return nil, nil
	}
	var raw []byte
	if size <= _valOffSize {
		raw = p.data[at : uint64(at)+size]
	} else {
		offset := uint64(p.u32(at))
		if offset+size > uint64(len(p.data)) {
			return p.broken(ifd.id, tag, "value at %#08x (%d bytes) out of bounds", offset, size)
		}
		raw = p.data[offset : offset+size]
	}

	if ifd.id == ThumbnailIfd {
		switch tag {
		case TagJPEGInterchangeFormat:
			if typ != TypeLong || count != 1 {
				return p.broken(ifd.id, tag, "invalid thumbnail offset (%s, count %d)", typ, count)
			}
			p.thumbOffset, p.hasThumbOffset = p.md.endian.Uint32(raw), true
			return &entry{tag: tag, value: &thumbnailValue{md: p.md}}, nil
		case TagJPEGInterchangeFormatLength:
			if (typ != TypeLong && typ != TypeShort) || count != 1 {
				return p.broken(ifd.id, tag, "invalid thumbnail length (%s, count %d)", typ, count)
			}
			if typ == TypeShort {
				p.thumbLen = uint32(p.md.endian.Uint16(raw))
			} else {
				p.thumbLen = p.md.endian.Uint32(raw)
			}
			p.hasThumbLen = true
			return &entry{tag: tag, value: Longs{p.thumbLen}}, nil
		}
	}

	v, err := decodeValue(typ, count, raw, p.md.endian)
	if err != nil {
		return p.broken(ifd.id, tag, "%v", err)
	}
	return &entry{tag: tag, value: v}, nil
}

// broken deals with an entry that cannot be represented, according to the
// Unknown policy: stop in error or skip the entry.
func (p *parser) broken(id IfdId, tag Tag, format string, args ...any) (*entry, error) {
	if p.md.Unknown&Stop != 0 {
		return nil, fmt.Errorf("%w: %s IFD tag %#04x: %s",
			ErrInvalid, id, uint16(tag), fmt.Sprintf(format, args...))
	}
	p.md.warn(id, tag, "skipping entry: "+format, args...)
	return nil, nil
}

// checkThumbnail extracts the thumbnail data pointed to by IFD1. Thumbnails
// stored as strips cannot be relocated and are rejected.
func (p *parser) checkThumbnail(ifd *Ifd) error {
	if _, ok := ifd.Lookup(TagStripOffsets); ok {
		return fmt.Errorf("%w: uncompressed strip thumbnail is not supported", ErrInvalid)
	}
	if !p.hasThumbOffset {
		if p.hasThumbLen {
			ifd.entries = removeTag(ifd.entries, TagJPEGInterchangeFormatLength)
		}
		return nil
	}
	if !p.hasThumbLen {
		return fmt.Errorf("%w: thumbnail without length", ErrInvalid)
	}
	end := uint64(p.thumbOffset) + uint64(p.thumbLen)
	if end > uint64(len(p.data)) {
		return fmt.Errorf("%w: thumbnail at %#08x (%d bytes) out of bounds",
			ErrInvalid, p.thumbOffset, p.thumbLen)
	}
	p.md.thumb = bytes.Clone(p.data[p.thumbOffset:end])
	return nil
}

func removeTag(entries []*entry, tag Tag) []*entry {
	for i, e := range entries {
		if e.tag == tag {
			return append(entries[:i], entries[i+1:]...)
		}
	}
	return entries
}

func decodeValue(typ Type, count uint32, raw []byte, order binary.ByteOrder) (Value, error) {
	var v Value
	var dst any
	switch typ {
	case TypeByte:
		return Bytes(bytes.Clone(raw)), nil
	case TypeASCII:
		return ASCII(raw), nil
	case TypeUndefined:
		return Undefined(bytes.Clone(raw)), nil
	case TypeShort:
		s := make([]uint16, count)
		v, dst = Shorts(s), s
	case TypeLong, typeIFD:
		s := make([]uint32, count)
		v, dst = Longs(s), s
	case TypeRational:
		s := make([]Rational, count)
		v, dst = Rationals(s), s
	case TypeSByte:
		s := make([]int8, count)
		v, dst = SBytes(s), s
	case TypeSShort:
		s := make([]int16, count)
		v, dst = SShorts(s), s
	case TypeSLong:
		s := make([]int32, count)
		v, dst = SLongs(s), s
	case TypeSRational:
		s := make([]SRational, count)
		v, dst = SRationals(s), s
	case TypeFloat:
		s := make([]float32, count)
		v, dst = Floats(s), s
	case TypeDouble:
		s := make([]float64, count)
		v, dst = Doubles(s), s
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
	if err := binary.Read(bytes.NewReader(raw), order, dst); err != nil {
		return nil, err
	}
	return v, nil
}
