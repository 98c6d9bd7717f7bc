package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// countWriter tracks the current offset from the TIFF header origin, so that
// each IFD can check it is written exactly where its parent pointed to.
type countWriter struct {
	w io.Writer
	n uint32
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint32(n)
	return n, err
}

var padding [_valOffSize]byte

func (cw *countWriter) pad(n uint32) error {
	if n == 0 {
		return nil
	}
	_, err := cw.Write(padding[:n])
	return err
}

// tEntry is the fixed part of a 12-byte IFD entry.
type tEntry struct {
	Tag   Tag
	Type  Type
	Count uint32
}

// Bytes returns the serialized metadata, starting with the EXIF header.
func (m *Metadata) Bytes() ([]byte, error) {
	var b bytes.Buffer
	if _, err := m.Serialize(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Serialize writes the EXIF header followed by the whole TIFF structure on w.
// IFD0 is written first, then IFD1 (if any) with the thumbnail data at the
// end of its data area. It returns the number of bytes written.
func (m *Metadata) Serialize(w io.Writer) (int, error) {
	if m.root == nil {
		return 0, fmt.Errorf("exif: no primary IFD to serialize")
	}
	written, err := w.Write(Header)
	if err != nil {
		return written, err
	}

	cw := &countWriter{w: w}
	es := "II"
	if m.endian == binary.BigEndian {
		es = "MM"
	}
	if _, err = io.WriteString(cw, es); err == nil {
		if err = binary.Write(cw, m.endian, uint16(0x002a)); err == nil {
			err = binary.Write(cw, m.endian, uint32(_headerSize))
		}
	}
	if err == nil {
		err = m.root.serialize(cw, _headerSize)
	}
	if err == nil && m.root.next != nil {
		err = m.root.next.serialize(cw, _headerSize+m.root.size())
	}
	return written + int(cw.n), err
}

// size returns the number of bytes taken by the IFD, its data area included.
func (ifd *Ifd) size() uint32 {
	s := uint32(_shortSize + len(ifd.entries)*_ifdEntrySize + _longSize)
	for _, e := range ifd.entries {
		s += dataSize(e.value)
	}
	return s
}

func (ifd *Ifd) serialize(cw *countWriter, offset uint32) error {
	if cw.n != offset {
		return fmt.Errorf("exif: %s IFD at %#08x, expected %#08x", ifd.id, cw.n, offset)
	}
	if err := ifd.serializeEntries(cw, offset); err != nil {
		return err
	}
	return ifd.serializeDataArea(cw)
}

// serializeEntries writes the entry count, the fixed size entries and the
// next IFD offset. Values that do not fit in an entry get their offset in the
// data area, computed from a running dOffset. By side effect, the offsets of
// embedded IFDs and thumbnail data are recorded for the data area phase.
func (ifd *Ifd) serializeEntries(cw *countWriter, offset uint32) error {
	endian := ifd.md.endian
	ifd.dOffset = offset + _shortSize + uint32(len(ifd.entries))*_ifdEntrySize + _longSize

	if err := binary.Write(cw, endian, uint16(len(ifd.entries))); err != nil {
		return err
	}
	for _, e := range ifd.entries {
		v := e.value
		if err := binary.Write(cw, endian, tEntry{e.tag, v.Type(), v.Count()}); err != nil {
			return err
		}
		switch t := v.(type) {
		case *ifdValue:
			t.offset = ifd.dOffset
		case *thumbnailValue:
			t.offset = ifd.dOffset
		}
		size := dataSize(v)
		var err error
		switch {
		case size == 0: // in place value
			if err = v.write(cw, endian); err == nil {
				err = cw.pad(_valOffSize - v.size())
			}
		case isPointer(v):
			err = v.write(cw, endian)
		default:
			err = binary.Write(cw, endian, ifd.dOffset)
		}
		if err != nil {
			return fmt.Errorf("exif: %s IFD tag %#04x: %w", ifd.id, uint16(e.tag), err)
		}
		ifd.dOffset += size
	}

	var next uint32
	if ifd.next != nil { // next IFD follows immediately the current one
		next = ifd.dOffset
	}
	return binary.Write(cw, endian, next)
}

func isPointer(v Value) bool {
	switch v.(type) {
	case *ifdValue, *thumbnailValue:
		return true
	}
	return false
}

// serializeDataArea writes values that did not fit in their entry, embedded
// IFDs and thumbnail data, in entry order, each on a 2-byte boundary.
func (ifd *Ifd) serializeDataArea(cw *countWriter) error {
	for _, e := range ifd.entries {
		size := dataSize(e.value)
		if size == 0 {
			continue
		}
		start := cw.n
		var err error
		switch t := e.value.(type) {
		case *ifdValue:
			err = t.ifd.serialize(cw, t.offset)
		case *thumbnailValue:
			_, err = cw.Write(ifd.md.thumb)
		default:
			err = t.write(cw, ifd.md.endian)
		}
		if err != nil {
			return err
		}
		if err = cw.pad(size - (cw.n - start)); err != nil {
			return err
		}
	}
	if cw.n != ifd.dOffset {
		return fmt.Errorf("exif: %s IFD data area ends at %#08x, expected %#08x", ifd.id, cw.n, ifd.dOffset)
	}
	return nil
}
