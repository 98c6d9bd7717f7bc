// Package exif parses, edits and serializes EXIF metadata as found in the
// APP1 segment of JPEG files.
package exif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

/*
   EXIF metadata layout:

   Exif header:
     "Exif\x00\x00"            Fixed 6-byte header

   TIFF header:    Note this is the origin of following offsets
     "II" | "MM"               2-byte endianess (Intel LE/Motorola BE)
                               All following multi-byte values depend on endianess
     0x002a                    2-byte Magic Number
     0x00000008                4-byte offset of immediately following primary IFD

   IFD0:           Primary Image Data
   IFD1:           Thumbnail Image Data (optional)

   An IFD has the following layout
     <n>                       2-byte count of following entries
     { IFD entry } * n         12-byte entry
     <offset next IFD>         4-byte offset of Thumbnail IFD
     <IFD data>                variable length data area for values pointed to
                               by entries, for embedded IFDs (EXIF and/or GPS),
                               or for an embedded JPEG thumbnail image.

   Each IFD entry is:
       entry Tag               2-byte unique tag
       entry type              2-byte TIFF type
       value count             4-byte count of values
       value or value offset   4-byte data: the value itself if it fits in 4
                               bytes, otherwise its offset in the data area.
*/

const (
	_originOffset = 6 // TIFF header offset in EXIF segment
	_headerSize   = 8 // TIFF header size
	_valOffSize   = 4 // value fits in if <= 4 bytes, otherwise offset
	_shortSize    = 2
	_longSize     = 4
	_ifdEntrySize = (_shortSize + _longSize) * 2
)

// Header is the signature that starts an EXIF APP1 segment.
var Header = []byte("Exif\x00\x00")

var (
	// ErrInvalid is returned when the metadata cannot be parsed.
	ErrInvalid = errors.New("exif: invalid metadata")
	// ErrReserved is returned when trying to set a tag that the tree manages
	// itself (embedded IFD pointers and thumbnail location).
	ErrReserved = errors.New("exif: reserved tag")
)

type Compression uint

const (
	UnknownCompression Compression = iota
	NotCompressed
	CCITT_1D
	CCITT_Group3
	CCITT_Group4
	LZW
	JPEG
	JPEG_Technote2
	Deflate
	RFC_2301_BW_JBIG
	RFC_2301_Color_JBIG
	PackBits
)

func (c Compression) String() string {
	switch c {
	case NotCompressed:
		return "Not compressed"
	case CCITT_1D:
		return "CCITT 1D"
	case CCITT_Group3:
		return "CCITT Group 3"
	case CCITT_Group4:
		return "CCITT Group 4"
	case LZW:
		return "LZW"
	case JPEG:
		return "JPEG"
	case JPEG_Technote2:
		return "JPEG (Technote 2)"
	case Deflate:
		return "DEFLATE"
	case RFC_2301_BW_JBIG:
		return "RFC_2301_BW_JBIG"
	case RFC_2301_Color_JBIG:
		return "RFC_2301_Color_JBIG"
	case PackBits:
		return "PACKBITS"
	}
	return "Unknown"
}

func compressionFromTag(v uint32) Compression {
	switch {
	case v >= 1 && v <= 10:
		return Compression(v)
	case v == 32773:
		return PackBits
	}
	return UnknownCompression
}

// Unknown entry policy, as a bitmask:
// 0 => Keep what can be kept (skip only what cannot be decoded)
// 1 => Remove unknown entries
// 2 => Stop in error at the first unknown or undecodable entry
const (
	Keep   = 0
	Remove = 1
	Stop   = 2
)

// Control defines how parsing deals with entries it cannot represent.
type Control struct {
	Unknown uint           // how to deal with unknown or broken entries
	Warn    bool           // log skipped entries and non-fatal errors
	Log     zerolog.Logger // destination of warnings, zero value discards
}

type IfdId uint

const (
	PrimaryIfd   IfdId = iota // IFD0, first (TIFF) IFD
	ThumbnailIfd              // IFD1, chained after IFD0
	ExifIfd                   // embedded in IFD0
	GpsIfd                    // embedded in IFD0
	InteropIfd                // embedded in the Exif IFD

	_IFD_N // last entry + 1 to size arrays
)

var ifdNames = [...]string{"Primary", "Thumbnail", "Exif", "GPS", "Interoperability"}

func (id IfdId) String() string {
	if id >= _IFD_N {
		return fmt.Sprintf("IFD(%d)", uint(id))
	}
	return ifdNames[id]
}

// parent returns the IFD that embeds id and the pointer tag used for it.
func (id IfdId) parent() (IfdId, Tag, bool) {
	switch id {
	case ExifIfd:
		return PrimaryIfd, TagExifIFD, true
	case GpsIfd:
		return PrimaryIfd, TagGPSIFD, true
	case InteropIfd:
		return ExifIfd, TagInteropIFD, true
	}
	return 0, 0, false
}

// Metadata is the tree of IFDs found in an EXIF segment. It is keyed by
// (IfdId, Tag) and owns the thumbnail JPEG data of IFD1, if any.
type Metadata struct {
	endian binary.ByteOrder
	root   *Ifd         // IFD0, IFD1 is root.next
	ifds   [_IFD_N]*Ifd // flat access to ifd by id
	thumb  []byte       // IFD1 JPEG data

	Control // parsing policy
}

// New returns an empty tree with a primary IFD, using the given byte order
// when serialized.
func New(order binary.ByteOrder) *Metadata {
	m := &Metadata{endian: order}
	m.root = m.newIfd(PrimaryIfd)
	return m
}

func (m *Metadata) newIfd(id IfdId) *Ifd {
	ifd := &Ifd{id: id, md: m}
	m.ifds[id] = ifd
	return ifd
}

func (m *Metadata) ByteOrder() binary.ByteOrder {
	return m.endian
}

// Ifd returns the IFD with the given id, or nil if it is absent.
func (m *Metadata) Ifd(id IfdId) *Ifd {
	if id >= _IFD_N {
		return nil
	}
	return m.ifds[id]
}

// CreateIfd returns the IFD with the given id, creating and linking it (and
// its parents) if it did not exist yet.
func (m *Metadata) CreateIfd(id IfdId) *Ifd {
	if ifd := m.Ifd(id); ifd != nil {
		return ifd
	}
	if id == ThumbnailIfd {
		ifd := m.newIfd(id)
		m.root.next = ifd
		return ifd
	}
	pId, tag, ok := id.parent()
	if !ok {
		panic(fmt.Sprintf("exif: cannot create IFD %s", id))
	}
	parent := m.CreateIfd(pId)
	ifd := m.newIfd(id)
	parent.insert(&entry{tag: tag, value: &ifdValue{ifd: ifd}})
	return ifd
}

// Lookup returns the value stored under tag in the IFD id.
func (m *Metadata) Lookup(id IfdId, tag Tag) (Value, bool) {
	ifd := m.Ifd(id)
	if ifd == nil {
		return nil, false
	}
	return ifd.Lookup(tag)
}

// Thumbnail returns the JPEG data of the IFD1 thumbnail, or nil.
func (m *Metadata) Thumbnail() []byte {
	return m.thumb
}

// ThumbnailCompression returns the compression declared in IFD1.
func (m *Metadata) ThumbnailCompression() Compression {
	ifd := m.Ifd(ThumbnailIfd)
	if ifd == nil {
		return UnknownCompression
	}
	if v, ok := ifd.Uint(TagCompression); ok {
		return compressionFromTag(v)
	}
	if m.thumb != nil {
		return JPEG
	}
	return UnknownCompression
}

// SetThumbnail replaces the thumbnail JPEG data, creating IFD1 if needed.
// JPEGInterchangeFormatLength is kept in sync with the data length.
func (m *Metadata) SetThumbnail(data []byte) {
	ifd := m.CreateIfd(ThumbnailIfd)
	m.thumb = data
	if _, ok := ifd.Lookup(TagCompression); !ok {
		ifd.insert(&entry{tag: TagCompression, value: Shorts{6}})
	}
	if _, ok := ifd.Lookup(TagJPEGInterchangeFormat); !ok {
		ifd.insert(&entry{tag: TagJPEGInterchangeFormat, value: &thumbnailValue{md: m}})
	}
	ifd.put(TagJPEGInterchangeFormatLength, Longs{uint32(len(data))})
}

// Write the formatted IFDs on w. If w is nil, os.Stdout is used.
// The IFDs to format are given by their ids.
func (m *Metadata) Format(w io.Writer, ids []IfdId) error {
	if w == nil {
		w = os.Stdout
	}
	if _, err := fmt.Fprintf(w, "Picture Metadata:\n"); err != nil {
		return err
	}
	for _, id := range ids {
		ifd := m.Ifd(id)
		if ifd == nil {
			fmt.Fprintf(w, "--- %s IFD (id %d) is absent\n", id, id)
			continue
		}
		fmt.Fprintf(w, "--- %s IFD (id %d)\n", id, id)
		if err := ifd.format(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metadata) warn(ifd IfdId, tag Tag, format string, args ...any) {
	if !m.Warn {
		return
	}
	m.Log.Warn().
		Str("ifd", ifd.String()).
		Str("tag", fmt.Sprintf("%#04x", uint16(tag))).
		Msgf(format, args...)
}

// Ifd is one image file directory: an ordered set of tagged values.
type Ifd struct {
	id      IfdId
	md      *Metadata
	entries []*entry
	next    *Ifd // next IFD in list

	dOffset uint32 // current offset in data-area during serializing
}

type entry struct {
	tag   Tag
	value Value
}

func (ifd *Ifd) Id() IfdId {
	return ifd.id
}

func (ifd *Ifd) Len() int {
	return len(ifd.entries)
}

// Tags returns the tags of the directory in storage order.
func (ifd *Ifd) Tags() []Tag {
	tags := make([]Tag, len(ifd.entries))
	for i, e := range ifd.entries {
		tags[i] = e.tag
	}
	return tags
}

func (ifd *Ifd) find(tag Tag) int {
	if ifd == nil {
		return -1
	}
	for i, e := range ifd.entries {
		if e.tag == tag {
			return i
		}
	}
	return -1
}

// Lookup returns the value stored under tag. A nil Ifd holds no value.
func (ifd *Ifd) Lookup(tag Tag) (Value, bool) {
	if i := ifd.find(tag); i >= 0 {
		return ifd.entries[i].value, true
	}
	return nil, false
}

// Uint returns the first element of an integer value (BYTE, SHORT or LONG).
func (ifd *Ifd) Uint(tag Tag) (uint32, bool) {
	v, ok := ifd.Lookup(tag)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case Shorts:
		if len(t) > 0 {
			return uint32(t[0]), true
		}
	case Longs:
		if len(t) > 0 {
			return t[0], true
		}
	case Bytes:
		if len(t) > 0 {
			return uint32(t[0]), true
		}
	}
	return 0, false
}

// Set stores v under tag, replacing any previous value in place. New tags
// are inserted in ascending tag order.
func (ifd *Ifd) Set(tag Tag, v Value) error {
	if tag.reserved(ifd.id) {
		return fmt.Errorf("%w: %#04x in %s IFD", ErrReserved, uint16(tag), ifd.id)
	}
	if v == nil {
		return fmt.Errorf("exif: nil value for tag %#04x", uint16(tag))
	}
	ifd.put(tag, v)
	return nil
}

// SetUint stores an integer value under tag. The type of an existing SHORT
// value is kept when v fits, otherwise the value is stored as a LONG.
func (ifd *Ifd) SetUint(tag Tag, v uint32) error {
	if old, ok := ifd.Lookup(tag); ok && old.Type() == TypeShort && v <= 0xffff {
		return ifd.Set(tag, Shorts{uint16(v)})
	}
	return ifd.Set(tag, Longs{v})
}

// Delete removes tag from the directory. It reports whether it was present.
func (ifd *Ifd) Delete(tag Tag) bool {
	i := ifd.find(tag)
	if i < 0 || tag.reserved(ifd.id) {
		return false
	}
	ifd.entries = append(ifd.entries[:i], ifd.entries[i+1:]...)
	return true
}

func (ifd *Ifd) put(tag Tag, v Value) {
	if i := ifd.find(tag); i >= 0 {
		ifd.entries[i].value = v
		return
	}
	ifd.insert(&entry{tag: tag, value: v})
}

func (ifd *Ifd) insert(e *entry) {
	i := len(ifd.entries)
	for i > 0 && ifd.entries[i-1].tag > e.tag {
		i--
	}
	ifd.entries = append(ifd.entries, nil)
	copy(ifd.entries[i+1:], ifd.entries[i:])
	ifd.entries[i] = e
}

func (ifd *Ifd) format(w io.Writer) error {
	for _, e := range ifd.entries {
		if _, err := fmt.Fprintf(w, "    %s: %s\n", e.tag.Name(ifd.id), e.value); err != nil {
			return err
		}
	}
	return nil
}

// Dimension is an optional integer dimension read from a tag.
type Dimension struct {
	Value uint32
	Valid bool // false if the tag is absent or not an integer
}

// Dimension returns the integer value stored under tag as a Dimension. It is
// safe to call on a nil Ifd.
func (ifd *Ifd) Dimension(tag Tag) Dimension {
	if ifd == nil {
		return Dimension{}
	}
	v, ok := ifd.Uint(tag)
	return Dimension{Value: v, Valid: ok}
}
