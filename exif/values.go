package exif

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

/*
   Each IFD entry is stored individually as a Value, so that it can be
   modified or removed before serializing again.

   TIFF data types are converted in go types:
   BYTE        => Bytes       []uint8
   ASCII       => ASCII       string, stored as is (including NUL bytes)
   SHORT       => Shorts      []uint16
   LONG        => Longs       []uint32
   RATIONAL    => Rationals   []Rational
   SBYTE       => SBytes      []int8
   UNDEFINED   => Undefined   []byte
   SSHORT      => SShorts     []int16
   SLONG       => SLongs      []int32
   SRATIONAL   => SRationals  []SRational
   FLOAT       => Floats      []float32
   DOUBLE      => Doubles     []float64

   Embedded IFD pointers and the thumbnail location are internal values
   whose entry content is only known when serializing.
*/

type Rational struct {
	Numerator, Denominator uint32
}

type SRational struct {
	Numerator, Denominator int32
}

// A Value is the typed content of an IFD entry.
type Value interface {
	Type() Type
	Count() uint32
	String() string

	serializer
}

type serializer interface {
	// size of the value in bytes
	size() uint32
	// write the value itself, in the given byte order
	write(w io.Writer, order binary.ByteOrder) error
}

type (
	Bytes      []uint8
	ASCII      string
	Shorts     []uint16
	Longs      []uint32
	Rationals  []Rational
	SBytes     []int8
	Undefined  []byte
	SShorts    []int16
	SLongs     []int32
	SRationals []SRational
	Floats     []float32
	Doubles    []float64
)

// NewASCII returns s as a NUL terminated ASCII value.
func NewASCII(s string) ASCII {
	return ASCII(s + "\x00")
}

// Text returns the string without its NUL terminator(s).
func (a ASCII) Text() string {
	return strings.TrimRight(string(a), "\x00")
}

func (Bytes) Type() Type      { return TypeByte }
func (ASCII) Type() Type      { return TypeASCII }
func (Shorts) Type() Type     { return TypeShort }
func (Longs) Type() Type      { return TypeLong }
func (Rationals) Type() Type  { return TypeRational }
func (SBytes) Type() Type     { return TypeSByte }
func (Undefined) Type() Type  { return TypeUndefined }
func (SShorts) Type() Type    { return TypeSShort }
func (SLongs) Type() Type     { return TypeSLong }
func (SRationals) Type() Type { return TypeSRational }
func (Floats) Type() Type     { return TypeFloat }
func (Doubles) Type() Type    { return TypeDouble }

func (v Bytes) Count() uint32      { return uint32(len(v)) }
func (v ASCII) Count() uint32      { return uint32(len(v)) }
func (v Shorts) Count() uint32     { return uint32(len(v)) }
func (v Longs) Count() uint32      { return uint32(len(v)) }
func (v Rationals) Count() uint32  { return uint32(len(v)) }
func (v SBytes) Count() uint32     { return uint32(len(v)) }
func (v Undefined) Count() uint32  { return uint32(len(v)) }
func (v SShorts) Count() uint32    { return uint32(len(v)) }
func (v SLongs) Count() uint32     { return uint32(len(v)) }
func (v SRationals) Count() uint32 { return uint32(len(v)) }
func (v Floats) Count() uint32     { return uint32(len(v)) }
func (v Doubles) Count() uint32    { return uint32(len(v)) }

func (v Bytes) size() uint32      { return v.Count() * v.Type().size() }
func (v ASCII) size() uint32      { return v.Count() * v.Type().size() }
func (v Shorts) size() uint32     { return v.Count() * v.Type().size() }
func (v Longs) size() uint32      { return v.Count() * v.Type().size() }
func (v Rationals) size() uint32  { return v.Count() * v.Type().size() }
func (v SBytes) size() uint32     { return v.Count() * v.Type().size() }
func (v Undefined) size() uint32  { return v.Count() * v.Type().size() }
func (v SShorts) size() uint32    { return v.Count() * v.Type().size() }
func (v SLongs) size() uint32     { return v.Count() * v.Type().size() }
func (v SRationals) size() uint32 { return v.Count() * v.Type().size() }
func (v Floats) size() uint32     { return v.Count() * v.Type().size() }
func (v Doubles) size() uint32    { return v.Count() * v.Type().size() }

func (v Bytes) write(w io.Writer, _ binary.ByteOrder) error {
	_, err := w.Write(v)
	return err
}

func (v ASCII) write(w io.Writer, _ binary.ByteOrder) error {
	_, err := io.WriteString(w, string(v))
	return err
}

func (v Undefined) write(w io.Writer, _ binary.ByteOrder) error {
	_, err := w.Write(v)
	return err
}

func (v Shorts) write(w io.Writer, o binary.ByteOrder) error     { return binary.Write(w, o, []uint16(v)) }
func (v Longs) write(w io.Writer, o binary.ByteOrder) error      { return binary.Write(w, o, []uint32(v)) }
func (v Rationals) write(w io.Writer, o binary.ByteOrder) error  { return binary.Write(w, o, []Rational(v)) }
func (v SBytes) write(w io.Writer, o binary.ByteOrder) error     { return binary.Write(w, o, []int8(v)) }
func (v SShorts) write(w io.Writer, o binary.ByteOrder) error    { return binary.Write(w, o, []int16(v)) }
func (v SLongs) write(w io.Writer, o binary.ByteOrder) error     { return binary.Write(w, o, []int32(v)) }
func (v SRationals) write(w io.Writer, o binary.ByteOrder) error { return binary.Write(w, o, []SRational(v)) }
func (v Floats) write(w io.Writer, o binary.ByteOrder) error     { return binary.Write(w, o, []float32(v)) }
func (v Doubles) write(w io.Writer, o binary.ByteOrder) error    { return binary.Write(w, o, []float64(v)) }

func (v Bytes) String() string { return fmt.Sprint([]uint8(v)) }
func (v ASCII) String() string { return fmt.Sprintf("%q", v.Text()) }

func (v Undefined) String() string {
	if len(v) > 16 {
		return fmt.Sprintf("% x ... (%d bytes)", []byte(v[:16]), len(v))
	}
	return fmt.Sprintf("% x", []byte(v))
}

func (v Shorts) String() string  { return fmt.Sprint([]uint16(v)) }
func (v Longs) String() string   { return fmt.Sprint([]uint32(v)) }
func (v SBytes) String() string  { return fmt.Sprint([]int8(v)) }
func (v SShorts) String() string { return fmt.Sprint([]int16(v)) }
func (v SLongs) String() string  { return fmt.Sprint([]int32(v)) }
func (v Floats) String() string  { return fmt.Sprint([]float32(v)) }
func (v Doubles) String() string { return fmt.Sprint([]float64(v)) }

func (v Rationals) String() string {
	parts := make([]string, len(v))
	for i, r := range v {
		parts[i] = fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (v SRationals) String() string {
	parts := make([]string, len(v))
	for i, r := range v {
		parts[i] = fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ifdValue is the entry pointing to an embedded IFD. Its content, the offset
// of the embedded IFD, is known only when serializing.
type ifdValue struct {
	ifd    *Ifd
	offset uint32
}

func (iv *ifdValue) Type() Type     { return TypeLong }
func (iv *ifdValue) Count() uint32  { return 1 }
func (iv *ifdValue) String() string { return fmt.Sprintf("<%s IFD, %d entries>", iv.ifd.id, iv.ifd.Len()) }
func (iv *ifdValue) size() uint32   { return _longSize }

func (iv *ifdValue) write(w io.Writer, o binary.ByteOrder) error {
	return binary.Write(w, o, iv.offset)
}

// thumbnailValue is the JPEGInterchangeFormat entry of IFD1. The thumbnail
// data is stored in the IFD1 data area, at an offset known when serializing.
type thumbnailValue struct {
	md     *Metadata
	offset uint32
}

func (tv *thumbnailValue) Type() Type     { return TypeLong }
func (tv *thumbnailValue) Count() uint32  { return 1 }
func (tv *thumbnailValue) String() string { return fmt.Sprintf("<JPEG thumbnail, %d bytes>", len(tv.md.thumb)) }
func (tv *thumbnailValue) size() uint32   { return _longSize }

func (tv *thumbnailValue) write(w io.Writer, o binary.ByteOrder) error {
	return binary.Write(w, o, tv.offset)
}

// dataSize returns the number of bytes that v stores in the IFD data area,
// rounded up to a 2-byte boundary.
func dataSize(v Value) uint32 {
	var size uint32
	switch t := v.(type) {
	case *ifdValue:
		size = t.ifd.size()
	case *thumbnailValue:
		size = uint32(len(t.md.thumb))
	default:
		size = v.size()
		if size <= _valOffSize {
			return 0
		}
	}
	return (size + 1) &^ 1
}
