// Package orientation maps EXIF orientation codes to the pixel transform that
// brings an image back to its normal orientation.
package orientation

import "fmt"

// Orientation is an EXIF flag that specifies the transformation
// that should be applied to image to display it correctly.
type Orientation int

// Names describe the transform that brings the image back to normal.
const (
	Normal            Orientation = 1
	MirrorHorizontal  Orientation = 2
	Rotate180         Orientation = 3
	MirrorVertical    Orientation = 4
	MirrorRotate90CW  Orientation = 5
	Rotate90CW        Orientation = 6
	MirrorRotate270CW Orientation = 7
	Rotate270CW       Orientation = 8
)

func (o Orientation) Valid() bool {
	return o >= Normal && o <= Rotate270CW
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	t := table[o]
	if t.IsIdentity() {
		return "normal"
	}
	s := fmt.Sprintf("rotate %d CW", t.Rotation)
	if t.Mirror {
		s = "mirror, " + s
	}
	return s
}

// Transform is a horizontal mirror (column x becomes width-1-x), applied
// first when Mirror is set, followed by a clockwise rotation in degrees.
type Transform struct {
	Rotation int // 0, 90, 180 or 270
	Mirror   bool
}

// table is the only place where orientation codes are mapped to geometry.
// Index 0 is unused.
var table = [...]Transform{
	Normal:            {0, false},
	MirrorHorizontal:  {0, true},
	Rotate180:         {180, false},
	MirrorVertical:    {180, true},
	MirrorRotate90CW:  {90, true},
	Rotate90CW:        {90, false},
	MirrorRotate270CW: {270, true},
	Rotate270CW:       {270, false},
}

// Resolve returns the transform that normalizes an image stored with the
// given orientation code. It reports false for codes outside 1..8.
func Resolve(code int) (Transform, bool) {
	o := Orientation(code)
	if !o.Valid() {
		return Transform{}, false
	}
	return table[o], true
}

func (t Transform) IsIdentity() bool {
	return !t.Mirror && t.Rotation == 0
}

// SwapsDimensions reports whether width and height are exchanged.
func (t Transform) SwapsDimensions() bool {
	return t.Rotation == 90 || t.Rotation == 270
}

// ApplyToDimensions returns the dimensions of a w x h image after t.
func (t Transform) ApplyToDimensions(w, h int) (int, int) {
	if t.SwapsDimensions() {
		return h, w
	}
	return w, h
}

// Compose returns the transform equivalent to t followed by next. A rotation
// moved across a mirror changes direction.
func (t Transform) Compose(next Transform) Transform {
	r := t.Rotation
	if next.Mirror {
		r = -r
	}
	return Transform{
		Rotation: normalize(next.Rotation + r),
		Mirror:   t.Mirror != next.Mirror,
	}
}

// Inverse returns the transform that undoes t. Mirrored transforms are
// their own inverse.
func (t Transform) Inverse() Transform {
	if t.Mirror {
		return t
	}
	return Transform{Rotation: normalize(-t.Rotation)}
}

// Orientation returns the code whose normalizing transform is t, or 0 if t
// is not a valid transform.
func (t Transform) Orientation() Orientation {
	for o := Normal; o <= Rotate270CW; o++ {
		if table[o] == t {
			return o
		}
	}
	return 0
}

func normalize(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
