package orientation

import (
	"image"

	"github.com/disintegration/imaging"
)

// Apply returns img transformed by t. Pixels are only permuted, never
// resampled. The identity returns img itself.
func (t Transform) Apply(img image.Image) image.Image {
	if t.IsIdentity() {
		return img
	}
	if t.Mirror {
		img = imaging.FlipH(img)
	}
	// imaging rotates counter-clockwise
	switch t.Rotation {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}
	return img
}
