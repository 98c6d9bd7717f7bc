package autorotate

import "errors"

var (
	// ErrInvalidFormat is returned when the input is not a JPEG image.
	ErrInvalidFormat = errors.New("autorotate: invalid image format")
	// ErrMissingExif is returned when the image has no EXIF metadata.
	ErrMissingExif = errors.New("autorotate: missing EXIF metadata")
	// ErrMissingOrientation is returned when the EXIF metadata has no
	// orientation tag.
	ErrMissingOrientation = errors.New("autorotate: missing orientation")
	// ErrUnsupportedOrientation is returned for orientations outside 1..8.
	ErrUnsupportedOrientation = errors.New("autorotate: unsupported orientation")
	// ErrEncoding is returned when the normalized image cannot be encoded.
	ErrEncoding = errors.New("autorotate: encoding failed")
)
