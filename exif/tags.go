package exif

import "fmt"

// Tag identifies an entry within an IFD.
type Tag uint16

// Type is the TIFF type of an entry value.
type Type uint16

const ( // TIFF Types
	TypeByte Type = 1 + iota
	TypeASCII
	TypeShort
	TypeLong
	TypeRational
	TypeSByte
	TypeUndefined
	TypeSShort
	TypeSLong
	TypeSRational
	TypeFloat
	TypeDouble

	typeIFD // some writers use it for embedded IFD pointers
)

const ( // TIFF Type sizes (signed or unsigned)
	_byteSize     = 1
	_rationalSize = 8
	_floatSize    = 4
	_doubleSize   = 8
)

func (t Type) size() uint32 {
	switch t {
	case TypeByte, TypeASCII, TypeSByte, TypeUndefined:
		return _byteSize
	case TypeShort, TypeSShort:
		return _shortSize
	case TypeLong, TypeSLong, typeIFD:
		return _longSize
	case TypeRational, TypeSRational:
		return _rationalSize
	case TypeFloat:
		return _floatSize
	case TypeDouble:
		return _doubleSize
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case TypeByte:
		return "Unsigned byte"
	case TypeASCII:
		return "ASCII string"
	case TypeShort:
		return "Unsigned short"
	case TypeLong:
		return "Unsigned long"
	case TypeRational:
		return "Unsigned rational"
	case TypeSByte:
		return "Signed byte"
	case TypeUndefined:
		return "Undefined"
	case TypeSShort:
		return "Signed short"
	case TypeSLong:
		return "Signed long"
	case TypeSRational:
		return "Signed rational"
	case TypeFloat:
		return "Float"
	case TypeDouble:
		return "Double"
	case typeIFD:
		return "IFD"
	}
	return fmt.Sprintf("Unknown (%d)", uint16(t))
}

const ( // IFD0 and IFD1 tags
	TagImageWidth                  Tag = 0x100
	TagImageLength                 Tag = 0x101
	TagBitsPerSample               Tag = 0x102
	TagCompression                 Tag = 0x103
	TagImageDescription            Tag = 0x10e
	TagMake                        Tag = 0x10f
	TagModel                       Tag = 0x110
	TagStripOffsets                Tag = 0x111
	TagOrientation                 Tag = 0x112
	TagXResolution                 Tag = 0x11a
	TagYResolution                 Tag = 0x11b
	TagResolutionUnit              Tag = 0x128
	TagSoftware                    Tag = 0x131
	TagDateTime                    Tag = 0x132
	TagArtist                      Tag = 0x13b
	TagHostComputer                Tag = 0x13c
	TagJPEGInterchangeFormat       Tag = 0x201
	TagJPEGInterchangeFormatLength Tag = 0x202
	TagYCbCrPositioning            Tag = 0x213
	TagCopyright                   Tag = 0x8298
	TagExifIFD                     Tag = 0x8769
	TagGPSIFD                      Tag = 0x8825
)

const ( // Exif IFD tags
	TagExposureTime      Tag = 0x829a
	TagFNumber           Tag = 0x829d
	TagISOSpeedRatings   Tag = 0x8827
	TagExifVersion       Tag = 0x9000
	TagDateTimeOriginal  Tag = 0x9003
	TagDateTimeDigitized Tag = 0x9004
	TagFocalLength       Tag = 0x920a
	TagMakerNote         Tag = 0x927c
	TagUserComment       Tag = 0x9286
	TagFlashpixVersion   Tag = 0xa000
	TagColorSpace        Tag = 0xa001
	TagPixelXDimension   Tag = 0xa002 // a.k.a. ExifImageWidth
	TagPixelYDimension   Tag = 0xa003 // a.k.a. ExifImageLength
	TagInteropIFD        Tag = 0xa005
	TagLensModel         Tag = 0xa434
)

const ( // Interoperability IFD tags
	TagInteropIndex       Tag = 0x0001
	TagInteropVersion     Tag = 0x0002
	TagRelatedImageFormat Tag = 0x1000
	TagRelatedImageWidth  Tag = 0x1001
	TagRelatedImageLength Tag = 0x1002
)

const ( // GPS IFD tags
	TagGPSVersionID    Tag = 0x0000
	TagGPSLatitudeRef  Tag = 0x0001
	TagGPSLatitude     Tag = 0x0002
	TagGPSLongitudeRef Tag = 0x0003
	TagGPSLongitude    Tag = 0x0004
	TagGPSAltitudeRef  Tag = 0x0005
	TagGPSAltitude     Tag = 0x0006
	TagGPSTimeStamp    Tag = 0x0007
	TagGPSDateStamp    Tag = 0x001d
)

var tiffNames = map[Tag]string{
	TagImageWidth:                  "ImageWidth",
	TagImageLength:                 "ImageLength",
	TagBitsPerSample:               "BitsPerSample",
	TagCompression:                 "Compression",
	TagImageDescription:            "ImageDescription",
	TagMake:                        "Make",
	TagModel:                       "Model",
	TagStripOffsets:                "StripOffsets",
	TagOrientation:                 "Orientation",
	TagXResolution:                 "XResolution",
	TagYResolution:                 "YResolution",
	TagResolutionUnit:              "ResolutionUnit",
	TagSoftware:                    "Software",
	TagDateTime:                    "DateTime",
	TagArtist:                      "Artist",
	TagHostComputer:                "HostComputer",
	TagJPEGInterchangeFormat:       "JPEGInterchangeFormat",
	TagJPEGInterchangeFormatLength: "JPEGInterchangeFormatLength",
	TagYCbCrPositioning:            "YCbCrPositioning",
	TagCopyright:                   "Copyright",
	TagExifIFD:                     "ExifIFD",
	TagGPSIFD:                      "GPSIFD",
}

var exifNames = map[Tag]string{
	TagExposureTime:      "ExposureTime",
	TagFNumber:           "FNumber",
	TagISOSpeedRatings:   "ISOSpeedRatings",
	TagExifVersion:       "ExifVersion",
	TagDateTimeOriginal:  "DateTimeOriginal",
	TagDateTimeDigitized: "DateTimeDigitized",
	TagFocalLength:       "FocalLength",
	TagMakerNote:         "MakerNote",
	TagUserComment:       "UserComment",
	TagFlashpixVersion:   "FlashpixVersion",
	TagColorSpace:        "ColorSpace",
	TagPixelXDimension:   "PixelXDimension",
	TagPixelYDimension:   "PixelYDimension",
	TagInteropIFD:        "InteroperabilityIFD",
	TagLensModel:         "LensModel",
}

var interopNames = map[Tag]string{
	TagInteropIndex:       "InteroperabilityIndex",
	TagInteropVersion:     "InteroperabilityVersion",
	TagRelatedImageFormat: "RelatedImageFileFormat",
	TagRelatedImageWidth:  "RelatedImageWidth",
	TagRelatedImageLength: "RelatedImageLength",
}

var gpsNames = map[Tag]string{
	TagGPSVersionID:    "GPSVersionID",
	TagGPSLatitudeRef:  "GPSLatitudeRef",
	TagGPSLatitude:     "GPSLatitude",
	TagGPSLongitudeRef: "GPSLongitudeRef",
	TagGPSLongitude:    "GPSLongitude",
	TagGPSAltitudeRef:  "GPSAltitudeRef",
	TagGPSAltitude:     "GPSAltitude",
	TagGPSTimeStamp:    "GPSTimeStamp",
	TagGPSDateStamp:    "GPSDateStamp",
}

// Name returns the name of tag in the namespace of IFD id, or its hex value
// if the tag is unknown.
func (tag Tag) Name(id IfdId) string {
	if name, ok := namespace(id)[tag]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%#04x)", uint16(tag))
}

func (tag Tag) known(id IfdId) bool {
	_, ok := namespace(id)[tag]
	return ok
}

func namespace(id IfdId) map[Tag]string {
	switch id {
	case PrimaryIfd, ThumbnailIfd:
		return tiffNames
	case ExifIfd:
		return exifNames
	case InteropIfd:
		return interopNames
	case GpsIfd:
		return gpsNames
	}
	return nil
}

// reserved reports whether tag is managed by the tree in IFD id.
func (tag Tag) reserved(id IfdId) bool {
	switch id {
	case PrimaryIfd:
		return tag == TagExifIFD || tag == TagGPSIFD
	case ExifIfd:
		return tag == TagInteropIFD
	case ThumbnailIfd:
		return tag == TagJPEGInterchangeFormat || tag == TagJPEGInterchangeFormatLength
	}
	return false
}

// pointsTo returns the embedded IFD that tag points to from IFD id.
func (tag Tag) pointsTo(id IfdId) (IfdId, bool) {
	switch {
	case id == PrimaryIfd && tag == TagExifIFD:
		return ExifIfd, true
	case id == PrimaryIfd && tag == TagGPSIFD:
		return GpsIfd, true
	case id == ExifIfd && tag == TagInteropIFD:
		return InteropIfd, true
	}
	return 0, false
}
