package types

import (
	"mime"
	"path"
	"strings"
)

// Format is the container format of an encoded image.
type Format int

const (
	FormatUnknown Format = iota
	JPEG
	PNG
	WEBP
	GIF
	BMP
	TIFF
)

var formatNames = map[Format]string{
	FormatUnknown: "unknown",
	JPEG:          "jpeg",
	PNG:           "png",
	WEBP:          "webp",
	GIF:           "gif",
	BMP:           "bmp",
	TIFF:          "tiff",
}

// extensions maps lower-case file suffixes to formats.
var extensions = map[string]Format{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".jpe":  JPEG,
	".jfif": JPEG,
	".png":  PNG,
	".webp": WEBP,
	".gif":  GIF,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return formatNames[FormatUnknown]
}

// Extension returns the canonical extension without the dot, e.g. "jpg".
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return "jpg"
	case FormatUnknown:
		return ""
	default:
		return f.String()
	}
}

// ContentType returns the MIME type, e.g. "image/jpeg".
func (f Format) ContentType() string {
	if f == FormatUnknown {
		return "application/octet-stream"
	}
	return "image/" + f.String()
}

// Known reports whether f is a concrete image format.
func (f Format) Known() bool {
	_, ok := formatNames[f]
	return ok && f != FormatUnknown
}

// FormatFromKey derives the format from the key's suffix.
// Unrecognised or missing suffixes resolve to JPEG; this leniency is relied
// upon by clients that request extension-less keys.
func FormatFromKey(key string) Format {
	ext := strings.ToLower(path.Ext(key))
	if f, ok := extensions[ext]; ok {
		return f
	}
	return JPEG
}

// FormatFromContentType parses a MIME type such as "image/png; charset=binary".
// It returns FormatUnknown for anything that is not a recognised image type.
func FormatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatUnknown
	}
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok {
		return FormatUnknown
	}
	switch sub {
	case "jpeg", "jpg", "pjpeg":
		return JPEG
	case "png":
		return PNG
	case "webp":
		return WEBP
	case "gif":
		return GIF
	case "bmp", "x-ms-bmp":
		return BMP
	case "tiff":
		return TIFF
	}
	return FormatUnknown
}
