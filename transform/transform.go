// Package transform decodes, resizes and re-encodes images.
package transform

import (
	"bytes"
	"image"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jmgilman/go/errors"
	"golang.org/x/image/webp"

	"github.com/krisalay/image-cache/types"
)

const (
	// JPEGQuality is used whenever a JPEG is re-encoded.
	JPEGQuality = 90

	// MaxDimension bounds both sides of a resized image.
	MaxDimension = 8192
)

// Dimension is the requested target size. Only one side is ever set; the
// other follows from the source aspect ratio.
type Dimension struct {
	Width  int
	Height int
}

// ParseDimension reads width or height from a raw query string. Width wins
// when both are present. It returns false when neither is a positive integer.
func ParseDimension(rawQuery string) (Dimension, bool) {
	q, _ := url.ParseQuery(rawQuery)

	if v, ok := q["width"]; ok {
		n, err := strconv.Atoi(v[0])
		if err != nil || n <= 0 {
			return Dimension{}, false
		}
		return Dimension{Width: n}, true
	}
	if v, ok := q["height"]; ok {
		n, err := strconv.Atoi(v[0])
		if err != nil || n <= 0 {
			return Dimension{}, false
		}
		return Dimension{Height: n}, true
	}
	return Dimension{}, false
}

// Result is a re-encoded image and how long each stage took.
type Result struct {
	Payload []byte
	Format  types.Format

	Decode time.Duration
	Resize time.Duration
	Encode time.Duration
}

/*
Resize decodes payload, scales it to dim keeping the aspect ratio and
encodes it again. WEBP sources come back as PNG because only a WEBP
decoder is available.

A target with a side above MaxDimension, given or derived from the aspect
ratio, fails with CodeInvalidInput.
*/
func Resize(payload []byte, format types.Format, dim Dimension) (Result, error) {
	var res Result

	if dim.Width > MaxDimension || dim.Height > MaxDimension {
		return res, tooLarge(dim.Width, dim.Height)
	}

	start := time.Now()
	src, err := decode(payload, format)
	if err != nil {
		return res, errors.WithContext(
			errors.Wrap(err, errors.CodeExecutionFailed, "could not decode image"),
			"format", format.String(),
		)
	}
	res.Decode = time.Since(start)

	if w, h := targetSize(src.Bounds(), dim); w > MaxDimension || h > MaxDimension {
		return res, tooLarge(w, h)
	}

	start = time.Now()
	dst := imaging.Resize(src, dim.Width, dim.Height, imaging.Lanczos)
	res.Resize = time.Since(start)

	res.Format = OutputFormat(format)

	start = time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, encoderFormat(res.Format), imaging.JPEGQuality(JPEGQuality)); err != nil {
		return res, errors.Wrap(err, errors.CodeExecutionFailed, "could not encode image")
	}
	res.Encode = time.Since(start)
	res.Payload = buf.Bytes()

	return res, nil
}

// targetSize is the size imaging.Resize produces for src and dim.
func targetSize(src image.Rectangle, dim Dimension) (int, int) {
	w, h := dim.Width, dim.Height
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 {
		return 0, 0
	}
	switch {
	case w == 0:
		w = int(math.Max(1, math.Round(float64(h)*float64(sw)/float64(sh))))
	case h == 0:
		h = int(math.Max(1, math.Round(float64(w)*float64(sh)/float64(sw))))
	}
	return w, h
}

func tooLarge(w, h int) error {
	return errors.WithContextMap(
		errors.Newf(errors.CodeInvalidInput, "target size exceeds %dx%d", MaxDimension, MaxDimension),
		map[string]interface{}{"width": w, "height": h},
	)
}

// OutputFormat is the format an image of format f is re-encoded to.
func OutputFormat(f types.Format) types.Format {
	switch f {
	case types.JPEG, types.PNG, types.GIF, types.BMP, types.TIFF:
		return f
	}
	return types.PNG
}

func decode(payload []byte, format types.Format) (image.Image, error) {
	if format == types.WEBP {
		return webp.Decode(bytes.NewReader(payload))
	}
	// Sniffs the actual encoding; the format only drives the output.
	return imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
}

func encoderFormat(f types.Format) imaging.Format {
	switch f {
	case types.JPEG:
		return imaging.JPEG
	case types.GIF:
		return imaging.GIF
	case types.BMP:
		return imaging.BMP
	case types.TIFF:
		return imaging.TIFF
	}
	return imaging.PNG
}
