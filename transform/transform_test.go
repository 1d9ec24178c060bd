package transform

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/image-cache/types"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		query string
		want  Dimension
		ok    bool
	}{
		{"width=100", Dimension{Width: 100}, true},
		{"height=50", Dimension{Height: 50}, true},
		{"height=50&width=100", Dimension{Width: 100}, true},
		{"width=abc&height=50", Dimension{}, false},
		{"width=0", Dimension{}, false},
		{"width=-3", Dimension{}, false},
		{"", Dimension{}, false},
		{"foo=bar", Dimension{}, false},
		{"width=3000000000", Dimension{Width: 3000000000}, true},
		{"width=99999999999999999999", Dimension{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := ParseDimension(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testImage(t *testing.T, w, h int, f imaging.Format) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, f))
	return buf.Bytes()
}

func TestResizeKeepsAspectRatio(t *testing.T) {
	src := testImage(t, 200, 100, imaging.PNG)

	res, err := Resize(src, types.PNG, Dimension{Width: 50})
	require.NoError(t, err)
	assert.Equal(t, types.PNG, res.Format)

	out, err := png.Decode(bytes.NewReader(res.Payload))
	require.NoError(t, err)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 25, out.Bounds().Dy())

	res, err = Resize(src, types.PNG, Dimension{Height: 20})
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Payload))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestResizeJPEG(t *testing.T) {
	src := testImage(t, 64, 64, imaging.JPEG)

	res, err := Resize(src, types.JPEG, Dimension{Width: 32})
	require.NoError(t, err)
	assert.Equal(t, types.JPEG, res.Format)

	img, err := imaging.Decode(bytes.NewReader(res.Payload))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestResizeGarbage(t *testing.T) {
	_, err := Resize([]byte("not an image"), types.JPEG, Dimension{Width: 10})
	require.Error(t, err)
	assert.Equal(t, errors.CodeExecutionFailed, errors.GetCode(err))

	_, err = Resize([]byte("not a webp"), types.WEBP, Dimension{Width: 10})
	assert.Error(t, err)
}

func TestResizeRejectsOversizedTargets(t *testing.T) {
	small := testImage(t, 4, 4, imaging.PNG)
	wide := testImage(t, 200, 2, imaging.PNG)

	tests := []struct {
		name    string
		payload []byte
		dim     Dimension
	}{
		{"huge width", small, Dimension{Width: 3000000000}},
		{"width over limit", small, Dimension{Width: MaxDimension + 1}},
		{"height over limit", small, Dimension{Height: MaxDimension + 1}},
		{"derived width over limit", wide, Dimension{Height: 100}},
		{"garbage with huge width", []byte("not an image"), Dimension{Width: 3000000000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resize(tt.payload, types.PNG, tt.dim)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestResizeAtMaxDimension(t *testing.T) {
	src := testImage(t, MaxDimension/2, 1, imaging.PNG)

	res, err := Resize(src, types.PNG, Dimension{Width: MaxDimension})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(res.Payload))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}

func TestOutputFormat(t *testing.T) {
	assert.Equal(t, types.PNG, OutputFormat(types.WEBP))
	assert.Equal(t, types.PNG, OutputFormat(types.FormatUnknown))
	assert.Equal(t, types.GIF, OutputFormat(types.GIF))
	assert.Equal(t, types.JPEG, OutputFormat(types.JPEG))
}
