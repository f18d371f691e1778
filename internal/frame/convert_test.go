package frame

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFromImageConvertsToGrayscale(t *testing.T) {
	f := FromImage(solidImage(8, 4, color.White))
	assert.Equal(t, 8, f.Width)
	assert.Equal(t, 4, f.Height)
	require.Len(t, f.Gray, 32)
	for _, px := range f.Gray {
		assert.Equal(t, byte(255), px)
	}
}

func TestFromImageScalesDownWideFrames(t *testing.T) {
	f := FromImage(solidImage(MaxDecodeWidth*2, 100, color.Black))
	assert.Equal(t, MaxDecodeWidth, f.Width)
	assert.Equal(t, 50, f.Height)
	assert.Len(t, f.Gray, f.Width*f.Height)
}

func TestDecodeRawRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solidImage(10, 10, color.Gray{Y: 128})))

	captured := time.Now()
	f, err := DecodeRaw(buf.Bytes(), captured)
	require.NoError(t, err)
	assert.Equal(t, 10, f.Width)
	assert.Equal(t, buf.Bytes(), f.Raw)
	assert.Equal(t, captured, f.CapturedAt)
	assert.InDelta(t, 128, int(f.Gray[0]), 2)
}

func TestDecodeRawRejectsGarbage(t *testing.T) {
	_, err := DecodeRaw([]byte("not an image"), time.Now())
	assert.Error(t, err)
}
