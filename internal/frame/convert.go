package frame

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// MaxDecodeWidth bounds the grayscale plane handed to recognizers.
// Camera collaborators can deliver full-resolution stills; decoding
// happens at most once per published frame, so scaling down here keeps
// the per-frame luminance scan and QR search cheap.
const MaxDecodeWidth = 1280

// DecodeRaw turns an encoded camera payload (JPEG or PNG) into a
// Frame: decoded, scaled down to at most MaxDecodeWidth, and converted
// to the one-byte-per-pixel grayscale plane recognizers read. The raw
// bytes are retained on the Frame for classifiers that want color.
func DecodeRaw(raw []byte, capturedAt time.Time) (interfaces.Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return interfaces.Frame{}, fmt.Errorf("frame: decode: %w", err)
	}
	f := FromImage(img)
	f.Raw = raw
	f.CapturedAt = capturedAt
	return f, nil
}

// FromImage converts a decoded image into a grayscale Frame, scaling
// it down with approximate bilinear interpolation when wider than
// MaxDecodeWidth.
func FromImage(img image.Image) interfaces.Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return interfaces.Frame{}
	}

	if w > MaxDecodeWidth {
		scale := float64(MaxDecodeWidth) / float64(w)
		dst := image.NewGray(image.Rect(0, 0, MaxDecodeWidth, int(float64(h)*scale)))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		return grayToFrame(dst)
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Src)
	return grayToFrame(dst)
}

func grayToFrame(g *image.Gray) interfaces.Frame {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	f := interfaces.Frame{Width: w, Height: h, Gray: make([]byte, w*h)}
	if g.Stride == w {
		copy(f.Gray, g.Pix)
		return f
	}
	for y := 0; y < h; y++ {
		copy(f.Gray[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	return f
}
