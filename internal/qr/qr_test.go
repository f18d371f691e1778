package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

func darkFrame() interfaces.Frame {
	return interfaces.Frame{Gray: make([]byte, 100), Raw: []byte("loai-A")}
}

func brightFrame(raw string) interfaces.Frame {
	gray := make([]byte, 100)
	for i := range gray {
		gray[i] = 200
	}
	return interfaces.Frame{Gray: gray, Raw: []byte(raw)}
}

func TestRecognizeRejectsDarkFrame(t *testing.T) {
	r := NewRecognizer(ReferenceDecoder{}, nil)
	canonical, source := r.Recognize(darkFrame())
	assert.Equal(t, "", canonical)
	assert.Equal(t, SourceNone, source)
}

func TestRecognizeDecodesAndCanonicalizes(t *testing.T) {
	r := NewRecognizer(ReferenceDecoder{}, nil)
	canonical, source := r.Recognize(brightFrame("loai-A!"))
	assert.Equal(t, "A", canonical)
	assert.Equal(t, SourcePrimary, source)
}

type missDecoder struct{}

func (missDecoder) Decode(interfaces.Frame) (string, bool) { return "", false }

func TestRecognizeFallsBackToSecondary(t *testing.T) {
	r := NewRecognizer(missDecoder{}, ReferenceDecoder{})
	canonical, source := r.Recognize(brightFrame("B"))
	assert.Equal(t, "B", canonical)
	assert.Equal(t, SourceSecondary, source)
}

func TestRecognizeNoDecodersMisses(t *testing.T) {
	r := NewRecognizer(missDecoder{}, missDecoder{})
	canonical, source := r.Recognize(brightFrame("B"))
	assert.Equal(t, "", canonical)
	assert.Equal(t, SourceNone, source)
}
