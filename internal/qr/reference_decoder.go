package qr

import "github.com/kh4i-dev/sortx/internal/interfaces"

// ReferenceDecoder is a dependency-free stand-in for a real QR image
// decoder library (none is available in this module's dependency
// set). It reads the payload out of Frame.Raw verbatim, the way a test
// harness or the simulator CLI injects a known string instead of a
// rendered QR symbol. It satisfies the Decoder interface the
// Recognizer is built against, so swapping in a real decoder (e.g. a
// future gozxing binding) requires no change to this package.
type ReferenceDecoder struct{}

// Decode returns the frame's raw payload as-is. An empty Raw is a miss.
func (ReferenceDecoder) Decode(frame interfaces.Frame) (string, bool) {
	if len(frame.Raw) == 0 {
		return "", false
	}
	return string(frame.Raw), true
}

var _ Decoder = ReferenceDecoder{}
