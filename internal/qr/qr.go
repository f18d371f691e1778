// Package qr implements the QR Recognizer: grayscale + luminance gate,
// a pluggable primary/secondary decoder chain, and canonicalization of
// the decoded payload into the key used for lane lookups.
package qr

import (
	"github.com/kh4i-dev/sortx/internal/constants"
	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// Decoder attempts to extract a QR payload from a grayscale frame. It
// returns ok=false when no code is found, never an error: a decode
// miss is not a fault, it is evidence that routes to NG.
type Decoder interface {
	Decode(frame interfaces.Frame) (payload string, ok bool)
}

// SourceLabel identifies which decoder (if any) produced a result.
type SourceLabel string

const (
	SourceNone      SourceLabel = "none"
	SourcePrimary   SourceLabel = "primary"
	SourceSecondary SourceLabel = "secondary"
)

// Recognizer decodes a QR payload from one frame at a time, gating on
// mean luminance before attempting any decode.
type Recognizer struct {
	Primary   Decoder
	Secondary Decoder
	// MinLuminance overrides constants.MinLuminance when non-zero.
	MinLuminance int
}

// NewRecognizer returns a Recognizer using primary and secondary
// decoders; either may be nil.
func NewRecognizer(primary, secondary Decoder) *Recognizer {
	return &Recognizer{Primary: primary, Secondary: secondary}
}

// Recognize decodes frame and canonicalizes the result. It returns
// ("", SourceNone) when the frame is too dark or no decoder reports a
// hit.
func (r *Recognizer) Recognize(frame interfaces.Frame) (canonical string, source SourceLabel) {
	if meanLuminance(frame) < r.threshold() {
		return "", SourceNone
	}

	if r.Primary != nil {
		if payload, ok := r.Primary.Decode(frame); ok {
			return Canon(payload), SourcePrimary
		}
	}
	if r.Secondary != nil {
		if payload, ok := r.Secondary.Decode(frame); ok {
			return Canon(payload), SourceSecondary
		}
	}
	return "", SourceNone
}

func (r *Recognizer) threshold() int {
	if r.MinLuminance > 0 {
		return r.MinLuminance
	}
	return constants.MinLuminance
}

// meanLuminance averages the frame's grayscale bytes. An empty frame
// is treated as fully dark so it is rejected before any decode attempt.
func meanLuminance(frame interfaces.Frame) int {
	if len(frame.Gray) == 0 {
		return 0
	}
	var sum int
	for _, px := range frame.Gray {
		sum += int(px)
	}
	return sum / len(frame.Gray)
}
