// Package interfaces holds the collaborator contracts consumed by the
// sort coordination engine. These are kept separate from the root sortx
// package to avoid import cycles between it and the internal packages
// (entry, lane, cycle, queue, envelope, persist) that also need them.
package interfaces

import "time"

// GPIO is the uniform digital I/O contract implemented by both the real
// and simulated backends. A pin is a plain pin number; a pin that was
// never set up is an error. Absent pins are nil *int in the lane and
// config types, and callers skip them before reaching this contract.
type GPIO interface {
	Setup(pin int, direction Direction, pull Pull) error
	Write(pin int, level Level) error
	Read(pin int) (Level, error)
	Cleanup() error
}

// Direction is the pin mode requested at Setup.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
)

// Pull selects the input pin's bias.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Level is an observed or requested electrical level. It is a raw
// level, not a logical one: active-low translation happens in the
// relay helpers that sit between the domain and this contract.
type Level int

const (
	Low Level = iota
	High
)

// Frame is a single captured image, already decoded into pixel form.
type Frame struct {
	Width  int
	Height int
	// Gray holds one luminance byte per pixel, row-major. Recognizers
	// and classifiers read this directly. frame.FromImage and
	// frame.DecodeRaw build it from color images; the Frame Supplier
	// publishes frames exactly as the source returns them.
	Gray []byte
	// Raw is the undecoded source payload (e.g. JPEG bytes) as handed
	// over by the camera collaborator, kept for classifiers that want
	// full color data. May be nil when only grayscale is available.
	Raw []byte
	// CapturedAt is when the camera collaborator produced this frame.
	CapturedAt time.Time
}

// FrameSource is the external camera collaborator. It is polled by the
// Frame Supplier; the core never talks to camera hardware directly.
type FrameSource interface {
	CaptureFrame() (Frame, error)
}

// EventKind enumerates the Event sink's fire-and-forget event kinds.
type EventKind string

const (
	EventInfo      EventKind = "info"
	EventWarn      EventKind = "warn"
	EventError     EventKind = "error"
	EventSuccess   EventKind = "success"
	EventQR        EventKind = "qr"
	EventQRNg      EventKind = "qr_ng"
	EventUnknownQR EventKind = "unknown_qr"
	EventSort      EventKind = "sort"
	EventPass      EventKind = "pass"
)

// EventSink is the fire-and-forget external event/log collaborator.
type EventSink interface {
	Emit(kind EventKind, message string, payload any)
}

// DayCounter is the external per-day counting collaborator. Record must
// be idempotent per call: each call increments the named lane's count
// for date by exactly one.
type DayCounter interface {
	Record(date string, laneName string)
}

// Logger is the minimal logging contract internal packages depend on;
// logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
