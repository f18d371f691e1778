// Package envelope implements the Error Envelope: a latched
// maintenance-mode flag that pauses the Entry Recognizer, Lane
// Consumer and auto-test submodule while it is set, and that only an
// explicit external reset can clear.
package envelope

import (
	"sync"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// Envelope guards system-wide maintenance mode. It is deliberately the
// smallest possible latch: one bool, one reason, one timestamp, all
// behind a single mutex.
type Envelope struct {
	mu        sync.RWMutex
	triggered bool
	reason    string
	at        time.Time

	sink interfaces.EventSink
}

// New returns a clear (non-triggered) Envelope. sink may be nil, in
// which case Trigger/Reset are silent.
func New(sink interfaces.EventSink) *Envelope {
	return &Envelope{sink: sink}
}

// Triggered reports whether maintenance mode is currently latched.
func (e *Envelope) Triggered() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.triggered
}

// Reason returns the message captured by the triggering call, or "" if
// the envelope is clear.
func (e *Envelope) Reason() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reason
}

// Trigger latches maintenance mode with the given reason. Calling
// Trigger while already triggered overwrites the captured reason but
// does not emit a second event; the envelope cares only that the
// system is stopped, not how many components discovered it.
func (e *Envelope) Trigger(reason string) {
	e.mu.Lock()
	alreadyLatched := e.triggered
	e.triggered = true
	e.reason = reason
	e.at = time.Now()
	e.mu.Unlock()

	if !alreadyLatched && e.sink != nil {
		e.sink.Emit(interfaces.EventError, reason, nil)
	}
}

// Reset clears maintenance mode. The caller is responsible for
// resetting lane statuses and clearing both queues in the same
// request; Reset itself only clears the latch.
func (e *Envelope) Reset() {
	e.mu.Lock()
	e.triggered = false
	e.reason = ""
	e.mu.Unlock()

	if e.sink != nil {
		e.sink.Emit(interfaces.EventSuccess, "maintenance reset", nil)
	}
}
