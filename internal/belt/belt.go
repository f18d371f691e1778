// Package belt drives the conveyor motor relay. It is deliberately
// tiny: the only two writers are the entry recognizer's belt-stop
// logic and the sort cycle executor's post-cycle restart decision,
// and Run must be idempotent since both can call it without
// coordination.
package belt

import "github.com/kh4i-dev/sortx/internal/interfaces"

// Belt wraps the active-low conveyor relay pin. A nil pin makes every
// call a no-op, matching the GPIO Abstraction's "writes to an
// absent pin are no-ops" rule.
type Belt struct {
	gpio interfaces.GPIO
	pin  *int
}

// New returns a Belt driving pin through gpio. pin may be nil.
func New(gpio interfaces.GPIO, pin *int) *Belt {
	return &Belt{gpio: gpio, pin: pin}
}

// Run engages the conveyor motor. Idempotent: calling Run while
// already running is a harmless repeat write to the relay.
func (b *Belt) Run() {
	b.write(true)
}

// Stop disengages the conveyor motor.
func (b *Belt) Stop() {
	b.write(false)
}

func (b *Belt) write(on bool) {
	if b.pin == nil || b.gpio == nil {
		return
	}
	level := interfaces.High
	if on {
		level = interfaces.Low // active-low: driving the relay on pulls the line low
	}
	_ = b.gpio.Write(*b.pin, level)
}
