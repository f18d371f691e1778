// Package gpio implements the two digital I/O backends consumed by the
// sort coordination engine: a real, host-backed one and a simulated
// one for tests and the demo CLI.
package gpio

import (
	"fmt"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// Controller is the uniform contract both backends satisfy. It is the
// same shape as interfaces.GPIO, restated in this package so callers
// that only need a GPIO backend don't have to import internal/interfaces.
type Controller = interfaces.GPIO

// Direction, Pull and Level are re-exported for callers that construct
// backends directly instead of going through the interfaces package.
type (
	Direction = interfaces.Direction
	Pull      = interfaces.Pull
	Level     = interfaces.Level
)

const (
	DirectionOut = interfaces.DirectionOut
	DirectionIn  = interfaces.DirectionIn

	PullNone = interfaces.PullNone
	PullUp   = interfaces.PullUp
	PullDown = interfaces.PullDown

	Low  = interfaces.Low
	High = interfaces.High
)

// ErrPinNotSetup is returned by Read/Write when a pin has not been
// configured with Setup first.
type ErrPinNotSetup struct {
	Pin int
}

func (e *ErrPinNotSetup) Error() string {
	return fmt.Sprintf("gpio: pin %d not set up", e.Pin)
}
