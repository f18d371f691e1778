package gpio

import (
	"fmt"
	"strconv"
	"sync"

	periphgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Host is the real backend, driving physical pins through periph.io
// when a driver registers a pin for the running host, and falling back
// to raw sysfs GPIO files (golang.org/x/sys/unix) otherwise, so the
// module stays buildable and exercisable off a Raspberry Pi.
//
// The active-low relay convention lives in the callers' relay helpers,
// not here: this backend reads and writes raw electrical levels only.
type Host struct {
	mu    sync.Mutex
	pins  map[int]periphgpio.PinIO
	sysfs map[int]*sysfsPin
	once  sync.Once
	initErr error
}

// NewHost returns a real backend. periph.io driver registration is
// deferred to the first Setup call so constructing a Host never fails
// by itself.
func NewHost() *Host {
	return &Host{
		pins:  make(map[int]periphgpio.PinIO),
		sysfs: make(map[int]*sysfsPin),
	}
}

func (h *Host) ensureInit() error {
	h.once.Do(func() {
		_, h.initErr = host.Init()
	})
	return h.initErr
}

func (h *Host) Setup(pin int, direction Direction, pull Pull) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureInit(); err == nil {
		if p := gpioreg.ByName(strconv.Itoa(pin)); p != nil {
			if err := h.setupPeriph(p, direction, pull); err != nil {
				return err
			}
			h.pins[pin] = p
			return nil
		}
	}

	sp, err := openSysfsPin(pin, direction)
	if err != nil {
		return fmt.Errorf("gpio: setup pin %d: %w", pin, err)
	}
	h.sysfs[pin] = sp
	return nil
}

func (h *Host) setupPeriph(p periphgpio.PinIO, direction Direction, pull Pull) error {
	if direction == DirectionOut {
		return p.Out(periphgpio.Low)
	}
	edge := periphgpio.NoEdge
	var periphPull periphgpio.Pull
	switch pull {
	case PullUp:
		periphPull = periphgpio.PullUp
	case PullDown:
		periphPull = periphgpio.PullDown
	default:
		periphPull = periphgpio.PullNoChange
	}
	return p.In(periphPull, edge)
}

func (h *Host) Write(pin int, level Level) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.pins[pin]; ok {
		return p.(periphgpio.PinOut).Out(toPeriphLevel(level))
	}
	if sp, ok := h.sysfs[pin]; ok {
		return sp.write(level)
	}
	return &ErrPinNotSetup{Pin: pin}
}

func (h *Host) Read(pin int) (Level, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.pins[pin]; ok {
		return fromPeriphLevel(p.Read()), nil
	}
	if sp, ok := h.sysfs[pin]; ok {
		return sp.read()
	}
	return Low, &ErrPinNotSetup{Pin: pin}
}

func (h *Host) Cleanup() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sp := range h.sysfs {
		sp.close()
	}
	h.pins = make(map[int]periphgpio.PinIO)
	h.sysfs = make(map[int]*sysfsPin)
	return nil
}

func toPeriphLevel(l Level) periphgpio.Level {
	return l == High
}

func fromPeriphLevel(l periphgpio.Level) Level {
	if l {
		return High
	}
	return Low
}

var _ Controller = (*Host)(nil)

// sysfsBase is a variable, not a constant, so tests can point it at a
// scratch directory instead of the real /sys tree.
var sysfsBase = "/sys/class/gpio"

func gpioValuePath(pin int) string {
	return sysfsBase + "/gpio" + strconv.Itoa(pin) + "/value"
}

func gpioDirectionPath(pin int) string {
	return sysfsBase + "/gpio" + strconv.Itoa(pin) + "/direction"
}

func gpioExportPath() string {
	return sysfsBase + "/export"
}

// sysfsPin is opened in sysfs.go, which wraps the golang.org/x/sys/unix
// open/pread/pwrite calls directly on the value file's descriptor.
type sysfsPin struct {
	pin       int
	direction Direction
	fd        int
}
