package gpio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// openSysfsPin exports pin through the kernel's sysfs GPIO interface
// and opens its value file. The export write fails with EBUSY when the
// pin is already exported; that is fine, the value file is what matters.
func openSysfsPin(pin int, direction Direction) (*sysfsPin, error) {
	if err := sysfsExport(pin); err != nil {
		return nil, err
	}

	dir := "in"
	if direction == DirectionOut {
		dir = "out"
	}
	if err := os.WriteFile(gpioDirectionPath(pin), []byte(dir), 0o644); err != nil {
		return nil, fmt.Errorf("set direction: %w", err)
	}

	flags := unix.O_RDONLY
	if direction == DirectionOut {
		flags = unix.O_RDWR
	}
	fd, err := unix.Open(gpioValuePath(pin), flags, 0)
	if err != nil {
		return nil, fmt.Errorf("open value: %w", err)
	}

	return &sysfsPin{pin: pin, direction: direction, fd: fd}, nil
}

func sysfsExport(pin int) error {
	err := os.WriteFile(gpioExportPath(), []byte(fmt.Sprintf("%d", pin)), 0o644)
	if err == nil {
		return nil
	}
	// An already-exported pin reports EBUSY; treat it as success.
	if pe, ok := err.(*os.PathError); ok && pe.Err == unix.EBUSY {
		return nil
	}
	// The pin directory may exist even when export is not writable
	// (e.g. a test tree laid out by hand).
	if _, statErr := os.Stat(gpioValuePath(pin)); statErr == nil {
		return nil
	}
	return fmt.Errorf("export: %w", err)
}

func (p *sysfsPin) write(level Level) error {
	if p.direction != DirectionOut {
		return fmt.Errorf("gpio: pin %d is not an output", p.pin)
	}
	b := []byte{'0'}
	if level == High {
		b[0] = '1'
	}
	if _, err := unix.Pwrite(p.fd, b, 0); err != nil {
		return fmt.Errorf("gpio: write pin %d: %w", p.pin, err)
	}
	return nil
}

func (p *sysfsPin) read() (Level, error) {
	b := make([]byte, 1)
	n, err := unix.Pread(p.fd, b, 0)
	if err != nil {
		return Low, fmt.Errorf("gpio: read pin %d: %w", p.pin, err)
	}
	if n == 1 && b[0] == '1' {
		return High, nil
	}
	return Low, nil
}

func (p *sysfsPin) close() {
	if p.fd >= 0 {
		unix.Close(p.fd)
		p.fd = -1
	}
}
