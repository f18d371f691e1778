package gpio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimRoundTrip(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Setup(17, DirectionOut, PullNone))

	require.NoError(t, s.Write(17, High))
	level, err := s.Read(17)
	require.NoError(t, err)
	assert.Equal(t, High, level)

	s.SetInput(17, Low)
	level, err = s.Read(17)
	require.NoError(t, err)
	assert.Equal(t, Low, level)
	assert.Equal(t, 1, s.WriteCalls())
}

func TestSimRejectsUnconfiguredPin(t *testing.T) {
	s := NewSim()
	err := s.Write(4, High)
	var notSetup *ErrPinNotSetup
	require.ErrorAs(t, err, &notSetup)
	assert.Equal(t, 4, notSetup.Pin)

	_, err = s.Read(4)
	require.ErrorAs(t, err, &notSetup)
}

func TestSimCleanupForgetsPins(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Setup(5, DirectionIn, PullDown))
	require.NoError(t, s.Cleanup())
	_, err := s.Read(5)
	assert.Error(t, err)
}

// TestSysfsPinReadWrite drives the sysfs fallback against a scratch
// directory standing in for /sys/class/gpio.
func TestSysfsPinReadWrite(t *testing.T) {
	dir := t.TempDir()
	old := sysfsBase
	sysfsBase = dir
	t.Cleanup(func() { sysfsBase = old })

	pinDir := filepath.Join(dir, "gpio22")
	require.NoError(t, os.MkdirAll(pinDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pinDir, "value"), []byte("0"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pinDir, "direction"), []byte("in"), 0o644))

	p, err := openSysfsPin(22, DirectionOut)
	require.NoError(t, err)
	defer p.close()

	require.NoError(t, p.write(High))
	level, err := p.read()
	require.NoError(t, err)
	assert.Equal(t, High, level)

	require.NoError(t, p.write(Low))
	level, err = p.read()
	require.NoError(t, err)
	assert.Equal(t, Low, level)
}

func TestSysfsWriteRejectsInputPin(t *testing.T) {
	p := &sysfsPin{pin: 9, direction: DirectionIn, fd: -1}
	assert.Error(t, p.write(High))
}
