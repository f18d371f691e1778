package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCameraDebounceFirstPayloadTriggers(t *testing.T) {
	var s cameraDebounce
	payload, ok := s.observe("A", 3*time.Second, time.Unix(0, 0))
	assert.True(t, ok)
	assert.Equal(t, "A", payload)
}

func TestCameraDebounceSuppressesWithinWindow(t *testing.T) {
	var s cameraDebounce
	t0 := time.Unix(0, 0)
	_, ok := s.observe("A", 3*time.Second, t0)
	require := assert.New(t)
	require.True(ok)

	_, ok = s.observe("A", 3*time.Second, t0.Add(1500*time.Millisecond))
	require.False(ok)
}

func TestCameraDebounceRetriggersAfterWindowElapses(t *testing.T) {
	var s cameraDebounce
	t0 := time.Unix(0, 0)
	s.observe("A", 3*time.Second, t0)
	s.observe("A", 3*time.Second, t0.Add(1500*time.Millisecond)) // suppressed

	payload, ok := s.observe("A", 3*time.Second, t0.Add(4*time.Second))
	assert.True(t, ok)
	assert.Equal(t, "A", payload)
}

func TestCameraDebounceNovelPayloadAlwaysTriggers(t *testing.T) {
	var s cameraDebounce
	t0 := time.Unix(0, 0)
	s.observe("A", 3*time.Second, t0)
	payload, ok := s.observe("B", 3*time.Second, t0.Add(10*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, "B", payload)
}

func TestCameraDebounceEmptyPayloadNeverTriggers(t *testing.T) {
	var s cameraDebounce
	_, ok := s.observe("", 3*time.Second, time.Now())
	assert.False(t, ok)
}
