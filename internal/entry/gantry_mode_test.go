package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGantryEdgePrimedFirstReadNeverFires(t *testing.T) {
	var e gantryEdge
	// Sensor boots already active; without priming this would be
	// mistaken for a rising edge.
	fired := e.observe(true, 100*time.Millisecond, time.Unix(0, 0))
	assert.False(t, fired)
}

func TestGantryEdgeFiresOnInactiveToActiveTransition(t *testing.T) {
	var e gantryEdge
	t0 := time.Unix(0, 0)
	e.observe(false, 100*time.Millisecond, t0) // primes baseline inactive
	fired := e.observe(true, 100*time.Millisecond, t0.Add(200*time.Millisecond))
	assert.True(t, fired)
}

func TestGantryEdgeDebounced(t *testing.T) {
	var e gantryEdge
	t0 := time.Unix(0, 0)
	e.observe(false, 500*time.Millisecond, t0)
	assert.True(t, e.observe(true, 500*time.Millisecond, t0.Add(10*time.Millisecond)))

	e.observe(false, 500*time.Millisecond, t0.Add(20*time.Millisecond))
	// Second edge within the debounce window of the first is suppressed.
	assert.False(t, e.observe(true, 500*time.Millisecond, t0.Add(100*time.Millisecond)))
}

func TestGantryEdgeNoEdgeWhenStaysActive(t *testing.T) {
	var e gantryEdge
	t0 := time.Unix(0, 0)
	e.observe(true, 100*time.Millisecond, t0) // primed active
	assert.False(t, e.observe(true, 100*time.Millisecond, t0.Add(time.Second)))
}
