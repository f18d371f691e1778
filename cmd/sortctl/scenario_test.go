package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kh4i-dev/sortx"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioSortsEvents(t *testing.T) {
	path := writeScenario(t, `
mode: camera
lanes:
  - id: A
    name: Lane A
  - id: NG
events:
  - at: 500ms
    qr: "A"
  - at: 100ms
    sensor: 5
`)
	sc, err := loadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Events, 2)
	assert.Equal(t, "100ms", sc.Events[0].At)
	assert.Equal(t, "500ms", sc.Events[1].At)
}

func TestScenarioParamsGantry(t *testing.T) {
	path := writeScenario(t, `
mode: gantry
entry_sensor_pin: 20
lanes:
  - id: A
    name: Lane A
    sensor_pin: 5
    push_pin: 12
    pull_pin: 11
  - id: NG
ai:
  enable: true
  priority: true
  min_confidence: 0.7
  class_to_lane:
    APPLE: 0
timing:
  stability_delay: 80ms
  queue_head_timeout: 2s
`)
	sc, err := loadScenario(path)
	require.NoError(t, err)

	params, err := sc.params()
	require.NoError(t, err)
	assert.Equal(t, sortx.ModeGantryTrigger, params.Mode)
	require.NotNil(t, params.EntrySensorPin)
	assert.Equal(t, 20, *params.EntrySensorPin)
	assert.True(t, params.AI.Enable)
	assert.Equal(t, 0, params.AI.ClassToLane["APPLE"])
	assert.Equal(t, 80*time.Millisecond, params.Timing.StabilityDelay)
	assert.Equal(t, 2*time.Second, params.Timing.QueueHeadTimeout)
}

func TestScenarioParamsRejectsUnknownMode(t *testing.T) {
	path := writeScenario(t, `
mode: conveyor
lanes:
  - id: NG
`)
	sc, err := loadScenario(path)
	require.NoError(t, err)
	_, err = sc.params()
	assert.Error(t, err)
}

func TestScenarioRejectsUnknownTimingKey(t *testing.T) {
	path := writeScenario(t, `
lanes:
  - id: NG
timing:
  warp_speed: 1ms
`)
	sc, err := loadScenario(path)
	require.NoError(t, err)
	_, err = sc.params()
	assert.Error(t, err)
}

func TestScenarioRejectsEmptyLaneTable(t *testing.T) {
	path := writeScenario(t, "events: []\n")
	_, err := loadScenario(path)
	assert.Error(t, err)
}

func TestEventHoldDefaults(t *testing.T) {
	ev := scenarioEvent{}
	assert.Equal(t, 100*time.Millisecond, ev.hold())
	ev.Hold = "250ms"
	assert.Equal(t, 250*time.Millisecond, ev.hold())
}
