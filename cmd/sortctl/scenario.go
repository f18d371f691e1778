package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kh4i-dev/sortx"
)

// scenario is the YAML document a run replays: the machine layout plus
// a timeline of injected stimuli.
type scenario struct {
	Mode  string         `yaml:"mode"` // "camera" (default) or "gantry"
	Lanes []scenarioLane `yaml:"lanes"`

	Timing map[string]string `yaml:"timing"` // key -> duration string

	AI struct {
		Enable        bool           `yaml:"enable"`
		Priority      bool           `yaml:"priority"`
		MinConfidence float64        `yaml:"min_confidence"`
		ClassToLane   map[string]int `yaml:"class_to_lane"`
	} `yaml:"ai"`

	EntrySensorPin      *int   `yaml:"entry_sensor_pin"`
	ConveyorPin         *int   `yaml:"conveyor_pin"`
	StopConveyorOnQR    bool   `yaml:"stop_conveyor_on_qr"`
	StopConveyorOnEntry bool   `yaml:"stop_conveyor_on_entry"`
	StatePath           string `yaml:"state_path"`

	Events []scenarioEvent `yaml:"events"`

	// Drain is how long to keep the engine running after the last
	// event, so in-flight cycles finish. Default 1s.
	Drain string `yaml:"drain"`
}

type scenarioLane struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	SensorPin *int   `yaml:"sensor_pin"`
	PushPin   *int   `yaml:"push_pin"`
	PullPin   *int   `yaml:"pull_pin"`
}

// scenarioEvent is one timed stimulus. Exactly one of QR, Detections,
// Sensor or Entry should be set per event.
type scenarioEvent struct {
	At string `yaml:"at"` // offset from scenario start, e.g. "250ms"

	// QR puts a frame carrying this payload in front of the camera.
	QR string `yaml:"qr"`

	// Detections puts a frame carrying these classifier detections
	// ("CLASS,CONFIDENCE,X,Y,W,H" per line) in front of the camera.
	Detections string `yaml:"detections"`

	// Sensor pulses an active-going edge on a lane sensor pin.
	Sensor *int `yaml:"sensor"`

	// Entry pulses the gantry entry sensor.
	Entry bool `yaml:"entry"`

	// Hold is how long a pulsed sensor stays active. Default 100ms.
	Hold string `yaml:"hold"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Lanes) == 0 {
		return nil, fmt.Errorf("scenario declares no lanes")
	}
	sort.SliceStable(sc.Events, func(i, j int) bool {
		return mustDuration(sc.Events[i].At) < mustDuration(sc.Events[j].At)
	})
	return &sc, nil
}

func (sc *scenario) params() (sortx.Params, error) {
	lanes := make([]sortx.LaneParams, len(sc.Lanes))
	for i, l := range sc.Lanes {
		lanes[i] = sortx.LaneParams{
			ID:        l.ID,
			Name:      l.Name,
			SensorPin: l.SensorPin,
			PushPin:   l.PushPin,
			PullPin:   l.PullPin,
		}
	}

	p := sortx.DefaultParams(lanes)
	p.TargetFPS = 60
	p.Mode = sortx.ModeCameraTrigger
	if sc.Mode == "gantry" {
		p.Mode = sortx.ModeGantryTrigger
	} else if sc.Mode != "" && sc.Mode != "camera" {
		return p, fmt.Errorf("unknown mode %q", sc.Mode)
	}

	p.AI = sortx.AIParams{
		Enable:        sc.AI.Enable,
		Priority:      sc.AI.Priority,
		MinConfidence: sc.AI.MinConfidence,
		ClassToLane:   sc.AI.ClassToLane,
	}
	p.EntrySensorPin = sc.EntrySensorPin
	p.ConveyorPin = sc.ConveyorPin
	p.StopConveyorOnQR = sc.StopConveyorOnQR
	p.StopConveyorOnEntry = sc.StopConveyorOnEntry
	p.StatePath = sc.StatePath

	if err := applyTiming(&p.Timing, sc.Timing); err != nil {
		return p, err
	}
	return p, nil
}

func applyTiming(t *sortx.TimingParams, raw map[string]string) error {
	for key, val := range raw {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("timing %s: %w", key, err)
		}
		switch key {
		case "cycle_delay":
			t.CycleDelay = d
		case "settle_delay":
			t.SettleDelay = d
		case "sensor_debounce":
			t.SensorDebounce = d
		case "stability_delay":
			t.StabilityDelay = d
		case "queue_head_timeout":
			t.QueueHeadTimeout = d
		case "qr_debounce_time":
			t.QRDebounceTime = d
		case "conveyor_stop_delay":
			t.ConveyorStopDelay = d
		case "conveyor_stop_delay_qr":
			t.ConveyorStopDelayQR = d
		default:
			return fmt.Errorf("unknown timing key %q", key)
		}
	}
	return nil
}

func (e *scenarioEvent) hold() time.Duration {
	if e.Hold == "" {
		return 100 * time.Millisecond
	}
	return mustDuration(e.Hold)
}

// mustDuration parses an event offset or hold, treating malformed input
// as zero; timing values go through applyTiming, which reports parse
// errors, and a zero offset just fires the event immediately.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
