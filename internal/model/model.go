// Package model holds the shared data types passed between the sort
// coordination engine's internal packages: lanes, jobs and the
// configuration snapshot they are resolved against.
package model

import "time"

// LaneStatus is the lifecycle state of a single lane.
type LaneStatus int

const (
	LaneReady LaneStatus = iota
	LaneWaitingItem
	LaneSorting
	LanePassThrough
	LaneConfigError
)

func (s LaneStatus) String() string {
	switch s {
	case LaneReady:
		return "READY"
	case LaneWaitingItem:
		return "WAITING_ITEM"
	case LaneSorting:
		return "SORTING"
	case LanePassThrough:
		return "PASS_THROUGH"
	case LaneConfigError:
		return "CONFIG_ERROR"
	default:
		return "UNKNOWN"
	}
}

// RelayLevel is the observable, reported-only state of a relay pin.
type RelayLevel int

const (
	RelayOff RelayLevel = iota
	RelayOn
)

func (r RelayLevel) String() string {
	if r == RelayOn {
		return "ON"
	}
	return "OFF"
}

// Lane is one physical sorting destination, or the pass-through NG sink.
type Lane struct {
	LaneID   string // canonical short code, e.g. "A", "B", "NG"
	Name     string // display label
	SensorPin *int
	PushPin   *int
	PullPin   *int

	Status LaneStatus
	Count  int64

	PushState RelayLevel
	PullState RelayLevel
}

// IsSorting reports whether the lane actuates (has both a push and a
// pull pin configured).
func (l *Lane) IsSorting() bool {
	return l.PushPin != nil && l.PullPin != nil
}

// IsPassThrough reports whether the lane is declared with no relay
// pins at all, the only case treated as a non-actuating pass-through
// rather than a misconfiguration. A lane with exactly one pin set is
// a configuration error, not pass-through.
func (l *Lane) IsPassThrough() bool {
	return l.PushPin == nil && l.PullPin == nil
}

// IsNG reports whether this is the canonical reject/unknown sink lane.
func (l *Lane) IsNG() bool {
	return l.LaneID == NGLaneID
}

// NGLaneID is the canonical id of the always-pass-through reject lane.
const NGLaneID = "NG"

// JobStatusKind is the coarse classification of how a job's
// destination lane was resolved.
type JobStatusKind int

const (
	StatusQRMatched JobStatusKind = iota
	StatusAIMatched
	StatusQRMatchedAIFallback
	StatusAIMatchedQRFallback
	StatusAllFailed
)

// JobStatus carries the coarse kind plus, for AI-derived kinds, the
// detected class name, so composed forms like "AI_MATCHED (person)"
// are built in one place instead of ad hoc at every call site.
type JobStatus struct {
	Kind  JobStatusKind
	Class string // only meaningful for StatusAIMatched/StatusAIMatchedQRFallback
}

func (s JobStatus) String() string {
	switch s.Kind {
	case StatusQRMatched:
		return "QR_MATCHED"
	case StatusAIMatched:
		return "AI_MATCHED (" + s.Class + ")"
	case StatusQRMatchedAIFallback:
		return "QR_MATCHED (AI_FALLBACK)"
	case StatusAIMatchedQRFallback:
		return "AI_MATCHED (" + s.Class + ") (QR_FALLBACK)"
	case StatusAllFailed:
		return "ALL_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Job is one item moving through the processing queue.
type Job struct {
	JobID     string
	LaneIndex int
	Status    JobStatus
	EntryTime time.Time
	TrackID   *int // optional classifier track identifier, diagnostic only
}

// OperatingMode selects which Entry Recognizer loop is active.
type OperatingMode int

const (
	ModeCameraTrigger OperatingMode = iota
	ModeGantryTrigger
)

// TimingConfig holds the tunable delays and thresholds used across the
// engine; zero-valued fields are filled in from internal/constants
// defaults by the engine (sortx.New and ApplyTiming).
type TimingConfig struct {
	CycleDelay          time.Duration
	SettleDelay         time.Duration
	SensorDebounce      time.Duration
	StabilityDelay      time.Duration
	QueueHeadTimeout    time.Duration
	QRDebounceTime      time.Duration
	ConveyorStopDelay   time.Duration
	ConveyorStopDelayQR time.Duration
}

// AIConfig holds the visual classifier's on/off switches.
type AIConfig struct {
	Enabled      bool
	Priority     bool // AI result wins over QR when both hit
	MinConfidence float64
	ClassToLane   map[string]int // uppercased class name -> lane index
}

// CameraConfig holds camera/QR-path tunables.
type CameraConfig struct {
	TargetFPS int
}

// ConfigSnapshot is the read-mostly, atomically-replaced configuration
// in force for one running generation of the engine.
type ConfigSnapshot struct {
	Generation int64
	Lanes      []Lane
	Timing     TimingConfig
	AI         AIConfig
	Camera     CameraConfig
	Mode       OperatingMode

	StopConveyorOnQR    bool // Mode 1: stop belt on every QR-triggered creation
	StopConveyorOnEntry bool // Mode 2: stop belt when a created job is ALL_FAILED

	ConveyorPin *int // belt-drive relay pin; nil means no belt control wired

	// EntrySensorPin is the dedicated gantry entry sensor used only in
	// ModeGantryTrigger.
	EntrySensorPin *int
}

// LaneByID returns the index of the lane with the given canonical id,
// or -1 if none matches.
func (c *ConfigSnapshot) LaneByID(id string) int {
	for i := range c.Lanes {
		if c.Lanes[i].LaneID == id {
			return i
		}
	}
	return -1
}

// NGLaneIndex returns the index of the NG lane, or -1 if the snapshot
// has none (a misconfiguration the caller must guard against).
func (c *ConfigSnapshot) NGLaneIndex() int {
	return c.LaneByID(NGLaneID)
}
