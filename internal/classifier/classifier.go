// Package classifier implements the visual classifier: an optional
// detector+tracker pipeline that maps the highest-confidence detection
// in a frame to a destination lane.
package classifier

import (
	"strings"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// Box is an axis-aligned bounding box in frame pixel coordinates.
type Box struct {
	X, Y, W, H int
}

// area and intersection/union support the IoU tracker below.
func (b Box) area() int { return b.W * b.H }

func (b Box) intersect(o Box) int {
	x1 := max(b.X, o.X)
	y1 := max(b.Y, o.Y)
	x2 := min(b.X+b.W, o.X+o.W)
	y2 := min(b.Y+b.H, o.Y+o.H)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

func (b Box) iou(o Box) float64 {
	inter := b.intersect(o)
	if inter == 0 {
		return 0
	}
	union := b.area() + o.area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Detection is one bounding box the Detector reports, before any
// confidence filtering or tracking.
type Detection struct {
	Class      string
	Confidence float64
	Box        Box
}

// Detector performs raw object detection on a frame. It is the
// ML-runtime boundary: this module ships no ML runtime, only this
// interface and a deterministic reference implementation for
// simulation and tests.
type Detector interface {
	Detect(frame interfaces.Frame) ([]Detection, error)
}

// Tracked is a detection carrying the short-term identity the Tracker
// assigned it.
type Tracked struct {
	Detection
	TrackID int
}

// Tracker assigns stable track ids to detections across successive
// calls, matching boxes by IoU overlap the way a lightweight
// DeepSORT-style tracker would without needing an appearance model.
type Tracker interface {
	Update(detections []Detection) []Tracked
}

// IoUTracker is a real, fully-implemented nearest-IoU tracker: every
// call greedily matches the new detections against tracks kept alive
// from the previous call, above MinIoU, and ages out tracks that have
// gone unmatched for more than MaxMisses consecutive calls.
type IoUTracker struct {
	MinIoU    float64
	MaxMisses int

	nextID int
	tracks []trackState
}

type trackState struct {
	id     int
	box    Box
	misses int
}

// NewIoUTracker returns a tracker with the given overlap threshold and
// miss tolerance. Zero values fall back to 0.3 and 3 respectively.
func NewIoUTracker(minIoU float64, maxMisses int) *IoUTracker {
	if minIoU <= 0 {
		minIoU = 0.3
	}
	if maxMisses <= 0 {
		maxMisses = 3
	}
	return &IoUTracker{MinIoU: minIoU, MaxMisses: maxMisses}
}

// Update matches detections against existing tracks, greedily picking
// the highest-IoU pair first so a busy frame with several overlapping
// boxes still gets a stable, deterministic assignment.
func (t *IoUTracker) Update(detections []Detection) []Tracked {
	type pair struct {
		detIdx, trackIdx int
		iou               float64
	}
	var pairs []pair
	for di, d := range detections {
		for ti, tr := range t.tracks {
			iou := d.Box.iou(tr.box)
			if iou >= t.MinIoU {
				pairs = append(pairs, pair{di, ti, iou})
			}
		}
	}
	// Greedy best-first matching.
	matchedDet := make(map[int]bool)
	matchedTrack := make(map[int]bool)
	assignment := make(map[int]int) // detIdx -> trackIdx
	for {
		best := -1
		bestIoU := 0.0
		for i, p := range pairs {
			if matchedDet[p.detIdx] || matchedTrack[p.trackIdx] {
				continue
			}
			if p.iou > bestIoU {
				bestIoU = p.iou
				best = i
			}
		}
		if best < 0 {
			break
		}
		p := pairs[best]
		matchedDet[p.detIdx] = true
		matchedTrack[p.trackIdx] = true
		assignment[p.detIdx] = p.trackIdx
	}

	out := make([]Tracked, len(detections))
	survivors := make([]trackState, 0, len(t.tracks))
	usedTracks := make(map[int]bool)

	for di, d := range detections {
		if ti, ok := assignment[di]; ok {
			id := t.tracks[ti].id
			out[di] = Tracked{Detection: d, TrackID: id}
			survivors = append(survivors, trackState{id: id, box: d.Box, misses: 0})
			usedTracks[ti] = true
		} else {
			t.nextID++
			out[di] = Tracked{Detection: d, TrackID: t.nextID}
			survivors = append(survivors, trackState{id: t.nextID, box: d.Box, misses: 0})
		}
	}
	for ti, tr := range t.tracks {
		if usedTracks[ti] {
			continue
		}
		tr.misses++
		if tr.misses <= t.MaxMisses {
			survivors = append(survivors, tr)
		}
	}
	t.tracks = survivors
	return out
}

// Config holds the classifier's on/off switches and class mapping, a
// restatement of model.AIConfig scoped to this package so it has no
// import-cycle dependency on model.
type Config struct {
	Enabled       bool
	MinConfidence float64
	ClassToLane   map[string]int // uppercased class name -> lane index
}

// Classifier wraps a Detector and optional Tracker into the
// detect -> filter -> track -> pick-best -> map-to-lane pipeline.
type Classifier struct {
	Detector Detector
	Tracker  Tracker
}

// New returns a Classifier. tracker may be nil, in which case
// Classify never sets a track id.
func New(detector Detector, tracker Tracker) *Classifier {
	return &Classifier{Detector: detector, Tracker: tracker}
}

// Classify runs the full pipeline and returns the chosen lane index,
// upper-cased class name and optional track id for the
// highest-confidence surviving detection. ok is false when disabled,
// when detection errors, or when nothing survives the confidence
// filter / class mapping.
func (c *Classifier) Classify(frame interfaces.Frame, cfg Config) (laneIndex int, className string, trackID *int, ok bool) {
	if !cfg.Enabled || c.Detector == nil {
		return 0, "", nil, false
	}

	detections, err := c.Detector.Detect(frame)
	if err != nil || len(detections) == 0 {
		return 0, "", nil, false
	}

	var survivors []Detection
	for _, d := range detections {
		if d.Confidence >= cfg.MinConfidence {
			survivors = append(survivors, d)
		}
	}
	if len(survivors) == 0 {
		return 0, "", nil, false
	}

	var tracked []Tracked
	if c.Tracker != nil {
		tracked = c.Tracker.Update(survivors)
	} else {
		tracked = make([]Tracked, len(survivors))
		for i, d := range survivors {
			tracked[i] = Tracked{Detection: d, TrackID: -1}
		}
	}

	best := tracked[0]
	for _, tr := range tracked[1:] {
		if tr.Confidence > best.Confidence {
			best = tr
		}
	}

	upperClass := strings.ToUpper(best.Class)
	lane, mapped := cfg.ClassToLane[upperClass]
	if !mapped {
		return 0, "", nil, false
	}

	var trackPtr *int
	if c.Tracker != nil {
		id := best.TrackID
		trackPtr = &id
	}
	return lane, upperClass, trackPtr, true
}
