package entry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kh4i-dev/sortx/gpio"
	"github.com/kh4i-dev/sortx/internal/classifier"
	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/qr"
	"github.com/kh4i-dev/sortx/internal/queue"
)

type fakeFrames struct {
	frame interfaces.Frame
}

func (f *fakeFrames) LatestFrame() (interfaces.Frame, bool) { return f.frame, true }

type fakeEnvelope struct{ triggered bool }

func (f *fakeEnvelope) Triggered() bool { return f.triggered }

type recordingSink struct {
	events []string
}

func (r *recordingSink) Emit(kind interfaces.EventKind, message string, payload any) {
	r.events = append(r.events, string(kind)+":"+message)
}

func newCameraConfig() *model.ConfigSnapshot {
	return &model.ConfigSnapshot{
		Lanes: []model.Lane{
			{LaneID: "A"},
			{LaneID: "B"},
			{LaneID: "NG"},
		},
		Timing: model.TimingConfig{},
	}
}

func brightFrame(raw string) interfaces.Frame {
	gray := make([]byte, 100)
	for i := range gray {
		gray[i] = 200
	}
	return interfaces.Frame{Gray: gray, Raw: []byte(raw)}
}

func TestOnCameraTriggerQROnlyCreatesJob(t *testing.T) {
	cfg := newCameraConfig()
	pq := queue.NewProcessingQueue()
	sink := &recordingSink{}

	r := New(&fakeFrames{}, qr.NewRecognizer(qr.ReferenceDecoder{}, nil), nil, pq, queue.NewQRPreQueue(), gpio.NewSim(), nil, &fakeEnvelope{}, sink, func() *model.ConfigSnapshot { return cfg })

	r.onCameraTrigger("A", brightFrame("loai-A!"), cfg)

	require.Equal(t, 1, pq.Len())
	job, ok := pq.PeekHead()
	require.True(t, ok)
	assert.Equal(t, 0, job.LaneIndex)
	assert.Equal(t, model.StatusQRMatched, job.Status.Kind)
}

func TestHandleGantryEdgeAIPriorityQRMiss(t *testing.T) {
	cfg := newCameraConfig()
	cfg.AI = model.AIConfig{Enabled: true, Priority: true, MinConfidence: 0.1, ClassToLane: map[string]int{"APPLE": 0}}

	pq := queue.NewProcessingQueue()
	pre := queue.NewQRPreQueue()
	sink := &recordingSink{}
	cls := classifier.New(classifier.ReferenceDetector{}, classifier.NewIoUTracker(0, 0))

	sim := gpio.NewSim()
	pin := 5
	sim.Setup(pin, interfaces.DirectionIn, interfaces.PullNone)
	sim.SetInput(pin, interfaces.High)
	cfg.EntrySensorPin = &pin

	r := New(&fakeFrames{frame: brightFrame("APPLE,0.9,0,0,10,10")}, qr.NewRecognizer(qr.ReferenceDecoder{}, nil), cls, pq, pre, sim, nil, &fakeEnvelope{}, sink, func() *model.ConfigSnapshot { return cfg })

	r.handleGantryEdge(context.Background(), cfg)

	require.Equal(t, 1, pq.Len())
	job, ok := pq.PeekHead()
	require.True(t, ok)
	assert.Equal(t, 0, job.LaneIndex)
	assert.Equal(t, model.StatusAIMatched, job.Status.Kind)
	assert.Equal(t, "APPLE", job.Status.Class)
	require.NotNil(t, job.TrackID)
}

func TestHandleGantryEdgeDiscardsOnUnstableSensor(t *testing.T) {
	cfg := newCameraConfig()
	pq := queue.NewProcessingQueue()
	pre := queue.NewQRPreQueue()

	sim := gpio.NewSim()
	pin := 5
	sim.Setup(pin, interfaces.DirectionIn, interfaces.PullNone)
	sim.SetInput(pin, interfaces.Low) // went inactive again before recheck
	cfg.EntrySensorPin = &pin

	r := New(&fakeFrames{}, qr.NewRecognizer(qr.ReferenceDecoder{}, nil), nil, pq, pre, sim, nil, &fakeEnvelope{}, &recordingSink{}, func() *model.ConfigSnapshot { return cfg })
	r.handleGantryEdge(context.Background(), cfg)

	assert.Equal(t, 0, pq.Len())
}
