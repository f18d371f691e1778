package lane

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kh4i-dev/sortx/gpio"
	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/queue"
)

type recordingCycles struct {
	calls []model.Job
}

func (r *recordingCycles) Run(ctx context.Context, laneIndex int, job model.Job) {
	r.calls = append(r.calls, job)
}

type recordingSink struct {
	events []string
}

func (r *recordingSink) Emit(kind interfaces.EventKind, message string, payload any) {
	r.events = append(r.events, string(kind)+":"+message)
}

func testConfig() *model.ConfigSnapshot {
	pinA, pinB := 1, 2
	return &model.ConfigSnapshot{
		Lanes: []model.Lane{
			{LaneID: "A", SensorPin: &pinA, PushPin: intp(10), PullPin: intp(11)},
			{LaneID: "B", SensorPin: &pinB, PushPin: intp(12), PullPin: intp(13)},
			{LaneID: "NG"},
		},
		Timing: model.TimingConfig{SensorDebounce: 10 * time.Millisecond, QueueHeadTimeout: time.Second},
	}
}

func intp(v int) *int { return &v }

func TestConsumeNormalPopsMatchingHead(t *testing.T) {
	cfg := testConfig()
	pq := queue.NewProcessingQueue()
	pq.Append(model.Job{JobID: "j1", LaneIndex: 0})
	cycles := &recordingCycles{}

	c := New(gpio.NewSim(), pq, cycles, nil, &recordingSink{}, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })
	c.consumeNormal(context.Background(), 0, cfg)

	require.Len(t, cycles.calls, 1)
	assert.Equal(t, "j1", cycles.calls[0].JobID)
	assert.Equal(t, 0, pq.Len())
}

func TestConsumeNormalAbsorbsNGHeadThenMatches(t *testing.T) {
	cfg := testConfig()
	pq := queue.NewProcessingQueue()
	pq.Append(model.Job{JobID: "ng1", LaneIndex: 2})
	pq.Append(model.Job{JobID: "j1", LaneIndex: 0})
	cycles := &recordingCycles{}

	c := New(gpio.NewSim(), pq, cycles, nil, &recordingSink{}, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })
	c.consumeNormal(context.Background(), 0, cfg)

	require.Len(t, cycles.calls, 1)
	assert.Equal(t, "j1", cycles.calls[0].JobID)
}

func TestConsumeNormalOutOfOrderLogsAndLeavesQueue(t *testing.T) {
	cfg := testConfig()
	pq := queue.NewProcessingQueue()
	pq.Append(model.Job{JobID: "j1", LaneIndex: 1})
	cycles := &recordingCycles{}
	sink := &recordingSink{}

	c := New(gpio.NewSim(), pq, cycles, nil, sink, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })
	c.consumeNormal(context.Background(), 0, cfg)

	assert.Empty(t, cycles.calls)
	assert.Equal(t, 1, pq.Len())
	require.Len(t, sink.events, 1)
	assert.Contains(t, sink.events[0], "out-of-order")
}

func TestAutoTestIgnoresQueueAndPassThrough(t *testing.T) {
	cfg := testConfig()
	pq := queue.NewProcessingQueue()
	cycles := &recordingCycles{}

	c := New(gpio.NewSim(), pq, cycles, nil, &recordingSink{}, func() *model.ConfigSnapshot { return cfg }, func() bool { return true })
	c.onLaneEdge(context.Background(), 0, cfg)
	c.onLaneEdge(context.Background(), 2, cfg) // NG is pass-through, ignored

	require.Len(t, cycles.calls, 1)
	assert.Equal(t, 0, cycles.calls[0].LaneIndex)
}

func TestCheckHeadTimeoutEvictsStaleHead(t *testing.T) {
	cfg := testConfig()
	cfg.Timing.QueueHeadTimeout = 10 * time.Millisecond
	pq := queue.NewProcessingQueue()
	pq.Append(model.Job{JobID: "stale", LaneIndex: 0})
	sink := &recordingSink{}

	c := New(gpio.NewSim(), pq, &recordingCycles{}, nil, sink, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })

	time.Sleep(20 * time.Millisecond)
	c.checkHeadTimeout(cfg)

	assert.Equal(t, 0, pq.Len())
	require.Len(t, sink.events, 1)
	assert.Contains(t, sink.events[0], "queue head timeout")
}

func TestCheckHeadTimeoutLeavesFreshHead(t *testing.T) {
	cfg := testConfig()
	pq := queue.NewProcessingQueue()
	pq.Append(model.Job{JobID: "fresh", LaneIndex: 0})
	sink := &recordingSink{}

	c := New(gpio.NewSim(), pq, &recordingCycles{}, nil, sink, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })
	c.checkHeadTimeout(cfg)

	assert.Equal(t, 1, pq.Len())
	assert.Empty(t, sink.events)
}

func TestObserveEdgeDebounced(t *testing.T) {
	cfg := testConfig()
	sim := gpio.NewSim()
	sim.Setup(1, interfaces.DirectionIn, interfaces.PullNone)

	c := New(sim, queue.NewProcessingQueue(), &recordingCycles{}, nil, &recordingSink{}, func() *model.ConfigSnapshot { return cfg }, func() bool { return false })

	t0 := time.Unix(0, 0)
	sim.SetInput(1, interfaces.Low)
	assert.False(t, c.observeEdge(0, 1, 50*time.Millisecond, t0))

	sim.SetInput(1, interfaces.High)
	assert.True(t, c.observeEdge(0, 1, 50*time.Millisecond, t0.Add(time.Millisecond)))

	sim.SetInput(1, interfaces.Low)
	c.observeEdge(0, 1, 50*time.Millisecond, t0.Add(2*time.Millisecond))
	sim.SetInput(1, interfaces.High)
	assert.False(t, c.observeEdge(0, 1, 50*time.Millisecond, t0.Add(5*time.Millisecond)))
}
