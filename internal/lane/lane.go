// Package lane implements the lane consumer: the worker that reacts
// to lane-sensor edges, matches the processing queue head, and
// launches the sort cycle executor.
package lane

import (
	"context"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/queue"
)

// Envelope is the subset of envelope.Envelope consumed here.
type Envelope interface {
	Triggered() bool
}

// CycleRunner launches a Sort Cycle on a lane for a job; it is
// satisfied by cycle.Executor.Run, taken as an interface here to keep
// this package independent of the cycle package's internals.
type CycleRunner interface {
	Run(ctx context.Context, laneIndex int, job model.Job)
}

// Consumer owns the edge-detection state for every lane sensor and the
// head-timeout check. It never mutates the queue except by popping a
// matched head, absorbing an NG head, or evicting a timed-out head.
type Consumer struct {
	GPIO     interfaces.GPIO
	Queue    *queue.ProcessingQueue
	Cycles   CycleRunner
	Envelope Envelope
	Sink     interfaces.EventSink
	Config   func() *model.ConfigSnapshot

	// AutoTest reports whether the system-wide auto-test switch is on.
	AutoTest func() bool

	// OnEvict fires after a head-timeout eviction with the evicted
	// job's lane index; the engine uses it to reset that lane to READY.
	// May be nil.
	OnEvict func(laneIndex int)

	// OnNGAbsorbed fires each time an NG head is silently popped by a
	// downstream sensor edge. May be nil.
	OnNGAbsorbed func()

	edges map[int]*edgeState
}

// Warning messages carried on the events this package emits. Exported
// so the engine's instrumented sink can classify them without string
// duplication.
const (
	MsgOutOfOrder  = "out-of-order sensor event"
	MsgHeadTimeout = "queue head timeout"
)

type edgeState struct {
	lastActive bool
	lastAt     time.Time
}

// New returns a Consumer wired to its collaborators.
func New(gpio interfaces.GPIO, pq *queue.ProcessingQueue, cycles CycleRunner, env Envelope, sink interfaces.EventSink, config func() *model.ConfigSnapshot, autoTest func() bool) *Consumer {
	return &Consumer{
		GPIO: gpio, Queue: pq, Cycles: cycles, Envelope: env, Sink: sink,
		Config: config, AutoTest: autoTest, edges: make(map[int]*edgeState),
	}
}

// Run polls every lane's sensor pin (lanes without one are skipped) and the queue head-timeout
// until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	pollInterval := 20 * time.Millisecond
	for {
		if ctx.Err() != nil {
			return
		}
		if c.Envelope == nil || !c.Envelope.Triggered() {
			c.tick(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// tick checks every lane sensor for an edge and then the head timeout,
// so a stalled queue is noticed even when no sensor ever fires.
func (c *Consumer) tick(ctx context.Context) {
	cfg := c.Config()
	now := time.Now()

	for i := range cfg.Lanes {
		lane := &cfg.Lanes[i]
		if lane.SensorPin == nil {
			continue
		}
		if c.observeEdge(i, *lane.SensorPin, cfg.Timing.SensorDebounce, now) {
			c.onLaneEdge(ctx, i, cfg)
		}
	}

	c.checkHeadTimeout(cfg)
}

func (c *Consumer) observeEdge(laneIndex, pin int, debounce time.Duration, now time.Time) bool {
	level, err := c.GPIO.Read(pin)
	if err != nil {
		return false
	}
	active := level == interfaces.High

	st, ok := c.edges[laneIndex]
	if !ok {
		st = &edgeState{}
		c.edges[laneIndex] = st
	}

	edge := !st.lastActive && active
	st.lastActive = active
	if !edge {
		return false
	}
	if now.Sub(st.lastAt) < debounce {
		return false
	}
	st.lastAt = now
	return true
}

func (c *Consumer) onLaneEdge(ctx context.Context, laneIndex int, cfg *model.ConfigSnapshot) {
	if c.AutoTest != nil && c.AutoTest() {
		c.runAutoTest(ctx, laneIndex, cfg)
		return
	}
	c.consumeNormal(ctx, laneIndex, cfg)
}

// runAutoTest launches a sort cycle directly on an edge with no queue
// interaction, for wiring verification. Pass-through lanes are
// ignored.
func (c *Consumer) runAutoTest(ctx context.Context, laneIndex int, cfg *model.ConfigSnapshot) {
	if laneIndex < 0 || laneIndex >= len(cfg.Lanes) || cfg.Lanes[laneIndex].IsPassThrough() {
		return
	}
	c.Cycles.Run(ctx, laneIndex, model.Job{LaneIndex: laneIndex})
}

// consumeNormal implements the queue-head matching loop: pop a
// matching head, silently absorb NG heads, or log an out-of-order
// sensor event without mutating the queue.
func (c *Consumer) consumeNormal(ctx context.Context, laneIndex int, cfg *model.ConfigSnapshot) {
	ngIndex := cfg.NGLaneIndex()

	for {
		head, ok := c.Queue.PeekHead()
		if !ok {
			return
		}

		switch {
		case head.LaneIndex == laneIndex:
			job, popped := c.Queue.PopHead()
			if !popped {
				return
			}
			c.Cycles.Run(ctx, laneIndex, job)
			return

		case head.LaneIndex == ngIndex:
			c.Queue.PopHead()
			if c.OnNGAbsorbed != nil {
				c.OnNGAbsorbed()
			}
			continue

		default:
			if c.Sink != nil {
				c.Sink.Emit(interfaces.EventWarn, MsgOutOfOrder, map[string]any{
					"lane_index": laneIndex,
					"head_lane":  head.LaneIndex,
					"job_id":     head.JobID,
				})
			}
			return
		}
	}
}

// checkHeadTimeout evicts the current head if it has been sitting
// there longer than the head timeout. The lane reset itself happens in
// OnEvict; this package owns only queue discipline.
func (c *Consumer) checkHeadTimeout(cfg *model.ConfigSnapshot) {
	age, ok := c.Queue.HeadAge()
	if !ok {
		return
	}
	timeout := cfg.Timing.QueueHeadTimeout
	if timeout <= 0 {
		return
	}
	if age <= timeout {
		return
	}

	job, popped := c.Queue.PopHead()
	if !popped {
		return
	}
	if c.OnEvict != nil {
		c.OnEvict(job.LaneIndex)
	}
	if c.Sink != nil {
		c.Sink.Emit(interfaces.EventWarn, MsgHeadTimeout, map[string]any{
			"job_id":     job.JobID,
			"lane_index": job.LaneIndex,
		})
	}
}
