// Package cycle implements the sort cycle executor: the push/pull
// relay state machine that actuates one lane's pusher per job, and the
// pass-through/CONFIG_ERROR paths a non-actuating lane takes instead.
package cycle

import (
	"context"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/queue"
)

// Belt is the subset of belt.Belt consumed here.
type Belt interface {
	Run()
	Stop()
}

// Lanes is the lane-table view the executor reads and updates. View
// returns a copy; Update runs fn on the live lane under the table's
// lock. Every Update is a brief critical section, never held across a
// sleep.
type Lanes interface {
	View(index int) (model.Lane, bool)
	Update(index int, fn func(*model.Lane))
}

// Executor runs one sort cycle at a time per lane; concurrent
// invocations on distinct lanes are safe since relay writes for a
// given lane are never concurrent (the lane consumer pops the head
// before launching, so no second cycle can start on the same lane).
type Executor struct {
	GPIO     interfaces.GPIO
	Lanes    Lanes
	Belt     *BeltGate
	Sink     interfaces.EventSink
	Counter  interfaces.DayCounter
	Queue    *queue.ProcessingQueue
	PreQueue *queue.QRPreQueue
	Config   func() *model.ConfigSnapshot
}

// BeltGate wraps the optional belt collaborator plus the gantry-mode
// post-cycle resume policy so Executor.Run doesn't need its own
// copies of the belt gating fields.
type BeltGate struct {
	ctrl                Belt
	stopConveyorOnEntry bool
}

// NewBelt wraps a Belt collaborator with the post-cycle resume policy.
func NewBelt(ctrl Belt, stopConveyorOnEntry bool) *BeltGate {
	return &BeltGate{ctrl: ctrl, stopConveyorOnEntry: stopConveyorOnEntry}
}

// New returns an Executor wired to its collaborators. b may be nil if
// there is no belt relay configured.
func New(gpio interfaces.GPIO, lanes Lanes, b *BeltGate, sink interfaces.EventSink, counter interfaces.DayCounter, pq *queue.ProcessingQueue, pre *queue.QRPreQueue, config func() *model.ConfigSnapshot) *Executor {
	return &Executor{GPIO: gpio, Lanes: lanes, Belt: b, Sink: sink, Counter: counter, Queue: pq, PreQueue: pre, Config: config}
}

// Run executes one sort cycle for laneIndex. It is the CycleRunner the
// lane consumer calls; job carries the id/lane for the emitted events.
func (e *Executor) Run(ctx context.Context, laneIndex int, job model.Job) {
	lane, ok := e.Lanes.View(laneIndex)
	if !ok {
		return
	}

	hasPush, hasPull := lane.PushPin != nil, lane.PullPin != nil

	switch {
	case !hasPush && !hasPull:
		e.runPassThrough(lane, laneIndex, job)
	case hasPush != hasPull:
		// Declared as a sorting lane (has at least one relay pin) but
		// missing the other: a misconfiguration, not pass-through.
		e.Lanes.Update(laneIndex, func(l *model.Lane) { l.Status = model.LaneConfigError })
		if e.Sink != nil {
			e.Sink.Emit(interfaces.EventError, "lane missing push/pull pin", map[string]any{
				"lane_index": laneIndex,
				"job_id":     job.JobID,
			})
		}
	default:
		e.runActuated(ctx, lane, laneIndex, job)
	}
}

// runPassThrough handles the NG lane (and any other pusher-less lane):
// no relay transitions, just a count and a "pass" event.
func (e *Executor) runPassThrough(lane model.Lane, laneIndex int, job model.Job) {
	var count int64
	e.Lanes.Update(laneIndex, func(l *model.Lane) {
		l.Status = model.LanePassThrough
		l.Count++
		count = l.Count
	})
	e.emitCounted(lane, laneIndex, job, count, interfaces.EventPass)
	e.resumeBeltIfIdle()
	e.Lanes.Update(laneIndex, func(l *model.Lane) { l.Status = model.LaneReady })
}

// runActuated drives the four-phase relay sequence:
//
//	pull_off -> settle_delay -> push_on -> cycle_delay -> push_off -> settle_delay -> pull_on
//
// Cancellation is checked after every sleep; once observed, no further
// transition is attempted and the lane is left at whatever relay state
// the sequence reached. There is no rollback; the next startup forces
// the default relay state instead.
func (e *Executor) runActuated(ctx context.Context, lane model.Lane, laneIndex int, job model.Job) {
	e.Lanes.Update(laneIndex, func(l *model.Lane) { l.Status = model.LaneSorting })
	cfg := e.Config()
	t := cfg.Timing

	steps := []struct {
		level model.RelayLevel
		pin   *int
		delay time.Duration
		apply func(*model.Lane, model.RelayLevel)
	}{
		{model.RelayOff, lane.PullPin, t.SettleDelay, func(l *model.Lane, lv model.RelayLevel) { l.PullState = lv }},
		{model.RelayOn, lane.PushPin, t.CycleDelay, func(l *model.Lane, lv model.RelayLevel) { l.PushState = lv }},
		{model.RelayOff, lane.PushPin, t.SettleDelay, func(l *model.Lane, lv model.RelayLevel) { l.PushState = lv }},
		{model.RelayOn, lane.PullPin, 0, func(l *model.Lane, lv model.RelayLevel) { l.PullState = lv }},
	}

	for _, step := range steps {
		if ctx.Err() != nil {
			return
		}
		e.writeRelay(*step.pin, step.level)
		level := step.level
		apply := step.apply
		e.Lanes.Update(laneIndex, func(l *model.Lane) { apply(l, level) })
		if step.delay > 0 {
			if sleepOrDone(ctx, step.delay) {
				return
			}
		}
	}

	var count int64
	e.Lanes.Update(laneIndex, func(l *model.Lane) {
		l.Count++
		count = l.Count
	})
	e.emitCounted(lane, laneIndex, job, count, interfaces.EventSort)
	e.resumeBeltIfIdle()
	e.Lanes.Update(laneIndex, func(l *model.Lane) { l.Status = model.LaneReady })
}

// writeRelay translates the logical relay level to the active-low
// physical write (interfaces.Low for RelayOn, interfaces.High for
// RelayOff), mirroring belt.Belt's own translation at the same layer.
func (e *Executor) writeRelay(pin int, level model.RelayLevel) {
	if e.GPIO == nil {
		return
	}
	raw := interfaces.High
	if level == model.RelayOn {
		raw = interfaces.Low
	}
	_ = e.GPIO.Write(pin, raw)
}

func (e *Executor) emitCounted(lane model.Lane, laneIndex int, job model.Job, count int64, kind interfaces.EventKind) {
	if e.Sink != nil {
		e.Sink.Emit(kind, "sort cycle complete", map[string]any{
			"lane_index": laneIndex,
			"lane_id":    lane.LaneID,
			"job_id":     job.JobID,
			"count":      count,
		})
	}
	if e.Counter != nil {
		e.Counter.Record(counterDate(), lane.Name)
	}
}

// resumeBeltIfIdle implements the gantry-mode post-cycle restart
// policy: resume the belt only once both queues are empty, leaving it
// stopped otherwise. Belt.Run is idempotent so a race against the
// entry recognizer's own belt-stop logic is harmless.
func (e *Executor) resumeBeltIfIdle() {
	if e.Belt == nil || e.Belt.ctrl == nil || !e.Belt.stopConveyorOnEntry {
		return
	}
	if e.Queue.Len() == 0 && e.PreQueue.Len() == 0 {
		e.Belt.ctrl.Run()
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}

// counterDate returns today's date key for the day-counter
// collaborator, in YYYY-MM-DD form.
func counterDate() string {
	return time.Now().Format("2006-01-02")
}
