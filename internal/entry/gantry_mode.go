package entry

import (
	"context"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
)

// gantryEdge detects the active-going transition on the dedicated
// entry sensor, with a primed initial state: the first observation
// establishes the baseline and never itself counts as an edge, so a
// sensor that boots already active can't fire a spurious job.
type gantryEdge struct {
	primed     bool
	lastActive bool
	lastAt     time.Time
}

func (g *gantryEdge) observe(active bool, debounce time.Duration, now time.Time) bool {
	if !g.primed {
		g.primed = true
		g.lastActive = active
		return false
	}
	edge := !g.lastActive && active
	g.lastActive = active
	if !edge {
		return false
	}
	if now.Sub(g.lastAt) < debounce {
		return false
	}
	g.lastAt = now
	return true
}

// RunGantryMode runs the Mode 2 (GANTRY_TRIGGER) entry-sensor monitor
// until ctx is cancelled or the Error Envelope latches.
func (r *Recognizer) RunGantryMode(ctx context.Context) {
	var edge gantryEdge
	pollInterval := 20 * time.Millisecond

	for {
		if ctx.Err() != nil {
			return
		}
		if r.Envelope != nil && r.Envelope.Triggered() {
			if sleepOrDone(ctx, pollInterval) {
				return
			}
			continue
		}

		cfg := r.Config()
		if cfg.EntrySensorPin == nil {
			if sleepOrDone(ctx, pollInterval) {
				return
			}
			continue
		}

		level, err := r.GPIO.Read(*cfg.EntrySensorPin)
		if err != nil {
			if sleepOrDone(ctx, pollInterval) {
				return
			}
			continue
		}

		active := level == interfaces.High
		if edge.observe(active, cfg.Timing.SensorDebounce, time.Now()) {
			r.handleGantryEdge(ctx, cfg)
		}

		if sleepOrDone(ctx, pollInterval) {
			return
		}
	}
}

// handleGantryEdge runs the stability re-check and, if the sensor is
// still active after stability_delay, creates a job.
func (r *Recognizer) handleGantryEdge(ctx context.Context, cfg *model.ConfigSnapshot) {
	if sleepOrDone(ctx, cfg.Timing.StabilityDelay) {
		return
	}

	level, err := r.GPIO.Read(*cfg.EntrySensorPin)
	if err != nil || level != interfaces.High {
		return // brief noise pulse or a hand passing through the beam
	}

	frame, _ := r.Frames.LatestFrame()
	qrEv := QREvidence{}
	if laneIdx, ok := r.PreQueue.PopHead(); ok {
		qrEv = QREvidence{Hit: true, Lane: laneIdx}
	}
	ai := r.classifyEvidence(frame, cfg)

	job := r.createJob(ai, qrEv, cfg)

	if cfg.StopConveyorOnEntry && job.Status.Kind == model.StatusAllFailed && r.Belt != nil {
		r.Belt.Stop()
		delay := cfg.Timing.ConveyorStopDelay
		go func() {
			time.Sleep(delay)
			r.Belt.Run()
		}()
	}
}

// RunQRPreQueueScanner decodes QR payloads from the live frame and
// buffers the resolved lane index into the QR pre-queue, where the
// gantry edge handler pairs it with a physical entry event. It
// debounces on the same window as camera-trigger mode so a code held
// in frame for many polls isn't enqueued repeatedly.
func (r *Recognizer) RunQRPreQueueScanner(ctx context.Context) {
	var state cameraDebounce
	pollInterval := 50 * time.Millisecond

	for {
		if ctx.Err() != nil {
			return
		}
		if r.Envelope != nil && r.Envelope.Triggered() {
			if sleepOrDone(ctx, pollInterval) {
				return
			}
			continue
		}

		frame, ok := r.Frames.LatestFrame()
		if !ok {
			if sleepOrDone(ctx, pollInterval) {
				return
			}
			continue
		}

		cfg := r.Config()
		canonical, _ := r.QR.Recognize(frame)
		payload, trigger := state.observe(canonical, clampDebounce(cfg.Timing.QRDebounceTime), time.Now())
		if trigger {
			if laneIdx := cfg.LaneByID(payload); laneIdx >= 0 {
				r.PreQueue.Append(laneIdx)
			}
		}

		if sleepOrDone(ctx, pollInterval) {
			return
		}
	}
}
