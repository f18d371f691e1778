package entry

import (
	"context"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
)

// cameraDebounce tracks the "first appearance of a novel payload"
// edge state for camera-trigger mode.
type cameraDebounce struct {
	hasLast    bool
	lastPayload string
	lastTime   time.Time
}

// observe reports the canonical payload that should trigger a new job
// for this scan, or ok=false if nothing should trigger. now is passed
// in (rather than read internally) so tests can drive the debounce
// window deterministically.
func (c *cameraDebounce) observe(canonical string, debounce time.Duration, now time.Time) (string, bool) {
	if canonical == "" {
		return "", false
	}
	if c.hasLast && canonical == c.lastPayload {
		if now.Sub(c.lastTime) < debounce {
			return "", false
		}
		// Debounce elapsed: clear so the repeated payload is treated
		// as novel again.
		c.hasLast = false
	}
	if !c.hasLast || canonical != c.lastPayload {
		c.lastPayload = canonical
		c.lastTime = now
		c.hasLast = true
		return canonical, true
	}
	return "", false
}

// RunCameraMode runs the camera-trigger loop until ctx is cancelled.
// It polls the frame supplier, decodes QR, and on a novel payload
// creates a job fusing the QR evidence with a fresh classifier read of
// the same frame. While maintenance mode is latched the loop idles.
func (r *Recognizer) RunCameraMode(ctx context.Context) {
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
			r.onCameraTrigger(payload, frame, cfg)
		}

		if sleepOrDone(ctx, pollInterval) {
			return
		}
	}
}

func (r *Recognizer) onCameraTrigger(canonical string, frame interfaces.Frame, cfg *model.ConfigSnapshot) {
	laneIdx := cfg.LaneByID(canonical)
	qrEv := QREvidence{Hit: laneIdx >= 0, Lane: laneIdx}
	ai := r.classifyEvidence(frame, cfg)

	r.createJob(ai, qrEv, cfg)

	if cfg.StopConveyorOnQR && r.Belt != nil {
		r.Belt.Stop()
		delay := cfg.Timing.ConveyorStopDelayQR
		go func() {
			time.Sleep(delay)
			r.Belt.Run()
		}()
	}
}
