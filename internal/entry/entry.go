package entry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kh4i-dev/sortx/internal/belt"
	"github.com/kh4i-dev/sortx/internal/classifier"
	"github.com/kh4i-dev/sortx/internal/constants"
	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/qr"
	"github.com/kh4i-dev/sortx/internal/queue"
)

// FrameReader is the subset of frame.Supplier the Entry Recognizer
// needs; declared here instead of importing the frame package
// directly so tests can inject a trivial fake.
type FrameReader interface {
	LatestFrame() (interfaces.Frame, bool)
}

// Envelope is the subset of envelope.Envelope consumed here.
type Envelope interface {
	Triggered() bool
}

// Recognizer owns both operating-mode workers. Exactly one of
// RunCameraMode / RunGantryMode is started by the caller, selected by
// ConfigSnapshot.Mode at startup; the modes are mutually exclusive and
// the choice is made once, never switched at runtime.
type Recognizer struct {
	Frames     FrameReader
	QR         *qr.Recognizer
	Classifier *classifier.Classifier
	Queue      *queue.ProcessingQueue
	PreQueue   *queue.QRPreQueue
	GPIO       interfaces.GPIO
	Belt       *belt.Belt
	Envelope   Envelope
	Sink       interfaces.EventSink
	Config     func() *model.ConfigSnapshot

	// OnJobCreated fires after every append; the engine uses it to mark
	// a non-NG destination lane WAITING_ITEM, since lane state is owned
	// there, not here. May be nil.
	OnJobCreated func(job model.Job)
}

// New returns a Recognizer wired to its collaborators.
func New(frames FrameReader, qrRec *qr.Recognizer, cls *classifier.Classifier, pq *queue.ProcessingQueue, pre *queue.QRPreQueue, gpio interfaces.GPIO, b *belt.Belt, env Envelope, sink interfaces.EventSink, config func() *model.ConfigSnapshot) *Recognizer {
	return &Recognizer{
		Frames: frames, QR: qrRec, Classifier: cls, Queue: pq, PreQueue: pre,
		GPIO: gpio, Belt: b, Envelope: env, Sink: sink, Config: config,
	}
}

// newJobID mints a short opaque token: the first 8 hex characters of a
// random UUID are unique enough for a queue that holds a handful of
// in-flight items.
func newJobID() string {
	return uuid.New().String()[:8]
}

// classifyEvidence runs the visual classifier (if enabled) against the
// current frame and returns its evidence.
func (r *Recognizer) classifyEvidence(frame interfaces.Frame, cfg *model.ConfigSnapshot) AIEvidence {
	if r.Classifier == nil || !cfg.AI.Enabled {
		return AIEvidence{}
	}
	lane, class, track, ok := r.Classifier.Classify(frame, classifier.Config{
		Enabled:       cfg.AI.Enabled,
		MinConfidence: cfg.AI.MinConfidence,
		ClassToLane:   cfg.AI.ClassToLane,
	})
	if !ok {
		return AIEvidence{}
	}
	return AIEvidence{Hit: true, Lane: lane, Class: class, TrackID: track}
}

// createJob runs the pairing policy, appends the resulting job,
// notifies OnJobCreated, and emits the matching event.
func (r *Recognizer) createJob(ai AIEvidence, qrEv QREvidence, cfg *model.ConfigSnapshot) model.Job {
	laneIndex, status, trackID := Pair(ai, qrEv, cfg.AI.Enabled, cfg.AI.Priority, cfg.NGLaneIndex())

	job := model.Job{
		JobID:     newJobID(),
		LaneIndex: laneIndex,
		Status:    status,
		EntryTime: time.Now(),
		TrackID:   trackID,
	}
	r.Queue.Append(job)
	if r.OnJobCreated != nil {
		r.OnJobCreated(job)
	}

	kind := interfaces.EventQR
	if status.Kind == model.StatusAllFailed {
		kind = interfaces.EventUnknownQR
	}
	if r.Sink != nil {
		r.Sink.Emit(kind, status.String(), map[string]any{
			"job_id":     job.JobID,
			"lane_index": job.LaneIndex,
			"queue":      r.Queue.SnapshotIndices(),
		})
	}
	return job
}

func clampDebounce(d time.Duration) time.Duration {
	if d < constants.MinQRDebounceTime {
		return constants.MinQRDebounceTime
	}
	return d
}

// sleepOrDone sleeps for d or returns early if ctx is cancelled,
// reporting which happened. The Entry Recognizer never holds a lock
// across this call.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(d):
		return false
	}
}
