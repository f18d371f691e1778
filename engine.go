// Package sortx provides the sort coordination engine for a
// conveyor-belt sorting machine: entry recognition (QR and visual
// classifier), FIFO job queueing against lane-sensor events, pneumatic
// sort-cycle actuation, and the maintenance envelope that makes the
// whole pipeline safe to run unattended.
package sortx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kh4i-dev/sortx/gpio"
	"github.com/kh4i-dev/sortx/internal/belt"
	"github.com/kh4i-dev/sortx/internal/classifier"
	"github.com/kh4i-dev/sortx/internal/constants"
	"github.com/kh4i-dev/sortx/internal/cycle"
	"github.com/kh4i-dev/sortx/internal/entry"
	"github.com/kh4i-dev/sortx/internal/envelope"
	"github.com/kh4i-dev/sortx/internal/frame"
	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/lane"
	"github.com/kh4i-dev/sortx/internal/logging"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/persist"
	"github.com/kh4i-dev/sortx/internal/qr"
	"github.com/kh4i-dev/sortx/internal/queue"
)

// Public aliases for the shared types callers exchange with the engine.
type (
	Job           = model.Job
	JobStatus     = model.JobStatus
	JobStatusKind = model.JobStatusKind
	LaneStatus    = model.LaneStatus
	OperatingMode = model.OperatingMode

	GPIO        = interfaces.GPIO
	Frame       = interfaces.Frame
	FrameSource = interfaces.FrameSource
	EventKind   = interfaces.EventKind
	EventSink   = interfaces.EventSink
	DayCounter  = interfaces.DayCounter
	Logger      = interfaces.Logger

	QRDecoder = qr.Decoder
	Detector  = classifier.Detector
	Tracker   = classifier.Tracker
)

const (
	ModeCameraTrigger = model.ModeCameraTrigger
	ModeGantryTrigger = model.ModeGantryTrigger

	StatusQRMatched           = model.StatusQRMatched
	StatusAIMatched           = model.StatusAIMatched
	StatusQRMatchedAIFallback = model.StatusQRMatchedAIFallback
	StatusAIMatchedQRFallback = model.StatusAIMatchedQRFallback
	StatusAllFailed           = model.StatusAllFailed

	LaneReady       = model.LaneReady
	LaneWaitingItem = model.LaneWaitingItem
	LaneSorting     = model.LaneSorting
	LanePassThrough = model.LanePassThrough
	LaneConfigError = model.LaneConfigError

	EventInfo      = interfaces.EventInfo
	EventWarn      = interfaces.EventWarn
	EventError     = interfaces.EventError
	EventSuccess   = interfaces.EventSuccess
	EventQR        = interfaces.EventQR
	EventQRNg      = interfaces.EventQRNg
	EventUnknownQR = interfaces.EventUnknownQR
	EventSort      = interfaces.EventSort
	EventPass      = interfaces.EventPass
)

// LaneParams declares one destination lane. Pins are BCM numbers; a
// nil pin is absent. A lane with both push and pull pins actuates; a
// lane with neither is pass-through; exactly one of the two is a
// configuration error surfaced at actuation time.
type LaneParams struct {
	ID   string
	Name string

	SensorPin *int
	PushPin   *int
	PullPin   *int
}

// TimingParams holds the engine's tunable delays. Zero values fall
// back to defaults at New; changed values can be applied to a running
// engine with ApplyTiming.
type TimingParams struct {
	CycleDelay          time.Duration // push-on hold duration
	SettleDelay         time.Duration // dead time around relay transitions
	SensorDebounce      time.Duration // minimum gap between accepted sensor edges
	StabilityDelay      time.Duration // gantry re-check window
	QueueHeadTimeout    time.Duration // head eviction threshold
	QRDebounceTime      time.Duration // identical-payload suppression window
	ConveyorStopDelay   time.Duration // gantry-mode belt restart delay
	ConveyorStopDelayQR time.Duration // camera-mode belt restart delay
}

// AIParams holds the visual classifier switches.
type AIParams struct {
	Enable        bool
	Priority      bool // classifier evidence wins over QR when both hit
	MinConfidence float64
	ClassToLane   map[string]int // uppercased class name -> lane index
}

// Params contains parameters for creating an Engine.
type Params struct {
	Lanes  []LaneParams
	Timing TimingParams
	AI     AIParams

	// Mode selects which entry recognizer runs. Exactly one runs for
	// the engine's whole lifetime; switching modes requires a restart.
	Mode OperatingMode

	// TargetFPS governs the frame supplier's capture rate.
	TargetFPS int

	StopConveyorOnQR    bool // camera mode: stop belt on every QR-triggered creation
	StopConveyorOnEntry bool // gantry mode: stop belt when a created job is ALL_FAILED

	ConveyorPin    *int // belt-drive relay pin; nil disables belt control
	EntrySensorPin *int // gantry entry sensor; required in gantry mode

	// StatePath is the queue persistence file consumed and deleted on
	// startup and rewritten on orderly shutdown. Empty disables
	// persistence.
	StatePath string
}

// DefaultParams returns engine parameters with default timing for the
// given lane table.
func DefaultParams(lanes []LaneParams) Params {
	return Params{
		Lanes: lanes,
		Timing: TimingParams{
			CycleDelay:          constants.DefaultCycleDelay,
			SettleDelay:         constants.DefaultSettleDelay,
			SensorDebounce:      constants.DefaultSensorDebounce,
			StabilityDelay:      constants.DefaultStabilityDelay,
			QueueHeadTimeout:    constants.DefaultQueueHeadTimeout,
			QRDebounceTime:      constants.DefaultQRDebounceTime,
			ConveyorStopDelay:   constants.DefaultConveyorStopDelay,
			ConveyorStopDelayQR: constants.DefaultConveyorStopDelayQR,
		},
		AI: AIParams{MinConfidence: constants.DefaultMinConfidence},
	}
}

// Options contains the collaborator implementations an Engine is wired
// to. Every field has a usable default.
type Options struct {
	// GPIO backend. Nil uses the simulated backend.
	GPIO GPIO

	// Frames is the external camera collaborator. Nil is allowed in
	// gantry mode (no QR pre-queue is ever filled); camera mode
	// requires it.
	Frames FrameSource

	// Sink receives the engine's fire-and-forget events. Nil discards.
	Sink EventSink

	// Counter is the external per-day tally collaborator. Nil discards.
	Counter DayCounter

	// SnapshotSink, when set, receives a full observable-state snapshot
	// every SnapshotInterval (default 500ms) from the broadcaster
	// worker.
	SnapshotSink     func(StateSnapshot)
	SnapshotInterval time.Duration

	// QRPrimary / QRSecondary form the decoder chain. Nil primary uses
	// the reference decoder; nil secondary leaves the chain one deep.
	QRPrimary   QRDecoder
	QRSecondary QRDecoder

	// Detector / Tracker form the classifier pipeline. Nil detector
	// uses the reference detector; nil tracker uses an IoU tracker.
	Detector Detector
	Tracker  Tracker

	// Logger for engine diagnostics. Nil uses the package default.
	Logger Logger

	// Metrics collects operational statistics. Nil creates a fresh set.
	Metrics *Metrics
}

// Engine is one running sort coordination pipeline.
type Engine struct {
	params Params
	gpio   GPIO
	log    Logger

	cfg atomic.Pointer[model.ConfigSnapshot]

	queue    *queue.ProcessingQueue
	preQueue *queue.QRPreQueue
	env      *envelope.Envelope
	frames   *frame.Supplier
	rec      *entry.Recognizer
	consumer *lane.Consumer
	executor *cycle.Executor
	belt     *belt.Belt
	store    *persist.Store
	metrics  *Metrics
	sink     EventSink

	// stateMu guards the live lane table and the flags below. It is
	// never held across a sleep or a GPIO call.
	stateMu  sync.Mutex
	lanes    []model.Lane
	autoTest bool
	started  bool

	broadcast      func(StateSnapshot)
	broadcastEvery time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates params and wires an Engine to its collaborators. The
// engine does not touch hardware until Start.
func New(params Params, options *Options) (*Engine, error) {
	if options == nil {
		options = &Options{}
	}
	if len(params.Lanes) == 0 {
		return nil, NewError("NEW_ENGINE", ErrCodeConfigInvalid, "no lanes configured")
	}

	fillTimingDefaults(&params.Timing)

	lanes := make([]model.Lane, len(params.Lanes))
	seen := make(map[string]bool, len(params.Lanes))
	for i, lp := range params.Lanes {
		id := qr.Canon(lp.ID)
		if id == "" {
			return nil, NewLaneError("NEW_ENGINE", i, ErrCodeConfigInvalid, "lane id canonicalizes to empty")
		}
		if seen[id] {
			return nil, NewLaneError("NEW_ENGINE", i, ErrCodeConfigInvalid, fmt.Sprintf("duplicate lane id %q", id))
		}
		seen[id] = true
		lanes[i] = model.Lane{
			LaneID:    id,
			Name:      lp.Name,
			SensorPin: lp.SensorPin,
			PushPin:   lp.PushPin,
			PullPin:   lp.PullPin,
			Status:    model.LaneReady,
			PullState: model.RelayOn,
		}
	}
	if !seen[model.NGLaneID] {
		return nil, NewError("NEW_ENGINE", ErrCodeConfigInvalid, "no NG lane configured")
	}
	if params.Mode == ModeCameraTrigger && options.Frames == nil {
		return nil, NewError("NEW_ENGINE", ErrCodeConfigInvalid, "camera-trigger mode requires a frame source")
	}
	if params.Mode == ModeGantryTrigger && params.EntrySensorPin == nil {
		return nil, NewError("NEW_ENGINE", ErrCodeConfigInvalid, "gantry-trigger mode requires an entry sensor pin")
	}

	log := options.Logger
	if log == nil {
		log = logging.Default()
	}

	e := &Engine{
		params:   params,
		log:      log,
		queue:    queue.NewProcessingQueue(),
		preQueue: queue.NewQRPreQueue(),
		lanes:    lanes,
		metrics:  options.Metrics,
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}

	e.sink = &instrumentedSink{next: options.Sink, metrics: e.metrics, log: log}
	e.env = envelope.New(e.sink)
	e.gpio = &faultGPIO{inner: defaultGPIO(options.GPIO), env: e.env}

	snapshot := e.buildConfig(params)
	e.cfg.Store(snapshot)

	if options.Frames != nil {
		e.frames = frame.NewSupplier(options.Frames, frame.Config{
			TargetFPS: params.TargetFPS,
			OnFatal: func(err error) {
				e.env.Trigger(WrapError("FRAME_READ", ErrCodeCameraFault, err).Error())
			},
		})
	}

	primary := options.QRPrimary
	if primary == nil {
		primary = qr.ReferenceDecoder{}
	}
	qrRec := qr.NewRecognizer(primary, options.QRSecondary)

	detector := options.Detector
	if detector == nil {
		detector = classifier.ReferenceDetector{}
	}
	tracker := options.Tracker
	if tracker == nil {
		tracker = classifier.NewIoUTracker(0, 0)
	}
	cls := classifier.New(detector, tracker)

	e.belt = belt.New(e.gpio, params.ConveyorPin)

	var frameReader entry.FrameReader = noFrames{}
	if e.frames != nil {
		frameReader = e.frames
	}
	e.rec = entry.New(frameReader, qrRec, cls, e.queue, e.preQueue, e.gpio, e.belt, e.env, e.sink, e.config)
	e.rec.OnJobCreated = e.onJobCreated

	gate := cycle.NewBelt(e.belt, params.StopConveyorOnEntry)
	e.executor = cycle.New(e.gpio, (*laneTable)(e), gate, e.sink, defaultCounter(options.Counter), e.queue, e.preQueue, e.config)

	e.consumer = lane.New(e.gpio, e.queue, &timedCycleRunner{engine: e}, e.env, e.sink, e.config, e.AutoTest)
	e.consumer.OnEvict = e.onEvict
	e.consumer.OnNGAbsorbed = e.metrics.RecordNGAbsorbed

	if params.StatePath != "" {
		e.store = persist.NewStore(params.StatePath, log)
	}

	if options.SnapshotSink != nil {
		interval := options.SnapshotInterval
		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		e.broadcast = options.SnapshotSink
		e.broadcastEvery = interval
	}

	return e, nil
}

func fillTimingDefaults(t *TimingParams) {
	if t.CycleDelay <= 0 {
		t.CycleDelay = constants.DefaultCycleDelay
	}
	if t.SettleDelay <= 0 {
		t.SettleDelay = constants.DefaultSettleDelay
	}
	if t.SensorDebounce <= 0 {
		t.SensorDebounce = constants.DefaultSensorDebounce
	}
	if t.StabilityDelay <= 0 {
		t.StabilityDelay = constants.DefaultStabilityDelay
	}
	if t.QueueHeadTimeout <= 0 {
		t.QueueHeadTimeout = constants.DefaultQueueHeadTimeout
	}
	if t.QRDebounceTime <= 0 {
		t.QRDebounceTime = constants.DefaultQRDebounceTime
	}
	if t.QRDebounceTime < constants.MinQRDebounceTime {
		t.QRDebounceTime = constants.MinQRDebounceTime
	}
	if t.ConveyorStopDelay <= 0 {
		t.ConveyorStopDelay = constants.DefaultConveyorStopDelay
	}
	if t.ConveyorStopDelayQR <= 0 {
		t.ConveyorStopDelayQR = constants.DefaultConveyorStopDelayQR
	}
}

func (e *Engine) buildConfig(params Params) *model.ConfigSnapshot {
	e.stateMu.Lock()
	staticLanes := make([]model.Lane, len(e.lanes))
	copy(staticLanes, e.lanes)
	e.stateMu.Unlock()

	return &model.ConfigSnapshot{
		Lanes: staticLanes,
		Timing: model.TimingConfig{
			CycleDelay:          params.Timing.CycleDelay,
			SettleDelay:         params.Timing.SettleDelay,
			SensorDebounce:      params.Timing.SensorDebounce,
			StabilityDelay:      params.Timing.StabilityDelay,
			QueueHeadTimeout:    params.Timing.QueueHeadTimeout,
			QRDebounceTime:      params.Timing.QRDebounceTime,
			ConveyorStopDelay:   params.Timing.ConveyorStopDelay,
			ConveyorStopDelayQR: params.Timing.ConveyorStopDelayQR,
		},
		AI: model.AIConfig{
			Enabled:       params.AI.Enable,
			Priority:      params.AI.Priority,
			MinConfidence: params.AI.MinConfidence,
			ClassToLane:   upperKeys(params.AI.ClassToLane),
		},
		Camera:              model.CameraConfig{TargetFPS: params.TargetFPS},
		Mode:                params.Mode,
		StopConveyorOnQR:    params.StopConveyorOnQR,
		StopConveyorOnEntry: params.StopConveyorOnEntry,
		ConveyorPin:         params.ConveyorPin,
		EntrySensorPin:      params.EntrySensorPin,
	}
}

// upperKeys normalizes class-map keys to the upper-cased form the
// classifier looks detections up under. Class names are not lane ids;
// they get no canonicalization beyond case.
func upperKeys(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

func (e *Engine) config() *model.ConfigSnapshot {
	return e.cfg.Load()
}

// Start sets up every configured pin, forces the default relay state,
// restores persisted queues, and launches the engine's workers. It
// returns once the pipeline is running.
func (e *Engine) Start(ctx context.Context) error {
	e.stateMu.Lock()
	if e.started {
		e.stateMu.Unlock()
		return NewError("START", ErrCodeConfigInvalid, "engine already started")
	}
	e.stateMu.Unlock()

	if err := e.setupPins(); err != nil {
		e.env.Trigger(err.Error())
		return err
	}

	if e.store != nil {
		e.store.Restore(e.queue, e.preQueue, func(laneIndex int) {
			e.laneUpdate(laneIndex, func(l *model.Lane) {
				if !l.IsNG() {
					l.Status = model.LaneWaitingItem
				}
			})
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	if e.frames != nil {
		e.goWorker(func() { e.frames.Run(runCtx) })
	}

	cfg := e.config()
	switch cfg.Mode {
	case ModeCameraTrigger:
		e.goWorker(func() { e.rec.RunCameraMode(runCtx) })
	case ModeGantryTrigger:
		e.goWorker(func() { e.rec.RunGantryMode(runCtx) })
		if e.frames != nil {
			e.goWorker(func() { e.rec.RunQRPreQueueScanner(runCtx) })
		}
	}

	e.goWorker(func() { e.consumer.Run(runCtx) })

	if e.broadcast != nil {
		e.goWorker(func() { e.runBroadcaster(runCtx) })
	}

	e.belt.Run()

	e.stateMu.Lock()
	e.started = true
	e.stateMu.Unlock()

	e.log.Info("engine started",
		"mode", int(cfg.Mode),
		"lanes", len(cfg.Lanes),
	)
	return nil
}

func (e *Engine) goWorker(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

// setupPins configures every declared pin and forces the default relay
// state: pull on, push off, so a pusher interrupted mid-cycle by the
// previous shutdown returns to rest.
func (e *Engine) setupPins() error {
	cfg := e.config()

	if cfg.ConveyorPin != nil {
		if err := e.gpio.Setup(*cfg.ConveyorPin, interfaces.DirectionOut, interfaces.PullNone); err != nil {
			return WrapError("GPIO_SETUP", ErrCodeGPIOFault, err)
		}
	}
	if cfg.EntrySensorPin != nil {
		if err := e.gpio.Setup(*cfg.EntrySensorPin, interfaces.DirectionIn, interfaces.PullDown); err != nil {
			return WrapError("GPIO_SETUP", ErrCodeGPIOFault, err)
		}
	}

	for i := range cfg.Lanes {
		l := &cfg.Lanes[i]
		if l.SensorPin != nil {
			if err := e.gpio.Setup(*l.SensorPin, interfaces.DirectionIn, interfaces.PullDown); err != nil {
				return WrapError("GPIO_SETUP", ErrCodeGPIOFault, err)
			}
		}
		for _, pin := range []*int{l.PushPin, l.PullPin} {
			if pin == nil {
				continue
			}
			if err := e.gpio.Setup(*pin, interfaces.DirectionOut, interfaces.PullNone); err != nil {
				return WrapError("GPIO_SETUP", ErrCodeGPIOFault, err)
			}
		}
		if l.PushPin != nil {
			_ = e.gpio.Write(*l.PushPin, interfaces.High) // relay off
		}
		if l.PullPin != nil {
			_ = e.gpio.Write(*l.PullPin, interfaces.Low) // relay on
		}
	}
	return nil
}

// Stop cancels every worker, persists non-empty queues, and releases
// the GPIO backend. The belt is stopped so an unattended machine does
// not keep feeding items into an idle pipeline.
func (e *Engine) Stop() error {
	e.stateMu.Lock()
	if !e.started {
		e.stateMu.Unlock()
		return NewError("STOP", ErrCodeNotRunning, "engine not started")
	}
	e.started = false
	e.stateMu.Unlock()

	e.cancel()
	e.wg.Wait()
	e.metrics.Stop()

	var saveErr error
	if e.store != nil {
		if err := e.store.Save(e.queue, e.preQueue); err != nil {
			saveErr = WrapError("STATE_SAVE", ErrCodePersistence, err)
			e.log.Error("failed to persist queue state", "error", err)
		}
	}

	e.belt.Stop()
	if err := e.gpio.Cleanup(); err != nil && saveErr == nil {
		saveErr = WrapError("GPIO_CLEANUP", ErrCodeGPIOFault, err)
	}

	e.log.Info("engine stopped")
	return saveErr
}

// onJobCreated marks a non-NG destination lane WAITING_ITEM and feeds
// the creation into metrics.
func (e *Engine) onJobCreated(job model.Job) {
	e.metrics.RecordJob(job.Status)
	ng := e.config().NGLaneIndex()
	if job.LaneIndex == ng {
		return
	}
	e.laneUpdate(job.LaneIndex, func(l *model.Lane) { l.Status = model.LaneWaitingItem })
}

// onEvict resets a timed-out head's target lane to READY.
func (e *Engine) onEvict(laneIndex int) {
	e.metrics.RecordHeadEviction()
	e.laneUpdate(laneIndex, func(l *model.Lane) { l.Status = model.LaneReady })
}

func (e *Engine) laneUpdate(index int, fn func(*model.Lane)) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if index < 0 || index >= len(e.lanes) {
		return
	}
	fn(&e.lanes[index])
}

// laneTable adapts the engine's lane array to the executor's view.
type laneTable Engine

func (t *laneTable) View(index int) (model.Lane, bool) {
	e := (*Engine)(t)
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if index < 0 || index >= len(e.lanes) {
		return model.Lane{}, false
	}
	return e.lanes[index], true
}

func (t *laneTable) Update(index int, fn func(*model.Lane)) {
	(*Engine)(t).laneUpdate(index, fn)
}

// timedCycleRunner wraps the executor so every completed cycle lands
// in the latency histogram with its pass/sort classification.
type timedCycleRunner struct {
	engine *Engine
}

func (r *timedCycleRunner) Run(ctx context.Context, laneIndex int, job model.Job) {
	e := r.engine
	if e.env.Triggered() {
		return
	}
	start := time.Now()
	e.executor.Run(ctx, laneIndex, job)
	l, ok := (*laneTable)(e).View(laneIndex)
	if !ok || l.Status == model.LaneConfigError {
		return
	}
	e.metrics.RecordCycle(time.Since(start), l.IsSorting())
}

// AutoTest reports whether the wiring-verification submode is on.
func (e *Engine) AutoTest() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.autoTest
}

// SetAutoTest toggles the wiring-verification submode. While on, lane
// edges actuate directly with no queue interaction.
func (e *Engine) SetAutoTest(on bool) {
	e.stateMu.Lock()
	e.autoTest = on
	e.stateMu.Unlock()
}

// Maintenance reports whether the error envelope is latched.
func (e *Engine) Maintenance() bool {
	return e.env.Triggered()
}

// MaintenanceReason returns the latched reason, or "".
func (e *Engine) MaintenanceReason() string {
	return e.env.Reason()
}

// TriggerMaintenance latches maintenance mode on behalf of an external
// collaborator that has observed an unrecoverable fault.
func (e *Engine) TriggerMaintenance(reason string) {
	e.env.Trigger(reason)
}

// ResetMaintenance clears the maintenance latch, resets every lane to
// READY, and clears both queues. The consistent post-reset state is an
// empty system.
func (e *Engine) ResetMaintenance() {
	e.queue.Reset()
	e.preQueue.Reset()
	e.stateMu.Lock()
	for i := range e.lanes {
		e.lanes[i].Status = model.LaneReady
	}
	e.stateMu.Unlock()
	e.env.Reset()
}

// ResetQueues discards every pending job and pre-queued index without
// touching the maintenance latch, for the external queue-reset request.
func (e *Engine) ResetQueues() {
	e.queue.Reset()
	e.preQueue.Reset()
	e.stateMu.Lock()
	for i := range e.lanes {
		if e.lanes[i].Status == model.LaneWaitingItem {
			e.lanes[i].Status = model.LaneReady
		}
	}
	e.stateMu.Unlock()
}

// ApplyTiming swaps the timing parameters of a running engine. Pin
// assignments, the lane table and the operating mode are fixed for the
// engine's lifetime; timing values apply immediately.
func (e *Engine) ApplyTiming(t TimingParams) {
	fillTimingDefaults(&t)
	e.stateMu.Lock()
	e.params.Timing = t
	params := e.params
	e.stateMu.Unlock()
	next := e.buildConfig(params)
	next.Generation = e.config().Generation + 1
	e.cfg.Store(next)
}

// Metrics returns the engine's live metrics.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot returns a point-in-time copy of the engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// noFrames is the FrameReader used when no camera collaborator is
// wired: every read misses.
type noFrames struct{}

func (noFrames) LatestFrame() (interfaces.Frame, bool) { return interfaces.Frame{}, false }

// defaultGPIO falls back to a fresh simulated backend.
func defaultGPIO(g GPIO) GPIO {
	if g != nil {
		return g
	}
	return gpio.NewSim()
}

func defaultCounter(c DayCounter) DayCounter {
	if c != nil {
		return c
	}
	return nopCounter{}
}

type nopCounter struct{}

func (nopCounter) Record(string, string) {}

// faultGPIO reports every backend failure into the error envelope:
// a failing pin on real hardware is unrecoverable without operator
// attention.
type faultGPIO struct {
	inner GPIO
	env   *envelope.Envelope
}

func (g *faultGPIO) Setup(pin int, direction interfaces.Direction, pull interfaces.Pull) error {
	err := g.inner.Setup(pin, direction, pull)
	if err != nil {
		g.env.Trigger(WrapError("GPIO_SETUP", ErrCodeGPIOFault, err).Error())
	}
	return err
}

func (g *faultGPIO) Write(pin int, level interfaces.Level) error {
	err := g.inner.Write(pin, level)
	if err != nil {
		g.env.Trigger(WrapError("GPIO_WRITE", ErrCodeGPIOFault, err).Error())
	}
	return err
}

func (g *faultGPIO) Read(pin int) (interfaces.Level, error) {
	level, err := g.inner.Read(pin)
	if err != nil {
		g.env.Trigger(WrapError("GPIO_READ", ErrCodeGPIOFault, err).Error())
	}
	return level, err
}

func (g *faultGPIO) Cleanup() error {
	return g.inner.Cleanup()
}

// instrumentedSink fans events out to the configured sink and the
// logger while classifying the recovery warnings into metrics.
type instrumentedSink struct {
	next    EventSink
	metrics *Metrics
	log     Logger
}

func (s *instrumentedSink) Emit(kind EventKind, message string, payload any) {
	switch kind {
	case EventError:
		s.metrics.RecordMaintenance()
		s.log.Error(message, "payload", payload)
	case EventWarn:
		if message == lane.MsgOutOfOrder {
			s.metrics.RecordOutOfOrder()
		}
		s.log.Warn(message, "payload", payload)
	default:
		s.log.Debug(message, "kind", string(kind))
	}
	if s.next != nil {
		s.next.Emit(kind, message, payload)
	}
}
