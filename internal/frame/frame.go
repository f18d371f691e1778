// Package frame implements the frame supplier: a single-slot buffer
// fed by a background poll of the external camera collaborator, so
// recognizers always observe the freshest frame instead of a stale
// queue.
package frame

import (
	"context"
	"sync"
	"time"

	"github.com/kh4i-dev/sortx/internal/constants"
	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// Config tunes the Supplier's polling behaviour.
type Config struct {
	// TargetFPS governs the poll interval; clamped into
	// [constants.MinTargetFPS, constants.MaxTargetFPS].
	TargetFPS int
	// FailureBudget is the number of consecutive capture failures
	// tolerated before OnFatal fires. Zero uses constants.FrameFailureBudget.
	FailureBudget int
	// FailureBackoff is the wait between retries while under budget.
	// Zero uses constants.FrameFailureBackoff.
	FailureBackoff time.Duration
	// OnFatal is invoked (once per sustained failure) when the
	// failure budget is exhausted; the Error Envelope hooks in here.
	OnFatal func(err error)
}

// Supplier owns the single most-recent frame, guarded by one mutex,
// with readers never blocking the poller.
type Supplier struct {
	source interfaces.FrameSource
	cfg    Config

	mu      sync.Mutex
	latest  *interfaces.Frame
	fails   int
	running bool
}

// NewSupplier wraps source with the given config, filling in defaults
// for zero-valued fields.
func NewSupplier(source interfaces.FrameSource, cfg Config) *Supplier {
	if cfg.TargetFPS < constants.MinTargetFPS {
		cfg.TargetFPS = constants.MinTargetFPS
	}
	if cfg.TargetFPS > constants.MaxTargetFPS {
		cfg.TargetFPS = constants.MaxTargetFPS
	}
	if cfg.FailureBudget <= 0 {
		cfg.FailureBudget = constants.FrameFailureBudget
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = constants.FrameFailureBackoff
	}
	return &Supplier{source: source, cfg: cfg}
}

// LatestFrame returns the most recently captured frame, or false if
// none has been captured yet.
func (s *Supplier) LatestFrame() (interfaces.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return interfaces.Frame{}, false
	}
	return *s.latest, true
}

// Run polls the source at TargetFPS until ctx is cancelled. It never
// blocks readers of LatestFrame: the buffer swap happens under a brief
// lock, with the actual capture performed outside any lock.
func (s *Supplier) Run(ctx context.Context) {
	interval := time.Second / time.Duration(s.cfg.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Supplier) poll(ctx context.Context) {
	f, err := s.source.CaptureFrame()
	if err != nil {
		s.recordFailure(ctx, err)
		return
	}
	s.mu.Lock()
	s.latest = &f
	s.fails = 0
	s.mu.Unlock()
}

func (s *Supplier) recordFailure(ctx context.Context, err error) {
	s.mu.Lock()
	s.fails++
	fails := s.fails
	s.mu.Unlock()

	if fails < s.cfg.FailureBudget {
		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.FailureBackoff):
		}
		return
	}

	// Only the failure that exhausts the budget reports; fails is reset
	// by the next successful capture.
	if fails == s.cfg.FailureBudget && s.cfg.OnFatal != nil {
		s.cfg.OnFatal(err)
	}
}
