package sortx

import (
	"context"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// LaneSnapshot is the observable state of one lane.
type LaneSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Index int    `json:"index"`

	Status    string `json:"status"`
	Count     int64  `json:"count"`
	PushState string `json:"push_state"`
	PullState string `json:"pull_state"`
	Sorting   bool   `json:"sorting"`
}

// StateSnapshot is the full observable system state pushed to the
// external UI collaborator. The UI never mutates the engine through
// it; changes come back as explicit requests (ResetMaintenance,
// ResetQueues, SetAutoTest, ApplyTiming).
type StateSnapshot struct {
	Maintenance       bool           `json:"maintenance"`
	LastError         string         `json:"last_error"`
	AutoTest          bool           `json:"auto_test"`
	Lanes             []LaneSnapshot `json:"lanes"`
	QueueIndices      []int          `json:"queue_indices"`
	QueueLen          int            `json:"queue_len"`
	PreQueueIndices   []int          `json:"pre_queue_indices"`
	EntrySensorActive bool           `json:"entry_sensor_active"`
	At                time.Time      `json:"at"`
}

// Snapshot computes the current observable state. Queue reads and the
// lane-table copy each happen under their own lock; no lock is held
// across the entry-sensor GPIO read.
func (e *Engine) Snapshot() StateSnapshot {
	snap := StateSnapshot{
		Maintenance:     e.env.Triggered(),
		LastError:       e.env.Reason(),
		QueueIndices:    e.queue.SnapshotIndices(),
		PreQueueIndices: e.preQueue.Snapshot(),
		At:              time.Now(),
	}
	snap.QueueLen = len(snap.QueueIndices)

	e.stateMu.Lock()
	started := e.started
	snap.AutoTest = e.autoTest
	snap.Lanes = make([]LaneSnapshot, len(e.lanes))
	for i := range e.lanes {
		l := &e.lanes[i]
		snap.Lanes[i] = LaneSnapshot{
			ID:        l.LaneID,
			Name:      l.Name,
			Index:     i,
			Status:    l.Status.String(),
			Count:     l.Count,
			PushState: l.PushState.String(),
			PullState: l.PullState.String(),
			Sorting:   l.IsSorting(),
		}
	}
	e.stateMu.Unlock()

	// The sensor pin only exists once Start has set it up; reading it
	// earlier would be reported as a hardware fault.
	if pin := e.config().EntrySensorPin; pin != nil && started {
		if level, err := e.gpio.Read(*pin); err == nil {
			snap.EntrySensorActive = level == interfaces.High
		}
	}

	return snap
}

// runBroadcaster periodically pushes snapshots to the configured
// collaborator until ctx is cancelled. Delivery is fire-and-forget;
// a slow consumer only delays its own next snapshot.
func (e *Engine) runBroadcaster(ctx context.Context) {
	ticker := time.NewTicker(e.broadcastEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.broadcast(e.Snapshot())
		}
	}
}
