// Package queue holds the Processing Queue and QR pre-queue FIFOs that
// sit between the Entry Recognizer and the Lane Consumer.
package queue

import (
	"sync"
	"time"

	"github.com/kh4i-dev/sortx/internal/model"
)

// ProcessingQueue is the single FIFO of Jobs owned by processing_queue_lock.
// Every operation documented in the component spec for the Job Model &
// Queue is exposed here and nowhere else; callers never reach into the
// underlying slice directly.
type ProcessingQueue struct {
	mu             sync.Mutex
	jobs           []model.Job
	queueHeadSince time.Time
	hasHead        bool
}

// NewProcessingQueue returns an empty queue.
func NewProcessingQueue() *ProcessingQueue {
	return &ProcessingQueue{}
}

// Append enqueues a job at the tail. If the queue was empty before
// this call, queue_head_since is set to now since the new job becomes
// head immediately.
func (q *ProcessingQueue) Append(job model.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	wasEmpty := len(q.jobs) == 0
	q.jobs = append(q.jobs, job)
	if wasEmpty {
		q.queueHeadSince = time.Now()
		q.hasHead = true
	}
}

// PopHead dequeues the head job. queue_head_since is refreshed to now
// if a new head remains, or cleared if the queue becomes empty.
func (q *ProcessingQueue) PopHead() (model.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return model.Job{}, false
	}
	head := q.jobs[0]
	q.jobs = q.jobs[1:]
	if len(q.jobs) > 0 {
		q.queueHeadSince = time.Now()
		q.hasHead = true
	} else {
		q.hasHead = false
	}
	return head, true
}

// PeekHead returns the head job without removing it.
func (q *ProcessingQueue) PeekHead() (model.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return model.Job{}, false
	}
	return q.jobs[0], true
}

// Len returns the current queue length.
func (q *ProcessingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// SnapshotIndices returns the lane index of every queued job, head
// first, for the external state broadcaster.
func (q *ProcessingQueue) SnapshotIndices() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]int, len(q.jobs))
	for i, j := range q.jobs {
		out[i] = j.LaneIndex
	}
	return out
}

// HeadAge reports how long the current head has been head, and
// whether there is a head at all. Used by the Lane Consumer's
// head-timeout check.
func (q *ProcessingQueue) HeadAge() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.hasHead {
		return 0, false
	}
	return time.Since(q.queueHeadSince), true
}

// Reset discards every queued job, used by the Error Envelope's
// explicit reset request.
func (q *ProcessingQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = nil
	q.hasHead = false
}

// Snapshot returns a copy of every queued job, for persistence.
func (q *ProcessingQueue) Snapshot() []model.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// Restore replaces the queue contents wholesale, used by startup
// persistence recovery. The caller is responsible for having already
// marked restored jobs' lanes WAITING_ITEM.
func (q *ProcessingQueue) Restore(jobs []model.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append([]model.Job{}, jobs...)
	if len(q.jobs) > 0 {
		q.queueHeadSince = time.Now()
		q.hasHead = true
	} else {
		q.hasHead = false
	}
}
