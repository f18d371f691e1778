// Package persist saves and restores the processing queue and QR
// pre-queue across process restarts, as a single JSON state file that
// is consumed and deleted on startup.
package persist

import (
	"encoding/json"
	"os"
	"time"

	"github.com/kh4i-dev/sortx/internal/interfaces"
	"github.com/kh4i-dev/sortx/internal/model"
	"github.com/kh4i-dev/sortx/internal/queue"
)

// job is the on-disk representation of a model.Job. entry_time is
// encoded as Unix seconds (float-compatible) and track_id is nullable.
type job struct {
	JobID     string  `json:"job_id"`
	LaneIndex int     `json:"lane_index"`
	Status    string  `json:"status"`
	EntryTime float64 `json:"entry_time"`
	TrackID   *int    `json:"track_id"`
}

// state is the single-file document: exactly two keys, nothing else.
type state struct {
	QRQueue         []int `json:"qr_queue"`
	ProcessingQueue []job `json:"processing_queue"`
}

// Store persists and restores queue state to a single file path.
type Store struct {
	path string
	log  interfaces.Logger
}

// NewStore returns a Store writing to path. log may be nil.
func NewStore(path string, log interfaces.Logger) *Store {
	return &Store{path: path, log: log}
}

// Save serializes both queues to the file if either is non-empty, or
// removes any existing file if both are empty — an empty running
// system leaves no stale restore file behind.
func (s *Store) Save(processing *queue.ProcessingQueue, pre *queue.QRPreQueue) error {
	jobs := processing.Snapshot()
	indices := pre.Snapshot()

	if len(jobs) == 0 && len(indices) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	doc := state{
		QRQueue:         indices,
		ProcessingQueue: make([]job, len(jobs)),
	}
	for i, j := range jobs {
		doc.ProcessingQueue[i] = job{
			JobID:     j.JobID,
			LaneIndex: j.LaneIndex,
			Status:    j.Status.String(),
			EntryTime: float64(j.EntryTime.UnixNano()) / 1e9,
			TrackID:   j.TrackID,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Restore loads the persisted state, if any, applying it to the given
// queues and marking restored lanes' status in lanes via setWaiting.
// A missing file is not an error. A corrupt file is logged and
// discarded, and the process begins empty; a bad restore file must
// never keep the machine from starting.
func (s *Store) Restore(processing *queue.ProcessingQueue, pre *queue.QRPreQueue, setWaiting func(laneIndex int)) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var doc state
	if err := json.Unmarshal(data, &doc); err != nil {
		s.warn("discarding corrupt persisted queue state: " + err.Error())
		_ = os.Remove(s.path)
		return
	}

	jobs := make([]model.Job, len(doc.ProcessingQueue))
	for i, j := range doc.ProcessingQueue {
		jobs[i] = model.Job{
			JobID:     j.JobID,
			LaneIndex: j.LaneIndex,
			Status:    parseStatus(j.Status),
			EntryTime: time.Unix(0, int64(j.EntryTime*1e9)),
			TrackID:   j.TrackID,
		}
		if setWaiting != nil {
			setWaiting(j.LaneIndex)
		}
	}
	processing.Restore(jobs)
	pre.Restore(doc.QRQueue)

	_ = os.Remove(s.path)
}

func (s *Store) warn(msg string) {
	if s.log != nil {
		s.log.Warn(msg)
	}
}

// parseStatus recovers a JobStatus from its String() form well enough
// to round-trip a restored job; a status unseen in persisted files
// just lands as ALL_FAILED, which keeps the job reconciling safely.
func parseStatus(s string) model.JobStatus {
	switch {
	case s == "QR_MATCHED":
		return model.JobStatus{Kind: model.StatusQRMatched}
	case s == "QR_MATCHED (AI_FALLBACK)":
		return model.JobStatus{Kind: model.StatusQRMatchedAIFallback}
	case s == "ALL_FAILED":
		return model.JobStatus{Kind: model.StatusAllFailed}
	case len(s) > len("AI_MATCHED (") && s[:len("AI_MATCHED (")] == "AI_MATCHED (":
		rest := s[len("AI_MATCHED ("):]
		if idx := indexByte(rest, ')'); idx >= 0 {
			class := rest[:idx]
			if len(rest) > idx+1 && rest[idx+1:] == " (QR_FALLBACK)" {
				return model.JobStatus{Kind: model.StatusAIMatchedQRFallback, Class: class}
			}
			return model.JobStatus{Kind: model.StatusAIMatched, Class: class}
		}
		return model.JobStatus{Kind: model.StatusAllFailed}
	default:
		return model.JobStatus{Kind: model.StatusAllFailed}
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
