// Package entry implements the entry recognizer: the two mutually
// exclusive operating modes (camera-trigger and gantry-trigger) that
// turn recognizer evidence into new jobs appended to the processing
// queue.
package entry

import "github.com/kh4i-dev/sortx/internal/model"

// AIEvidence is the classifier's contribution to a single pairing
// decision. Hit is false when the classifier is disabled, missed
// detection, or found no mapped class.
type AIEvidence struct {
	Hit     bool
	Lane    int
	Class   string
	TrackID *int
}

// QREvidence is the QR path's contribution to a single pairing
// decision.
type QREvidence struct {
	Hit  bool
	Lane int
}

// Pair applies the pairing policy to one pair of evidence values,
// given the AI enable/priority switches and the NG lane's index (used
// when both modalities miss). It is a pure function so the whole
// fusion table is testable in isolation from any concurrency or
// hardware concerns.
func Pair(ai AIEvidence, qr QREvidence, aiEnabled, aiPriority bool, ngLane int) (laneIndex int, status model.JobStatus, trackID *int) {
	if aiEnabled && aiPriority {
		if ai.Hit {
			return ai.Lane, model.JobStatus{Kind: model.StatusAIMatched, Class: ai.Class}, ai.TrackID
		}
		if qr.Hit {
			return qr.Lane, model.JobStatus{Kind: model.StatusQRMatchedAIFallback}, nil
		}
		return ngLane, model.JobStatus{Kind: model.StatusAllFailed}, nil
	}

	if qr.Hit {
		return qr.Lane, model.JobStatus{Kind: model.StatusQRMatched}, nil
	}
	if aiEnabled && ai.Hit {
		return ai.Lane, model.JobStatus{Kind: model.StatusAIMatchedQRFallback, Class: ai.Class}, ai.TrackID
	}
	return ngLane, model.JobStatus{Kind: model.StatusAllFailed}, nil
}
