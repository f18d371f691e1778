package classifier

import (
	"strconv"
	"strings"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

// ReferenceDetector is a dependency-free stand-in for an ML detection
// runtime (none appears in this module's dependency set). It reads a
// pre-baked set of detections off
// the frame's Raw field using a tiny line-oriented encoding
// ("CLASS,CONFIDENCE,X,Y,W,H" per line), the way the simulator CLI and
// tests inject a known classifier result instead of running a model.
type ReferenceDetector struct{}

// Detect parses frame.Raw as newline-separated detection records. A
// malformed or empty Raw yields zero detections, not an error.
func (ReferenceDetector) Detect(frame interfaces.Frame) ([]Detection, error) {
	return ParseDetections(string(frame.Raw)), nil
}

var _ Detector = ReferenceDetector{}

// ParseDetections decodes the "CLASS,CONFIDENCE,X,Y,W,H" line encoding
// used by ReferenceDetector and the simulator CLI's scenario files.
// Lines that don't parse cleanly are skipped rather than erroring, the
// same tolerance the QR path gives a bad frame.
func ParseDetections(raw string) []Detection {
	var out []Detection
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 6 {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}
		x, err1 := strconv.Atoi(strings.TrimSpace(fields[2]))
		y, err2 := strconv.Atoi(strings.TrimSpace(fields[3]))
		w, err3 := strconv.Atoi(strings.TrimSpace(fields[4]))
		h, err4 := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		out = append(out, Detection{
			Class:      strings.TrimSpace(fields[0]),
			Confidence: conf,
			Box:        Box{X: x, Y: y, W: w, H: h},
		})
	}
	return out
}
