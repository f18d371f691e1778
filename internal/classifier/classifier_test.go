package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kh4i-dev/sortx/internal/interfaces"
)

func frameWith(raw string) interfaces.Frame {
	return interfaces.Frame{Raw: []byte(raw)}
}

func TestClassifyDisabledReturnsMiss(t *testing.T) {
	c := New(ReferenceDetector{}, nil)
	_, _, _, ok := c.Classify(frameWith("APPLE,0.9,0,0,10,10"), Config{Enabled: false})
	assert.False(t, ok)
}

func TestClassifyPicksHighestConfidenceAndMapsLane(t *testing.T) {
	c := New(ReferenceDetector{}, nil)
	raw := "APPLE,0.5,0,0,10,10\nORANGE,0.9,20,20,10,10"
	cfg := Config{Enabled: true, MinConfidence: 0.3, ClassToLane: map[string]int{"APPLE": 0, "ORANGE": 1}}

	lane, class, _, ok := c.Classify(frameWith(raw), cfg)
	require.True(t, ok)
	assert.Equal(t, 1, lane)
	assert.Equal(t, "ORANGE", class)
}

func TestClassifyFiltersBelowConfidence(t *testing.T) {
	c := New(ReferenceDetector{}, nil)
	cfg := Config{Enabled: true, MinConfidence: 0.8, ClassToLane: map[string]int{"APPLE": 0}}
	_, _, _, ok := c.Classify(frameWith("APPLE,0.5,0,0,10,10"), cfg)
	assert.False(t, ok)
}

func TestClassifyUnmappedClassMisses(t *testing.T) {
	c := New(ReferenceDetector{}, nil)
	cfg := Config{Enabled: true, MinConfidence: 0.1, ClassToLane: map[string]int{"APPLE": 0}}
	_, _, _, ok := c.Classify(frameWith("BANANA,0.9,0,0,10,10"), cfg)
	assert.False(t, ok)
}

func TestClassifyWithTrackerAssignsTrackID(t *testing.T) {
	tracker := NewIoUTracker(0.3, 3)
	c := New(ReferenceDetector{}, tracker)
	cfg := Config{Enabled: true, MinConfidence: 0.1, ClassToLane: map[string]int{"APPLE": 0}}

	_, _, track1, ok := c.Classify(frameWith("APPLE,0.9,0,0,10,10"), cfg)
	require.True(t, ok)
	require.NotNil(t, track1)

	// Same box next frame should keep the same track id.
	_, _, track2, ok := c.Classify(frameWith("APPLE,0.9,1,1,10,10"), cfg)
	require.True(t, ok)
	require.NotNil(t, track2)
	assert.Equal(t, *track1, *track2)
}

func TestIoUTrackerAssignsNewIDToDisjointBox(t *testing.T) {
	tr := NewIoUTracker(0.3, 3)
	first := tr.Update([]Detection{{Class: "A", Confidence: 1, Box: Box{0, 0, 10, 10}}})
	second := tr.Update([]Detection{{Class: "A", Confidence: 1, Box: Box{1000, 1000, 10, 10}}})
	assert.NotEqual(t, first[0].TrackID, second[0].TrackID)
}

func TestParseDetectionsSkipsMalformedLines(t *testing.T) {
	dets := ParseDetections("APPLE,0.9,0,0,10,10\nnonsense\n\nORANGE,0.4,1,1,2,2")
	require.Len(t, dets, 2)
	assert.Equal(t, "APPLE", dets[0].Class)
	assert.Equal(t, "ORANGE", dets[1].Class)
}
