package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/pkg/store"
)

func seg(seq, startMS, endMS int64, speaker string) store.TranscriptSegment {
	return store.TranscriptSegment{
		TranscriptionID: "t1",
		Sequence:        seq,
		StartMS:         startMS,
		EndMS:           endMS,
		ContentType:     "speech",
		Speaker:         speaker,
		Original:        "hello",
	}
}

func TestAccumulator_MaxDurationTripsToReusing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDurationMS = 3000
	cfg.MinDurationMS = 0

	acc := NewAccumulator(cfg, seg(1, 0, 2000, "A"))
	require.Equal(t, StateAccumulating, acc.State)

	acc.AddSentence(seg(2, 2100, 3200, "A"))
	assert.Equal(t, StateReusing, acc.State)
	assert.True(t, acc.ShouldEnqueue())
	assert.Len(t, acc.PendingSentences, 2)

	acc.InProcessingQueue = true
	acc.AddSentence(seg(3, 3300, 3800, "A"))
	assert.Len(t, acc.PendingSentences, 2, "sentences added after tripping go to ReusedSentences, not PendingSentences")
	assert.Len(t, acc.ReusedSentences, 1)
	assert.False(t, acc.ShouldEnqueue(), "already queued, must not re-enqueue")
}

func TestAccumulator_BelowMinFloorDiscardsWithoutDispatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinDurationMS = 2000

	acc := NewAccumulator(cfg, seg(1, 0, 500, "A"))
	assert.True(t, acc.BelowMinFloor())

	acc.AddSentence(seg(2, 600, 2600, "A"))
	assert.False(t, acc.BelowMinFloor(), "total duration now exceeds the floor")
}

func TestAccumulator_ReuseWhileReusingNeverRetripsState(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDurationMS = 1000
	cfg.MinDurationMS = 0

	acc := NewAccumulator(cfg, seg(1, 0, 600, "A"))
	acc.AddSentence(seg(2, 700, 1100, "A"))
	require.Equal(t, StateReusing, acc.State, "combined duration now exceeds the 1000ms ceiling")
	require.Len(t, acc.PendingSentences, 2)

	acc.AddSentence(seg(3, 1200, 1400, "A"))
	acc.AddSentence(seg(4, 1500, 1700, "A"))
	assert.Equal(t, StateReusing, acc.State)
	assert.Len(t, acc.ReusedSentences, 2)
	assert.Len(t, acc.PendingSentences, 2, "sentences that tripped the ceiling stay pending; later ones are reused")
}

func TestAccumulator_GapWithinThresholdExtendsLastRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GapDurationMS = 500
	cfg.GapThresholdMultiplier = 3

	acc := NewAccumulator(cfg, seg(1, 0, 1000, "A"))
	acc.AddSentence(seg(2, 2200, 2800, "A"))
	require.Len(t, acc.TimeRanges, 1, "gap of 1200ms is within the 1500ms threshold")
	assert.Equal(t, int64(2800), acc.TimeRanges[0].EndMS)
}

func TestAccumulator_GapExceedingThresholdStartsNewRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GapDurationMS = 500
	cfg.GapThresholdMultiplier = 3

	acc := NewAccumulator(cfg, seg(1, 0, 1000, "A"))
	acc.AddSentence(seg(2, 3000, 3500, "A"))
	require.Len(t, acc.TimeRanges, 2, "gap of 2000ms exceeds the 1500ms threshold")
}

func TestAccumulator_SegmentIDAndObjectKey(t *testing.T) {
	cfg := DefaultConfig()
	acc := NewAccumulator(cfg, seg(42, 0, 1000, "speakerA"))
	assert.Equal(t, "sequence_0042", acc.SegmentID())
	assert.Equal(t, "clips/sequence_0042_speakerA.wav", acc.ObjectKey("clips"))
}
