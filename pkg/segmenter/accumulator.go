// Package segmenter implements the streaming audio segmenter: the
// per-speaker accumulator state machine (C5) and the polling driver that
// feeds it from the transcript store (C6).
package segmenter

import (
	"fmt"

	"github.com/waveshift/subpipeline/pkg/store"
)

// State is the accumulator's lifecycle state.
type State int

const (
	StateAccumulating State = iota
	StateReusing
)

// TimeRange is a contiguous [start_ms, end_ms) interval within the source
// audio blob.
type TimeRange struct {
	StartMS int64
	EndMS   int64
}

// Config carries the six tunables recognized by the segmenter, read once at
// job start.
type Config struct {
	GapDurationMS         int64
	MaxDurationMS         int64
	MinDurationMS         int64
	GapThresholdMultiplier int64
	MaxConcurrentRequests int
	PublicDomain          string
}

// DefaultConfig returns the documented default tunables.
func DefaultConfig() Config {
	return Config{
		GapDurationMS:          500,
		MaxDurationMS:          12000,
		MinDurationMS:          1000,
		GapThresholdMultiplier: 3,
		MaxConcurrentRequests:  1,
	}
}

// Accumulator is the per-speaker clip-assembly state machine (C5).
type Accumulator struct {
	Speaker           string
	TimeRanges        []TimeRange
	PendingSentences  []store.TranscriptSegment
	ReusedSentences   []store.TranscriptSegment
	SequenceStart     int64
	State             State
	GeneratedAudioKey string
	InProcessingQueue bool

	cfg Config
}

// NewAccumulator creates an accumulator seeded with the first speech
// sentence for a speaker.
func NewAccumulator(cfg Config, first store.TranscriptSegment) *Accumulator {
	return &Accumulator{
		Speaker:          first.Speaker,
		TimeRanges:       []TimeRange{{StartMS: first.StartMS, EndMS: first.EndMS}},
		PendingSentences: []store.TranscriptSegment{first},
		SequenceStart:    first.Sequence,
		State:            StateAccumulating,
		cfg:              cfg,
	}
}

// gapThreshold is gap_duration_ms * gap_threshold_multiplier (default
// 500*3=1500ms).
func (a *Accumulator) gapThreshold() int64 {
	return a.cfg.GapDurationMS * a.cfg.GapThresholdMultiplier
}

// TotalDurationMS is the length of the clip that will be produced from the
// accumulator's current time ranges.
func (a *Accumulator) TotalDurationMS() int64 {
	var sum int64
	for _, r := range a.TimeRanges {
		sum += r.EndMS - r.StartMS
	}
	if len(a.TimeRanges) > 1 {
		sum += a.cfg.GapDurationMS * int64(len(a.TimeRanges)-1)
	}
	return sum
}

// AddSentence folds one more sentence into the accumulator. While
// ACCUMULATING it extends or appends a time range and may trip the max
// ceiling, flipping to REUSING. While REUSING the sentence only joins
// ReusedSentences.
func (a *Accumulator) AddSentence(row store.TranscriptSegment) {
	if a.State == StateReusing {
		a.ReusedSentences = append(a.ReusedSentences, row)
		return
	}

	last := &a.TimeRanges[len(a.TimeRanges)-1]
	gap := row.StartMS - last.EndMS
	if gap <= a.gapThreshold() {
		last.EndMS = row.EndMS
	} else {
		a.TimeRanges = append(a.TimeRanges, TimeRange{StartMS: row.StartMS, EndMS: row.EndMS})
	}
	a.PendingSentences = append(a.PendingSentences, row)

	if a.TotalDurationMS() >= a.cfg.MaxDurationMS {
		a.State = StateReusing
	}
}

// ShouldEnqueue reports whether the accumulator just tripped the max
// ceiling and has not yet been queued for clip production.
func (a *Accumulator) ShouldEnqueue() bool {
	return a.State == StateReusing && !a.InProcessingQueue && len(a.PendingSentences) > 0
}

// BelowMinFloor reports whether a still-ACCUMULATING accumulator's total
// duration is under the discard floor.
func (a *Accumulator) BelowMinFloor() bool {
	return a.State == StateAccumulating && a.TotalDurationMS() < a.cfg.MinDurationMS
}

// SegmentID is the clip identity: "sequence_" + zero-padded-4(sequence_start).
func (a *Accumulator) SegmentID() string {
	return fmt.Sprintf("sequence_%04d", a.SequenceStart)
}

// ObjectKey is the object-store key the clip will be written to.
func (a *Accumulator) ObjectKey(outputPrefix string) string {
	return fmt.Sprintf("%s/%s_%s.wav", outputPrefix, a.SegmentID(), a.Speaker)
}
