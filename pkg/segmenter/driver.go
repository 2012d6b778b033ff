package segmenter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/waveshift/subpipeline/pkg/clip"
	"github.com/waveshift/subpipeline/pkg/internal/retry"
	"github.com/waveshift/subpipeline/pkg/objectstore"
	"github.com/waveshift/subpipeline/pkg/store"
)

// errPollCeilingExceeded is returned when a job's polling loop runs past the
// wall-clock ceiling without observing the stream's terminal row.
var errPollCeilingExceeded = errors.New("segmenter: poll wall-clock ceiling exceeded")

const (
	pollBatchSize       = 50
	pollWallClockCeiling = 10 * time.Minute
	nonEmptyPollSleep   = 2 * time.Second
	emptyPollSleep      = 5 * time.Second
	preloadMaxAttempts  = 3
	preloadBaseDelay    = 1 * time.Second
)

// ClipProducer builds one audio artifact from a source blob, a set of time
// ranges, and an inter-range silence duration. Satisfied by *clip.Producer.
type ClipProducer interface {
	Produce(audioBlob []byte, ranges []clip.TimeRange, gapMS int64) ([]byte, error)
}

// Clock abstracts wall-clock sleeps so driver tests can run without real
// delays.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time     { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Driver is the segmenter driver (C6): it polls the transcript store for new
// rows, feeds per-speaker accumulators, dispatches clip jobs, and writes
// clip URLs back.
type Driver struct {
	Store        store.Store
	Gateway      objectstore.Gateway
	ClipProducer ClipProducer
	Config       Config
	OutputPrefix string
	Clock        Clock
}

// NewDriver returns a Driver with a real wall clock.
func NewDriver(s store.Store, gw objectstore.Gateway, producer ClipProducer, cfg Config, outputPrefix string) *Driver {
	return &Driver{
		Store:        s,
		Gateway:      gw,
		ClipProducer: producer,
		Config:       cfg,
		OutputPrefix: outputPrefix,
		Clock:        realClock{},
	}
}

// Stats summarizes one Run invocation, mirroring the watch-endpoint
// response shape.
type Stats struct {
	TotalPolls             int
	TotalSentencesProcessed int
	TotalDuration           time.Duration
	SentenceToSegmentMap    map[int64]string
}

// Run polls transcriptionID's rows from audioBlobKey until the stream's
// is_last row is seen or the Transcription row reports completion, then
// sweeps remaining accumulators. It enforces a 10-minute wall-clock ceiling.
func (d *Driver) Run(ctx context.Context, transcriptionID, audioBlobKey string) (Stats, error) {
	clk := d.Clock
	if clk == nil {
		clk = realClock{}
	}

	stats := Stats{SentenceToSegmentMap: make(map[int64]string)}

	audioBlob, err := d.preloadAudio(ctx, audioBlobKey)
	if err != nil {
		return stats, fmt.Errorf("segmenter: preloading audio blob %s: %w", audioBlobKey, err)
	}

	active := make(map[string]*Accumulator)
	var lastSeenSequence int64
	deadline := clk.Now().Add(pollWallClockCeiling)

	for {
		if clk.Now().After(deadline) {
			return stats, fmt.Errorf("segmenter: %w: transcription %s", errPollCeilingExceeded, transcriptionID)
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		rows, err := d.Store.SelectAfter(ctx, transcriptionID, lastSeenSequence, pollBatchSize)
		if err != nil {
			return stats, fmt.Errorf("segmenter: polling rows after %d: %w", lastSeenSequence, err)
		}

		stats.TotalPolls++
		sawLast := false

		if len(rows) > 0 {
			for _, row := range rows {
				if row.ContentType != "" && row.ContentType != "speech" {
					// C3 never persists non-speech rows; defensive skip if
					// one is ever encountered.
					lastSeenSequence = row.Sequence
					continue
				}

				d.process(ctx, active, row, audioBlob, &stats)
				stats.TotalSentencesProcessed++
				lastSeenSequence = row.Sequence
				if row.IsLast {
					sawLast = true
				}
			}
		}

		if sawLast {
			break
		}

		transcription, err := d.Store.ReadTranscription(ctx, transcriptionID)
		if err == nil && transcription.ProcessingTimeMSSet && lastSeenSequence >= transcription.TotalSegments {
			break
		}

		sleep := emptyPollSleep
		if len(rows) > 0 {
			sleep = nonEmptyPollSleep
		}
		clk.Sleep(sleep)
	}

	d.finalSweep(ctx, active, audioBlob, &stats)
	stats.TotalDuration = clk.Now().Sub(deadline.Add(-pollWallClockCeiling))
	return stats, nil
}

func (d *Driver) preloadAudio(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	// With three attempts, doubling from preloadBaseDelay gives waits of 1 s
	// and 2 s, the same steps as a linear backoff.
	cfg := retry.Config{
		MaxRetries:   preloadMaxAttempts - 1,
		InitialDelay: preloadBaseDelay,
		MaxDelay:     preloadBaseDelay * time.Duration(preloadMaxAttempts),
		Multiplier:   2.0,
		Jitter:       false,
	}
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		b, err := d.Gateway.Get(ctx, key)
		if err != nil {
			return err
		}
		blob = b
		return nil
	})
	return blob, err
}

// process feeds one row into the active accumulator map. Any accumulator
// for a speaker other than row.Speaker is flushed first, so a speaker that
// reappears after an interruption (e.g. A, B, A within the same batch)
// always starts a fresh accumulator instead of silently extending the one
// that was open before the interruption.
func (d *Driver) process(ctx context.Context, active map[string]*Accumulator, row store.TranscriptSegment, audioBlob []byte, stats *Stats) {
	d.preFlushOnSpeakerChange(ctx, active, row.Speaker, audioBlob, stats)

	acc, ok := active[row.Speaker]

	if !ok {
		active[row.Speaker] = NewAccumulator(d.Config, row)
		return
	}

	acc.AddSentence(row)
	if acc.ShouldEnqueue() {
		d.dispatch(ctx, acc, audioBlob, stats)
		acc.InProcessingQueue = true
	}
}

// preFlushOnSpeakerChange flushes every active accumulator whose speaker
// differs from speaker, leaving at most speaker's own entry behind. Called
// before every row is processed, not once per batch, so it catches
// speaker transitions that occur mid-batch.
func (d *Driver) preFlushOnSpeakerChange(ctx context.Context, active map[string]*Accumulator, speaker string, audioBlob []byte, stats *Stats) {
	for s, acc := range active {
		if s == speaker {
			continue
		}
		d.finalizeOrDispatch(ctx, acc, audioBlob, stats)
		delete(active, s)
	}
}

// finalizeOrDispatch applies the "old accumulator on speaker change" rule:
// ACCUMULATING accumulators go through finalize (min-floor applies);
// REUSING accumulators with nonempty ReusedSentences are pure-reuse
// dispatched.
func (d *Driver) finalizeOrDispatch(ctx context.Context, acc *Accumulator, audioBlob []byte, stats *Stats) {
	if acc.State == StateAccumulating {
		if acc.BelowMinFloor() {
			return
		}
		d.dispatch(ctx, acc, audioBlob, stats)
		return
	}
	if len(acc.ReusedSentences) > 0 {
		d.pureReuseDispatch(ctx, acc, stats)
	}
}

// finalSweep runs the one last sweep over all still-active accumulators
// after the poll loop exits.
func (d *Driver) finalSweep(ctx context.Context, active map[string]*Accumulator, audioBlob []byte, stats *Stats) {
	for speaker, acc := range active {
		d.finalizeOrDispatch(ctx, acc, audioBlob, stats)
		delete(active, speaker)
	}
}

// dispatch builds the clip via C7, uploads it via C8, and atomically
// updates audio_key for every pending and reused sentence.
func (d *Driver) dispatch(ctx context.Context, acc *Accumulator, audioBlob []byte, stats *Stats) {
	if len(acc.PendingSentences) == 0 {
		return
	}

	ranges := make([]clip.TimeRange, len(acc.TimeRanges))
	for i, r := range acc.TimeRanges {
		ranges[i] = clip.TimeRange{StartMS: r.StartMS, EndMS: r.EndMS}
	}

	audio, err := d.ClipProducer.Produce(audioBlob, ranges, d.Config.GapDurationMS)
	if err != nil {
		log.Printf("segmenter: clip encode failed for accumulator %s/%s: %v", acc.SegmentID(), acc.Speaker, err)
		return
	}

	key := acc.ObjectKey(d.OutputPrefix)
	if err := d.Gateway.Put(ctx, key, audio, "audio/wav"); err != nil {
		log.Printf("segmenter: uploading clip %s failed: %v", key, err)
		return
	}

	url := d.Gateway.PublicURL(key)
	acc.GeneratedAudioKey = url

	sequences := sequencesOf(acc.PendingSentences, acc.ReusedSentences)
	transcriptionID := firstTranscriptionID(acc.PendingSentences, acc.ReusedSentences)
	if err := d.Store.UpdateAudioKey(ctx, transcriptionID, sequences, url); err != nil {
		log.Printf("segmenter: writing audio_key for clip %s failed: %v", key, err)
		return
	}

	for _, seq := range sequences {
		stats.SentenceToSegmentMap[seq] = acc.SegmentID()
	}
}

// pureReuseDispatch writes only audio_key columns for an accumulator's
// reused sentences; it produces no clip.
func (d *Driver) pureReuseDispatch(ctx context.Context, acc *Accumulator, stats *Stats) {
	if acc.GeneratedAudioKey == "" || len(acc.ReusedSentences) == 0 {
		return
	}
	sequences := sequencesOf(acc.ReusedSentences)
	transcriptionID := firstTranscriptionID(acc.ReusedSentences)
	if err := d.Store.UpdateAudioKey(ctx, transcriptionID, sequences, acc.GeneratedAudioKey); err != nil {
		log.Printf("segmenter: pure-reuse audio_key write failed for %s: %v", acc.SegmentID(), err)
		return
	}
	for _, seq := range sequences {
		stats.SentenceToSegmentMap[seq] = acc.SegmentID()
	}
}

func sequencesOf(groups ...[]store.TranscriptSegment) []int64 {
	var out []int64
	for _, g := range groups {
		for _, row := range g {
			out = append(out, row.Sequence)
		}
	}
	return out
}

func firstTranscriptionID(groups ...[]store.TranscriptSegment) string {
	for _, g := range groups {
		if len(g) > 0 {
			return g[0].TranscriptionID
		}
	}
	return ""
}
