// Package merge implements the realtime merge engine (C3): it folds
// same-speaker raw segments into an open group by speaker/gap/duration
// rules and flushes completed groups to durable storage in strictly
// increasing sequence order.
package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/waveshift/subpipeline/pkg/pipelineerrors"
	"github.com/waveshift/subpipeline/pkg/store"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

const (
	maxGapMS             = 1000
	shortDurationMS       = 5000
	maxCombinedDurationMS = 10000
)

// Sink is the durable destination a flushed row is written to. In
// production this is pkg/store.Store; tests may substitute a recording fake.
type Sink interface {
	Insert(ctx context.Context, row store.TranscriptSegment) error
}

// group is the single open MergeGroup buffer (§3): at most one is active at
// any time, since the engine is used by one producer goroutine per job.
type group struct {
	speaker     string
	startMS     int64
	endMS       int64
	contentType transcriptstream.ContentType
	original    strings.Builder
	translation strings.Builder
}

// Engine owns the single open MergeGroup for one transcription and reassigns
// a dense, monotonically increasing sequence to every row it flushes.
type Engine struct {
	transcriptionID string
	targetLanguage  string
	sink            Sink

	open        *group
	nextSeq     int64
	wroteAnyRow bool
	lastRow     *store.TranscriptSegment
}

// NewEngine returns an Engine that flushes rows for transcriptionID to sink.
// targetLanguage controls the text-join separator ("" for chinese, a single
// space otherwise).
func NewEngine(transcriptionID, targetLanguage string, sink Sink) *Engine {
	return &Engine{
		transcriptionID: transcriptionID,
		targetLanguage:  targetLanguage,
		sink:            sink,
		nextSeq:         1,
	}
}

// Ingest consumes one raw segment in arrival order.
func (e *Engine) Ingest(ctx context.Context, raw transcriptstream.RawSegment) error {
	if raw.EndMS < raw.StartMS {
		return fmt.Errorf("merge: %w: segment has end_ms (%d) before start_ms (%d)", pipelineerrors.ErrRowGap, raw.EndMS, raw.StartMS)
	}

	if raw.ContentType != transcriptstream.ContentTypeSpeech {
		// Non-speech: flush whatever is open, then drop this row entirely.
		if err := e.flush(ctx); err != nil {
			return err
		}
		return nil
	}

	if e.open == nil {
		e.open = newGroupFrom(raw)
		return nil
	}

	if e.canMerge(raw) {
		e.extend(raw)
		return nil
	}

	if err := e.flush(ctx); err != nil {
		return err
	}
	e.open = newGroupFrom(raw)
	return nil
}

// End flushes any open group, marks the final row is_last, and returns the
// total number of rows written — callers persist it onto the Transcription
// row as total_segments.
func (e *Engine) End(ctx context.Context) (int64, error) {
	if err := e.flush(ctx); err != nil {
		return 0, err
	}
	if e.lastRow != nil {
		last := *e.lastRow
		last.IsLast = true
		if err := e.sink.Insert(ctx, last); err != nil {
			return 0, fmt.Errorf("merge: writing final is_last row: %w", err)
		}
	}
	return e.nextSeq - 1, nil
}

func newGroupFrom(raw transcriptstream.RawSegment) *group {
	g := &group{
		speaker:     raw.Speaker,
		startMS:     raw.StartMS,
		endMS:       raw.EndMS,
		contentType: raw.ContentType,
	}
	g.original.WriteString(strings.TrimSpace(raw.Original))
	g.translation.WriteString(strings.TrimSpace(raw.Translation))
	return g
}

func (e *Engine) canMerge(raw transcriptstream.RawSegment) bool {
	if raw.Speaker != e.open.speaker {
		return false
	}
	gap := raw.StartMS - e.open.endMS
	if gap > maxGapMS {
		return false
	}
	openDuration := e.open.endMS - e.open.startMS
	currDuration := raw.EndMS - raw.StartMS
	if openDuration >= shortDurationMS && currDuration >= shortDurationMS {
		return false
	}
	if raw.EndMS-e.open.startMS > maxCombinedDurationMS {
		return false
	}
	return true
}

func (e *Engine) extend(raw transcriptstream.RawSegment) {
	sep := " "
	if e.targetLanguage == "chinese" {
		sep = ""
	}
	e.open.endMS = raw.EndMS
	if e.open.original.Len() > 0 {
		e.open.original.WriteString(sep)
	}
	e.open.original.WriteString(strings.TrimSpace(raw.Original))
	if e.open.translation.Len() > 0 {
		e.open.translation.WriteString(sep)
	}
	e.open.translation.WriteString(strings.TrimSpace(raw.Translation))
}

func (e *Engine) flush(ctx context.Context) error {
	if e.open == nil {
		return nil
	}
	g := e.open
	e.open = nil

	row := store.TranscriptSegment{
		TranscriptionID: e.transcriptionID,
		Sequence:        e.nextSeq,
		StartMS:         g.startMS,
		EndMS:           g.endMS,
		ContentType:     string(g.contentType),
		Speaker:         g.speaker,
		Original:        g.original.String(),
		Translation:     g.translation.String(),
		IsFirst:         !e.wroteAnyRow,
	}
	e.nextSeq++
	e.wroteAnyRow = true

	if err := e.sink.Insert(ctx, row); err != nil {
		return fmt.Errorf("merge: flushing row sequence %d: %w", row.Sequence, err)
	}
	rowCopy := row
	e.lastRow = &rowCopy
	return nil
}
