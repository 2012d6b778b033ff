package collaborators

import (
	"context"
	"fmt"

	"github.com/waveshift/subpipeline/pkg/provider"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

// FallbackModelStreamer adapts a one-shot provider.TranscriptionModel into
// the per-segment ModelStreamer interface the rest of the core expects, for
// deployments that front a non-streaming transcription API. It replays the
// model's word/segment timestamps (or, lacking those, its flat text) as a
// synthetic segment sequence, the same way a simulated-streaming adapter
// turns a one-shot generation result into a simulated stream.
type FallbackModelStreamer struct {
	Model provider.TranscriptionModel
}

var _ ModelStreamer = (*FallbackModelStreamer)(nil)

// Stream ignores style (the one-shot backend has no notion of it), calls
// the underlying model once, and replays its result as one segment per
// timestamp, or as a single segment holding the flat text when the result
// has no timestamps. It returns the number of replayed segments as the
// stream's total.
func (f *FallbackModelStreamer) Stream(ctx context.Context, audio []byte, targetLanguage, style string, handler func(transcriptstream.RawSegment) error) (transcriptstream.Result, error) {
	result, err := f.Model.DoTranscribe(ctx, &provider.TranscriptionOptions{
		Audio:      audio,
		MimeType:   "audio/wav",
		Language:   targetLanguage,
		Timestamps: true,
	})
	if err != nil {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: fallback transcription: %w", err)
	}

	seq := int64(0)
	for _, ts := range result.Timestamps {
		seq++
		raw := transcriptstream.RawSegment{
			Sequence:    seq,
			StartMS:     int64(ts.Start * 1000),
			EndMS:       int64(ts.End * 1000),
			ContentType: transcriptstream.ContentTypeSpeech,
			Speaker:     "speaker_1",
			Original:    ts.Text,
		}
		if err := handler(raw); err != nil {
			return transcriptstream.Result{}, err
		}
	}

	if seq == 0 && result.Text != "" {
		seq = 1
		raw := transcriptstream.RawSegment{
			Sequence:    1,
			ContentType: transcriptstream.ContentTypeSpeech,
			Speaker:     "speaker_1",
			Original:    result.Text,
		}
		if err := handler(raw); err != nil {
			return transcriptstream.Result{}, err
		}
	}

	return transcriptstream.Result{TotalSegments: seq}, nil
}
