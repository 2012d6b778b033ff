package orchestrator_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/pkg/clip"
	"github.com/waveshift/subpipeline/pkg/objectstore/memgateway"
	"github.com/waveshift/subpipeline/pkg/orchestrator"
	"github.com/waveshift/subpipeline/pkg/store/memstore"
	"github.com/waveshift/subpipeline/pkg/testutil"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

type fakeStreamer struct {
	segments []transcriptstream.RawSegment
	err      error
}

func (f *fakeStreamer) Stream(ctx context.Context, audio []byte, targetLanguage, style string, handler func(transcriptstream.RawSegment) error) (transcriptstream.Result, error) {
	if f.err != nil {
		return transcriptstream.Result{}, f.err
	}
	for _, seg := range f.segments {
		if err := handler(seg); err != nil {
			return transcriptstream.Result{}, err
		}
	}
	return transcriptstream.Result{TotalSegments: int64(len(f.segments))}, nil
}

type fakeClipProducer struct{}

func (fakeClipProducer) Produce(audioBlob []byte, ranges []clip.TimeRange, gapMS int64) ([]byte, error) {
	return []byte("clip"), nil
}

func seg(seq, startMS, endMS int64, speaker string) transcriptstream.RawSegment {
	return transcriptstream.RawSegment{
		Sequence: seq, StartMS: startMS, EndMS: endMS,
		ContentType: transcriptstream.ContentTypeSpeech,
		Speaker:     speaker,
		Original:    "hello",
	}
}

func TestOrchestrator_RunJobCompletesSuccessfully(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	gw := memgateway.New("")
	require.NoError(t, gw.Put(ctx, "source.wav", []byte("source-bytes"), "audio/wav"))

	tasks := orchestrator.NewMemTaskStore()
	o := &orchestrator.Orchestrator{
		Store:        s,
		Gateway:      gw,
		Streamer:     &fakeStreamer{segments: []transcriptstream.RawSegment{seg(1, 0, 1000, "A"), seg(2, 1100, 2000, "A")}},
		ClipProducer: fakeClipProducer{},
		Tasks:        tasks,
		OutputPrefix: "clips",
		Clock:        testutil.NewFakeClock(time.Unix(0, 0)),
	}
	o.Segmenter.MinDurationMS = 0
	o.Segmenter.MaxDurationMS = 12000
	o.Segmenter.GapDurationMS = 500
	o.Segmenter.GapThresholdMultiplier = 3

	err := o.RunJob(ctx, orchestrator.JobInput{
		TaskID:          "task-1",
		TranscriptionID: "t1",
		TargetLanguage:  "english",
		Audio:           []byte("raw-audio"),
		AudioBlobKey:    "source.wav",
	})
	require.NoError(t, err)

	task, ok, err := tasks.Get(ctx, "task-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, orchestrator.StatusCompleted, task.Status)
	assert.Equal(t, "", task.ErrorReason)

	transcription, err := s.ReadTranscription(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, transcription.TotalSegmentsSet)
}

func TestOrchestrator_ProducerFailureMarksTaskFailed(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	gw := memgateway.New("")
	require.NoError(t, gw.Put(ctx, "source.wav", []byte("source-bytes"), "audio/wav"))

	tasks := orchestrator.NewMemTaskStore()
	o := &orchestrator.Orchestrator{
		Store:        s,
		Gateway:      gw,
		Streamer:     &fakeStreamer{err: fmt.Errorf("connection reset")},
		ClipProducer: fakeClipProducer{},
		Tasks:        tasks,
		OutputPrefix: "clips",
		Clock:        testutil.NewFakeClock(time.Unix(0, 0)),
	}
	o.Segmenter.MaxDurationMS = 12000
	o.Segmenter.GapDurationMS = 500
	o.Segmenter.GapThresholdMultiplier = 3

	err := o.RunJob(ctx, orchestrator.JobInput{
		TaskID:          "task-2",
		TranscriptionID: "t2",
		TargetLanguage:  "english",
		Audio:           []byte("raw-audio"),
		AudioBlobKey:    "source.wav",
	})
	require.Error(t, err)

	task, ok, err := tasks.Get(ctx, "task-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, orchestrator.StatusFailed, task.Status)
	assert.NotEmpty(t, task.ErrorReason)
}
