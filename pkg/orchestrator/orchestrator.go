// Package orchestrator wires the pipeline's stages together (C9): it runs
// the C2/C3 producer (model stream → merge engine) and the C5/C6 segmenter
// driver concurrently, with asymmetric cancellation — a producer failure
// aborts the whole job, but a segmenter failure does not stop the
// transcript from being written.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/waveshift/subpipeline/pkg/collaborators"
	"github.com/waveshift/subpipeline/pkg/merge"
	"github.com/waveshift/subpipeline/pkg/objectstore"
	"github.com/waveshift/subpipeline/pkg/pipelineerrors"
	"github.com/waveshift/subpipeline/pkg/segmenter"
	"github.com/waveshift/subpipeline/pkg/store"
	"github.com/waveshift/subpipeline/pkg/telemetry"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

// Orchestrator owns the collaborators and stores needed to run one
// translation job end to end.
type Orchestrator struct {
	Store        store.Store
	Gateway      objectstore.Gateway
	Streamer     collaborators.ModelStreamer
	ClipProducer segmenter.ClipProducer
	Segmenter    segmenter.Config
	OutputPrefix string
	Tasks        TaskStore

	// Tracer is optional; when nil, job steps run without telemetry spans.
	Tracer trace.Tracer

	// Clock overrides the segmenter driver's wall clock; nil uses real time.
	// Tests substitute pkg/testutil.FakeClock to avoid real poll sleeps.
	Clock segmenter.Clock
}

// JobInput carries everything RunJob needs for one transcription job.
type JobInput struct {
	TaskID          string
	TranscriptionID string
	TargetLanguage  string
	Style           string
	Audio           []byte
	AudioBlobKey    string
}

// RunJob drives one job from "transcribing" through "completed" or
// "failed", updating the Task row at each transition.
func (o *Orchestrator) RunJob(ctx context.Context, in JobInput) error {
	start := time.Now()

	if err := o.Store.CreateTranscription(ctx, store.Transcription{
		ID:             in.TranscriptionID,
		TaskID:         in.TaskID,
		TargetLanguage: in.TargetLanguage,
		Style:          in.Style,
	}); err != nil {
		return o.fail(ctx, in.TaskID, "creating_transcription", err)
	}

	o.setStatus(ctx, in.TaskID, in.TranscriptionID, StatusTranscribing)

	producerErr, driverErr, totalSegments := o.runStages(ctx, in, start)

	if producerErr != nil {
		return o.fail(ctx, in.TaskID, "transcribing", producerErr)
	}

	if driverErr != nil {
		// The segmenter failing does not invalidate the transcript; the job
		// still completes, but the failure is surfaced on the task.
		o.updateTask(ctx, Task{
			ID:              in.TaskID,
			TranscriptionID: in.TranscriptionID,
			Status:          StatusCompleted,
			ErrorReason:     fmt.Sprintf("segmenting: %v", driverErr),
			TotalSegments:   totalSegments,
		})
		return nil
	}

	o.updateTask(ctx, Task{
		ID:              in.TaskID,
		TranscriptionID: in.TranscriptionID,
		Status:          StatusCompleted,
		TotalSegments:   totalSegments,
	})
	return nil
}

// runStages runs the C2/C3 producer inside an errgroup (so the group's
// context cancels on producer failure) and the C6 driver on a goroutine
// outside the group, wired to the same context for one-directional
// cancellation only. The Transcription row is finalized from inside the
// producer goroutine, while the driver is still polling, so its
// total-segments completion check can actually observe it.
func (o *Orchestrator) runStages(ctx context.Context, in JobInput, start time.Time) (producerErr, driverErr error, totalSegments int64) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.span(gctx, "transcribing", in.TaskID, func(spanCtx context.Context) error {
			engine := merge.NewEngine(in.TranscriptionID, in.TargetLanguage, o.Store)
			_, err := o.Streamer.Stream(spanCtx, in.Audio, in.TargetLanguage, in.Style, func(raw transcriptstream.RawSegment) error {
				return engine.Ingest(spanCtx, raw)
			})
			if err != nil {
				return fmt.Errorf("%w: %v", pipelineerrors.ErrTransport, err)
			}
			n, err := engine.End(spanCtx)
			if err != nil {
				return err
			}
			totalSegments = n
			if err := o.Store.FinalizeTranscription(spanCtx, in.TranscriptionID, n, time.Since(start).Milliseconds()); err != nil {
				return fmt.Errorf("finalizing transcription: %w", err)
			}
			return nil
		})
	})

	driverDone := make(chan struct{})
	go func() {
		defer close(driverDone)
		o.setStatus(ctx, in.TaskID, in.TranscriptionID, StatusSegmenting)
		err := o.span(gctx, "segmenting", in.TaskID, func(spanCtx context.Context) error {
			driver := segmenter.NewDriver(o.Store, o.Gateway, o.ClipProducer, o.Segmenter, o.OutputPrefix)
			if o.Clock != nil {
				driver.Clock = o.Clock
			}
			_, runErr := driver.Run(spanCtx, in.TranscriptionID, in.AudioBlobKey)
			return runErr
		})
		driverErr = err
	}()

	producerErr = g.Wait()
	<-driverDone
	return producerErr, driverErr, totalSegments
}

func (o *Orchestrator) span(ctx context.Context, name, taskID string, fn func(context.Context) error) error {
	if o.Tracer == nil {
		return fn(ctx)
	}
	_, err := telemetry.RecordSpan(ctx, o.Tracer, telemetry.SpanOptions{
		Name:        name,
		Attributes:  []attribute.KeyValue{attribute.String("pipeline.task_id", taskID)},
		EndWhenDone: true,
	}, func(spanCtx context.Context, _ trace.Span) (struct{}, error) {
		return struct{}{}, fn(spanCtx)
	})
	return err
}

func (o *Orchestrator) fail(ctx context.Context, taskID, stage string, cause error) error {
	jobErr := pipelineerrors.NewJobError(taskID, stage, cause)
	o.updateTask(ctx, Task{ID: taskID, Status: StatusFailed, ErrorReason: jobErr.Error()})
	return jobErr
}

func (o *Orchestrator) setStatus(ctx context.Context, taskID, transcriptionID string, status Status) {
	o.updateTask(ctx, Task{ID: taskID, TranscriptionID: transcriptionID, Status: status})
}

func (o *Orchestrator) updateTask(ctx context.Context, partial Task) {
	if o.Tasks == nil {
		return
	}
	existing, ok, _ := o.Tasks.Get(ctx, partial.ID)
	now := time.Now()
	task := partial
	if ok {
		task.CreatedAt = existing.CreatedAt
		if task.TranscriptionID == "" {
			task.TranscriptionID = existing.TranscriptionID
		}
	} else {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if ok {
		_ = o.Tasks.Update(ctx, task)
	} else {
		_ = o.Tasks.Create(ctx, task)
	}
}
