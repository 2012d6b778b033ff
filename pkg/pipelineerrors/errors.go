// Package pipelineerrors collects the sentinel errors and job-level error
// type shared across the pipeline's stages, grounded on
// pkg/provider/errors/errors.go's sentinel-plus-wrapped-struct style.
package pipelineerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedSegment marks a segment object the streaming scanner
	// could not parse. It is never returned to a caller; C1 drops the
	// malformed object and continues the scan.
	ErrMalformedSegment = errors.New("pipelineerrors: malformed segment")

	// ErrTransport marks a failure talking to an external collaborator
	// (model streamer, uploader, demuxer, synthesizer).
	ErrTransport = errors.New("pipelineerrors: transport failure")

	// ErrClipEncode marks a failure producing a clip artifact via ffmpeg.
	ErrClipEncode = errors.New("pipelineerrors: clip encode failure")

	// ErrRowGap marks an inverted or out-of-order segment rejected by the
	// merge engine.
	ErrRowGap = errors.New("pipelineerrors: invalid row ordering")
)

// JobError records the job, pipeline stage, and cause behind a job
// transitioning to the "failed" status.
type JobError struct {
	JobID string
	Stage string
	Cause error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %s failed at stage %s: %v", e.JobID, e.Stage, e.Cause)
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// NewJobError wraps cause with the job and stage it occurred in.
func NewJobError(jobID, stage string, cause error) *JobError {
	return &JobError{JobID: jobID, Stage: stage, Cause: cause}
}
