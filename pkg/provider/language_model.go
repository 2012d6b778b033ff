package provider

import (
	"context"

	"github.com/waveshift/subpipeline/pkg/provider/types"
)

// SpeechModel represents a speech synthesis model. It is a pluggable seam
// for a downstream text-to-speech synthesizer; pkg/collaborators does not
// use it (its Synthesizer interface is separate).
type SpeechModel interface {
	// Metadata
	SpecificationVersion() string
	Provider() string
	ModelID() string

	// Speech synthesis
	DoGenerate(ctx context.Context, opts *SpeechGenerateOptions) (*types.SpeechResult, error)
}

// SpeechGenerateOptions contains options for speech synthesis
type SpeechGenerateOptions struct {
	// Text to convert to speech
	Text string

	// Voice to use
	Voice string

	// Speed of speech (0.25 to 4.0)
	Speed *float64
}

// TranscriptionModel represents a speech-to-text model. It is the
// pluggable seam used by pkg/collaborators for the generative model
// endpoint when a deployment fronts a one-shot (non-SSE) transcription
// API instead of the pipeline's native streaming protocol.
type TranscriptionModel interface {
	// Metadata
	SpecificationVersion() string
	Provider() string
	ModelID() string

	// Transcription
	DoTranscribe(ctx context.Context, opts *TranscriptionOptions) (*types.TranscriptionResult, error)
}

// TranscriptionOptions contains options for speech-to-text
type TranscriptionOptions struct {
	// Audio data to transcribe
	Audio []byte

	// MIME type of the audio
	MimeType string

	// Language of the audio (optional)
	Language string

	// Whether to include timestamps
	Timestamps bool
}
