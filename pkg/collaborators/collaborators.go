// Package collaborators defines the pipeline's external collaborator seams
// (C10): the uploader that receives the original audio asset, the demuxer
// that splits source audio from a container, the downstream speech
// synthesizer, and the generative model streamer that performs
// transcription/translation. Only ModelStreamer ships a concrete HTTP
// implementation in this repo; the others are interfaces a deployment wires
// to its own infrastructure.
package collaborators

import (
	"context"

	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

// Uploader receives a finished clip or source asset and returns its public
// URL or storage key.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Demuxer extracts a raw audio track from a container (e.g. an uploaded
// video file) before C5/C6 ever see it.
type Demuxer interface {
	Demux(ctx context.Context, container []byte) (audio []byte, err error)
}

// Synthesizer is the downstream text-to-speech step named but kept external
// by the pipeline's scope: it is never called by the core, only documented
// as the consumer of clip URLs produced by C7/C8.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (audio []byte, err error)
}

// ModelStreamer performs the transcription/translation call and returns a
// stream of raw segments via the same framing C2 consumes.
type ModelStreamer interface {
	Stream(ctx context.Context, audio []byte, targetLanguage, style string, handler func(transcriptstream.RawSegment) error) (transcriptstream.Result, error)
}

// multipartField names the fields of the model endpoint's multipart POST.
const (
	multipartFieldAudio          = "audio"
	multipartFieldTargetLanguage = "target_language"
	multipartFieldStyle          = "style"
)
