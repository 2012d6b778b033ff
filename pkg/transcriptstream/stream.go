// Package transcriptstream adapts the generative model's server-sent event
// response into a stream of parsed transcript segments, cooperatively
// yielded so the merge engine never starves.
package transcriptstream

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/waveshift/subpipeline/pkg/providerutils/streaming"
	"github.com/waveshift/subpipeline/pkg/scanner"
)

// ContentType mirrors the content_type enum carried by a raw segment.
type ContentType string

const (
	ContentTypeSpeech                    ContentType = "speech"
	ContentTypeSinging                   ContentType = "singing"
	ContentTypeNonSpeechHumanVocalization ContentType = "non_speech_human_vocalizations"
	ContentTypeNonHumanSound             ContentType = "non_human_sounds"
)

// RawSegment is one model-emitted transcript fragment, before C3 merges it
// into a durable row.
type RawSegment struct {
	Sequence    int64
	StartMS     int64
	EndMS       int64
	ContentType ContentType
	Speaker     string
	Original    string
	Translation string
}

// segmentEnvelope matches the "segment" SSE event payload of the model's
// wire format.
type segmentEnvelope struct {
	Sequence int64 `json:"sequence"`
	Segment  struct {
		Sequence    int64       `json:"sequence"`
		Start       string      `json:"start"`
		End         string      `json:"end"`
		ContentType ContentType `json:"content_type"`
		Speaker     string      `json:"speaker"`
		Original    string      `json:"original"`
		Translation string      `json:"translation"`
	} `json:"segment"`
	Timestamp string `json:"timestamp"`
}

type endEnvelope struct {
	TotalSegments int64  `json:"totalSegments"`
	EndTime       string `json:"endTime"`
}

type errorEnvelope struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Result is the terminal outcome of consuming the full SSE stream.
type Result struct {
	TotalSegments int64
}

// Stream consumes a model response body and yields RawSegments in arrival
// order via the handler callback. It returns once the stream ends (either
// via an "end" event or EOF) or an error occurs.
//
// A transport error mid-stream is returned to the caller; segments already
// delivered to handler remain valid (C3 has already durably written
// whatever it chose to keep).
func Stream(body io.Reader, handler func(RawSegment) error) (Result, error) {
	sseParser := streaming.NewSSEParser(body)
	// Each "segment" event's data field is one fragment of the logical
	// `[seg, seg, ...]` array the model is streaming; they are fed to the
	// C1 scanner cumulatively so a fragment boundary that happens to fall
	// mid-object is still reconstructed correctly.
	jsonScanner := scanner.New()
	arrayOpened := false

	for {
		event, err := sseParser.Next()
		if err == io.EOF {
			return Result{}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("transcriptstream: reading SSE event: %w", err)
		}

		switch event.Event {
		case "error":
			var e errorEnvelope
			if jsonErr := json.Unmarshal([]byte(event.Data), &e); jsonErr == nil && e.Error != "" {
				return Result{}, fmt.Errorf("transcriptstream: model reported error: %s", e.Error)
			}
			return Result{}, fmt.Errorf("transcriptstream: model reported an unspecified error")
		case "end":
			if arrayOpened {
				jsonScanner.Feed([]byte("]"))
			}
			var e endEnvelope
			_ = json.Unmarshal([]byte(event.Data), &e)
			return Result{TotalSegments: e.TotalSegments}, nil
		case "segment":
			if !arrayOpened {
				jsonScanner.Feed([]byte("["))
				arrayOpened = true
			} else {
				jsonScanner.Feed([]byte(","))
			}
			for _, obj := range jsonScanner.Feed([]byte(event.Data)) {
				var env segmentEnvelope
				if err := json.Unmarshal(obj, &env); err != nil {
					continue
				}
				raw := RawSegment{
					Sequence:    env.Segment.Sequence,
					StartMS:     ParseTimecode(env.Segment.Start),
					EndMS:       ParseTimecode(env.Segment.End),
					ContentType: env.Segment.ContentType,
					Speaker:     env.Segment.Speaker,
					Original:    env.Segment.Original,
					Translation: env.Segment.Translation,
				}
				if err := handler(raw); err != nil {
					return Result{}, err
				}
				// Cooperative yield: give the merge engine's goroutine a
				// chance to run between emitted segments.
				runtime.Gosched()
			}
		default:
			// "start" and any unrecognized event types carry no segment
			// data relevant to this stage; ignored.
		}
	}
}
