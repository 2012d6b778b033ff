package collaborators_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/pkg/collaborators"
	"github.com/waveshift/subpipeline/pkg/provider"
	"github.com/waveshift/subpipeline/pkg/provider/types"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

type fakeTranscriptionModel struct {
	result *types.TranscriptionResult
}

func (m *fakeTranscriptionModel) SpecificationVersion() string { return "v3" }
func (m *fakeTranscriptionModel) Provider() string              { return "fake" }
func (m *fakeTranscriptionModel) ModelID() string                { return "fake-model" }
func (m *fakeTranscriptionModel) DoTranscribe(ctx context.Context, opts *provider.TranscriptionOptions) (*types.TranscriptionResult, error) {
	return m.result, nil
}

func TestFallbackModelStreamer_ReplaysTimestampsAsSegments(t *testing.T) {
	model := &fakeTranscriptionModel{result: &types.TranscriptionResult{
		Text: "hello world",
		Timestamps: []types.TranscriptionTimestamp{
			{Text: "hello", Start: 0, End: 0.5},
			{Text: "world", Start: 0.6, End: 1.1},
		},
	}}
	streamer := &collaborators.FallbackModelStreamer{Model: model}

	var got []transcriptstream.RawSegment
	result, err := streamer.Stream(context.Background(), []byte("audio"), "english", "", func(s transcriptstream.RawSegment) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalSegments)
	require.Len(t, got, 2)
	assert.Equal(t, int64(500), got[0].EndMS)
	assert.Equal(t, int64(600), got[1].StartMS)
}

func TestFallbackModelStreamer_FallsBackToFlatTextWithoutTimestamps(t *testing.T) {
	model := &fakeTranscriptionModel{result: &types.TranscriptionResult{Text: "one whole blob"}}
	streamer := &collaborators.FallbackModelStreamer{Model: model}

	var got []transcriptstream.RawSegment
	result, err := streamer.Stream(context.Background(), []byte("audio"), "english", "", func(s transcriptstream.RawSegment) error {
		got = append(got, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalSegments)
	require.Len(t, got, 1)
	assert.Equal(t, "one whole blob", got[0].Original)
}
