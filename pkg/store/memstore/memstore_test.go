package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/pkg/store"
)

func TestMemstore_InsertAndSelectAfter(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 1, StartMS: 0, EndMS: 1000}))
	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 2, StartMS: 1000, EndMS: 2000}))
	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 3, StartMS: 2000, EndMS: 3000}))

	rows, err := s.SelectAfter(ctx, "t1", 1, 50)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(2), rows[0].Sequence)
	assert.Equal(t, int64(3), rows[1].Sequence)
}

func TestMemstore_InsertIsIdempotentByKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 1, IsLast: false}))
	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 1, IsLast: true}))

	rows, err := s.SelectAfter(ctx, "t1", 0, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsLast)
}

func TestMemstore_UpdateAudioKeyBatch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 1}))
	require.NoError(t, s.Insert(ctx, store.TranscriptSegment{TranscriptionID: "t1", Sequence: 2}))

	require.NoError(t, s.UpdateAudioKey(ctx, "t1", []int64{1, 2}, "clips/x.wav"))

	rows, err := s.SelectAfter(ctx, "t1", 0, 50)
	require.NoError(t, err)
	for _, row := range rows {
		require.NotNil(t, row.AudioKey)
		assert.Equal(t, "clips/x.wav", *row.AudioKey)
	}
}

func TestMemstore_ReadTranscriptionNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.ReadTranscription(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemstore_FinalizeTranscription(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateTranscription(ctx, store.Transcription{ID: "t1", TaskID: "task1"}))
	require.NoError(t, s.FinalizeTranscription(ctx, "t1", 5, 1234))

	got, err := s.ReadTranscription(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.TotalSegmentsSet)
	assert.Equal(t, int64(5), got.TotalSegments)
	assert.Equal(t, int64(1234), got.ProcessingTimeMS)
}
