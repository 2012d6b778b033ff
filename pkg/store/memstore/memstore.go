// Package memstore is an in-memory implementation of pkg/store.Store, used
// by component tests and by the example servers in place of a real
// database.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/waveshift/subpipeline/pkg/store"
)

// Store is a goroutine-safe in-memory transcript store.
type Store struct {
	mu             sync.Mutex
	segments       map[string]map[int64]store.TranscriptSegment
	transcriptions map[string]store.Transcription
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		segments:       make(map[string]map[int64]store.TranscriptSegment),
		transcriptions: make(map[string]store.Transcription),
	}
}

func (s *Store) Insert(ctx context.Context, row store.TranscriptSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.segments[row.TranscriptionID]
	if !ok {
		rows = make(map[int64]store.TranscriptSegment)
		s.segments[row.TranscriptionID] = rows
	}
	rows[row.Sequence] = row
	return nil
}

func (s *Store) SelectAfter(ctx context.Context, transcriptionID string, minSequence int64, limit int) ([]store.TranscriptSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.segments[transcriptionID]
	out := make([]store.TranscriptSegment, 0, len(rows))
	for seq, row := range rows {
		if seq > minSequence {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateAudioKey(ctx context.Context, transcriptionID string, sequences []int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.segments[transcriptionID]
	if rows == nil {
		return nil
	}
	k := key
	for _, seq := range sequences {
		row, ok := rows[seq]
		if !ok {
			continue
		}
		row.AudioKey = &k
		rows[seq] = row
	}
	return nil
}

func (s *Store) CreateTranscription(ctx context.Context, t store.Transcription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptions[t.ID] = t
	return nil
}

func (s *Store) ReadTranscription(ctx context.Context, transcriptionID string) (store.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcriptions[transcriptionID]
	if !ok {
		return store.Transcription{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) FinalizeTranscription(ctx context.Context, transcriptionID string, totalSegments, processingTimeMS int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transcriptions[transcriptionID]
	if !ok {
		return store.ErrNotFound
	}
	t.TotalSegments = totalSegments
	t.TotalSegmentsSet = true
	t.ProcessingTimeMS = processingTimeMS
	t.ProcessingTimeMSSet = true
	s.transcriptions[transcriptionID] = t
	return nil
}
