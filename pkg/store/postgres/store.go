// Package postgres implements pkg/store.Store on PostgreSQL via pgx. It holds
// a single connection pool, running Migrate at construction time, and wraps
// every error with the operation that produced it.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/waveshift/subpipeline/pkg/store"
)

// Store is the PostgreSQL-backed implementation of store.Store. All methods
// are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// NewStore connects to dsn, verifies reachability, and ensures the schema
// exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Insert upserts one transcript segment row, keyed by (transcription_id,
// sequence), so the merge engine can flip is_last on an already-written row.
func (s *Store) Insert(ctx context.Context, row store.TranscriptSegment) error {
	const q = `
		INSERT INTO transcript_segments
		    (transcription_id, sequence, start_ms, end_ms, content_type, speaker, original, translation, audio_key, is_first, is_last)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (transcription_id, sequence) DO UPDATE SET
		    start_ms     = EXCLUDED.start_ms,
		    end_ms       = EXCLUDED.end_ms,
		    content_type = EXCLUDED.content_type,
		    speaker      = EXCLUDED.speaker,
		    original     = EXCLUDED.original,
		    translation  = EXCLUDED.translation,
		    is_first     = EXCLUDED.is_first,
		    is_last      = EXCLUDED.is_last`

	_, err := s.pool.Exec(ctx, q,
		row.TranscriptionID,
		row.Sequence,
		row.StartMS,
		row.EndMS,
		row.ContentType,
		row.Speaker,
		row.Original,
		row.Translation,
		row.AudioKey,
		row.IsFirst,
		row.IsLast,
	)
	if err != nil {
		return fmt.Errorf("postgres store: insert segment %s/%d: %w", row.TranscriptionID, row.Sequence, err)
	}
	return nil
}

// SelectAfter returns rows with sequence > minSequence, ordered ascending.
func (s *Store) SelectAfter(ctx context.Context, transcriptionID string, minSequence int64, limit int) ([]store.TranscriptSegment, error) {
	const q = `
		SELECT transcription_id, sequence, start_ms, end_ms, content_type, speaker, original, translation, audio_key, is_first, is_last
		FROM   transcript_segments
		WHERE  transcription_id = $1 AND sequence > $2
		ORDER  BY sequence ASC
		LIMIT  $3`

	rows, err := s.pool.Query(ctx, q, transcriptionID, minSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres store: select after %d: %w", minSequence, err)
	}
	defer rows.Close()

	var out []store.TranscriptSegment
	for rows.Next() {
		var row store.TranscriptSegment
		if err := rows.Scan(
			&row.TranscriptionID, &row.Sequence, &row.StartMS, &row.EndMS,
			&row.ContentType, &row.Speaker, &row.Original, &row.Translation,
			&row.AudioKey, &row.IsFirst, &row.IsLast,
		); err != nil {
			return nil, fmt.Errorf("postgres store: scan segment row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres store: iterate segment rows: %w", err)
	}
	return out, nil
}

// UpdateAudioKey batch-updates audio_key for every sequence in sequences.
func (s *Store) UpdateAudioKey(ctx context.Context, transcriptionID string, sequences []int64, key string) error {
	if len(sequences) == 0 {
		return nil
	}
	const q = `
		UPDATE transcript_segments
		SET    audio_key = $1
		WHERE  transcription_id = $2 AND sequence = ANY($3)`

	_, err := s.pool.Exec(ctx, q, key, transcriptionID, sequences)
	if err != nil {
		return fmt.Errorf("postgres store: update audio_key for %d sequences: %w", len(sequences), err)
	}
	return nil
}

// CreateTranscription inserts a new Transcription row.
func (s *Store) CreateTranscription(ctx context.Context, t store.Transcription) error {
	const q = `
		INSERT INTO transcriptions (id, task_id, target_language, style)
		VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, q, t.ID, t.TaskID, t.TargetLanguage, t.Style)
	if err != nil {
		return fmt.Errorf("postgres store: create transcription %s: %w", t.ID, err)
	}
	return nil
}

// ReadTranscription returns the Transcription row for transcriptionID.
func (s *Store) ReadTranscription(ctx context.Context, transcriptionID string) (store.Transcription, error) {
	const q = `
		SELECT id, task_id, target_language, style, total_segments, processing_time_ms, created_at
		FROM   transcriptions
		WHERE  id = $1`

	var t store.Transcription
	var totalSegments, processingTimeMS *int64
	err := s.pool.QueryRow(ctx, q, transcriptionID).Scan(
		&t.ID, &t.TaskID, &t.TargetLanguage, &t.Style, &totalSegments, &processingTimeMS, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Transcription{}, store.ErrNotFound
	}
	if err != nil {
		return store.Transcription{}, fmt.Errorf("postgres store: read transcription %s: %w", transcriptionID, err)
	}
	if totalSegments != nil {
		t.TotalSegments = *totalSegments
		t.TotalSegmentsSet = true
	}
	if processingTimeMS != nil {
		t.ProcessingTimeMS = *processingTimeMS
		t.ProcessingTimeMSSet = true
	}
	return t, nil
}

// FinalizeTranscription writes total_segments and processing_time_ms once,
// when the stream terminates cleanly.
func (s *Store) FinalizeTranscription(ctx context.Context, transcriptionID string, totalSegments, processingTimeMS int64) error {
	const q = `
		UPDATE transcriptions
		SET    total_segments = $1, processing_time_ms = $2
		WHERE  id = $3`

	_, err := s.pool.Exec(ctx, q, totalSegments, processingTimeMS, transcriptionID)
	if err != nil {
		return fmt.Errorf("postgres store: finalize transcription %s: %w", transcriptionID, err)
	}
	return nil
}
