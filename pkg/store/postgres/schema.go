package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlTranscriptions = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id                  TEXT PRIMARY KEY,
	task_id             TEXT NOT NULL,
	target_language     TEXT NOT NULL,
	style               TEXT NOT NULL,
	total_segments      BIGINT,
	processing_time_ms  BIGINT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const ddlTranscriptSegments = `
CREATE TABLE IF NOT EXISTS transcript_segments (
	transcription_id TEXT NOT NULL REFERENCES transcriptions(id),
	sequence         BIGINT NOT NULL,
	start_ms         BIGINT NOT NULL,
	end_ms           BIGINT NOT NULL,
	content_type     TEXT NOT NULL,
	speaker          TEXT NOT NULL,
	original         TEXT NOT NULL,
	translation      TEXT NOT NULL,
	audio_key        TEXT,
	is_first         BOOLEAN NOT NULL DEFAULT false,
	is_last          BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (transcription_id, sequence)
)`

const ddlTranscriptSegmentsIndex = `
CREATE INDEX IF NOT EXISTS idx_transcript_segments_transcription_sequence
	ON transcript_segments (transcription_id, sequence)`

// Migrate creates the tables and indexes this store needs, if they do not
// already exist. It is run once at construction.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlTranscriptions,
		ddlTranscriptSegments,
		ddlTranscriptSegmentsIndex,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres store: migrate: %w", err)
		}
	}
	return nil
}
