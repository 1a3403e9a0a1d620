package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE capture_session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS capture_sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		capture_backend TEXT NOT NULL,
		segmenter TEXT NOT NULL,
		transcribe_backend TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status capture_session_status NOT NULL DEFAULT 'running',
		chunk_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS chunk_transcripts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES capture_sessions(id) ON DELETE CASCADE,
		chunk_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		first_frame BIGINT NOT NULL,
		last_frame BIGINT NOT NULL,
		content TEXT NOT NULL,
		document_path TEXT NOT NULL,
		outcome TEXT NOT NULL,
		spoken_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(session_id, chunk_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunk_transcripts_session ON chunk_transcripts (session_id, chunk_index)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
