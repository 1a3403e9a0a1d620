package repository

import (
	"context"
	"time"

	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO capture_sessions (capture_backend, segmenter, transcribe_backend, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id, capture_backend, segmenter, transcribe_backend, started_at, ended_at, status, chunk_count`,
		input.CaptureBackend, input.SegmenterName, input.TranscribeBackend, input.StartedAt)
	var s repository.Session
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.CaptureBackend, &s.SegmenterName, &s.TranscribeBackend, &s.StartedAt, &endedAt, &s.Status, &s.ChunkCount)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) CompleteSession(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE capture_sessions SET status = 'completed', ended_at = $2, chunk_count = $3 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.ChunkCount)
	return err
}

func (r *PostgresRepository) InsertTranscript(ctx context.Context, input repository.InsertTranscriptInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chunk_transcripts (session_id, chunk_id, chunk_index, first_frame, last_frame, content, document_path, outcome, spoken_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		input.SessionID, input.ChunkID, input.ChunkIndex, int64(input.FirstFrame), int64(input.LastFrame),
		input.Content, input.DocumentPath, input.Outcome, input.SpokenAt)
	return err
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
