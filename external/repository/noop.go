package repository

import (
	"context"

	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/google/uuid"
)

// NoopRepository is used when no database is configured. Sessions get a
// local ID so log lines stay correlatable.
type NoopRepository struct{}

func (NoopRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return &repository.Session{
		ID:                uuid.NewString(),
		CaptureBackend:    input.CaptureBackend,
		SegmenterName:     input.SegmenterName,
		TranscribeBackend: input.TranscribeBackend,
		StartedAt:         input.StartedAt,
		Status:            repository.SessionStatusRunning,
	}, nil
}

func (NoopRepository) CompleteSession(_ context.Context, _ repository.CompleteSessionInput) error {
	return nil
}

func (NoopRepository) InsertTranscript(_ context.Context, _ repository.InsertTranscriptInput) error {
	return nil
}
