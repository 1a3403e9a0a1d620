package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	CaptureBackend    string
	SegmenterName     string
	TranscribeBackend string
	StartedAt         time.Time
}

type CompleteSessionInput struct {
	SessionID  string
	EndedAt    time.Time
	ChunkCount int
}

type InsertTranscriptInput struct {
	SessionID    string
	ChunkID      string
	ChunkIndex   int
	FirstFrame   uint64
	LastFrame    uint64
	Content      string
	DocumentPath string
	Outcome      string
	SpokenAt     time.Time
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
}

type TranscriptRepository interface {
	InsertTranscript(ctx context.Context, input InsertTranscriptInput) error
}

type Repository interface {
	SessionRepository
	TranscriptRepository
}
