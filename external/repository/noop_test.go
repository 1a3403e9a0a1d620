package repository

import (
	"context"
	"testing"
	"time"

	"github.com/foxseedlab/livejournal/internal/repository"
)

func TestNoopRepository_CreateSessionAssignsID(t *testing.T) {
	var repo repository.Repository = NoopRepository{}
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s, err := repo.CreateSession(context.Background(), repository.CreateSessionInput{
		CaptureBackend:    "stream",
		SegmenterName:     "voice-activity",
		TranscribeBackend: "openai",
		StartedAt:         started,
	})
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("expected a generated session ID")
	}
	if s.Status != repository.SessionStatusRunning || !s.StartedAt.Equal(started) {
		t.Fatalf("unexpected session: %+v", s)
	}

	if err := repo.InsertTranscript(context.Background(), repository.InsertTranscriptInput{SessionID: s.ID, Content: "hello"}); err != nil {
		t.Fatalf("InsertTranscript returned error: %v", err)
	}
	if err := repo.CompleteSession(context.Background(), repository.CompleteSessionInput{SessionID: s.ID, EndedAt: started.Add(time.Minute), ChunkCount: 1}); err != nil {
		t.Fatalf("CompleteSession returned error: %v", err)
	}
}
