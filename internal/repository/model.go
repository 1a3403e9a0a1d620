package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is one run of the capture pipeline.
type Session struct {
	ID                string
	CaptureBackend    string
	SegmenterName     string
	TranscribeBackend string
	StartedAt         time.Time
	EndedAt           *time.Time
	Status            SessionStatus
	ChunkCount        int
}
