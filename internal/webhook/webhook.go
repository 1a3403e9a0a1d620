package webhook

import "context"

// Transcript is the day's document posted when a capture session ends.
type Transcript struct {
	Filename  string
	Body      []byte
	Date      string
	SessionID string
}

type Sender interface {
	SendTranscript(ctx context.Context, t Transcript) error
}
