package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/livejournal/internal/audio"
)

// Observer receives the outcome of every engine call.
type Observer interface {
	ObserveTranscription(duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveTranscription(time.Duration, error) {}

type Dispatcher struct {
	engine     Engine
	sampleRate int
	language   string
	vadFilter  bool
	observer   Observer
}

type DispatcherConfig struct {
	SampleRate int
	Language   string
	VADFilter  bool
}

func NewDispatcher(engine Engine, cfg DispatcherConfig, observer Observer) *Dispatcher {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Dispatcher{
		engine:     engine,
		sampleRate: cfg.SampleRate,
		language:   LanguageHint(cfg.Language),
		vadFilter:  cfg.VADFilter,
		observer:   observer,
	}
}

// Transcribe returns the trimmed text for one chunk. Engine failures are
// logged and yield an empty string.
func (d *Dispatcher) Transcribe(ctx context.Context, chunk audio.Chunk) string {
	text, err := d.TranscribeChunk(ctx, chunk)
	if err != nil {
		slog.Error("transcription failed; dropping chunk text", "error", err, "engine", d.engine.Name(), "chunk_id", chunk.ID, "first_frame", chunk.FirstSeq, "last_frame", chunk.LastSeq)
		return ""
	}
	return text
}

func (d *Dispatcher) TranscribeChunk(ctx context.Context, chunk audio.Chunk) (string, error) {
	if len(chunk.Samples) == 0 {
		return "", nil
	}
	started := time.Now()
	segments, err := d.engine.Transcribe(ctx, Request{
		Samples:    audio.Normalize(chunk.Samples),
		SampleRate: d.sampleRate,
		Language:   d.language,
		VADFilter:  d.vadFilter,
	})
	d.observer.ObserveTranscription(time.Since(started), err)
	if err != nil {
		return "", fmt.Errorf("engine %s: %w", d.engine.Name(), err)
	}
	return JoinSegments(segments), nil
}

func JoinSegments(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return strings.TrimSpace(b.String())
}
