package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/discord"
	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"github.com/foxseedlab/livejournal/internal/webhook"
	"github.com/hashicorp/go-multierror"
)

const (
	defaultStatsInterval = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
)

type Config struct {
	QueueSize         int
	CaptureBackend    string
	TranscribeBackend string
	StatsInterval     time.Duration
	Now               func() time.Time
}

// Runner owns the single consumer loop: frames are segmented, each chunk
// is transcribed and appended before the next frame is read.
type Runner struct {
	source     audio.Source
	segmenter  audio.Segmenter
	dispatcher *transcriber.Dispatcher
	appender   *document.Appender
	repo       repository.Repository
	mirror     *discord.Mirror
	webhook    webhook.Sender
	metrics    *metrics.Metrics
	cfg        Config

	stats runStats
}

type runStats struct {
	frames      int64
	chunks      int64
	transcribed int64
	appended    int64
	failures    int64
}

func NewRunner(
	source audio.Source,
	segmenter audio.Segmenter,
	dispatcher *transcriber.Dispatcher,
	appender *document.Appender,
	repo repository.Repository,
	mirror *discord.Mirror,
	wh webhook.Sender,
	m *metrics.Metrics,
	cfg Config,
) *Runner {
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = defaultStatsInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		source:     source,
		segmenter:  segmenter,
		dispatcher: dispatcher,
		appender:   appender,
		repo:       repo,
		mirror:     mirror,
		webhook:    wh,
		metrics:    m,
		cfg:        cfg,
	}
}

// Run blocks until ctx is cancelled or the source closes its frame channel.
// Errors returned before the loop starts are startup failures; after that
// only shutdown errors are reported.
func (r *Runner) Run(ctx context.Context) error {
	session, err := r.repo.CreateSession(ctx, repository.CreateSessionInput{
		CaptureBackend:    r.cfg.CaptureBackend,
		SegmenterName:     r.segmenter.Name(),
		TranscribeBackend: r.cfg.TranscribeBackend,
		StartedAt:         r.cfg.Now(),
	})
	if err != nil {
		return fmt.Errorf("create capture session: %w", err)
	}

	frames := make(chan audio.Frame, r.cfg.QueueSize)
	if err := r.source.Start(ctx, frames); err != nil {
		return fmt.Errorf("start audio source: %w", err)
	}
	slog.Info("pipeline started",
		"session_id", session.ID,
		"capture_backend", r.cfg.CaptureBackend,
		"segmenter", r.segmenter.Name(),
		"transcribe_backend", r.cfg.TranscribeBackend,
		"queue_size", r.cfg.QueueSize,
		"document", r.appender.TodayPath())
	r.mirror.LogTarget()

	reason := r.consume(ctx, session.ID, frames)
	slog.Info("pipeline stopping", "session_id", session.ID, "reason", reason,
		"frames", r.stats.frames, "chunks", r.stats.chunks, "appended", r.stats.appended, "chunk_failures", r.stats.failures)
	return r.shutdown(session.ID)
}

func (r *Runner) consume(ctx context.Context, sessionID string, frames <-chan audio.Frame) string {
	statsTicker := time.NewTicker(r.cfg.StatsInterval)
	defer statsTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "context cancelled"
		case <-statsTicker.C:
			slog.Info("audio pipeline stats",
				"session_id", sessionID,
				"frames", r.stats.frames,
				"chunks", r.stats.chunks,
				"transcribed", r.stats.transcribed,
				"appended", r.stats.appended,
				"chunk_failures", r.stats.failures,
				"queue_depth", len(frames))
		case frame, ok := <-frames:
			if !ok {
				return "audio source closed"
			}
			r.stats.frames++
			r.metrics.FrameQueueDepth.Set(float64(len(frames)))
			chunk, emitted := r.segmenter.Push(frame)
			if !emitted {
				continue
			}
			r.processChunk(ctx, sessionID, int(r.stats.chunks), chunk)
			r.stats.chunks++
		}
	}
}

// processChunk never lets one chunk stop the loop.
func (r *Runner) processChunk(ctx context.Context, sessionID string, index int, chunk audio.Chunk) {
	defer func() {
		if rec := recover(); rec != nil {
			r.chunkFailed()
			slog.Error("panic while processing chunk", "panic", fmt.Sprint(rec), "session_id", sessionID, "chunk_id", chunk.ID, "first_frame", chunk.FirstSeq, "last_frame", chunk.LastSeq)
		}
	}()

	r.metrics.ChunksEmitted.WithLabelValues(r.segmenter.Name()).Inc()
	r.metrics.ChunkDuration.Observe(chunk.Duration.Seconds())

	text := r.dispatcher.Transcribe(ctx, chunk)
	if text == "" {
		r.metrics.EmptyTranscripts.Inc()
		slog.Debug("chunk produced no text", "chunk_id", chunk.ID, "first_frame", chunk.FirstSeq, "last_frame", chunk.LastSeq)
		return
	}
	r.stats.transcribed++

	result, err := r.appender.Append(text)
	if err != nil {
		r.chunkFailed()
		slog.Error("failed to append transcript", "error", err, "session_id", sessionID, "chunk_id", chunk.ID, "first_frame", chunk.FirstSeq, "last_frame", chunk.LastSeq)
		return
	}
	r.stats.appended++
	r.metrics.Appends.WithLabelValues(result.Outcome.String()).Inc()

	spokenAt := r.cfg.Now()
	if err := r.repo.InsertTranscript(ctx, repository.InsertTranscriptInput{
		SessionID:    sessionID,
		ChunkID:      chunk.ID,
		ChunkIndex:   index,
		FirstFrame:   chunk.FirstSeq,
		LastFrame:    chunk.LastSeq,
		Content:      text,
		DocumentPath: result.Path,
		Outcome:      result.Outcome.String(),
		SpokenAt:     spokenAt,
	}); err != nil {
		slog.Error("failed to archive transcript", "error", err, "session_id", sessionID, "chunk_id", chunk.ID)
	}
	if err := r.mirror.Post(spokenAt, text); err != nil {
		slog.Error("failed to mirror transcript", "error", err, "session_id", sessionID, "chunk_id", chunk.ID)
	}
}

func (r *Runner) chunkFailed() {
	r.stats.failures++
	r.metrics.ChunkFailures.Inc()
}

func (r *Runner) shutdown(sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := r.source.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close audio source: %w", err))
	}
	r.segmenter.Reset()

	if err := r.repo.CompleteSession(ctx, repository.CompleteSessionInput{
		SessionID:  sessionID,
		EndedAt:    r.cfg.Now(),
		ChunkCount: int(r.stats.chunks),
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("complete capture session: %w", err))
	}

	if r.stats.appended > 0 {
		if err := r.publishDocument(ctx, sessionID); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := r.mirror.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close discord mirror: %w", err))
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	slog.Info("pipeline stopped", "session_id", sessionID)
	return nil
}

func (r *Runner) publishDocument(ctx context.Context, sessionID string) error {
	path, body, err := r.appender.Snapshot()
	if err != nil {
		return fmt.Errorf("read document snapshot %s: %w", path, err)
	}
	if body == nil {
		return nil
	}
	filename := filepath.Base(path)
	date := strings.TrimSuffix(filename, filepath.Ext(filename))

	var result *multierror.Error
	if err := r.webhook.SendTranscript(ctx, webhook.Transcript{
		Filename:  filename,
		Body:      body,
		Date:      date,
		SessionID: sessionID,
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("send transcript webhook: %w", err))
	}
	if err := r.mirror.PostDocument(filename, body); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
