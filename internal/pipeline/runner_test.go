package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	docstore "github.com/foxseedlab/livejournal/external/document"
	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/discord"
	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"github.com/foxseedlab/livejournal/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var testDay = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeSource struct {
	frames   []audio.Frame
	keepOpen bool
	startErr error
	closed   bool
}

func (s *fakeSource) Start(ctx context.Context, out chan<- audio.Frame) error {
	if s.startErr != nil {
		return s.startErr
	}
	go func() {
		for _, f := range s.frames {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
		if !s.keepOpen {
			close(out)
		}
	}()
	return nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func framesN(n int) []audio.Frame {
	frames := make([]audio.Frame, n)
	for i := range frames {
		frames[i] = audio.Frame{Seq: uint64(i), Samples: []int16{100, -100, 100}}
	}
	return frames
}

// everyFrameSegmenter turns each frame into its own chunk.
type everyFrameSegmenter struct{}

func (everyFrameSegmenter) Name() string { return "every-frame" }
func (everyFrameSegmenter) Reset()       {}
func (everyFrameSegmenter) Push(f audio.Frame) (audio.Chunk, bool) {
	return audio.Chunk{
		ID:       fmt.Sprintf("chunk-%d", f.Seq),
		FirstSeq: f.Seq,
		LastSeq:  f.Seq,
		Samples:  f.Samples,
		Duration: 20 * time.Millisecond,
	}, true
}

type scriptedEngine struct {
	calls   int
	failOn  map[int]bool
	panicOn map[int]bool
}

func (e *scriptedEngine) Name() string { return "scripted" }
func (e *scriptedEngine) Close() error { return nil }
func (e *scriptedEngine) Transcribe(_ context.Context, _ transcriber.Request) ([]transcriber.Segment, error) {
	e.calls++
	if e.panicOn[e.calls] {
		panic("engine exploded")
	}
	if e.failOn[e.calls] {
		return nil, errors.New("engine unavailable")
	}
	return []transcriber.Segment{{Text: fmt.Sprintf(" t%d ", e.calls)}}, nil
}

type recordingRepo struct {
	mu          sync.Mutex
	transcripts []repository.InsertTranscriptInput
	completed   *repository.CompleteSessionInput
	createErr   error
}

func (r *recordingRepo) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &repository.Session{ID: "session-1", StartedAt: input.StartedAt, Status: repository.SessionStatusRunning}, nil
}

func (r *recordingRepo) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = &input
	return nil
}

func (r *recordingRepo) InsertTranscript(_ context.Context, input repository.InsertTranscriptInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, input)
	return nil
}

type recordingSender struct {
	sent []webhook.Transcript
	err  error
}

func (s *recordingSender) SendTranscript(_ context.Context, t webhook.Transcript) error {
	s.sent = append(s.sent, t)
	return s.err
}

type recordingDiscord struct {
	messages []string
	files    []discord.FileMessage
}

func (d *recordingDiscord) SendChannelMessage(_, content string) error {
	d.messages = append(d.messages, content)
	return nil
}

func (d *recordingDiscord) SendChannelMessageWithFile(msg discord.FileMessage) error {
	d.files = append(d.files, msg)
	return nil
}

func (d *recordingDiscord) ResolveChannelName(channelID string) string { return channelID }
func (d *recordingDiscord) Close() error                               { return nil }

type countingViewer struct {
	opened []string
}

func (v *countingViewer) Open(path string) error {
	v.opened = append(v.opened, path)
	return nil
}

type lockableStore struct {
	*docstore.MarkdownStore
	locked bool
}

func (s *lockableStore) Replace(tmpPath, path string) (document.ReplaceOutcome, error) {
	if s.locked {
		return document.ReplaceLocked, nil
	}
	return s.MarkdownStore.Replace(tmpPath, path)
}

type harness struct {
	dir     string
	source  *fakeSource
	engine  *scriptedEngine
	store   *lockableStore
	repo    *recordingRepo
	sender  *recordingSender
	discord *recordingDiscord
	viewer  *countingViewer
	console *bytes.Buffer
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, frames int) *harness {
	t.Helper()
	dir := t.TempDir()
	md, err := docstore.NewMarkdownStore(dir)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return &harness{
		dir:     dir,
		source:  &fakeSource{frames: framesN(frames)},
		engine:  &scriptedEngine{failOn: map[int]bool{}, panicOn: map[int]bool{}},
		store:   &lockableStore{MarkdownStore: md},
		repo:    &recordingRepo{},
		sender:  &recordingSender{},
		discord: &recordingDiscord{},
		viewer:  &countingViewer{},
		console: &bytes.Buffer{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

func (h *harness) runner() *Runner {
	now := func() time.Time { return testDay }
	dispatcher := transcriber.NewDispatcher(h.engine, transcriber.DispatcherConfig{SampleRate: 16000, Language: "auto"}, h.metrics)
	appender := document.NewAppender(h.store, h.viewer, h.console, &document.State{}, document.AppenderConfig{
		Title:    "Live Journal",
		Location: time.UTC,
		Now:      now,
	})
	return NewRunner(h.source, everyFrameSegmenter{}, dispatcher, appender, h.repo,
		discord.NewMirror(h.discord, "chan-1"), h.sender, h.metrics,
		Config{QueueSize: 4, CaptureBackend: "stream", TranscribeBackend: "scripted", Now: now})
}

func (h *harness) document(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(h.dir, "2026-03-01.md"))
	if err != nil {
		t.Fatalf("failed to read document: %v", err)
	}
	return string(b)
}

func TestRunner_FailedChunkIsSkipped(t *testing.T) {
	h := newHarness(t, 10)
	h.engine.failOn[5] = true

	if err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	doc := h.document(t)
	if !strings.Contains(doc, "t1 t2 t3 t4 t6 t7 t8 t9 t10") {
		t.Fatalf("expected nine texts in capture order, got:\n%s", doc)
	}
	if strings.Count(doc, "\n## ") != 1 {
		t.Fatalf("expected exactly one timestamp heading, got:\n%s", doc)
	}
	if len(h.repo.transcripts) != 9 {
		t.Fatalf("expected 9 archived transcripts, got %d", len(h.repo.transcripts))
	}
	if h.repo.transcripts[4].ChunkID != "chunk-5" || h.repo.transcripts[4].ChunkIndex != 5 {
		t.Fatalf("unexpected fifth archived transcript: %+v", h.repo.transcripts[4])
	}
	if h.repo.completed == nil || h.repo.completed.ChunkCount != 10 {
		t.Fatalf("expected session completed with 10 chunks, got %+v", h.repo.completed)
	}
	if got := testutil.ToFloat64(h.metrics.TranscriptionErrors); got != 1 {
		t.Fatalf("expected one transcription error, got %v", got)
	}
	if got := testutil.ToFloat64(h.metrics.EmptyTranscripts); got != 1 {
		t.Fatalf("expected one empty transcript, got %v", got)
	}
	if !h.source.closed {
		t.Fatalf("expected source to be closed")
	}
}

func TestRunner_PanicInChunkDoesNotStopLoop(t *testing.T) {
	h := newHarness(t, 3)
	h.engine.panicOn[2] = true

	if err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(h.document(t), "t1 t3") {
		t.Fatalf("expected chunks around the panic to be appended, got:\n%s", h.document(t))
	}
	if got := testutil.ToFloat64(h.metrics.ChunkFailures); got != 1 {
		t.Fatalf("expected one chunk failure, got %v", got)
	}
}

func TestRunner_MirrorsAndPublishesDocument(t *testing.T) {
	h := newHarness(t, 2)

	if err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(h.discord.messages) != 2 || h.discord.messages[0] != "`09:30:00` t1" {
		t.Fatalf("unexpected discord messages: %q", h.discord.messages)
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one webhook call, got %d", len(h.sender.sent))
	}
	sent := h.sender.sent[0]
	if sent.Filename != "2026-03-01.md" || sent.Date != "2026-03-01" || sent.SessionID != "session-1" {
		t.Fatalf("unexpected webhook transcript: %+v", sent)
	}
	if string(sent.Body) != h.document(t) {
		t.Fatalf("webhook body does not match document:\n%s", sent.Body)
	}
	if len(h.discord.files) != 1 {
		t.Fatalf("expected document posted to discord, got %d files", len(h.discord.files))
	}
}

func TestRunner_LockedDocumentFallsBackToConsole(t *testing.T) {
	h := newHarness(t, 3)
	h.store.locked = true

	if err := h.runner().Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := h.console.String(); got != "t1\nt2\nt3\n" {
		t.Fatalf("unexpected console output: %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "2026-03-01.md")); !os.IsNotExist(err) {
		t.Fatalf("expected destination to be untouched, stat err=%v", err)
	}
	if len(h.viewer.opened) != 1 {
		t.Fatalf("expected viewer opened once, got %d", len(h.viewer.opened))
	}
	if got := testutil.ToFloat64(h.metrics.Appends.WithLabelValues(document.ReplaceLocked.String())); got != 3 {
		t.Fatalf("expected 3 locked appends, got %v", got)
	}
	if len(h.sender.sent) != 1 || !strings.Contains(string(h.sender.sent[0].Body), "t1 t2 t3") {
		t.Fatalf("expected webhook to carry the pending temp document, got %+v", h.sender.sent)
	}
}

func TestRunner_StopsOnContextCancel(t *testing.T) {
	h := newHarness(t, 0)
	h.source.keepOpen = true

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.runner().Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if h.repo.completed == nil {
		t.Fatalf("expected session to be completed")
	}
	if len(h.sender.sent) != 0 {
		t.Fatalf("expected no webhook without appended text")
	}
}

func TestRunner_StartupFailures(t *testing.T) {
	h := newHarness(t, 0)
	h.source.startErr = audio.ErrBackendUnavailable
	if err := h.runner().Run(context.Background()); !errors.Is(err, audio.ErrBackendUnavailable) {
		t.Fatalf("expected backend unavailable error, got %v", err)
	}

	h = newHarness(t, 0)
	h.repo.createErr = errors.New("db down")
	if err := h.runner().Run(context.Background()); err == nil {
		t.Fatalf("expected error when the session cannot be created")
	}
}

func TestRunner_ShutdownErrorsAreCombined(t *testing.T) {
	h := newHarness(t, 1)
	h.sender.err = errors.New("webhook down")

	err := h.runner().Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "webhook down") {
		t.Fatalf("expected webhook error in shutdown result, got %v", err)
	}
}
