package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/metrics"
)

const (
	stdinInput     = "-"
	readBufferSize = 4096
)

// StreamSource reads signed 16-bit little-endian mono PCM, e.g. from
// `arecord -f S16_LE -c 1 -r 16000 -t raw` on stdin. It closes the frame
// channel when the input ends.
//
// Stdin is never closed. Close interrupts a pending read with an expired
// read deadline when stdin is a pipe or socket the runtime can poll; on a
// terminal or regular file the read loop exits at the next read instead.
type StreamSource struct {
	input   string
	format  audio.Format
	metrics *metrics.Metrics
	open    func(string) (io.ReadCloser, error)

	mu     sync.Mutex
	reader io.ReadCloser
	done   chan struct{}
}

func NewStreamSource(input string, format audio.Format, m *metrics.Metrics) *StreamSource {
	return &StreamSource{
		input:   input,
		format:  format,
		metrics: m,
		open:    openInput,
	}
}

func openInput(input string) (io.ReadCloser, error) {
	if input == stdinInput {
		return deadlineCloser{f: os.Stdin}, nil
	}
	return os.Open(input)
}

// deadlineCloser leaves the file open and unblocks readers instead.
type deadlineCloser struct {
	f *os.File
}

func (d deadlineCloser) Read(p []byte) (int, error) {
	return d.f.Read(p)
}

func (d deadlineCloser) Close() error {
	err := d.f.SetReadDeadline(time.Now())
	if errors.Is(err, os.ErrNoDeadline) {
		slog.Debug("pcm input cannot be interrupted; waiting for next read", "input", d.f.Name())
		return nil
	}
	return err
}

func (s *StreamSource) Start(ctx context.Context, out chan<- audio.Frame) error {
	r, err := s.open(s.input)
	if err != nil {
		return fmt.Errorf("open pcm input %q: %w", s.input, err)
	}
	s.mu.Lock()
	s.reader = r
	s.done = make(chan struct{})
	s.mu.Unlock()

	slog.Info("pcm stream capture started", "input", s.input, "sample_rate", s.format.SampleRate, "frame_samples", s.format.SamplesPerFrame())
	go s.readLoop(ctx, r, out)
	return nil
}

func (s *StreamSource) readLoop(ctx context.Context, r io.Reader, out chan<- audio.Frame) {
	defer close(s.done)
	defer close(out)

	framer := audio.NewFramer(s.format)
	queue := newFrameQueue(out, s.metrics)
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, frame := range framer.Write(buf[:n]) {
				if !queue.push(ctx, frame) {
					return
				}
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				slog.Info("pcm input ended", "input", s.input, "dropped_tail_bytes", framer.Buffered())
			case errors.Is(err, os.ErrDeadlineExceeded):
				slog.Info("pcm input closed", "input", s.input)
			case ctx.Err() == nil:
				slog.Error("pcm input read failed", "error", err, "input", s.input)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *StreamSource) Close() error {
	s.mu.Lock()
	r := s.reader
	s.reader = nil
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.Close()
}

// Done is closed once the read loop has exited.
func (s *StreamSource) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
