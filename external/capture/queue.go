package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/metrics"
)

const blockedLogInterval = 5 * time.Second

// frameQueue pushes frames onto the bounded channel, blocking the producer
// when the consumer falls behind instead of dropping audio.
type frameQueue struct {
	out         chan<- audio.Frame
	metrics     *metrics.Metrics
	lastBlocked time.Time
}

func newFrameQueue(out chan<- audio.Frame, m *metrics.Metrics) *frameQueue {
	return &frameQueue{out: out, metrics: m}
}

func (q *frameQueue) push(ctx context.Context, frame audio.Frame) bool {
	select {
	case q.out <- frame:
		q.pushed()
		return true
	default:
	}

	q.metrics.FrameQueueBlocked.Inc()
	if now := time.Now(); now.Sub(q.lastBlocked) >= blockedLogInterval {
		q.lastBlocked = now
		slog.Warn("frame queue full; capture is waiting for the consumer", "capacity", cap(q.out), "frame_seq", frame.Seq)
	}
	select {
	case q.out <- frame:
		q.pushed()
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *frameQueue) pushed() {
	q.metrics.FramesCaptured.Inc()
	q.metrics.FrameQueueDepth.Set(float64(len(q.out)))
}
