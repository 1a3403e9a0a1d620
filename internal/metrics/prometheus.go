package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livejournal"

type Metrics struct {
	registry *prometheus.Registry

	FramesCaptured      prometheus.Counter
	FrameQueueDepth     prometheus.Gauge
	FrameQueueBlocked   prometheus.Counter
	DeviceWarnings      prometheus.Counter
	ChunksEmitted       *prometheus.CounterVec
	ChunkDuration       prometheus.Histogram
	TranscriptionTime   prometheus.Histogram
	TranscriptionErrors prometheus.Counter
	EmptyTranscripts    prometheus.Counter
	Appends             *prometheus.CounterVec
	ChunkFailures       prometheus.Counter
}

func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FramesCaptured: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_captured_total",
			Help:      "Audio frames pushed onto the frame queue",
		}),
		FrameQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_queue_depth",
			Help:      "Frames waiting for the consumer",
		}),
		FrameQueueBlocked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_queue_blocked_total",
			Help:      "Times the capture producer waited on a full frame queue",
		}),
		DeviceWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_warnings_total",
			Help:      "Non-fatal status reports from the capture device",
		}),
		ChunksEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_emitted_total",
			Help:      "Chunks produced by the segmenter",
		}, []string{"segmenter"}),
		ChunkDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Audio duration of emitted chunks",
			Buckets:   []float64{1, 2, 3, 4, 5, 7.5, 10, 15, 30},
		}),
		TranscriptionTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_duration_seconds",
			Help:      "Wall time of transcription engine calls",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		TranscriptionErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Transcription engine calls that failed",
		}),
		EmptyTranscripts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_transcripts_total",
			Help:      "Chunks that produced no text",
		}),
		Appends: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_appends_total",
			Help:      "Document appends by outcome",
		}, []string{"outcome"}),
		ChunkFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_failures_total",
			Help:      "Chunks whose processing failed and was skipped",
		}),
	}
}

// ObserveTranscription records one engine call.
func (m *Metrics) ObserveTranscription(d time.Duration, err error) {
	m.TranscriptionTime.Observe(d.Seconds())
	if err != nil {
		m.TranscriptionErrors.Inc()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	slog.Info("metrics listener started", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
