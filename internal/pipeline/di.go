package pipeline

import (
	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/foxseedlab/livejournal/internal/discord"
	"github.com/foxseedlab/livejournal/internal/document"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/foxseedlab/livejournal/internal/repository"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"github.com/foxseedlab/livejournal/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Runner, error) {
		cfg := do.MustInvoke[*config.Config](i)
		source := do.MustInvoke[audio.Source](i)
		segmenter := do.MustInvoke[audio.Segmenter](i)
		dispatcher := do.MustInvoke[*transcriber.Dispatcher](i)
		appender := do.MustInvoke[*document.Appender](i)
		repo := do.MustInvoke[repository.Repository](i)
		mirror := do.MustInvoke[*discord.Mirror](i)
		wh := do.MustInvoke[webhook.Sender](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewRunner(source, segmenter, dispatcher, appender, repo, mirror, wh, m, Config{
			QueueSize:         cfg.FrameQueueSize,
			CaptureBackend:    cfg.CaptureBackend,
			TranscribeBackend: cfg.TranscribeBackend,
		}), nil
	})
}
