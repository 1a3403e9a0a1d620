package capture

import (
	"fmt"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Source, error) {
		c := do.MustInvoke[*config.Config](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewSource(c, m)
	})
}

func NewSource(c *config.Config, m *metrics.Metrics) (audio.Source, error) {
	format := formatOf(c)
	if err := format.Validate(); err != nil {
		return nil, err
	}
	switch c.CaptureBackend {
	case config.CaptureBackendMalgo:
		return NewMalgoSource(c.CaptureDevice, format, m), nil
	case config.CaptureBackendStream:
		return NewStreamSource(c.CaptureInput, format, m), nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", c.CaptureBackend)
	}
}

func formatOf(c *config.Config) audio.Format {
	return audio.Format{SampleRate: c.SampleRate, FrameDuration: c.FrameDuration()}
}
