package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/livejournal/internal/config"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/foxseedlab/livejournal/internal/transcriber"
	"github.com/samber/do/v2"
)

const engineInitTimeout = 30 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Engine, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewEngine(c)
	})
	do.Provide(injector, func(i do.Injector) (*transcriber.Dispatcher, error) {
		c := do.MustInvoke[*config.Config](i)
		engine := do.MustInvoke[transcriber.Engine](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return transcriber.NewDispatcher(engine, transcriber.DispatcherConfig{
			SampleRate: c.SampleRate,
			Language:   c.TranscribeLanguage,
			VADFilter:  c.TranscribeVADFilter,
		}, m), nil
	})
}

func NewEngine(c *config.Config) (transcriber.Engine, error) {
	switch c.TranscribeBackend {
	case config.TranscribeBackendCloudSpeech:
		ctx, cancel := context.WithTimeout(context.Background(), engineInitTimeout)
		defer cancel()
		return NewCloudSpeechEngine(ctx, CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.TranscribeModel,
		})
	case config.TranscribeBackendOpenAI:
		return NewOpenAIEngine(OpenAIConfig{
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.TranscribeModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transcribe backend %q", c.TranscribeBackend)
	}
}
