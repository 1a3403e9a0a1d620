package vad

import (
	"fmt"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
)

// NewClassifier builds the configured classifier. A nil classifier with a
// nil error means voice activity detection is switched off.
func NewClassifier(c *config.Config, format audio.Format) (audio.Classifier, error) {
	switch c.VADBackend {
	case config.VADBackendWebRTC:
		v, err := NewWebRTCClassifier(format, c.VADMode)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.VADBackendEnergy:
		e, err := audio.NewEnergyClassifier(c.VADEnergyThreshold)
		if err != nil {
			return nil, err
		}
		return e, nil
	case config.VADBackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown vad backend %q", c.VADBackend)
	}
}

func NewSegmenter(c *config.Config) (audio.Segmenter, error) {
	format := audio.Format{SampleRate: c.SampleRate, FrameDuration: c.FrameDuration()}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(c, format)
	if err == nil && classifier == nil {
		return audio.NewFixedWindowSegmenter(format, c.ChunkDuration()), nil
	}
	return audio.NewSegmenter(format, c.ChunkDuration(), classifier, err), nil
}
