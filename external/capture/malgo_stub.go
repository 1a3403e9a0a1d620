//go:build !malgo

package capture

import (
	"context"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/metrics"
)

type MalgoSource struct{}

func NewMalgoSource(_ string, _ audio.Format, _ *metrics.Metrics) *MalgoSource {
	return &MalgoSource{}
}

func (s *MalgoSource) Start(_ context.Context, _ chan<- audio.Frame) error {
	return audio.ErrBackendUnavailable
}

func (s *MalgoSource) Close() error {
	return nil
}

func (s *MalgoSource) ListDevices() ([]audio.Device, error) {
	return nil, audio.ErrBackendUnavailable
}
