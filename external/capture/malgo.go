//go:build malgo

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/metrics"
	"github.com/gen2brain/malgo"
)

// MalgoSource captures from a system input device through miniaudio.
type MalgoSource struct {
	device  string
	format  audio.Format
	metrics *metrics.Metrics

	mu      sync.Mutex
	mctx    *malgo.AllocatedContext
	capture *malgo.Device
}

func NewMalgoSource(device string, format audio.Format, m *metrics.Metrics) *MalgoSource {
	return &MalgoSource{device: device, format: format, metrics: m}
}

func (s *MalgoSource) initContext() (*malgo.AllocatedContext, error) {
	return malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		message = strings.TrimSpace(message)
		if message == "" {
			return
		}
		if s.metrics != nil {
			s.metrics.DeviceWarnings.Inc()
		}
		slog.Warn("capture device status", "message", message)
	})
}

func (s *MalgoSource) Start(ctx context.Context, out chan<- audio.Frame) error {
	mctx, err := s.initContext()
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(s.format.SampleRate)
	cfg.PeriodSizeInFrames = uint32(s.format.SamplesPerFrame())

	name := "default"
	if s.device != "" {
		info, err := selectDevice(mctx, s.device)
		if err != nil {
			freeContext(mctx)
			return err
		}
		cfg.Capture.DeviceID = info.ID.Pointer()
		name = info.Name()
	}

	framer := audio.NewFramer(s.format)
	queue := newFrameQueue(out, s.metrics)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			for _, frame := range framer.Write(input) {
				if !queue.push(ctx, frame) {
					return
				}
			}
		},
	}
	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		freeContext(mctx)
		return fmt.Errorf("open capture device %q: %w", name, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		freeContext(mctx)
		return fmt.Errorf("start capture device %q: %w", name, err)
	}

	s.mu.Lock()
	s.mctx = mctx
	s.capture = device
	s.mu.Unlock()
	slog.Info("capture device started", "device", name, "sample_rate", s.format.SampleRate, "frame_samples", s.format.SamplesPerFrame())
	return nil
}

func (s *MalgoSource) Close() error {
	s.mu.Lock()
	device, mctx := s.capture, s.mctx
	s.capture, s.mctx = nil, nil
	s.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if mctx != nil {
		freeContext(mctx)
	}
	return nil
}

func (s *MalgoSource) ListDevices() ([]audio.Device, error) {
	mctx, err := s.initContext()
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer freeContext(mctx)

	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	devices := make([]audio.Device, 0, len(infos))
	for i, info := range infos {
		devices = append(devices, audio.Device{
			Index:   i,
			ID:      info.ID.String(),
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return devices, nil
}

// selectDevice accepts a device index or a case-insensitive name fragment.
func selectDevice(mctx *malgo.AllocatedContext, want string) (malgo.DeviceInfo, error) {
	infos, err := mctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceInfo{}, fmt.Errorf("enumerate capture devices: %w", err)
	}
	if idx, err := strconv.Atoi(want); err == nil {
		if idx < 0 || idx >= len(infos) {
			return malgo.DeviceInfo{}, fmt.Errorf("capture device index %d out of range (found %d devices)", idx, len(infos))
		}
		return infos[idx], nil
	}
	needle := strings.ToLower(want)
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			return info, nil
		}
	}
	return malgo.DeviceInfo{}, fmt.Errorf("no capture device matches %q", want)
}

func freeContext(mctx *malgo.AllocatedContext) {
	if err := mctx.Uninit(); err != nil {
		slog.Warn("failed to release audio context", "error", err)
	}
	mctx.Free()
}
