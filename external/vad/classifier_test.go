package vad

import (
	"testing"
	"time"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/foxseedlab/livejournal/internal/config"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		SampleRate:         16000,
		FrameMS:            30,
		ChunkSec:           2,
		VADBackend:         backend,
		VADMode:            3,
		VADEnergyThreshold: 0.01,
	}
}

func TestNewSegmenter_Backends(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{backend: config.VADBackendEnergy, want: audio.SegmenterVoiceActivity},
		{backend: config.VADBackendNone, want: audio.SegmenterFixedWindow},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			seg, err := NewSegmenter(testConfig(tt.backend))
			if err != nil {
				t.Fatalf("NewSegmenter returned error: %v", err)
			}
			if seg.Name() != tt.want {
				t.Fatalf("expected %s segmenter, got %s", tt.want, seg.Name())
			}
		})
	}
}

func TestNewSegmenter_WebRTCFallsBackWhenUnavailable(t *testing.T) {
	seg, err := NewSegmenter(testConfig(config.VADBackendWebRTC))
	if err != nil {
		t.Fatalf("NewSegmenter returned error: %v", err)
	}
	if _, err := NewWebRTCClassifier(audio.Format{SampleRate: 16000, FrameDuration: 30 * time.Millisecond}, 3); err != nil {
		if seg.Name() != audio.SegmenterFixedWindow {
			t.Fatalf("expected fixed-window fallback, got %s", seg.Name())
		}
		return
	}
	if seg.Name() != audio.SegmenterVoiceActivity {
		t.Fatalf("expected voice-activity segmenter, got %s", seg.Name())
	}
}

func TestNewSegmenter_InvalidThresholdFallsBack(t *testing.T) {
	c := testConfig(config.VADBackendEnergy)
	c.VADEnergyThreshold = 2
	seg, err := NewSegmenter(c)
	if err != nil {
		t.Fatalf("NewSegmenter returned error: %v", err)
	}
	if seg.Name() != audio.SegmenterFixedWindow {
		t.Fatalf("expected fixed-window fallback, got %s", seg.Name())
	}
}

func TestNewSegmenter_InvalidFormat(t *testing.T) {
	c := testConfig(config.VADBackendNone)
	c.FrameMS = 0
	if _, err := NewSegmenter(c); err == nil {
		t.Fatalf("expected error for zero frame duration")
	}
}
