//go:build webrtcvad

package vad

import (
	"fmt"
	"sync"

	"github.com/foxseedlab/livejournal/internal/audio"
	"github.com/maxhawkins/go-webrtcvad"
)

// WebRTCClassifier wraps the WebRTC voice activity detector. It accepts
// 10, 20 or 30 ms frames at 8, 16, 32 or 48 kHz.
type WebRTCClassifier struct {
	mu         sync.Mutex
	vad        *webrtcvad.VAD
	sampleRate int
}

func NewWebRTCClassifier(format audio.Format, mode int) (*WebRTCClassifier, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create webrtc vad: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("set webrtc vad mode %d: %w", mode, err)
	}
	if !v.ValidRateAndFrameLength(format.SampleRate, format.SamplesPerFrame()) {
		return nil, fmt.Errorf("webrtc vad does not accept %d Hz frames of %s", format.SampleRate, format.FrameDuration)
	}
	return &WebRTCClassifier{vad: v, sampleRate: format.SampleRate}, nil
}

func (c *WebRTCClassifier) Name() string {
	return "webrtc"
}

func (c *WebRTCClassifier) IsSpeech(samples []int16) (bool, error) {
	if len(samples) == 0 {
		return false, fmt.Errorf("empty frame")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vad.Process(c.sampleRate, audio.EncodePCM16(samples))
}
