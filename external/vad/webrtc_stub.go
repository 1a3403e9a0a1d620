//go:build !webrtcvad

package vad

import (
	"fmt"

	"github.com/foxseedlab/livejournal/internal/audio"
)

type WebRTCClassifier struct{}

func NewWebRTCClassifier(_ audio.Format, _ int) (*WebRTCClassifier, error) {
	return nil, fmt.Errorf("webrtc vad not compiled in (build with -tags webrtcvad): %w", audio.ErrClassifierUnavailable)
}

func (c *WebRTCClassifier) Name() string {
	return "webrtc"
}

func (c *WebRTCClassifier) IsSpeech(_ []int16) (bool, error) {
	return false, audio.ErrClassifierUnavailable
}
