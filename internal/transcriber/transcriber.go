package transcriber

import (
	"context"
	"strings"
)

// LanguageAuto asks the engine to detect the spoken language itself.
const LanguageAuto = "auto"

type Request struct {
	// Samples are mono and normalized to [-1.0, 1.0].
	Samples    []float32
	SampleRate int
	// Language is a BCP-47 style hint; empty means auto-detect.
	Language  string
	VADFilter bool
}

type Segment struct {
	Text string
}

// Engine is a speech recognition backend. Segment boundaries carry no
// meaning relative to words.
type Engine interface {
	Transcribe(ctx context.Context, req Request) ([]Segment, error)
	Name() string
	Close() error
}

func LanguageHint(language string) string {
	language = strings.TrimSpace(language)
	if strings.EqualFold(language, LanguageAuto) {
		return ""
	}
	return language
}

// silenceFloor is the whole-chunk RMS below which a VAD-filtered request is
// answered without calling the engine.
const silenceFloor = 0.003

// IsSilent reports whether normalized samples stay below the silence floor.
func IsSilent(samples []float32) bool {
	if len(samples) == 0 {
		return true
	}
	var sum float64
	for _, v := range samples {
		sum += float64(v) * float64(v)
	}
	return sum/float64(len(samples)) < silenceFloor*silenceFloor
}
