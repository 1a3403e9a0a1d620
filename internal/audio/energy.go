package audio

import (
	"fmt"
	"math"
)

// EnergyClassifier marks a frame voiced when its RMS level, normalized to
// full scale, reaches the threshold.
type EnergyClassifier struct {
	threshold float64
}

func NewEnergyClassifier(threshold float64) (*EnergyClassifier, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("energy threshold must be between 0 and 1, got %f", threshold)
	}
	return &EnergyClassifier{threshold: threshold}, nil
}

func (c *EnergyClassifier) Name() string {
	return "energy"
}

func (c *EnergyClassifier) IsSpeech(samples []int16) (bool, error) {
	if len(samples) == 0 {
		return false, fmt.Errorf("empty frame")
	}
	return RMS(samples) >= c.threshold, nil
}

// RMS returns the root mean square level of samples in [0, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
