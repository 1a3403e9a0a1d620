package audio

import "testing"

func TestEnergyClassifier(t *testing.T) {
	c, err := NewEnergyClassifier(0.02)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	silence := make([]int16, 320)
	voiced, err := c.IsSpeech(silence)
	if err != nil || voiced {
		t.Fatalf("silence classified voiced=%v err=%v", voiced, err)
	}

	loud := make([]int16, 320)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 4000
		} else {
			loud[i] = -4000
		}
	}
	voiced, err = c.IsSpeech(loud)
	if err != nil || !voiced {
		t.Fatalf("loud frame classified voiced=%v err=%v", voiced, err)
	}

	if _, err := c.IsSpeech(nil); err == nil {
		t.Fatal("expected error for empty frame")
	}
}

func TestNewEnergyClassifier_RejectsBadThreshold(t *testing.T) {
	for _, th := range []float64{0, -0.5, 1, 3} {
		if _, err := NewEnergyClassifier(th); err == nil {
			t.Fatalf("expected error for threshold %f", th)
		}
	}
}
