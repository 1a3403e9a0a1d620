package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func pcmRamp(n int, start int16) []byte {
	b := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(start+int16(i)))
	}
	return b
}

func TestFramer_RecutsArbitraryBuffers(t *testing.T) {
	format := Format{SampleRate: 8000, FrameDuration: 10 * time.Millisecond}
	framer := NewFramer(format)

	input := pcmRamp(1000, 0)
	var frames []Frame
	for _, size := range []int{7, 160, 1, 333, 999, 500} {
		if size > len(input) {
			size = len(input)
		}
		frames = append(frames, framer.Write(input[:size])...)
		input = input[size:]
	}
	frames = append(frames, framer.Write(input)...)

	if len(frames) != 1000/format.SamplesPerFrame() {
		t.Fatalf("expected %d frames, got %d", 1000/format.SamplesPerFrame(), len(frames))
	}
	var want int16
	for i, f := range frames {
		if f.Seq != uint64(i) {
			t.Fatalf("frame %d has seq %d", i, f.Seq)
		}
		if len(f.Samples) != format.SamplesPerFrame() {
			t.Fatalf("frame %d has %d samples", i, len(f.Samples))
		}
		for _, s := range f.Samples {
			if s != want {
				t.Fatalf("frame %d out of order: got %d want %d", i, s, want)
			}
			want++
		}
	}
	if framer.Buffered() != (1000%format.SamplesPerFrame())*2 {
		t.Fatalf("unexpected buffered tail: %d", framer.Buffered())
	}
}

func TestFramer_FramesDoNotAliasInput(t *testing.T) {
	format := Format{SampleRate: 1000, FrameDuration: 10 * time.Millisecond}
	framer := NewFramer(format)

	buf := pcmRamp(15, 1)
	frames := framer.Write(buf)
	for i := range buf {
		buf[i] = 0
	}
	frames = append(frames, framer.Write(pcmRamp(5, 16))...)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Samples[0] != 1 || frames[1].Samples[0] != 11 || frames[1].Samples[9] != 20 {
		t.Fatalf("unexpected frame content: %v %v", frames[0].Samples, frames[1].Samples)
	}
}

func TestNormalize_Range(t *testing.T) {
	got := Normalize([]int16{math.MinInt16, 0, math.MaxInt16, 16384})
	if got[0] != -1.0 {
		t.Fatalf("min sample should map to -1, got %f", got[0])
	}
	if got[1] != 0 {
		t.Fatalf("zero should map to 0, got %f", got[1])
	}
	if got[2] >= 1.0 || got[2] < 0.9999 {
		t.Fatalf("max sample should map just below 1, got %f", got[2])
	}
	if got[3] != 0.5 {
		t.Fatalf("half scale should map to 0.5, got %f", got[3])
	}
	back := Denormalize(got)
	if back[0] != math.MinInt16 || back[2] != math.MaxInt16 || back[3] != 16384 {
		t.Fatalf("unexpected round trip: %v", back)
	}
	if clamped := Denormalize([]float32{2, -2}); clamped[0] != math.MaxInt16 || clamped[1] != math.MinInt16 {
		t.Fatalf("expected clamping, got %v", clamped)
	}
}

func TestPCM16_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, math.MaxInt16, math.MinInt16}
	got := DecodePCM16(EncodePCM16(samples))
	for i := range samples {
		if got[i] != samples[i] {
			t.Fatalf("sample %d: got %d want %d", i, got[i], samples[i])
		}
	}
}

func TestFormat_Validate(t *testing.T) {
	if err := (Format{SampleRate: 16000, FrameDuration: 20 * time.Millisecond}).Validate(); err != nil {
		t.Fatalf("expected valid format, got %v", err)
	}
	if err := (Format{SampleRate: 0, FrameDuration: 20 * time.Millisecond}).Validate(); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if err := (Format{SampleRate: 100, FrameDuration: time.Millisecond}).Validate(); err == nil {
		t.Fatal("expected error for sub-sample frame")
	}
}
