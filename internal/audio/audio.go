package audio

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrBackendUnavailable    = errors.New("capture backend is not available in this build")
	ErrClassifierUnavailable = errors.New("voice activity classifier is not available")
)

// Format is fixed for the lifetime of the process.
type Format struct {
	SampleRate    int
	FrameDuration time.Duration
}

func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.FrameDuration <= 0 {
		return fmt.Errorf("frame duration must be positive, got %s", f.FrameDuration)
	}
	if f.SamplesPerFrame() == 0 {
		return fmt.Errorf("frame duration %s is shorter than one sample at %d Hz", f.FrameDuration, f.SampleRate)
	}
	return nil
}

func (f Format) SamplesPerFrame() int {
	return int(int64(f.SampleRate) * int64(f.FrameDuration) / int64(time.Second))
}

func (f Format) BytesPerFrame() int {
	return f.SamplesPerFrame() * 2
}

func (f Format) SamplesFor(d time.Duration) int {
	return int(int64(f.SampleRate) * int64(d) / int64(time.Second))
}

func (f Format) DurationOf(samples int) time.Duration {
	return time.Duration(int64(samples) * int64(time.Second) / int64(f.SampleRate))
}

// Frame holds exactly Format.SamplesPerFrame mono samples. Frames are not
// modified after they are produced.
type Frame struct {
	Seq     uint64
	Samples []int16
}

type Chunk struct {
	ID       string
	FirstSeq uint64
	LastSeq  uint64
	Samples  []int16
	Duration time.Duration
	// Voiced is true when the chunk was cut by the voice activity strategy.
	Voiced bool
}

type Device struct {
	Index   int
	ID      string
	Name    string
	Default bool
}

// Source delivers frames to out until it is closed, the context ends or
// the underlying input is exhausted. Start returns once capture is running;
// an error from Start means the device could not be opened.
type Source interface {
	Start(ctx context.Context, out chan<- Frame) error
	Close() error
}

type DeviceLister interface {
	ListDevices() ([]Device, error)
}

// Classifier decides whether one frame contains speech.
type Classifier interface {
	IsSpeech(samples []int16) (bool, error)
	Name() string
}

type Segmenter interface {
	// Push consumes one frame and returns a chunk when one is complete.
	Push(frame Frame) (Chunk, bool)
	Reset()
	Name() string
}
