package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	SegmenterVoiceActivity = "voice-activity"
	SegmenterFixedWindow   = "fixed-window"
)

type segmenterState int

const (
	stateIdle segmenterState = iota
	stateAccumulating
)

func (s segmenterState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAccumulating:
		return "accumulating"
	default:
		return fmt.Sprintf("segmenterState(%d)", int(s))
	}
}

// VoiceActivitySegmenter starts a run on the first voiced frame, keeps
// every following frame (voiced or not) so short pauses do not split an
// utterance, and emits the run once it reaches the chunk duration.
type VoiceActivitySegmenter struct {
	format         Format
	classifier     Classifier
	framesPerChunk int

	state    segmenterState
	run      []Frame
	newID    func() string
	failures int
}

func NewVoiceActivitySegmenter(format Format, chunkDuration time.Duration, classifier Classifier) *VoiceActivitySegmenter {
	return &VoiceActivitySegmenter{
		format:         format,
		classifier:     classifier,
		framesPerChunk: framesForDuration(format, chunkDuration),
		newID:          uuid.NewString,
	}
}

func (s *VoiceActivitySegmenter) Name() string {
	return SegmenterVoiceActivity
}

func (s *VoiceActivitySegmenter) Push(frame Frame) (Chunk, bool) {
	voiced, err := s.classifier.IsSpeech(frame.Samples)
	if err != nil {
		s.failures++
		if s.failures == 1 || s.failures%500 == 0 {
			slog.Warn("voice activity classification failed; treating frame as unvoiced", "error", err, "frame_seq", frame.Seq, "classifier", s.classifier.Name(), "failures", s.failures)
		}
		voiced = false
	}

	switch s.state {
	case stateIdle:
		if !voiced {
			return Chunk{}, false
		}
		s.state = stateAccumulating
		s.run = append(s.run, frame)
	case stateAccumulating:
		s.run = append(s.run, frame)
	}

	if len(s.run) < s.framesPerChunk {
		return Chunk{}, false
	}
	chunk := concatFrames(s.newID(), s.run, s.format)
	chunk.Voiced = true
	s.Reset()
	return chunk, true
}

func (s *VoiceActivitySegmenter) Reset() {
	s.state = stateIdle
	s.run = nil
}

// Accumulated reports the duration of the run in progress.
func (s *VoiceActivitySegmenter) Accumulated() time.Duration {
	return time.Duration(len(s.run)) * s.format.FrameDuration
}

// FixedWindowSegmenter emits exactly chunkDuration worth of samples every
// time that much audio has been buffered, whatever it contains.
type FixedWindowSegmenter struct {
	format      Format
	chunkSample int

	buf      []int16
	firstSeq uint64
	lastSeq  uint64
	newID    func() string
}

// A window shorter than one frame is widened to one frame so each Push
// drains at most what it added.
func NewFixedWindowSegmenter(format Format, chunkDuration time.Duration) *FixedWindowSegmenter {
	chunkSample := format.SamplesFor(chunkDuration)
	if frameSamples := format.SamplesPerFrame(); chunkSample < frameSamples {
		chunkSample = frameSamples
	}
	return &FixedWindowSegmenter{
		format:      format,
		chunkSample: chunkSample,
		newID:       uuid.NewString,
	}
}

func (s *FixedWindowSegmenter) Name() string {
	return SegmenterFixedWindow
}

func (s *FixedWindowSegmenter) Push(frame Frame) (Chunk, bool) {
	if len(s.buf) == 0 {
		s.firstSeq = frame.Seq
	}
	s.buf = append(s.buf, frame.Samples...)
	s.lastSeq = frame.Seq
	if len(s.buf) < s.chunkSample {
		return Chunk{}, false
	}

	samples := make([]int16, s.chunkSample)
	copy(samples, s.buf[:s.chunkSample])
	chunk := Chunk{
		ID:       s.newID(),
		FirstSeq: s.firstSeq,
		LastSeq:  s.lastSeq,
		Samples:  samples,
		Duration: s.format.DurationOf(s.chunkSample),
	}

	rest := len(s.buf) - s.chunkSample
	if rest == 0 {
		s.buf = s.buf[:0]
		return chunk, true
	}
	copy(s.buf, s.buf[s.chunkSample:])
	s.buf = s.buf[:rest]
	s.firstSeq = s.lastSeq
	return chunk, true
}

func (s *FixedWindowSegmenter) Reset() {
	s.buf = s.buf[:0]
}

func (s *FixedWindowSegmenter) Buffered() int {
	return len(s.buf)
}

// NewSegmenter picks the voice activity strategy when a classifier is
// available and falls back to fixed windows otherwise.
func NewSegmenter(format Format, chunkDuration time.Duration, classifier Classifier, classifierErr error) Segmenter {
	if classifierErr != nil || classifier == nil {
		switch {
		case classifierErr == nil:
		case errors.Is(classifierErr, ErrClassifierUnavailable):
			slog.Warn("voice activity classifier unavailable; using fixed-window chunks", "reason", classifierErr.Error())
		default:
			slog.Warn("voice activity classifier failed to initialize; using fixed-window chunks", "error", classifierErr)
		}
		return NewFixedWindowSegmenter(format, chunkDuration)
	}
	slog.Info("using voice activity chunks", "classifier", classifier.Name())
	return NewVoiceActivitySegmenter(format, chunkDuration, classifier)
}

func framesForDuration(format Format, d time.Duration) int {
	n := int(d / format.FrameDuration)
	if time.Duration(n)*format.FrameDuration < d {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func concatFrames(id string, frames []Frame, format Format) Chunk {
	total := 0
	for _, f := range frames {
		total += len(f.Samples)
	}
	samples := make([]int16, 0, total)
	for _, f := range frames {
		samples = append(samples, f.Samples...)
	}
	return Chunk{
		ID:       id,
		FirstSeq: frames[0].Seq,
		LastSeq:  frames[len(frames)-1].Seq,
		Samples:  samples,
		Duration: time.Duration(len(frames)) * format.FrameDuration,
	}
}
