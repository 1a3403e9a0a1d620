package audio

import "encoding/binary"

// Framer re-cuts device buffers of arbitrary size into fixed frames.
type Framer struct {
	frameBytes int
	pending    []byte
	nextSeq    uint64
}

func NewFramer(format Format) *Framer {
	return &Framer{
		frameBytes: format.BytesPerFrame(),
		pending:    make([]byte, 0, format.BytesPerFrame()*2),
	}
}

// Write appends little-endian signed 16-bit PCM and returns every frame
// that became complete. Incomplete tails are kept for the next call.
func (f *Framer) Write(pcm []byte) []Frame {
	f.pending = append(f.pending, pcm...)
	if len(f.pending) < f.frameBytes {
		return nil
	}
	frames := make([]Frame, 0, len(f.pending)/f.frameBytes)
	off := 0
	for len(f.pending)-off >= f.frameBytes {
		frames = append(frames, Frame{
			Seq:     f.nextSeq,
			Samples: DecodePCM16(f.pending[off : off+f.frameBytes]),
		})
		f.nextSeq++
		off += f.frameBytes
	}
	n := copy(f.pending, f.pending[off:])
	f.pending = f.pending[:n]
	return frames
}

func (f *Framer) Buffered() int {
	return len(f.pending)
}

func DecodePCM16(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

func EncodePCM16(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// Normalize maps int16 samples onto [-1.0, 1.0).
func Normalize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Denormalize is the inverse of Normalize, clamping values outside [-1, 1].
func Denormalize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = clampPCM(int32(v * 32768.0))
	}
	return out
}

func clampPCM(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
