package audio

import (
	"encoding/binary"
	"math"
	"sync"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

const bytesPerFrame = 2 * 4

// StreamReader adapts a SampleSource to the byte stream a float32 player
// pulls from.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	r.fill(frames)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	r.frames += int64(frames)
	return frames * bytesPerFrame, nil
}

// ReadFrames fills left and right directly, for backends that want
// non-interleaved buffers. Both slices must have the same length.
func (r *StreamReader) ReadFrames(left, right []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fill(len(left))
	for i := range left {
		left[i] = r.buf[2*i]
		right[i] = r.buf[2*i+1]
	}
	r.frames += int64(len(left))
}

func (r *StreamReader) fill(frames int) {
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
}

// Frames returns how many frames have been pulled so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }
