package polyosc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"

	"github.com/cbegin/polyosc-go/internal/effects"
	"github.com/cbegin/polyosc-go/internal/engine"
	"github.com/cbegin/polyosc-go/internal/sndgen"
)

// renderPacer advances time by rendering audio instead of sleeping. Each
// Wait renders one tick's worth of frames from the generator into out.
type renderPacer struct {
	gen        *sndgen.Generator
	effects    *effects.Chain
	out        []float32
	pos        int
	sampleRate int
}

func (r *renderPacer) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frames := int(math.Round(d.Seconds() * float64(r.sampleRate)))
	end := r.pos + frames*2
	if end > len(r.out) {
		end = len(r.out)
	}
	chunk := r.out[r.pos:end]
	r.gen.Process(chunk)
	r.effects.ProcessInterleaved(chunk)
	r.pos = end
	return nil
}

// RenderSamples renders seconds of interleaved stereo audio without real
// time elapsing. The output is deterministic for a given seed and options.
func RenderSamples(sampleRate int, seconds float64, opts ...PlayerOption) []float32 {
	if sampleRate <= 0 || seconds <= 0 {
		return nil
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	frames := int(float64(sampleRate) * seconds)
	framesPerTick := int(math.Round(cfg.interval.Seconds() * float64(sampleRate)))
	if framesPerTick < 1 {
		framesPerTick = 1
	}
	ticks := (frames + framesPerTick - 1) / framesPerTick

	eng := cfg.newEngine()
	pacer := &renderPacer{
		gen:        sndgen.New(sampleRate, sndgen.DefaultParams()),
		effects:    cfg.newEffects(sampleRate),
		out:        make([]float32, frames*2),
		sampleRate: sampleRate,
	}
	_ = eng.Run(context.Background(), engine.RunConfig{
		Audio:    pacer.gen,
		Pacer:    pacer,
		Interval: cfg.interval,
		MaxTicks: uint64(ticks),
	})
	if cfg.sampleTap != nil {
		cfg.sampleTap(pacer.out)
	}
	return pacer.out
}

// RenderTicks runs n ticks and returns every frame.
func RenderTicks(n int, opts ...PlayerOption) []engine.Frame {
	if n <= 0 {
		return nil
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	eng := cfg.newEngine()
	out := make([]engine.Frame, n)
	for i := range out {
		eng.TickInto(&out[i])
	}
	return out
}

// WriteWAV writes samples as an IEEE float32 WAV stream.
func WriteWAV(w io.Writer, samples []float32, sampleRate int, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return errors.New("wav: sample rate and channels must be positive")
	}
	dataSize := uint32(len(samples) * 4)
	header := struct {
		RIFF          [4]byte
		ChunkSize     uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        3, // IEEE float
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 4),
		BlockAlign:    uint16(channels * 4),
		BitsPerSample: 32,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

// EncodeWAVFloat32LE returns samples as an in-memory WAV file.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	var buf bytes.Buffer
	buf.Grow(44 + len(samples)*4)
	if err := WriteWAV(&buf, samples, sampleRate, channels); err != nil {
		return nil
	}
	return buf.Bytes()
}
