// Package sndgen renders the oscillator bank to stereo audio. It stands in
// for the tone-generator peripheral: it takes one set of (frequency,
// amplitude) pairs per tick and holds them until the next set arrives.
package sndgen

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cbegin/polyosc-go/internal/bank"
	"github.com/cbegin/polyosc-go/internal/drift"
)

const (
	tableBits  = 10
	tableSize  = 1 << tableBits
	phaseShift = 32 - tableBits
	phaseScale = 1 << 32
)

var sineTable = func() [tableSize]float32 {
	var t [tableSize]float32
	for i := range t {
		t[i] = float32(math.Sin(2 * math.Pi * float64(i) / tableSize))
	}
	return t
}()

type Params struct {
	// MasterGain scales the summed voices. Zero selects 1/NumOscillators.
	MasterGain float64
}

func DefaultParams() Params {
	return Params{MasterGain: 1.0 / bank.NumOscillators}
}

type voice struct {
	phase uint32
	inc   uint32
	left  float32
	right float32
}

// Generator is safe for one writer calling SetVoices while the audio
// thread calls Process.
type Generator struct {
	mu         sync.Mutex
	sampleRate float64
	voices     [bank.NumOscillators]voice
	freq       [bank.NumOscillators]int32
	amp        [bank.NumOscillators]int16
	masterGain uint64
}

func New(sampleRate int, params Params) *Generator {
	if params.MasterGain <= 0 {
		params.MasterGain = DefaultParams().MasterGain
	}
	return &Generator{
		sampleRate: float64(sampleRate),
		masterGain: math.Float64bits(params.MasterGain),
	}
}

// SetVoices latches new frequencies and amplitudes. Phases carry over so
// pitch changes are click-free.
func (g *Generator) SetVoices(freq *[bank.NumOscillators]int32, amp *[bank.NumOscillators]int16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freq = *freq
	g.amp = *amp
	for i := range g.voices {
		v := &g.voices[i]
		v.inc = g.phaseIncrement(freq[i])
		v.left, v.right = panGains(amp[i])
		if v.inc == 0 {
			v.left, v.right = 0, 0
		}
	}
}

// phaseIncrement returns the per-sample phase step for a raw pitch, or 0
// when the pitch is at or above Nyquist. Negative pitches run the phase
// backwards.
func (g *Generator) phaseIncrement(raw int32) uint32 {
	if g.sampleRate <= 0 {
		return 0
	}
	step := math.Round(drift.PitchHz(raw) / g.sampleRate * phaseScale)
	if math.Abs(step) >= phaseScale/2 {
		return 0
	}
	return uint32(int64(step))
}

// panGains splits an amplitude into left and right gains: amp goes left,
// the complement to full scale goes right.
func panGains(amp int16) (float32, float32) {
	l := float32(amp) / drift.PanFull
	if l < 0 {
		l = 0
	}
	if l > 1 {
		l = 1
	}
	return l, 1 - l
}

// Voices returns the most recently latched pairs.
func (g *Generator) Voices() ([bank.NumOscillators]int32, [bank.NumOscillators]int16) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.freq, g.amp
}

func (g *Generator) SetMasterGain(gain float64) {
	atomic.StoreUint64(&g.masterGain, math.Float64bits(gain))
}

func (g *Generator) MasterGain() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.masterGain))
}

// Process fills dst with interleaved stereo frames.
func (g *Generator) Process(dst []float32) {
	gain := float32(g.MasterGain())
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i+1 < len(dst); i += 2 {
		l, r := g.renderLocked()
		dst[i] = l * gain
		dst[i+1] = r * gain
	}
}

func (g *Generator) renderLocked() (float32, float32) {
	var l, r float32
	for i := range g.voices {
		v := &g.voices[i]
		if v.inc == 0 {
			continue
		}
		s := sineTable[v.phase>>phaseShift]
		// Explicit conversions stop FMA fusion so renders are bit-identical
		// on every architecture.
		l += float32(s * v.left)
		r += float32(s * v.right)
		v.phase += v.inc
	}
	return l, r
}

// Reset zeroes phases and mutes every voice.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voices = [bank.NumOscillators]voice{}
	g.freq = [bank.NumOscillators]int32{}
	g.amp = [bank.NumOscillators]int16{}
}
