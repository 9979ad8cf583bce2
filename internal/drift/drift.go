// Package drift seeds the oscillator bank once and then nudges every start
// and end pitch by a small random step on each tick.
package drift

import (
	"errors"

	"github.com/cbegin/polyosc-go/internal/bank"
	"github.com/cbegin/polyosc-go/internal/prng"
)

const (
	// PitchScale is the number of pitch lsbs per Hz.
	PitchScale = 5736
	// PitchStep is one tenth of a Hz in pitch lsbs (rounded).
	PitchStep = 573
	// StartBase and startSpread give starting pitches of 199.8..404.3 Hz.
	StartBase   = 2000
	startSpread = 2047
	// EndBase is MIDI note 14.5 (about 18.9 Hz) in tenths of a Hz.
	EndBase = 189
	// MaxOctaveShift bounds the random octave applied to EndBase.
	MaxOctaveShift = 6
	// PanFull is the combined amplitude of one pan pair.
	PanFull = 32767

	startStepMask = 8191
	startStepBias = 4096
	endStepMask   = 31
	endStepBias   = 16
)

// PitchHz converts a raw pitch to Hz.
func PitchHz(raw int32) float64 {
	return float64(raw) / PitchScale
}

// PanLayout selects how pan pairs are written during Seed.
type PanLayout int

const (
	// PanPairs writes a pair at every even index: (0,1), (2,3) ... (28,29).
	PanPairs PanLayout = iota
	// PanSliding writes a pair at every index, so each write to i+1 is
	// overwritten by the next iteration and the final write lands in the
	// overflow slot. Only the last pair keeps its sum.
	PanSliding
)

func (l PanLayout) String() string {
	switch l {
	case PanPairs:
		return "pairs"
	case PanSliding:
		return "sliding"
	default:
		return "unknown"
	}
}

func (l PanLayout) writesPair(i int) bool {
	if l == PanSliding {
		return true
	}
	return i%2 == 0
}

// Seed draws each oscillator's pan, start pitch and end pitch from src, in
// that order per oscillator.
func Seed(b *bank.Bank, src prng.Source, layout PanLayout) {
	for i := 0; i < bank.NumOscillators; i++ {
		if layout.writesPair(i) {
			pan := int16(src.Uint32() & PanFull)
			b.Amp[i] = pan
			b.Amp[i+1] = PanFull - pan
		}
		b.Start[i] = StartPitch(src.Uint32())
		b.End[i] = EndPitch(src.Uint32())
	}
}

// StartPitch maps a random word to a starting pitch.
func StartPitch(r uint32) int32 {
	return PitchStep * (StartBase + int32(r&startSpread))
}

// EndPitch maps a random word to the base end pitch shifted up 0..6 octaves.
func EndPitch(r uint32) int32 {
	return (PitchStep * EndBase) << (r % (MaxOctaveShift + 1))
}

// Limits optionally bounds the random walk. Wander leaves pitches unbounded
// unless Limits are supplied.
type Limits struct {
	Min int32
	Max int32
}

var ErrInvertedLimits = errors.New("pitch limits: min exceeds max")

func (l Limits) Validate() error {
	if l.Min > l.Max {
		return ErrInvertedLimits
	}
	return nil
}

func (l *Limits) clamp(v int32) int32 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// Wander applies one random-walk step to every oscillator's start and end
// pitch. Start moves by [-4096, 4095], end by [-16, 15]. Arithmetic wraps
// at the int32 limits; a nil lim applies no bounds.
func Wander(b *bank.Bank, src prng.Source, lim *Limits) {
	for i := 0; i < bank.NumOscillators; i++ {
		b.Start[i] += StartStep(src.Uint32())
		b.End[i] += EndStep(src.Uint32())
		if lim != nil {
			b.Start[i] = lim.clamp(b.Start[i])
			b.End[i] = lim.clamp(b.End[i])
		}
	}
}

func StartStep(r uint32) int32 { return int32(r&startStepMask) - startStepBias }

func EndStep(r uint32) int32 { return int32(r&endStepMask) - endStepBias }
