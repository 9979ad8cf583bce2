package bank

const (
	// NumOscillators is the fixed size of the bank.
	NumOscillators = 30
	// NumAmplitudeSlots has one extra slot past the last oscillator so a
	// pairwise pan write starting at the final index stays in range.
	NumAmplitudeSlots = NumOscillators + 1
)

// Oscillator is a copy of one oscillator's fields.
type Oscillator struct {
	Start int32 // start pitch, 5736 lsb per Hz
	End   int32 // end pitch, same units
	Freq  int32 // most recent interpolated output
	Amp   int16 // pan level, fixed after seeding
}

// Bank holds every oscillator's state. Fields are indexed by oscillator
// number; indexing past the end is a programming error and panics.
type Bank struct {
	Start [NumOscillators]int32
	End   [NumOscillators]int32
	Freq  [NumOscillators]int32
	Amp   [NumAmplitudeSlots]int16
}

func (b *Bank) Oscillator(i int) Oscillator {
	return Oscillator{
		Start: b.Start[i],
		End:   b.End[i],
		Freq:  b.Freq[i],
		Amp:   b.Amp[i],
	}
}

func (b *Bank) SetOscillator(i int, o Oscillator) {
	b.Start[i] = o.Start
	b.End[i] = o.End
	b.Freq[i] = o.Freq
	b.Amp[i] = o.Amp
}

// Amplitudes returns the amplitudes of the real oscillators, without the
// overflow slot.
func (b *Bank) Amplitudes() [NumOscillators]int16 {
	var out [NumOscillators]int16
	copy(out[:], b.Amp[:NumOscillators])
	return out
}

func (b *Bank) Reset() { *b = Bank{} }
