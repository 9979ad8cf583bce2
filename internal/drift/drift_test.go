package drift

import (
	"errors"
	"math"
	"testing"

	"github.com/cbegin/polyosc-go/internal/bank"
	"github.com/cbegin/polyosc-go/internal/prng"
)

func TestSeedPairsSumToFull(t *testing.T) {
	var b bank.Bank
	Seed(&b, prng.NewLFSR(99), PanPairs)
	for i := 0; i <= 28; i += 2 {
		if sum := int(b.Amp[i]) + int(b.Amp[i+1]); sum != PanFull {
			t.Errorf("pair (%d,%d): %d + %d = %d", i, i+1, b.Amp[i], b.Amp[i+1], sum)
		}
	}
	if b.Amp[bank.NumOscillators] != 0 {
		t.Fatalf("overflow slot written: %d", b.Amp[bank.NumOscillators])
	}
}

func TestSeedSlidingMatchesFirmwareLayout(t *testing.T) {
	var b bank.Bank
	rec := &recorder{src: prng.NewLFSR(5)}
	Seed(&b, rec, PanSliding)
	if len(rec.words) != 3*bank.NumOscillators {
		t.Fatalf("draws = %d, want %d", len(rec.words), 3*bank.NumOscillators)
	}
	for i := 0; i < bank.NumOscillators; i++ {
		pan := int16(rec.words[3*i] & PanFull)
		if b.Amp[i] != pan {
			t.Fatalf("amp[%d] = %d, want pan %d", i, b.Amp[i], pan)
		}
	}
	last := bank.NumOscillators - 1
	if sum := int(b.Amp[last]) + int(b.Amp[last+1]); sum != PanFull {
		t.Fatalf("last pair sum = %d", sum)
	}
}

func TestSeedDrawOrder(t *testing.T) {
	var b bank.Bank
	src := prng.NewSequence(0x12345, 5, 9)
	Seed(&b, src, PanPairs)
	if b.Amp[0] != 0x2345 {
		t.Fatalf("amp[0] = %d, want %d", b.Amp[0], 0x2345)
	}
	if b.Amp[1] != PanFull-0x2345 {
		t.Fatalf("amp[1] = %d", b.Amp[1])
	}
	if b.Start[0] != 573*2005 {
		t.Fatalf("start[0] = %d, want %d", b.Start[0], 573*2005)
	}
	if b.End[0] != 108297<<2 {
		t.Fatalf("end[0] = %d, want %d", b.End[0], 108297<<2)
	}
}

func TestSeedKnownBank(t *testing.T) {
	for _, tc := range []struct {
		layout PanLayout
		start  [3]int32
		end    [3]int32
		amp    [4]int16
		slot30 int16
	}{
		{
			PanPairs,
			[3]int32{2220375, 1556268, 1967109},
			[3]int32{216594, 433188, 108297},
			[4]int16{24385, 8382, 8933, 23834},
			0,
		},
		{
			PanSliding,
			[3]int32{2220375, 2066238, 1940751},
			[3]int32{216594, 3465504, 3465504},
			[4]int16{24385, 17100, 13721, 18693},
			27992,
		},
	} {
		t.Run(tc.layout.String(), func(t *testing.T) {
			var b bank.Bank
			Seed(&b, prng.NewLFSR(0xACE1), tc.layout)
			for i := range tc.start {
				if b.Start[i] != tc.start[i] || b.End[i] != tc.end[i] {
					t.Errorf("osc %d: start %d end %d, want %d %d", i, b.Start[i], b.End[i], tc.start[i], tc.end[i])
				}
			}
			for i, want := range tc.amp {
				if b.Amp[i] != want {
					t.Errorf("amp[%d] = %d, want %d", i, b.Amp[i], want)
				}
			}
			if b.Amp[bank.NumOscillators] != tc.slot30 {
				t.Errorf("amp[30] = %d, want %d", b.Amp[bank.NumOscillators], tc.slot30)
			}
		})
	}
}

func TestSeedDrawCount(t *testing.T) {
	for _, tc := range []struct {
		layout PanLayout
		want   int
	}{
		{PanPairs, 15*3 + 15*2},
		{PanSliding, 30 * 3},
	} {
		t.Run(tc.layout.String(), func(t *testing.T) {
			var b bank.Bank
			c := &prng.Counter{Src: prng.NewLFSR(1)}
			Seed(&b, c, tc.layout)
			if c.N != tc.want {
				t.Fatalf("draws = %d, want %d", c.N, tc.want)
			}
		})
	}
}

func TestSeedPitchRanges(t *testing.T) {
	var b bank.Bank
	Seed(&b, prng.NewLFSR(0xBEEF), PanPairs)
	allowedEnds := map[int32]bool{}
	for k := 0; k <= MaxOctaveShift; k++ {
		allowedEnds[int32(PitchStep*EndBase)<<k] = true
	}
	for i := 0; i < bank.NumOscillators; i++ {
		if b.Start[i] < PitchStep*StartBase || b.Start[i] > PitchStep*(StartBase+2047) {
			t.Errorf("start[%d] = %d out of range", i, b.Start[i])
		}
		if b.Start[i]%PitchStep != 0 {
			t.Errorf("start[%d] = %d not a multiple of %d", i, b.Start[i], PitchStep)
		}
		if !allowedEnds[b.End[i]] {
			t.Errorf("end[%d] = %d not an octave of the base", i, b.End[i])
		}
	}
}

func TestStartPitchHz(t *testing.T) {
	lo := PitchHz(StartPitch(0))
	hi := PitchHz(StartPitch(2047))
	if math.Abs(lo-199.79) > 0.01 {
		t.Fatalf("lowest start = %.3f Hz", lo)
	}
	if math.Abs(hi-404.3) > 0.1 {
		t.Fatalf("highest start = %.3f Hz", hi)
	}
}

func TestStepRanges(t *testing.T) {
	for _, tc := range []struct {
		r          uint32
		start, end int32
	}{
		{0, -4096, -16},
		{8191, 4095, 15},
		{0xffffffff, 4095, 15},
		{4096 + 16, 16, 0},
	} {
		if got := StartStep(tc.r); got != tc.start {
			t.Errorf("StartStep(%d) = %d, want %d", tc.r, got, tc.start)
		}
		if got := EndStep(tc.r); got != tc.end {
			t.Errorf("EndStep(%d) = %d, want %d", tc.r, got, tc.end)
		}
	}
}

func TestWanderStepsEveryOscillator(t *testing.T) {
	var b bank.Bank
	for i := range b.Start {
		b.Start[i] = 1000000
		b.End[i] = 200000
	}
	c := &prng.Counter{Src: prng.NewSequence(8191, 0)}
	Wander(&b, c, nil)
	if c.N != 2*bank.NumOscillators {
		t.Fatalf("draws = %d", c.N)
	}
	for i := 0; i < bank.NumOscillators; i++ {
		if b.Start[i] != 1000000+4095 {
			t.Fatalf("start[%d] = %d", i, b.Start[i])
		}
		if b.End[i] != 200000-16 {
			t.Fatalf("end[%d] = %d", i, b.End[i])
		}
	}
}

func TestWanderIsUnboundedAndWraps(t *testing.T) {
	var b bank.Bank
	b.Start[0] = math.MaxInt32
	b.End[0] = 5
	Wander(&b, prng.NewSequence(8191, 0), nil)
	if b.Start[0] != math.MinInt32+4094 {
		t.Fatalf("start wrapped to %d", b.Start[0])
	}
	if b.End[0] != -11 {
		t.Fatalf("end = %d, want -11 (may go negative)", b.End[0])
	}
}

func TestWanderLimitsClamp(t *testing.T) {
	var b bank.Bank
	for i := range b.Start {
		b.Start[i] = 100
		b.End[i] = 100
	}
	lim := &Limits{Min: 0, Max: 1000}
	for n := 0; n < 50; n++ {
		Wander(&b, prng.NewSequence(0, 0), lim)
	}
	for i := 0; i < bank.NumOscillators; i++ {
		if b.Start[i] != 0 || b.End[i] != 0 {
			t.Fatalf("osc %d: start %d end %d, want clamped to 0", i, b.Start[i], b.End[i])
		}
	}
}

func TestLimitsValidate(t *testing.T) {
	for _, tc := range []struct {
		lim  Limits
		want error
	}{
		{Limits{Min: 0, Max: 0}, nil},
		{Limits{Min: -5, Max: 1500000}, nil},
		{Limits{Min: 10, Max: 5}, ErrInvertedLimits},
	} {
		if err := tc.lim.Validate(); !errors.Is(err, tc.want) {
			t.Errorf("%+v: err = %v, want %v", tc.lim, err, tc.want)
		}
	}
}

type recorder struct {
	src   prng.Source
	words []uint32
}

func (r *recorder) Uint32() uint32 {
	v := r.src.Uint32()
	r.words = append(r.words, v)
	return v
}
