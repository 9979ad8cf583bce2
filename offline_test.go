package polyosc

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cbegin/polyosc-go/internal/drift"
	"github.com/cbegin/polyosc-go/internal/envelope"
	"github.com/cbegin/polyosc-go/internal/indicator"
	"github.com/cbegin/polyosc-go/internal/prng"
)

func TestGoldenWAVSnapshot(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		render func() []float32
	}{
		{
			name: "default seed",
			file: "golden_default_seed.sha256",
			render: func() []float32 {
				return RenderSamples(48000, 0.5, WithSeed(DefaultSeed))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			samples := tc.render()
			wav := EncodeWAVFloat32LE(samples, 48000, 2)
			sum := sha256.Sum256(wav)
			got := hex.EncodeToString(sum[:])
			raw, err := os.ReadFile(filepath.Join("testdata", tc.file))
			if err != nil {
				t.Fatalf("read golden hash: %v", err)
			}
			want := strings.TrimSpace(string(raw))
			if got != want {
				t.Fatalf("golden mismatch\nwant: %s\ngot:  %s", want, got)
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	a := RenderSamples(48000, 0.5, WithSeed(77))
	b := RenderSamples(48000, 0.5, WithSeed(77))
	if len(a) != 48000 {
		t.Fatalf("len = %d, want %d", len(a), 48000)
	}
	ha := sha256.Sum256(EncodeWAVFloat32LE(a, 48000, 2))
	hb := sha256.Sum256(EncodeWAVFloat32LE(b, 48000, 2))
	if ha != hb {
		t.Fatal("same seed rendered different audio")
	}
}

func TestRenderSeedsDiffer(t *testing.T) {
	a := RenderSamples(48000, 0.2, WithSeed(1))
	b := RenderSamples(48000, 0.2, WithSeed(2))
	if bytes.Equal(EncodeWAVFloat32LE(a, 48000, 2), EncodeWAVFloat32LE(b, 48000, 2)) {
		t.Fatal("different seeds rendered identical audio")
	}
}

func TestRenderIsAudibleAndLimited(t *testing.T) {
	out := RenderSamples(48000, 1, WithSeed(5))
	var peak float64
	for _, s := range out {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak < 0.01 {
		t.Fatalf("render is silent, peak %f", peak)
	}
	ceiling := math.Pow(10, -1.0/20)
	if peak > ceiling+1e-5 {
		t.Fatalf("peak %f exceeds limiter ceiling %f", peak, ceiling)
	}
}

func TestRenderReverbChangesOutput(t *testing.T) {
	dry := RenderSamples(48000, 0.3, WithSeed(9))
	wet := RenderSamples(48000, 0.3, WithSeed(9), WithReverb(0.5))
	if bytes.Equal(EncodeWAVFloat32LE(dry, 48000, 2), EncodeWAVFloat32LE(wet, 48000, 2)) {
		t.Fatal("reverb had no effect")
	}
}

func TestRenderSampleTapSeesOutput(t *testing.T) {
	var tapped int
	out := RenderSamples(8000, 0.1, WithSampleTap(func(buf []float32) { tapped += len(buf) }))
	if tapped != len(out) {
		t.Fatalf("tapped %d samples, rendered %d", tapped, len(out))
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	if out := RenderSamples(0, 1); out != nil {
		t.Fatal("expected nil for zero sample rate")
	}
	if out := RenderSamples(48000, 0); out != nil {
		t.Fatal("expected nil for zero duration")
	}
}

func TestRenderTicksSequence(t *testing.T) {
	frames := RenderTicks(3000, WithSeed(3))
	if len(frames) != 3000 {
		t.Fatalf("len = %d", len(frames))
	}
	tbl := envelope.DefaultTable
	for i, f := range frames {
		if f.Tick != uint32(i) {
			t.Fatalf("frame %d has tick %d", i, f.Tick)
		}
		if f.Depth != tbl.Depth(f.Tick) {
			t.Fatalf("frame %d depth %d", i, f.Depth)
		}
		if f.Color != indicator.Word(f.Tick) {
			t.Fatalf("frame %d color %06x", i, f.Color)
		}
	}
	for i := 0; i < 30; i += 2 {
		if sum := int(frames[0].Amp[i]) + int(frames[0].Amp[i+1]); sum != drift.PanFull {
			t.Fatalf("pair %d sums to %d", i, sum)
		}
	}
}

func TestRenderTicksWithInjectedSource(t *testing.T) {
	a := RenderTicks(10, WithSource(prng.NewLFSR(123)))
	b := RenderTicks(10, WithSeed(123))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frame %d differs between WithSource and WithSeed", i)
		}
	}
}

func TestRenderTicksPitchLimits(t *testing.T) {
	frames := RenderTicks(500, WithPitchLimits(0, 1500000))
	for _, f := range frames {
		for o, hz := range f.Freq {
			if hz < 0 || hz > 1500000 {
				t.Fatalf("tick %d osc %d freq %d outside limits", f.Tick, o, hz)
			}
		}
	}
}

func TestRenderTickInterval(t *testing.T) {
	// At 1 ms per tick, 0.1 s covers 100 ticks: the envelope moves further
	// than it would in 10 ticks at the default interval.
	fast := RenderSamples(8000, 0.1, WithSeed(4), WithTickInterval(time.Millisecond))
	slow := RenderSamples(8000, 0.1, WithSeed(4))
	if len(fast) != len(slow) {
		t.Fatalf("lengths differ: %d vs %d", len(fast), len(slow))
	}
	if bytes.Equal(EncodeWAVFloat32LE(fast, 8000, 2), EncodeWAVFloat32LE(slow, 8000, 2)) {
		t.Fatal("tick interval had no effect")
	}
}

func TestWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	wav := EncodeWAVFloat32LE(samples, 44100, 2)
	if len(wav) != 44+16 {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids: %q", wav[:40])
	}
	le := binary.LittleEndian
	for _, tc := range []struct {
		name string
		got  uint32
		want uint32
	}{
		{"chunk size", le.Uint32(wav[4:]), 36 + 16},
		{"format", uint32(le.Uint16(wav[20:])), 3},
		{"channels", uint32(le.Uint16(wav[22:])), 2},
		{"sample rate", le.Uint32(wav[24:]), 44100},
		{"byte rate", le.Uint32(wav[28:]), 44100 * 8},
		{"block align", uint32(le.Uint16(wav[32:])), 8},
		{"bits", uint32(le.Uint16(wav[34:])), 32},
		{"data size", le.Uint32(wav[40:]), 16},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
	if got := math.Float32frombits(le.Uint32(wav[48:])); got != 0.5 {
		t.Fatalf("second sample = %f", got)
	}
}

func TestWriteWAVRejectsBadFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, nil, 0, 2); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func BenchmarkRenderOneSecond(b *testing.B) {
	for i := 0; i < b.N; i++ {
		RenderSamples(48000, 1, WithSeed(uint32(i)+1))
	}
}
