package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cbegin/polyosc-go"
	"github.com/cbegin/polyosc-go/internal/bank"
	"github.com/cbegin/polyosc-go/internal/drift"
	"github.com/cbegin/polyosc-go/internal/indicator"
	"golang.org/x/term"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		seed       = flag.Uint("seed", 0, "LFSR seed (0 = derive from the clock)")
		tickMS     = flag.Int("tick-ms", 10, "milliseconds per tick")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		reverb     = flag.Float64("reverb", 0, "reverb wet mix 0..1 (0 = off)")
		minPitch   = flag.Int("min-pitch", math.MinInt32, "clamp drift below this raw pitch (unset = unbounded)")
		maxPitch   = flag.Int("max-pitch", math.MaxInt32, "clamp drift above this raw pitch (unset = unbounded)")
		sliding    = flag.Bool("sliding-pan", false, "write pan pairs at every index like the firmware loop")
		wavPath    = flag.String("wav", "", "render offline to this WAV file instead of playing")
		seconds    = flag.Float64("seconds", 20.48, "length of the offline render")
		dump       = flag.Int("dump", 0, "print N ticks as CSV and exit")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = uint(uint32(time.Now().UnixNano()) | 1)
	}
	opts := []polyosc.PlayerOption{
		polyosc.WithSeed(uint32(*seed)),
		polyosc.WithTickInterval(time.Duration(*tickMS) * time.Millisecond),
		polyosc.WithReverb(float32(*reverb)),
	}
	lim, err := pitchLimits(flag.CommandLine, *minPitch, *maxPitch)
	if err != nil {
		log.Fatal(err)
	}
	if lim != nil {
		opts = append(opts, polyosc.WithPitchLimits(lim.Min, lim.Max))
	}
	if *sliding {
		opts = append(opts, polyosc.WithPanLayout(drift.PanSliding))
	}

	switch {
	case *dump > 0:
		if err := dumpTicks(os.Stdout, *dump, opts); err != nil {
			log.Fatal(err)
		}
	case *wavPath != "":
		if err := renderWAV(*wavPath, *sampleRate, *seconds, opts); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.2fs, seed %d)\n", *wavPath, *seconds, *seed)
	default:
		if err := play(*sampleRate, *volume, uint32(*seed), opts); err != nil {
			log.Fatal(err)
		}
	}
}

// pitchLimits returns the drift bounds given on the command line, or nil
// when neither -min-pitch nor -max-pitch was set.
func pitchLimits(fs *flag.FlagSet, lo, hi int) (*drift.Limits, error) {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min-pitch" || f.Name == "max-pitch" {
			set = true
		}
	})
	if !set {
		return nil, nil
	}
	if lo < math.MinInt32 || hi > math.MaxInt32 {
		return nil, fmt.Errorf("pitch limits %d..%d exceed the int32 range", lo, hi)
	}
	lim := &drift.Limits{Min: int32(lo), Max: int32(hi)}
	if err := lim.Validate(); err != nil {
		return nil, err
	}
	return lim, nil
}

func play(sampleRate int, volume float64, seed uint32, opts []polyosc.PlayerOption) error {
	pl, err := polyosc.NewPlayer(sampleRate, opts...)
	if err != nil {
		return err
	}
	pl.SetMasterVolume(volume)

	fmt.Print("\n\n\r-- PolyOsc --\n\r")
	fmt.Printf("seed %d, %s backend\n", seed, polyosc.Backend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led := newLED(os.Stdout)
	events := pl.Watch()
	if err := pl.Start(); err != nil {
		return err
	}
	fmt.Println("Looping...")
	for {
		select {
		case <-ctx.Done():
			led.Close()
			return pl.Stop()
		case ev := <-events:
			led.Show(ev)
		}
	}
}

func renderWAV(path string, sampleRate int, seconds float64, opts []polyosc.PlayerOption) error {
	samples := polyosc.RenderSamples(sampleRate, seconds, opts...)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := polyosc.WriteWAV(f, samples, sampleRate, 2); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func dumpTicks(out io.Writer, n int, opts []polyosc.PlayerOption) error {
	w := csv.NewWriter(out)
	header := []string{"tick", "depth", "color"}
	for i := 0; i < bank.NumOscillators; i++ {
		header = append(header, "freq"+strconv.Itoa(i), "amp"+strconv.Itoa(i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, f := range polyosc.RenderTicks(n, opts...) {
		row := []string{
			strconv.FormatUint(uint64(f.Tick), 10),
			strconv.Itoa(int(f.Depth)),
			fmt.Sprintf("%06x", f.Color),
		}
		f.Voices(func(_ int, freq int32, amp int16) {
			row = append(row, strconv.FormatFloat(drift.PitchHz(freq), 'f', 1, 64), strconv.Itoa(int(amp)))
		})
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// led mirrors the indicator word on the terminal: a coloured swatch on a
// tty, one log line per colour change otherwise.
type led struct {
	out  *os.File
	tty  bool
	last uint32
	seen bool
}

func newLED(out *os.File) *led {
	return &led{out: out, tty: term.IsTerminal(int(out.Fd()))}
}

func (l *led) Show(ev polyosc.TickEvent) {
	if l.seen && ev.Color == l.last {
		return
	}
	l.seen = true
	l.last = ev.Color
	r, g, b := indicator.RGB(ev.Color)
	if !l.tty {
		log.Printf("tick %d led %02x%02x%02x depth %d", ev.Tick, r, g, b, ev.Depth)
		return
	}
	fmt.Fprintf(l.out, "\r\x1b[48;2;%d;%d;%dm      \x1b[0m tick %-10d depth %4d", r, g, b, ev.Tick, ev.Depth)
}

func (l *led) Close() {
	if l.tty {
		fmt.Fprintln(l.out)
	}
}
