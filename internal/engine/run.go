package engine

import (
	"context"
	"time"

	"github.com/cbegin/polyosc-go/internal/bank"
)

// DefaultInterval is the pacing delay between ticks.
const DefaultInterval = 10 * time.Millisecond

// AudioOutput consumes the oscillator outputs once per tick.
type AudioOutput interface {
	SetVoices(freq *[bank.NumOscillators]int32, amp *[bank.NumOscillators]int16)
}

// IndicatorOutput consumes the packed LED word once per tick.
type IndicatorOutput interface {
	SetColor(word uint32)
}

// Pacer blocks between ticks. It returns early with an error when ctx is
// done.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepPacer waits on a real timer.
type SleepPacer struct{}

func (SleepPacer) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopPacer never blocks; it only reports cancellation.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// RunConfig wires the engine to its collaborators. Nil outputs are skipped.
type RunConfig struct {
	Audio     AudioOutput
	Indicator IndicatorOutput
	Pacer     Pacer         // defaults to SleepPacer
	Interval  time.Duration // defaults to DefaultInterval
	// OnFrame, if set, sees every frame after it has been emitted.
	OnFrame func(*Frame)
	// MaxTicks stops the loop after that many ticks; 0 runs until ctx ends.
	MaxTicks uint64
}

// Run ticks until ctx is cancelled or MaxTicks is reached. It returns
// ctx.Err() on cancellation and nil when MaxTicks ran out.
func (e *Engine) Run(ctx context.Context, cfg RunConfig) error {
	pacer := cfg.Pacer
	if pacer == nil {
		pacer = SleepPacer{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var f Frame
	for n := uint64(0); cfg.MaxTicks == 0 || n < cfg.MaxTicks; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.TickInto(&f)
		if cfg.Audio != nil {
			cfg.Audio.SetVoices(&f.Freq, &f.Amp)
		}
		if cfg.Indicator != nil {
			cfg.Indicator.SetColor(f.Color)
		}
		if cfg.OnFrame != nil {
			cfg.OnFrame(&f)
		}
		if err := pacer.Wait(ctx, interval); err != nil {
			return err
		}
	}
	return nil
}
