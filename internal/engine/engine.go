// Package engine owns the oscillator bank and the tick counter and runs the
// per-tick update: drift, interpolate, emit, advance.
package engine

import (
	"github.com/cbegin/polyosc-go/internal/bank"
	"github.com/cbegin/polyosc-go/internal/drift"
	"github.com/cbegin/polyosc-go/internal/envelope"
	"github.com/cbegin/polyosc-go/internal/indicator"
	"github.com/cbegin/polyosc-go/internal/prng"
)

// Frame is everything one tick produces.
type Frame struct {
	Tick  uint32 // counter value the frame was computed for
	Depth int32  // envelope blend weight, nominally 0..1024
	Freq  [bank.NumOscillators]int32
	Amp   [bank.NumOscillators]int16
	Color uint32 // packed indicator word
}

// Voices calls fn for each oscillator's (frequency, amplitude) pair.
func (f *Frame) Voices(fn func(i int, freq int32, amp int16)) {
	for i := range f.Freq {
		fn(i, f.Freq[i], f.Amp[i])
	}
}

type config struct {
	table     envelope.Table
	limits    *drift.Limits
	startTick uint32
	layout    drift.PanLayout
}

type Option func(*config)

func WithTable(t envelope.Table) Option {
	return func(c *config) { c.table = t }
}

// WithLimits clamps both pitch bounds after every drift step. Without it
// the random walk is unbounded. An inverted range is reordered.
func WithLimits(l drift.Limits) Option {
	if l.Min > l.Max {
		l.Min, l.Max = l.Max, l.Min
	}
	return func(c *config) { c.limits = &l }
}

func WithStartTick(tick uint32) Option {
	return func(c *config) { c.startTick = tick }
}

func WithPanLayout(l drift.PanLayout) Option {
	return func(c *config) { c.layout = l }
}

// Engine is the single owner of all modulation state. It is not safe for
// concurrent use.
type Engine struct {
	bank   bank.Bank
	tick   uint32
	table  envelope.Table
	src    prng.Source
	limits *drift.Limits
}

// New seeds a bank from src and returns an engine ready to tick.
func New(src prng.Source, opts ...Option) *Engine {
	cfg := config{table: envelope.DefaultTable}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{
		tick:   cfg.startTick,
		table:  cfg.table,
		src:    src,
		limits: cfg.limits,
	}
	drift.Seed(&e.bank, src, cfg.layout)
	return e
}

// NewFromBank starts from an explicit bank instead of seeding one. src is
// only used for drift.
func NewFromBank(b bank.Bank, src prng.Source, opts ...Option) *Engine {
	cfg := config{table: envelope.DefaultTable}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		bank:   b,
		tick:   cfg.startTick,
		table:  cfg.table,
		src:    src,
		limits: cfg.limits,
	}
}

// Tick advances the engine by one step and returns what it produced.
func (e *Engine) Tick() Frame {
	var f Frame
	e.TickInto(&f)
	return f
}

// TickInto is Tick without the copy; f is overwritten.
func (e *Engine) TickInto(f *Frame) {
	drift.Wander(&e.bank, e.src, e.limits)
	f.Tick = e.tick
	f.Depth = e.table.Apply(e.tick, &e.bank)
	f.Freq = e.bank.Freq
	f.Amp = e.bank.Amplitudes()
	f.Color = indicator.Word(e.tick)
	e.tick++
}

// Count returns the counter value the next Tick will use.
func (e *Engine) Count() uint32 { return e.tick }

// Bank returns a copy of the current oscillator state.
func (e *Engine) Bank() bank.Bank { return e.bank }
