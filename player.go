package polyosc

import (
	"context"
	"errors"
	"sync"
	"time"

	intaudio "github.com/cbegin/polyosc-go/internal/audio"
	"github.com/cbegin/polyosc-go/internal/drift"
	"github.com/cbegin/polyosc-go/internal/effects"
	"github.com/cbegin/polyosc-go/internal/engine"
	"github.com/cbegin/polyosc-go/internal/envelope"
	"github.com/cbegin/polyosc-go/internal/prng"
	"github.com/cbegin/polyosc-go/internal/sndgen"
)

// DefaultSeed seeds the LFSR when no seed or source is given.
const DefaultSeed uint32 = 0xACE1

// TickEvent is sent from Watch() once per tick.
type TickEvent struct {
	Tick  uint32
	Depth int32
	Color uint32 // packed indicator word, see Frame.Color
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	seed      uint32
	source    prng.Source
	interval  time.Duration
	table     envelope.Table
	limits    *drift.Limits
	layout    drift.PanLayout
	reverbWet float32
	ceilingDB float32
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		seed:      DefaultSeed,
		interval:  engine.DefaultInterval,
		table:     envelope.DefaultTable,
		ceilingDB: -1,
	}
}

// WithSeed seeds the built-in LFSR. Ignored when WithSource is also given.
func WithSeed(seed uint32) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.seed = seed
	}
}

// WithSource injects the random source used for seeding and drift.
func WithSource(src prng.Source) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.source = src
	}
}

func WithTickInterval(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		if d > 0 {
			cfg.interval = d
		}
	}
}

func WithTable(t envelope.Table) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.table = t
	}
}

// WithPitchLimits bounds the drift random walk. By default it is unbounded.
func WithPitchLimits(min, max int32) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.limits = &drift.Limits{Min: min, Max: max}
	}
}

func WithPanLayout(l drift.PanLayout) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.layout = l
	}
}

// WithReverb adds a room reverb with the given wet mix (0 disables it).
func WithReverb(wet float32) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.reverbWet = wet
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

func (cfg *playerConfig) newEngine() *engine.Engine {
	src := cfg.source
	if src == nil {
		src = prng.NewLFSR(cfg.seed)
	}
	opts := []engine.Option{engine.WithTable(cfg.table), engine.WithPanLayout(cfg.layout)}
	if cfg.limits != nil {
		opts = append(opts, engine.WithLimits(*cfg.limits))
	}
	return engine.New(src, opts...)
}

func (cfg *playerConfig) newEffects(sampleRate int) *effects.Chain {
	chain := effects.NewChain()
	if cfg.reverbWet > 0 {
		p := effects.DefaultRoomParams()
		p.Wet = cfg.reverbWet
		chain.Add(effects.NewReverb(sampleRate, p))
	}
	chain.Add(effects.NewLimiter(sampleRate, cfg.ceilingDB, 200))
	return chain
}

// renderSource feeds the audio backend: generator, then effects, then tap.
type renderSource struct {
	gen       *sndgen.Generator
	effects   *effects.Chain
	sampleTap func([]float32)
}

func (s *renderSource) Process(dst []float32) {
	s.gen.Process(dst)
	s.effects.ProcessInterleaved(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

// output is the audio backend as the player drives it.
type output interface {
	Play()
	Pause()
	Position() time.Duration
	Stop() error
}

func openBackend(sampleRate int, src intaudio.SampleSource) (output, error) {
	pl, err := intaudio.NewPlayer(sampleRate, src)
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// Player runs the modulation engine in real time against an audio backend.
type Player struct {
	mu         sync.Mutex
	cfg        playerConfig
	sampleRate int
	gen        *sndgen.Generator
	baseGain   float64
	volume     float64
	openOutput func(sampleRate int, src intaudio.SampleSource) (output, error)
	audio      output
	pacer      *pausePacer
	cancel     context.CancelFunc
	done       chan struct{}
	runErr     error
	eventCh    chan TickEvent
	eventChMu  sync.Mutex
	frameMu    sync.Mutex
	last       engine.Frame
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limits != nil {
		if err := cfg.limits.Validate(); err != nil {
			return nil, err
		}
	}
	params := sndgen.DefaultParams()
	return &Player{
		cfg:        cfg,
		sampleRate: sampleRate,
		gen:        sndgen.New(sampleRate, params),
		baseGain:   params.MasterGain,
		volume:     1,
		openOutput: openBackend,
	}, nil
}

// Start seeds a fresh engine and begins ticking and playing.
func (p *Player) Start() error { return p.start(false) }

// start launches the tick loop. A paused start holds the loop after its
// first tick and leaves the backend silent until Resume.
func (p *Player) start(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return errors.New("player already started")
	}

	eng := p.cfg.newEngine()
	p.gen.Reset()
	src := &renderSource{
		gen:       p.gen,
		effects:   p.cfg.newEffects(p.sampleRate),
		sampleTap: p.cfg.sampleTap,
	}
	backend, err := p.openOutput(p.sampleRate, src)
	if err != nil {
		return err
	}
	p.audio = backend
	p.pacer = newPausePacer()
	if paused {
		p.pacer.Pause()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.runErr = nil

	go p.run(ctx, eng, p.pacer, p.done)
	if !paused {
		p.audio.Play()
	}
	return nil
}

func (p *Player) run(ctx context.Context, eng *engine.Engine, pacer engine.Pacer, done chan struct{}) {
	defer close(done)
	err := eng.Run(ctx, engine.RunConfig{
		Audio:    p.gen,
		Pacer:    pacer,
		Interval: p.cfg.interval,
		OnFrame:  p.recordFrame,
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	p.mu.Lock()
	p.runErr = err
	p.mu.Unlock()
}

func (p *Player) recordFrame(f *engine.Frame) {
	p.frameMu.Lock()
	p.last = *f
	p.frameMu.Unlock()
	p.sendEvent(TickEvent{Tick: f.Tick, Depth: f.Depth, Color: f.Color})
}

func (p *Player) sendEvent(ev TickEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Receiver is behind; drop the tick.
		}
	}
}

// Watch returns a channel that receives one TickEvent per tick. The channel
// is buffered (cap 8) and events are dropped when it is full. Only the most
// recent Watch() channel receives events.
func (p *Player) Watch() <-chan TickEvent {
	ch := make(chan TickEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// Pause holds both the tick loop and the audio output.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pacer != nil {
		p.pacer.Pause()
	}
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pacer != nil {
		p.pacer.Resume()
	}
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pacer != nil && p.pacer.Paused()
}

// Stop ends the tick loop and closes the audio backend. It returns the
// loop's error, if any, or the backend's close error.
func (p *Player) Stop() error {
	p.mu.Lock()
	cancel, done, backend := p.cancel, p.done, p.audio
	p.cancel = nil
	p.audio = nil
	p.pacer = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	var err error
	if backend != nil {
		err = backend.Stop()
	}
	p.mu.Lock()
	runErr := p.runErr
	p.mu.Unlock()
	if runErr != nil {
		return runErr
	}
	return err
}

// Wait blocks until the tick loop exits. The loop runs until Stop, so Wait
// is mainly useful from a goroutine other than the one calling Stop.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Reseed restarts the engine with a new LFSR seed, keeping the pause state.
// A player that is not running just records the seed for the next Start.
func (p *Player) Reseed(seed uint32) error {
	p.mu.Lock()
	running := p.cancel != nil
	paused := running && p.pacer.Paused()
	p.cfg.seed = seed
	p.cfg.source = nil
	p.mu.Unlock()
	if !running {
		return nil
	}
	if err := p.Stop(); err != nil {
		return err
	}
	return p.start(paused)
}

func (p *Player) Seed() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.seed
}

// Snapshot returns the most recent frame. It is the zero Frame before the
// first tick.
func (p *Player) Snapshot() engine.Frame {
	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	return p.last
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	p.gen.SetMasterGain(p.baseGain * p.volume)
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) SampleRate() int { return p.sampleRate }

// PlaybackPosition returns the current output position of the audio driver
// in frames. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}

// Backend names the compiled-in audio output.
func Backend() string { return intaudio.Backend }
