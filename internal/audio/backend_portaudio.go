//go:build portaudio

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pa "github.com/gordonklaus/portaudio"
)

// Backend names the compiled-in output.
const Backend = "portaudio"

const framesPerBuffer = 512

type stream interface {
	Start() error
	Stop() error
	Close() error
}

// Initialize and Terminate are reference counted by portaudio, so each
// Player holds one initialization from NewPlayer until Stop.
var (
	paInitialize = pa.Initialize
	paTerminate  = pa.Terminate
	paOpen       = func(sampleRate int, cb func(out [][]float32)) (stream, error) {
		return pa.OpenDefaultStream(0, 2, float64(sampleRate), framesPerBuffer, cb)
	}
)

type Player struct {
	mu         sync.Mutex
	stream     stream
	reader     *StreamReader
	sampleRate int
	playing    atomic.Bool
	closed     bool
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	if err := paInitialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	p := &Player{reader: NewStreamReader(source), sampleRate: sampleRate}
	s, err := paOpen(sampleRate, p.callback)
	if err != nil {
		paTerminate()
		return nil, fmt.Errorf("open portaudio stream: %w", err)
	}
	p.stream = s
	return p, nil
}

func (p *Player) callback(out [][]float32) {
	p.reader.ReadFrames(out[0], out[1])
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.playing.Load() {
		return
	}
	if err := p.stream.Start(); err == nil {
		p.playing.Store(true)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing.Load() {
		return
	}
	_ = p.stream.Stop()
	p.playing.Store(false)
}

// Position is derived from frames handed to the device, so it runs ahead of
// the speaker by roughly one buffer.
func (p *Player) Position() time.Duration {
	return time.Duration(p.reader.Frames()) * time.Second / time.Duration(p.sampleRate)
}

// Stop closes the stream and releases this player's portaudio
// initialization. Further calls are no-ops.
func (p *Player) Stop() error {
	p.Pause()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	closeErr := p.stream.Close()
	termErr := paTerminate()
	if closeErr != nil {
		return closeErr
	}
	if termErr != nil {
		return fmt.Errorf("terminate portaudio: %w", termErr)
	}
	return p.reader.Close()
}
