package polyosc

import (
	"context"
	"sync"
	"time"

	"github.com/cbegin/polyosc-go/internal/engine"
)

// pausePacer waits like engine.SleepPacer but holds the loop while paused.
type pausePacer struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
	sleep   engine.SleepPacer
}

func newPausePacer() *pausePacer {
	return &pausePacer{resumed: make(chan struct{})}
}

func (p *pausePacer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resumed = make(chan struct{})
	}
}

func (p *pausePacer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resumed)
	}
}

func (p *pausePacer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *pausePacer) Wait(ctx context.Context, d time.Duration) error {
	if err := p.sleep.Wait(ctx, d); err != nil {
		return err
	}
	p.mu.Lock()
	paused, resumed := p.paused, p.resumed
	p.mu.Unlock()
	if !paused {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-resumed:
		return nil
	}
}
