package interview

import (
	"context"
	"sync"
)

// pauseGate blocks the session worker while the caller has paused the
// interview. Waiters park on a channel closed by Resume, so pausing costs
// no polling and resuming wakes the worker immediately.
type pauseGate struct {
	mu     sync.Mutex
	paused bool
	wake   chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{}
}

func (g *pauseGate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.wake = make(chan struct{})
	}
}

func (g *pauseGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.wake)
		g.wake = nil
	}
}

func (g *pauseGate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks until the gate is open or ctx is cancelled.
func (g *pauseGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		wake := g.wake
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}
