package paramgraph

import (
	"context"
	"log"
	"math"
	"time"
)

// Tick advances every parameter's smoothed value toward its target and
// fires the change and automation callbacks. Elapsed time is measured
// per parameter and capped at 50ms before use.
func (g *Graph) Tick() {
	g.step(now(), defaultDtMax)
}

// TickWithCap is Tick with a caller-chosen elapsed-time cap in seconds.
func (g *Graph) TickWithCap(dtMaxSeconds float64) {
	g.step(now(), dtMaxSeconds)
}

// 63% closer to target per tick when smoothing=0.63 at 60 ups; the
// exponent normalizes the curve so halving the tick rate while doubling
// dt (below the cap) converges identically.
func smoothingAlpha(smoothing, dt float64) float64 {
	return 1 - math.Pow(1-smoothing, dt*refTicksPerSecond)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func (g *Graph) step(at, dtMax float64) {
	type changed struct {
		id    string
		value float64
	}
	g.mu.Lock()
	changes := make([]changed, 0, len(g.order))
	for _, id := range g.order {
		p := g.params[id]
		dt := at - p.lastTick
		if dt > dtMax {
			dt = dtMax
		}
		if dt < 0 {
			dt = 0
		}
		p.lastTick = at
		p.Value = lerp(p.Value, p.Target, smoothingAlpha(p.Smoothing, dt))
		changes = append(changes, changed{id: id, value: p.Value})
	}
	dt := at - g.lastTick
	if dt > dtMax {
		dt = dtMax
	}
	if dt < 0 {
		dt = 0
	}
	g.lastTick = at
	onChange := g.onChange
	onAutomate := g.onAutomate
	g.mu.Unlock()

	// Callbacks run outside the lock so automation may write targets
	// through SetInput/Nudge from within the tick.
	if onChange != nil {
		for _, c := range changes {
			onChange(c.id, c.value)
		}
	}
	if onAutomate != nil {
		onAutomate(dt)
	}
}

// Start begins a self-rescheduling 60 updates/second tick loop.
// Calling Start while the loop is already running is a no-op.
func (g *Graph) Start() {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true
	stop := make(chan struct{})
	g.stopCh = stop
	g.mu.Unlock()
	go func() {
		t := time.NewTicker(time.Second / refTicksPerSecond)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				g.Tick()
			}
		}
	}()
}

// Stop ends the tick loop started by Start. A tick already in flight
// finishes; no new ticks begin.
func (g *Graph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.running = false
	close(g.stopCh)
}

// Run ticks until ctx is done. Daemons that already manage goroutine
// lifetimes with a context use this instead of Start/Stop.
func (g *Graph) Run(ctx context.Context) error {
	t := time.NewTicker(time.Second / refTicksPerSecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Run() interrupted")
			return nil
		case <-t.C:
			g.Tick()
		}
	}
}
