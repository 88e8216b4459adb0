// Package gate defers thumbnail resolution until a consumer reports
// that the thumbnail's slot is visible or about to become visible.
// Visibility signals arrive from whatever is rendering the thumbnail
// (the portal frontend forwards viewport intersection events); the gate
// only decides whether resolution should run.
package gate

import "sync"

// Config controls a visibility gate
type Config struct {
	// Enabled turns deferral on. A disabled gate treats its slot as
	// permanently visible, as priority above-the-fold slots need.
	Enabled bool
	// ThresholdFraction is how much of the slot must be visible before
	// the gate opens, 0..1.
	ThresholdFraction float64
	// RootMarginPx widens the viewport for the visibility test. It is a
	// hint forwarded to reporting clients; the gate itself only compares
	// fractions.
	RootMarginPx int
	// TriggerOnce latches the gate open on first crossing; later
	// signals are ignored.
	TriggerOnce bool
}

// Gate tracks whether a thumbnail slot is in view
type Gate struct {
	mu       sync.Mutex
	cfg      Config
	inView   bool
	detached bool
	onChange func(bool)
}

// New creates a gate. A disabled gate is permanently in view and never
// subscribes to visibility signals.
func New(cfg Config) *Gate {
	g := &Gate{cfg: cfg}
	if !cfg.Enabled {
		g.inView = true
		g.detached = true
	}
	return g
}

// InView reports whether resolution may run
func (g *Gate) InView() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inView
}

// Observing reports whether the gate still listens for signals
func (g *Gate) Observing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.detached
}

// OnChange registers a callback invoked whenever InView flips. The
// callback runs outside the gate's lock.
func (g *Gate) OnChange(fn func(inView bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChange = fn
}

// SetVisible feeds a visibility signal: the fraction of the slot
// currently visible. Crossing the configured threshold opens the gate;
// with TriggerOnce the gate then detaches and never closes again,
// otherwise visibility tracks bidirectionally.
func (g *Gate) SetVisible(fraction float64) {
	g.mu.Lock()

	if g.detached {
		g.mu.Unlock()
		return
	}

	visible := fraction >= g.cfg.ThresholdFraction
	changed := visible != g.inView
	g.inView = visible

	if visible && g.cfg.TriggerOnce {
		g.detached = true
	}

	fn := g.onChange
	g.mu.Unlock()

	if changed && fn != nil {
		fn(visible)
	}
}

// Close detaches the gate from visibility signals. Must be called when
// the consuming slot goes away so no callbacks fire afterwards.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detached = true
	g.onChange = nil
}
