package paramgraph

// OwnerRecord says which input source most recently set a parameter's
// target. UI layers read it to highlight the control that currently
// "has" a knob; the engine itself never consults it.
type OwnerRecord struct {
	Source   string
	Priority float64
	At       float64 // seconds since epoch
}

// SetInput resolves a normalized input event into a new target for the
// parameter at path. raw01 must already be in [0,1]; device scaling
// and debouncing belong to the adapter. Unknown paths no-op silently:
// a malformed or late-registered path must never interrupt a show.
//
// Among the enabled modulations for (source, path) the one with the
// strictly greatest priority wins; equal priorities keep the first
// registered. An unmodulated write still claims ownership at
// priority 0. Only the target moves here; the smoothed value follows
// on subsequent ticks.
func (g *Graph) SetInput(source, path string, raw01 float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.params[path]
	if !ok {
		return
	}
	v := p.Min + raw01*(p.Max-p.Min)
	var win *Modulation
	for _, m := range g.mods {
		if !m.Enabled || m.Source != source || m.Path != path {
			continue
		}
		if win == nil || m.Priority > win.Priority {
			win = m
		}
	}
	priority := 0.0
	if win != nil {
		v = clamp(v*win.Gain+win.Bias, p.Min, p.Max)
		priority = win.Priority
	}
	g.owners[path] = &OwnerRecord{Source: source, Priority: priority, At: now()}
	p.Target = v
}

// Nudge moves the target by delta, clamped to the parameter's range.
// Ownership is untouched so relative controls (jog buttons and the
// like) never steal a knob from a continuous controller.
func (g *Graph) Nudge(path string, delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.params[path]
	if !ok {
		return
	}
	p.Target = clamp(p.Target+delta, p.Min, p.Max)
}

// Owner returns a copy of the current owner record, or nil when the
// parameter has never been written (or does not exist).
func (g *Graph) Owner(path string) *OwnerRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.owners[path]
	if !ok {
		return nil
	}
	r := *rec
	return &r
}
