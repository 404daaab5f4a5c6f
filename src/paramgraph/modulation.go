package paramgraph

// Modulation is a rule describing how one input source affects one
// parameter. The (Source, Path) pair is not unique; several rules may
// target it and the router arbitrates by priority.
type Modulation struct {
	Source   string
	Path     string
	Gain     float64
	Bias     float64
	Priority float64 // higher wins; ties go to the first registered
	Enabled  bool
}

// ModulationSpec carries registration options. Start from
// DefaultModulationSpec and override.
type ModulationSpec struct {
	Source   string
	Path     string
	Gain     float64
	Bias     float64
	Priority float64
	Disabled bool
}

// DefaultModulationSpec ...
func DefaultModulationSpec(source, path string) ModulationSpec {
	return ModulationSpec{
		Source: source,
		Path:   path,
		Gain:   1,
		Bias:   0,
	}
}

// AddModulation stores the rule and returns the live record so the
// caller can later toggle or remove it by identity.
func (g *Graph) AddModulation(spec ModulationSpec) *Modulation {
	m := &Modulation{
		Source:   spec.Source,
		Path:     spec.Path,
		Gain:     spec.Gain,
		Bias:     spec.Bias,
		Priority: spec.Priority,
		Enabled:  !spec.Disabled,
	}
	g.mu.Lock()
	g.mods = append(g.mods, m)
	g.mu.Unlock()
	return m
}

// SetEnabled toggles a held modulation record.
func (g *Graph) SetEnabled(m *Modulation, enabled bool) {
	g.mu.Lock()
	m.Enabled = enabled
	g.mu.Unlock()
}

// Clear removes every modulation matching the predicate, or all of
// them when the predicate is nil. An input adapter that loses its
// device retracts all of its rules in one call.
func (g *Graph) Clear(predicate func(*Modulation) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if predicate == nil {
		g.mods = g.mods[:0]
		return
	}
	kept := g.mods[:0]
	for _, m := range g.mods {
		if !predicate(m) {
			kept = append(kept, m)
		}
	}
	for i := len(kept); i < len(g.mods); i++ {
		g.mods[i] = nil
	}
	g.mods = kept
}
