package paramgraph

// Parameter is a named, bounded, continuously interpolated control
// value. Collaborators read Value through Get and write through the
// router; direct mutation from outside the package is off-limits by
// contract.
type Parameter struct {
	ID        string
	Value     float64
	Target    float64
	Min       float64
	Max       float64
	Smoothing float64 // per-tick convergence fraction at 60 ups, (0,1]
	Scope     string
	Tags      []string
	lastTick  float64
}

// ParameterSpec carries registration options. Start from DefaultSpec
// and override; invariants (Min <= Max, 0 < Smoothing <= 1) are the
// caller's responsibility and are not re-checked per write.
type ParameterSpec struct {
	Value     float64
	Min       float64
	Max       float64
	Smoothing float64
	Scope     string
	Tags      []string
}

// DefaultSpec ...
func DefaultSpec() ParameterSpec {
	return ParameterSpec{
		Value:     0,
		Min:       0,
		Max:       1,
		Smoothing: 0.12,
		Scope:     "global",
	}
}

// Register creates the parameter, overwriting any existing record with
// the same id. Value and Target both start at spec.Value. Use Ensure
// when create-if-absent is wanted.
func (g *Graph) Register(id string, spec ParameterSpec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.register(id, spec)
}

// Ensure registers the parameter only if absent. Snapshot loads and
// late-binding consumers use this so component load order never causes
// a missing-parameter failure.
func (g *Graph) Ensure(id string, spec ParameterSpec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.params[id]; ok {
		return
	}
	g.register(id, spec)
}

func (g *Graph) register(id string, spec ParameterSpec) {
	if _, ok := g.params[id]; !ok {
		g.order = append(g.order, id)
	}
	g.params[id] = &Parameter{
		ID:        id,
		Value:     spec.Value,
		Target:    spec.Value,
		Min:       spec.Min,
		Max:       spec.Max,
		Smoothing: spec.Smoothing,
		Scope:     spec.Scope,
		Tags:      append([]string(nil), spec.Tags...),
	}
}

// Get returns the current smoothed value. The second result is false
// when no such parameter exists; an unknown id is not an error.
func (g *Graph) Get(id string) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.params[id]
	if !ok {
		return 0, false
	}
	return p.Value, true
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
