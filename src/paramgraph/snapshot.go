package paramgraph

const snapshotVersion = 1

// SnapshotParam holds the persisted fields of one parameter. Target,
// lastTick, modulations and owner records are session-transient and
// never serialized.
type SnapshotParam struct {
	Value     float64  `json:"value"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Smoothing float64  `json:"smoothing"`
	Scope     string   `json:"scope"`
	Tags      []string `json:"tags"`
}

// Snapshot is a point-in-time serialization of the parameter table.
type Snapshot struct {
	Version int                      `json:"version"`
	Params  map[string]SnapshotParam `json:"params"`
}

// Snapshot deep-copies every parameter's persisted fields.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := &Snapshot{
		Version: snapshotVersion,
		Params:  make(map[string]SnapshotParam, len(g.params)),
	}
	for id, p := range g.params {
		snap.Params[id] = SnapshotParam{
			Value:     p.Value,
			Min:       p.Min,
			Max:       p.Max,
			Smoothing: p.Smoothing,
			Scope:     p.Scope,
			Tags:      append([]string(nil), p.Tags...),
		}
	}
	return snap
}

// LoadSnapshot ensures every entry exists, then overwrites its bound
// fields. Target is set equal to the loaded value, not left where it
// was, so a load never fights the smoother toward a stale target.
func (g *Graph) LoadSnapshot(snap *Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, f := range snap.Params {
		p, ok := g.params[id]
		if !ok {
			g.register(id, ParameterSpec{})
			p = g.params[id]
		}
		p.Value = f.Value
		p.Target = f.Value
		p.Min = f.Min
		p.Max = f.Max
		p.Smoothing = f.Smoothing
		p.Scope = f.Scope
		p.Tags = append([]string(nil), f.Tags...)
	}
}

// ResetTargetsToValues pins every target to its current value. Call it
// when ownership changes abruptly (switching the active input device)
// so the newly authoritative value is not interpolated away toward a
// stale target left by the previous source.
func (g *Graph) ResetTargetsToValues() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.params {
		p.Target = p.Value
	}
}
