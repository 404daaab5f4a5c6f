package paramgraph

import (
	"sync"
	"time"
)

const (
	// Reference rate for the smoothing coefficient: a parameter's
	// smoothing value is the per-tick convergence fraction at 60
	// updates per second.
	refTicksPerSecond = 60

	// Elapsed time is clamped to this before smoothing so that a
	// dropped frame or a backgrounded host never becomes one giant
	// interpolation jump.
	defaultDtMax = 50.0 / 1000.0

	defaultWindow = "viewport/main"
)

// ChangeFunc receives every parameter's smoothed value once per tick.
type ChangeFunc func(id string, value float64)

// AutomateFunc runs once per tick, after the smoothing pass, with the
// tick's elapsed time in seconds. LFOs and timed choreography write
// targets from here without going through the ownership model.
type AutomateFunc func(dtSeconds float64)

// Graph owns the parameter table, the modulation list and the owner
// records for one running session. Instantiate one per session and pass
// it to every collaborator; independent instances never share state.
//
// All methods are safe for concurrent callers. Input writers only
// overwrite targets and the tick loop is the only writer of smoothed
// values, so competing writes coalesce instead of blocking each other.
type Graph struct {
	mu     sync.Mutex
	params map[string]*Parameter
	order  []string // registration order, keeps tick iteration stable
	mods   []*Modulation
	owners map[string]*OwnerRecord

	activeWindow string
	lastTick     float64

	onChange   ChangeFunc
	onAutomate AutomateFunc

	running bool
	stopCh  chan struct{}
}

// New ...
func New() *Graph {
	return &Graph{
		params:       make(map[string]*Parameter),
		owners:       make(map[string]*OwnerRecord),
		activeWindow: defaultWindow,
	}
}

// OnChange registers the per-parameter change notification callback.
func (g *Graph) OnChange(f ChangeFunc) {
	g.mu.Lock()
	g.onChange = f
	g.mu.Unlock()
}

// OnAutomate registers the per-tick automation callback.
func (g *Graph) OnAutomate(f AutomateFunc) {
	g.mu.Lock()
	g.onAutomate = f
	g.mu.Unlock()
}

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
