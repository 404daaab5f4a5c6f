package paramgraph

// SetActiveWindow records which logical output surface is active.
// Purely advisory: the engine never reads it, but router callers use
// it to resolve one physical control to "main.rotY" or "aux.rotY"
// depending on context.
func (g *Graph) SetActiveWindow(id string) {
	g.mu.Lock()
	g.activeWindow = id
	g.mu.Unlock()
}

// ActiveWindow ...
func (g *Graph) ActiveWindow() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeWindow
}
