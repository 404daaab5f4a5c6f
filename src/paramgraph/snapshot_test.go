package paramgraph

import (
	"os"
	"path/filepath"
	"testing"
)

func registerDemo(g *Graph) {
	morph := DefaultSpec()
	morph.Value = 0.4
	morph.Min = 0
	morph.Max = 1
	morph.Smoothing = 0.12
	morph.Scope = "global"
	morph.Tags = []string{"shape", "front-panel"}
	g.Register("cube.morph", morph)

	rot := DefaultSpec()
	rot.Value = 90
	rot.Min = -180
	rot.Max = 180
	rot.Smoothing = 0.5
	rot.Scope = "viewport/main"
	g.Register("main.rotY", rot)
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := New()
	registerDemo(g)
	// Leave a stale target behind to prove the load resets it.
	g.SetInput("midiA", "cube.morph", 1)

	snap := g.Snapshot()
	if snap.Version != snapshotVersion {
		t.Errorf("expected version %d, got %d", snapshotVersion, snap.Version)
	}
	g.LoadSnapshot(snap)

	v, _ := g.Get("cube.morph")
	expectNear(t, v, 0.4, 0)
	expectNear(t, target(t, g, "cube.morph"), 0.4, 0)

	g.mu.Lock()
	p := g.params["cube.morph"]
	if p.Min != 0 || p.Max != 1 || p.Smoothing != 0.12 || p.Scope != "global" {
		t.Errorf("bound fields changed across round trip: %+v", p)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "shape" || p.Tags[1] != "front-panel" {
		t.Errorf("tags changed across round trip: %v", p.Tags)
	}
	g.mu.Unlock()
}

func TestSnapshotExcludesSessionState(t *testing.T) {
	g := New()
	registerDemo(g)
	g.AddModulation(DefaultModulationSpec("midiA", "cube.morph"))
	g.SetInput("midiA", "cube.morph", 1)

	snap := g.Snapshot()
	f, ok := snap.Params["cube.morph"]
	if !ok {
		t.Fatal("expected cube.morph in snapshot")
	}
	// The captured value is the smoothed value, not the in-flight target.
	expectNear(t, f.Value, 0.4, 0)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	g := New()
	registerDemo(g)
	snap := g.Snapshot()
	tags := snap.Params["cube.morph"].Tags
	tags[0] = "tampered"
	g.mu.Lock()
	tag := g.params["cube.morph"].Tags[0]
	g.mu.Unlock()
	if tag != "shape" {
		t.Error("snapshot must not alias live tag slices")
	}
}

func TestLoadSnapshotCreatesMissingParameters(t *testing.T) {
	g := New()
	registerDemo(g)
	snap := g.Snapshot()

	fresh := New()
	fresh.LoadSnapshot(snap)
	v, ok := fresh.Get("main.rotY")
	if !ok {
		t.Fatal("expected load to ensure missing parameters")
	}
	expectNear(t, v, 90, 0)
	expectNear(t, target(t, fresh, "main.rotY"), 90, 0)
	fresh.mu.Lock()
	p := fresh.params["main.rotY"]
	if p.Min != -180 || p.Max != 180 || p.Scope != "viewport/main" {
		t.Errorf("bound fields not restored: %+v", p)
	}
	fresh.mu.Unlock()
}

func TestResetTargetsToValues(t *testing.T) {
	g := New()
	registerDemo(g)
	g.SetInput("midiA", "cube.morph", 1)
	g.SetInput("midiA", "main.rotY", 0)
	g.ResetTargetsToValues()
	expectNear(t, target(t, g, "cube.morph"), 0.4, 0)
	expectNear(t, target(t, g, "main.rotY"), 90, 0)
}

func TestStoreSaveAndApply(t *testing.T) {
	dir := t.TempDir()
	g := New()
	registerDemo(g)
	store := NewStore(filepath.Join(dir, "snapshots"), g)

	expectNoError(t, store.Save("show-open"))

	// Drift the live table, then restore.
	spec := DefaultSpec()
	spec.Value = 0.9
	g.Register("cube.morph", spec)
	expectNoError(t, store.Apply("show-open"))
	v, _ := g.Get("cube.morph")
	expectNear(t, v, 0.4, 0)

	names, err := store.List()
	expectNoError(t, err)
	if len(names) != 1 || names[0] != "show-open" {
		t.Errorf("expected [show-open], got %v", names)
	}

	// A fresh store over the same directory sees the saved list.
	other := NewStore(filepath.Join(dir, "snapshots"), New())
	names, err = other.List()
	expectNoError(t, err)
	if len(names) != 1 || names[0] != "show-open" {
		t.Errorf("expected [show-open] from disk, got %v", names)
	}
}

func TestStoreListEmptyDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "none"), New())
	names, err := store.List()
	expectNoError(t, err)
	if len(names) != 0 {
		t.Errorf("expected empty list, got %v", names)
	}
}

func TestStoreSaveTwiceKeepsOneListEntry(t *testing.T) {
	dir := t.TempDir()
	g := New()
	registerDemo(g)
	store := NewStore(dir, g)
	expectNoError(t, store.Save("a"))
	expectNoError(t, store.Save("a"))
	names, err := store.List()
	expectNoError(t, err)
	if len(names) != 1 {
		t.Errorf("expected one entry, got %v", names)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.json")); err != nil {
		t.Errorf("expected snapshot file on disk: %v", err)
	}
}
