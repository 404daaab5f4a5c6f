package input

import (
	"testing"

	"github.com/chabad360/go-osc/osc"
	"github.com/layzsource/midi-morphing-power-arranger-sub000/src/paramgraph"
)

func snapGraph(id string, min, max float64) *paramgraph.Graph {
	g := paramgraph.New()
	spec := paramgraph.DefaultSpec()
	spec.Min = min
	spec.Max = max
	spec.Smoothing = 1
	g.Register(id, spec)
	return g
}

func TestHandleParamMessage(t *testing.T) {
	g := snapGraph("cube.morph", 0, 10)
	handleParam(g, &osc.Message{
		Address:   "/param",
		Arguments: []interface{}{"cube.morph", float32(0.5)},
	})
	g.Tick()
	v, _ := g.Get("cube.morph")
	if v != 5 {
		t.Errorf("expected 5, got %v", v)
	}
	rec := g.Owner("cube.morph")
	if rec == nil || rec.Source != "osc" {
		t.Errorf("expected osc to own the parameter, got %+v", rec)
	}
}

func TestHandleNudgeMessage(t *testing.T) {
	g := snapGraph("cube.morph", 0, 10)
	handleNudge(g, &osc.Message{
		Address:   "/nudge",
		Arguments: []interface{}{"cube.morph", float32(3)},
	})
	g.Tick()
	v, _ := g.Get("cube.morph")
	if v != 3 {
		t.Errorf("expected 3, got %v", v)
	}
	if g.Owner("cube.morph") != nil {
		t.Error("nudge must not claim ownership")
	}
}

func TestHandleWindowMessage(t *testing.T) {
	g := paramgraph.New()
	handleWindow(g, &osc.Message{
		Address:   "/window",
		Arguments: []interface{}{"viewport/aux"},
	})
	if got := g.ActiveWindow(); got != "viewport/aux" {
		t.Errorf("expected viewport/aux, got %s", got)
	}
}

func TestMalformedMessagesIgnored(t *testing.T) {
	g := snapGraph("cube.morph", 0, 10)
	handleParam(g, &osc.Message{Address: "/param"})
	handleParam(g, &osc.Message{Address: "/param", Arguments: []interface{}{"cube.morph"}})
	handleParam(g, &osc.Message{Address: "/param", Arguments: []interface{}{float32(1), float32(1)}})
	handleParam(g, &osc.Message{Address: "/param", Arguments: []interface{}{"cube.morph", "high"}})
	handleWindow(g, &osc.Message{Address: "/window", Arguments: []interface{}{int32(1)}})
	g.Tick()
	v, _ := g.Get("cube.morph")
	if v != 0 {
		t.Errorf("malformed messages must not move parameters, got %v", v)
	}
}

func TestNumericArgKinds(t *testing.T) {
	for _, arg := range []interface{}{float32(0.5), float64(0.5)} {
		v, ok := numericArg(arg)
		if !ok || v != 0.5 {
			t.Errorf("expected 0.5 from %T, got %v %v", arg, v, ok)
		}
	}
	if v, ok := numericArg(int32(1)); !ok || v != 1 {
		t.Errorf("expected 1 from int32, got %v %v", v, ok)
	}
	if _, ok := numericArg("nope"); ok {
		t.Error("strings are not numeric")
	}
}
