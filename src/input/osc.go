package input

import (
	"context"
	"log"

	"github.com/chabad360/go-osc/osc"
	"github.com/layzsource/midi-morphing-power-arranger-sub000/src/paramgraph"
)

const oscSource = "osc"

// ListenToOSC serves OSC over UDP and routes messages into the graph
// until ctx is done. Address forms:
//
//	/param  <s:path> <f:value01>  -> SetInput
//	/nudge  <s:path> <f:delta>    -> Nudge
//	/window <s:id>                -> SetActiveWindow
func ListenToOSC(ctx context.Context, g *paramgraph.Graph, addr string) error {
	d := osc.NewStandardDispatcher()
	if err := d.AddMsgMethod("/param", func(msg *osc.Message) {
		handleParam(g, msg)
	}); err != nil {
		return err
	}
	if err := d.AddMsgMethod("/nudge", func(msg *osc.Message) {
		handleNudge(g, msg)
	}); err != nil {
		return err
	}
	if err := d.AddMsgMethod("/window", func(msg *osc.Message) {
		handleWindow(g, msg)
	}); err != nil {
		return err
	}
	server := &osc.Server{Addr: addr, Dispatcher: d}
	go func() {
		<-ctx.Done()
		log.Println("Closing OSC server...")
		if err := server.CloseConnection(); err != nil {
			log.Printf("error while closing OSC server: %v\n", err)
		}
	}()
	log.Printf("start listening OSC on %s...\n", addr)
	return server.ListenAndServe()
}

func handleParam(g *paramgraph.Graph, msg *osc.Message) {
	path, v, ok := pathValueArgs(msg)
	if !ok {
		log.Printf("ignored malformed OSC message: %v\n", msg)
		return
	}
	g.SetInput(oscSource, path, v)
}

func handleNudge(g *paramgraph.Graph, msg *osc.Message) {
	path, delta, ok := pathValueArgs(msg)
	if !ok {
		log.Printf("ignored malformed OSC message: %v\n", msg)
		return
	}
	g.Nudge(path, delta)
}

func handleWindow(g *paramgraph.Graph, msg *osc.Message) {
	if len(msg.Arguments) < 1 {
		return
	}
	id, ok := msg.Arguments[0].(string)
	if !ok {
		return
	}
	g.SetActiveWindow(id)
}

func pathValueArgs(msg *osc.Message) (string, float64, bool) {
	if len(msg.Arguments) < 2 {
		return "", 0, false
	}
	path, ok := msg.Arguments[0].(string)
	if !ok {
		return "", 0, false
	}
	v, ok := numericArg(msg.Arguments[1])
	return path, v, ok
}

func numericArg(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
