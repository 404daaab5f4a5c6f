package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/layzsource/midi-morphing-power-arranger-sub000/src/input"
	"github.com/layzsource/midi-morphing-power-arranger-sub000/src/paramgraph"
	"golang.org/x/sync/errgroup"
)

var (
	sockFile    = flag.String("sock", "/tmp/paramgraph.sock", "unix socket for the control connection")
	snapshotDir = flag.String("snapshots", "work/snapshots", "directory for named snapshots")
	oscAddr     = flag.String("osc", "", "UDP listen address for OSC input, empty to disable")
	midiIn      = flag.Bool("midi", false, "listen to the first MIDI IN port")
	ccMapSpec   = flag.String("ccmap", "", "MIDI CC routing, e.g. 0:1=cube.morph,0:2=main.rotY")
	bendPath    = flag.String("bend", "", "parameter path driven by pitch bend")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	graph := paramgraph.New()
	store := paramgraph.NewStore(*snapshotDir, graph)
	reports := newChanges()
	graph.OnChange(reports.add)

	midiCfg, err := parseCCMap(*ccMapSpec)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	midiCfg.BendPath = *bendPath

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, *sockFile, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return graph.Run(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, graph, store)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, reports)
		})
		if *midiIn {
			midiCh := input.ListenToMidiIn(ctx)
			g.Go(func() error {
				input.RouteMIDI(graph, midiCfg, midiCh)
				return nil
			})
		}
		if *oscAddr != "" {
			g.Go(func() error {
				err := input.ListenToOSC(ctx, graph, *oscAddr)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		}
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		if err := listener.Close(); err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, graph *paramgraph.Graph, store *paramgraph.Store) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		// A malformed command must never abort a show; log and move on.
		if err := handleCommand(graph, store, command); err != nil {
			log.Printf("command failed: %v\n", err)
		}
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func handleCommand(graph *paramgraph.Graph, store *paramgraph.Store, command []string) error {
	switch command[0] {
	case "register", "ensure":
		if len(command) < 2 {
			return fmt.Errorf("%s needs an id", command[0])
		}
		spec, err := parseParameterSpec(command[2:])
		if err != nil {
			return err
		}
		if command[0] == "register" {
			graph.Register(command[1], spec)
		} else {
			graph.Ensure(command[1], spec)
		}
	case "input":
		if len(command) != 4 {
			return fmt.Errorf("input needs source, path and value")
		}
		v, err := strconv.ParseFloat(command[3], 64)
		if err != nil {
			return err
		}
		graph.SetInput(command[1], command[2], v)
	case "nudge":
		if len(command) != 3 {
			return fmt.Errorf("nudge needs path and delta")
		}
		delta, err := strconv.ParseFloat(command[2], 64)
		if err != nil {
			return err
		}
		graph.Nudge(command[1], delta)
	case "mod":
		if len(command) < 3 {
			return fmt.Errorf("mod needs source and path")
		}
		spec, err := parseModulationSpec(command[1], command[2], command[3:])
		if err != nil {
			return err
		}
		graph.AddModulation(spec)
	case "mod_clear":
		if len(command) != 2 {
			return fmt.Errorf("mod_clear needs a source")
		}
		source := command[1]
		graph.Clear(func(m *paramgraph.Modulation) bool {
			return m.Source == source
		})
	case "window":
		if len(command) != 2 {
			return fmt.Errorf("window needs an id")
		}
		graph.SetActiveWindow(command[1])
	case "snapshot_save":
		if len(command) != 2 {
			return fmt.Errorf("snapshot_save needs a name")
		}
		return store.Save(command[1])
	case "snapshot_load":
		if len(command) != 2 {
			return fmt.Errorf("snapshot_load needs a name")
		}
		return store.Apply(command[1])
	case "reset_targets":
		graph.ResetTargetsToValues()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseParameterSpec(args []string) (paramgraph.ParameterSpec, error) {
	spec := paramgraph.DefaultSpec()
	for len(args) >= 2 {
		key, value := args[0], args[1]
		args = args[2:]
		switch key {
		case "scope":
			spec.Scope = value
		case "tag":
			spec.Tags = append(spec.Tags, value)
		case "value", "min", "max", "smoothing":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return spec, err
			}
			switch key {
			case "value":
				spec.Value = v
			case "min":
				spec.Min = v
			case "max":
				spec.Max = v
			case "smoothing":
				spec.Smoothing = v
			}
		default:
			return spec, fmt.Errorf("unknown parameter option %v", key)
		}
	}
	if len(args) != 0 {
		return spec, fmt.Errorf("dangling parameter option %v", args[0])
	}
	return spec, nil
}

func parseModulationSpec(source, path string, args []string) (paramgraph.ModulationSpec, error) {
	spec := paramgraph.DefaultModulationSpec(source, path)
	for len(args) > 0 {
		key := args[0]
		args = args[1:]
		if key == "disabled" {
			spec.Disabled = true
			continue
		}
		if len(args) == 0 {
			return spec, fmt.Errorf("dangling modulation option %v", key)
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return spec, err
		}
		args = args[1:]
		switch key {
		case "gain":
			spec.Gain = v
		case "bias":
			spec.Bias = v
		case "priority":
			spec.Priority = v
		default:
			return spec, fmt.Errorf("unknown modulation option %v", key)
		}
	}
	return spec, nil
}

func parseCCMap(s string) (input.MIDIConfig, error) {
	cfg := input.MIDIConfig{
		Source: "midi/0",
		CCs:    input.CCMap{},
	}
	if s == "" {
		return cfg, nil
	}
	for _, entry := range strings.Split(s, ",") {
		laneAndPath := strings.SplitN(entry, "=", 2)
		if len(laneAndPath) != 2 {
			return cfg, fmt.Errorf("invalid ccmap entry %q", entry)
		}
		lane := strings.SplitN(laneAndPath[0], ":", 2)
		if len(lane) != 2 {
			return cfg, fmt.Errorf("invalid ccmap lane %q", laneAndPath[0])
		}
		channel, err := strconv.ParseUint(lane[0], 10, 8)
		if err != nil {
			return cfg, err
		}
		controller, err := strconv.ParseUint(lane[1], 10, 8)
		if err != nil {
			return cfg, err
		}
		cfg.CCs[input.CC{Channel: uint8(channel), Controller: uint8(controller)}] = laneAndPath[1]
	}
	return cfg, nil
}

// ----- Changes ----- //

// changes tracks values that moved since the last report so the wire
// only carries dirty parameters.
type changes struct {
	sync.Mutex
	dict map[string]float64
	last map[string]float64
}

func newChanges() *changes {
	return &changes{
		dict: make(map[string]float64),
		last: make(map[string]float64),
	}
}

func (c *changes) add(id string, value float64) {
	c.Lock()
	if last, ok := c.last[id]; !ok || last != value {
		c.dict[id] = value
	}
	c.Unlock()
}

func (c *changes) drain() map[string]float64 {
	c.Lock()
	out := c.dict
	c.dict = make(map[string]float64)
	for id, v := range out {
		c.last[id] = v
	}
	c.Unlock()
	return out
}

func sendReports(ctx context.Context, conn net.Conn, reports *changes) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			for id, value := range reports.drain() {
				s := "param " + url.QueryEscape(id) + " " + strconv.FormatFloat(value, 'f', 6, 64)
				select {
				case <-ctx.Done():
					log.Println("sendReports() interrupted")
					break loop
				default:
					conn.Write([]byte(s + "\n"))
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
