package input

import (
	"context"
	"log"

	"github.com/layzsource/midi-morphing-power-arranger-sub000/src/paramgraph"
	"gitlab.com/gomidi/rtmididrv"
)

// CC identifies a control-change lane on one MIDI channel.
type CC struct {
	Channel    uint8
	Controller uint8
}

// CCMap resolves control-change lanes to parameter paths.
type CCMap map[CC]string

// MIDIConfig describes how raw MIDI messages from one port map onto
// the graph. Source is the owner id the router records, e.g. "midi/0".
type MIDIConfig struct {
	Source   string
	CCs      CCMap
	BendPath string // parameter driven by pitch bend, empty to ignore
}

// ListenToMidiIn opens the first MIDI IN port and forwards raw
// messages until ctx is done. The channel closes when the port closes;
// failures are logged, never fatal.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			if err := in.Close(); err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			ch <- data
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			if err := in.StopListening(); err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// RouteMIDI drains raw MIDI messages into the graph until ch closes,
// then retracts every modulation owned by cfg.Source so a disconnected
// device leaves no stale rules behind.
func RouteMIDI(g *paramgraph.Graph, cfg MIDIConfig, ch <-chan []byte) {
	for data := range ch {
		path, v, ok := cfg.resolve(data)
		if !ok {
			continue
		}
		g.SetInput(cfg.Source, path, v)
	}
	g.Clear(func(m *paramgraph.Modulation) bool {
		return m.Source == cfg.Source
	})
	log.Printf("RouteMIDI(%s) ended.\n", cfg.Source)
}

func (c MIDIConfig) resolve(data []byte) (string, float64, bool) {
	if len(data) < 3 {
		return "", 0, false
	}
	channel := data[0] & 0x0f
	switch data[0] >> 4 {
	case 0xb: // control change
		path, ok := c.CCs[CC{Channel: channel, Controller: data[1]}]
		if !ok {
			return "", 0, false
		}
		return path, float64(data[2]) / 127, true
	case 0xe: // pitch bend, 14-bit LSB first
		if c.BendPath == "" {
			return "", 0, false
		}
		raw := int(data[2])<<7 | int(data[1])
		return c.BendPath, float64(raw) / 16383, true
	}
	return "", 0, false
}
