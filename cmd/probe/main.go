// probe is a demo viewer: it connects to a server, sweeps the view around
// the yaw axis while narrowing the field of view, and logs every scene
// revision it receives.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"skygraph.app/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "probe", "client name")
		sweepS = flag.Float64("sweep", 30, "seconds per full yaw sweep")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[probe] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	// View sweeper: full yaw circle per sweep period, FOV breathing between
	// 20 and 100 degrees so the selector alternates between rings and leaves.
	go func() {
		start := time.Now()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		n := 0
		for range ticker.C {
			t := time.Since(start).Seconds()
			n++
			view := protocol.ViewMsg{
				Type:            protocol.TypeView,
				ProtocolVersion: protocol.Version,
				YawDeg:          math.Mod(t/(*sweepS)*360, 360),
				PitchDeg:        15 * math.Sin(t/7),
				FovDeg:          60 + 40*math.Sin(t/5),
				WantStats:       n%40 == 0,
			}
			if err := conn.WriteJSON(view); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick_rate=%d roots=%d", w.SessionID, w.TickRateHz, len(w.RootTiles))

		case protocol.TypeScene:
			var sc protocol.SceneMsg
			if err := json.Unmarshal(msg, &sc); err != nil {
				continue
			}
			logger.Printf("SCENE rev=%d frame=%d nodes=%d links=%d transitioning=%v",
				sc.Revision, sc.Frame, len(sc.Nodes), len(sc.Links), sc.Transitioning)

		case protocol.TypeStats:
			var st protocol.StatsMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			logger.Printf("STATS desired=%d resolved=%d active=%d loaded=%d in_flight=%d queued=%d",
				st.Desired, st.Resolved, st.Active, st.Loaded, st.InFlight, st.Queued)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}
