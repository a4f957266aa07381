package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skygraph.app/internal/graph"
	"skygraph.app/internal/protocol"
	"skygraph.app/internal/stream"
	"skygraph.app/internal/tuning"
)

// Server upgrades viewer connections and runs one streaming session per
// connection. Each session owns its own stream.Controller; nothing is shared
// between viewers.
type Server struct {
	provider graph.Provider
	tune     tuning.Tuning
	log      *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(provider graph.Provider, tune tuning.Tuning, logger *log.Logger) *Server {
	return &Server{
		provider: provider,
		tune:     tune,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, out := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s: connected", sess.id)
		defer s.log.Printf("session %s: closed", sess.id)

		stop := make(chan struct{})

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-stop:
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Session loop goroutine: owns the controller.
		go sess.run(stop)

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeView {
				continue
			}
			var view protocol.ViewMsg
			if err := json.Unmarshal(msg, &view); err != nil {
				continue
			}
			if view.ProtocolVersion != protocol.Version {
				continue
			}
			// Keep only the most recent view; stale samples are worthless.
			select {
			case sess.views <- view:
			default:
				select {
				case <-sess.views:
				default:
				}
				select {
				case sess.views <- view:
				default:
				}
			}
		}
		close(stop)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		s.closeWith(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return nil, nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		s.closeWith(conn, protocol.ErrProtoBadRequest, "bad HELLO")
		return nil, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.closeWith(conn, protocol.ErrProtoVersion, "bad protocol_version")
		return nil, nil
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out := make(chan []byte, maxQ)

	roots := s.provider.RootTileIDs()
	rootIDs := make([]string, 0, len(roots))
	for _, r := range roots {
		rootIDs = append(rootIDs, string(r))
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		TickRateHz:      s.tune.TickRateHz,
		RootTiles:       rootIDs,
		TuningDigest:    s.tune.Digest(),
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return nil, nil
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return nil, nil
	}

	ctrl := stream.New(s.provider, stream.Config{
		Enabled:            s.tune.Stream.Enabled,
		MaxLoadedTiles:     s.tune.Stream.MaxLoadedTiles,
		MaxConcurrentLoads: s.tune.Stream.MaxConcurrentLoads,
		TransitionFrames:   s.tune.Stream.TransitionFrames,
		Selector: stream.SelectorConfig{
			Enabled:          s.tune.Stream.Selector.Enabled,
			RefinementFOV:    s.tune.Stream.Selector.RefinementFovDeg,
			MaxDepth:         s.tune.Stream.Selector.MaxDepth,
			MaxSelectedTiles: s.tune.Stream.Selector.MaxSelectedTiles,
			RadiusSlack:      s.tune.Stream.Selector.RadiusSlack,
		},
	})

	return &session{
		id:       welcome.SessionID,
		ctrl:     ctrl,
		tickRate: s.tune.TickRateHz,
		views:    make(chan protocol.ViewMsg, 1),
		out:      out,
	}, out
}

func (s *Server) closeWith(conn *websocket.Conn, code, msg string) {
	b, _ := json.Marshal(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: msg})
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = conn.WriteMessage(websocket.TextMessage, b)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(time.Second))
}
