package ws

import (
	"encoding/json"
	"sort"
	"time"

	"skygraph.app/internal/graph"
	"skygraph.app/internal/protocol"
	"skygraph.app/internal/stream"
)

// session drives one viewer's controller at the configured tick rate. All
// controller access happens on this goroutine; the reader only feeds views
// through a channel.
type session struct {
	id       string
	ctrl     *stream.Controller
	tickRate int
	views    chan protocol.ViewMsg
	out      chan []byte
}

func (s *session) run(stop <-chan struct{}) {
	defer s.ctrl.Dispose()

	tickRate := s.tickRate
	if tickRate <= 0 {
		tickRate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	view := graph.ViewerState{FOV: 90}
	haveView := false
	wantStats := false
	var frame uint64
	var lastSent uint64

	for {
		select {
		case <-stop:
			return
		case v := <-s.views:
			view = graph.ViewerState{Yaw: v.YawDeg, Pitch: v.PitchDeg, FOV: v.FovDeg}
			haveView = true
			if v.WantStats {
				wantStats = true
			}
		case <-ticker.C:
			if !haveView {
				continue
			}
			frame++
			s.ctrl.Update(view, frame)
			if rev := s.ctrl.Revision(); rev != lastSent {
				lastSent = rev
				s.send(encodeScene(s.ctrl, rev, frame))
			}
			if wantStats {
				wantStats = false
				st := s.ctrl.DebugStats()
				s.send(protocol.StatsMsg{
					Type:          protocol.TypeStats,
					Frame:         frame,
					Desired:       st.Desired,
					Resolved:      st.Resolved,
					Active:        st.Active,
					Loaded:        st.Loaded,
					InFlight:      st.InFlight,
					Queued:        st.Queued,
					Transitioning: st.Transitioning,
				})
			}
		}
	}
}

func (s *session) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	// Drop when the client cannot keep up; the next revision supersedes.
	select {
	case s.out <- b:
	default:
	}
}

func encodeScene(ctrl *stream.Controller, rev, frame uint64) protocol.SceneMsg {
	msg := protocol.SceneMsg{
		Type:          protocol.TypeScene,
		Revision:      rev,
		Frame:         frame,
		Transitioning: ctrl.DebugStats().Transitioning,
	}
	scene := ctrl.MergedScene()
	if scene == nil {
		return msg
	}
	for _, n := range scene.Nodes {
		msg.Nodes = append(msg.Nodes, protocol.SceneNode{
			ID:    n.ID,
			Label: n.Label,
			Kind:  n.Kind,
			Blend: n.Blend,
		})
	}
	sort.Slice(msg.Nodes, func(i, j int) bool { return msg.Nodes[i].ID < msg.Nodes[j].ID })
	for _, l := range scene.Links {
		msg.Links = append(msg.Links, protocol.SceneLink{Source: l.Source, Target: l.Target})
	}
	sort.Slice(msg.Links, func(i, j int) bool {
		if msg.Links[i].Source != msg.Links[j].Source {
			return msg.Links[i].Source < msg.Links[j].Source
		}
		return msg.Links[i].Target < msg.Links[j].Target
	})
	if scene.Arrangement != nil {
		msg.Arrangement = map[string]protocol.ScenePosition{}
		for nodeID, pos := range scene.Arrangement {
			msg.Arrangement[nodeID] = protocol.ScenePosition{YawDeg: pos.Yaw, PitchDeg: pos.Pitch}
		}
	}
	return msg
}
