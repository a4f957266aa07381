package graph

import (
	"fmt"
	"math"
)

// DemoSpec controls the generated demo graph.
type DemoSpec struct {
	Seed      int64
	Roots     int // tiles in the top ring
	Branching int // children per tile
	Depth     int // levels below the roots
	NodesPer  int // graph nodes per tile
}

func DefaultDemoSpec() DemoSpec {
	return DemoSpec{Seed: 1337, Roots: 6, Branching: 3, Depth: 2, NodesPer: 4}
}

// GenerateDemo builds a deterministic spherical hierarchy: root tiles spread
// around the equator, each level subdividing its parent's angular patch.
// Useful for running the server with zero assets.
func GenerateDemo(spec DemoSpec) *Memory {
	if spec.Roots <= 0 {
		spec.Roots = 6
	}
	if spec.Branching <= 0 {
		spec.Branching = 3
	}
	if spec.NodesPer <= 0 {
		spec.NodesPer = 4
	}

	m := NewMemory()
	rootRadius := 180.0 / float64(spec.Roots) * 1.2
	for i := 0; i < spec.Roots; i++ {
		yaw := 360.0 * float64(i) / float64(spec.Roots)
		id := TileID(fmt.Sprintf("r%d", i))
		addDemoTile(m, spec, id, "", yaw, 0, rootRadius, 0)
	}
	return m
}

func addDemoTile(m *Memory, spec DemoSpec, id, parent TileID, yaw, pitch, radius float64, depth int) {
	meta := &TileMeta{CenterYaw: wrapYaw(yaw), CenterPitch: pitch, AngularRadius: radius}
	m.AddTile(id, parent, meta, demoPayload(spec, id, yaw, pitch, radius))

	if depth >= spec.Depth {
		return
	}
	childRadius := radius / 2
	for c := 0; c < spec.Branching; c++ {
		// Children fan out inside the parent patch.
		a := 2 * math.Pi * float64(c) / float64(spec.Branching)
		cy := yaw + childRadius*math.Cos(a)
		cp := clampPitch(pitch + childRadius*math.Sin(a))
		cid := TileID(fmt.Sprintf("%s.%d", id, c))
		addDemoTile(m, spec, cid, id, cy, cp, childRadius, depth+1)
	}
}

func demoPayload(spec DemoSpec, id TileID, yaw, pitch, radius float64) TilePayload {
	h := demoHash(spec.Seed, string(id))
	p := TilePayload{Arrangement: map[string]Position{}}
	var prev string
	for n := 0; n < spec.NodesPer; n++ {
		nodeID := fmt.Sprintf("%s/n%d", id, n)
		p.Nodes = append(p.Nodes, Node{
			ID:    nodeID,
			Label: fmt.Sprintf("%s %d", id, n),
			Kind:  demoKinds[(h>>uint(n*4))%uint64(len(demoKinds))],
		})
		// Scatter nodes inside the tile patch.
		a := 2 * math.Pi * float64(n) / float64(spec.NodesPer)
		r := radius * 0.6
		p.Arrangement[nodeID] = Position{
			Yaw:   wrapYaw(yaw + r*math.Cos(a)),
			Pitch: clampPitch(pitch + r*math.Sin(a)),
		}
		if prev != "" {
			p.Links = append(p.Links, Link{Source: prev, Target: nodeID})
		}
		prev = nodeID
	}
	return p
}

var demoKinds = []string{"star", "probe", "relay", "beacon"}

// demoHash is an FNV-1a over the seed and id, enough for stable variety.
func demoHash(seed int64, s string) uint64 {
	h := uint64(14695981039346656037) ^ uint64(seed)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func wrapYaw(y float64) float64 {
	y = math.Mod(y, 360)
	if y < 0 {
		y += 360
	}
	return y
}

func clampPitch(p float64) float64 {
	if p < -90 {
		return -90
	}
	if p > 90 {
		return 90
	}
	return p
}
