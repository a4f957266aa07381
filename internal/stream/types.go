// Package stream decides which tiles of a tile graph to keep in memory for
// one viewer: selection by view direction, bounded-concurrency loading,
// ancestor fallback, timed cross-fades between detail sets, and LRU eviction.
//
// All controller state is confined to the goroutine that calls Update; fetch
// completions arrive over a channel and are applied there. This mirrors a
// single-threaded cooperative loop and needs no locks.
package stream

import "skygraph.app/internal/graph"

// Config is the full controller configuration. A zero value is usable after
// withDefaults.
type Config struct {
	Enabled            bool
	MaxLoadedTiles     int
	MaxConcurrentLoads int
	TransitionFrames   int
	Selector           SelectorConfig
}

type SelectorConfig struct {
	Enabled          bool
	RefinementFOV    float64 // degrees; halved at each depth
	MaxDepth         int
	MaxSelectedTiles int
	RadiusSlack      float64 // visibility slack on a tile's angular radius
}

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		MaxLoadedTiles:     20,
		MaxConcurrentLoads: 3,
		TransitionFrames:   10,
		Selector: SelectorConfig{
			Enabled:          true,
			RefinementFOV:    70,
			MaxDepth:         4,
			MaxSelectedTiles: 24,
			RadiusSlack:      1.35,
		},
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxLoadedTiles <= 0 {
		c.MaxLoadedTiles = def.MaxLoadedTiles
	}
	if c.MaxConcurrentLoads <= 0 {
		c.MaxConcurrentLoads = def.MaxConcurrentLoads
	}
	if c.TransitionFrames < 0 {
		c.TransitionFrames = def.TransitionFrames
	}
	if c.Selector.RefinementFOV <= 0 {
		c.Selector.RefinementFOV = def.Selector.RefinementFOV
	}
	if c.Selector.MaxDepth <= 0 {
		c.Selector.MaxDepth = def.Selector.MaxDepth
	}
	if c.Selector.MaxSelectedTiles <= 0 {
		c.Selector.MaxSelectedTiles = def.Selector.MaxSelectedTiles
	}
	if c.Selector.RadiusSlack <= 0 {
		c.Selector.RadiusSlack = def.Selector.RadiusSlack
	}
	return c
}

// loadedTile is one cache entry.
type loadedTile struct {
	id       graph.TileID
	payload  graph.TilePayload
	lastUsed uint64 // frame index of the last reference
}

// SceneNode is a merged node annotated with its cross-fade contribution.
type SceneNode struct {
	graph.Node
	Blend float64 `json:"blend"`
}

// MergedScene is the deduplicated union of all active tiles.
type MergedScene struct {
	Nodes map[string]SceneNode
	Links map[string]graph.Link // keyed "source->target"
	// Arrangement is nil unless at least one contributing tile supplied one.
	Arrangement map[string]graph.Position
}

// DebugStats is a cheap snapshot of controller internals.
type DebugStats struct {
	Desired       int
	Resolved      int
	Active        int
	Loaded        int
	InFlight      int
	Queued        int
	Transitioning bool
}

type idSet map[graph.TileID]struct{}

func newIDSet(ids ...graph.TileID) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id graph.TileID) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s idSet) equal(other idSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.has(id) {
			return false
		}
	}
	return true
}
