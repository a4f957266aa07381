package stream

import (
	"fmt"
	"sort"
	"strings"

	"skygraph.app/internal/graph"
)

// rebuildScene merges the weighted active tiles into one deduplicated scene.
// A sorted signature over (id, weight) short-circuits the rebuild: during a
// steady fade this runs every frame, and most frames change nothing else.
func (c *Controller) rebuildScene() {
	sig := weightSignature(c.weights)
	if sig == c.mergeSig {
		return
	}
	c.mergeSig = sig

	if len(c.weights) == 0 {
		if c.merged != nil {
			c.merged = nil
			c.revision++
		}
		return
	}

	ids := make([]graph.TileID, 0, len(c.weights))
	for id := range c.weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	scene := &MergedScene{
		Nodes: map[string]SceneNode{},
		Links: map[string]graph.Link{},
	}
	arrangeWeight := map[string]float64{}
	for _, id := range ids {
		tile, ok := c.loaded[id]
		if !ok {
			continue // protected-set bookkeeping should make this unreachable
		}
		w := c.weights[id]
		for _, n := range tile.payload.Nodes {
			if prev, seen := scene.Nodes[n.ID]; !seen || w >= prev.Blend {
				scene.Nodes[n.ID] = SceneNode{Node: n, Blend: w}
			}
		}
		for _, l := range tile.payload.Links {
			key := l.Source + "->" + l.Target
			if _, seen := scene.Links[key]; !seen {
				scene.Links[key] = l
			}
		}
		for nodeID, pos := range tile.payload.Arrangement {
			if scene.Arrangement == nil {
				scene.Arrangement = map[string]graph.Position{}
			}
			if prev, seen := arrangeWeight[nodeID]; !seen || w >= prev {
				scene.Arrangement[nodeID] = pos
				arrangeWeight[nodeID] = w
			}
		}
	}
	c.merged = scene
	c.revision++
}

// weightSignature produces a stable fingerprint of the active weight map,
// with weights rounded to 3 decimals so sub-visual changes do not force a
// rebuild.
func weightSignature(weights map[graph.TileID]float64) string {
	if len(weights) == 0 {
		return ""
	}
	parts := make([]string, 0, len(weights))
	for id, w := range weights {
		parts = append(parts, fmt.Sprintf("%s:%.3f", id, w))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
