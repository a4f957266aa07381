package stream

import (
	"math"

	"skygraph.app/internal/graph"
)

// selectDesired computes the tile ids the current view wants, walking the
// hierarchy breadth-first from the roots. Tiles outside the view cone are
// pruned with their whole subtree; visible tiles refine into children only
// while the field of view is narrow enough for the current depth.
func (c *Controller) selectDesired(v graph.ViewerState) idSet {
	roots := c.provider.RootTileIDs()

	if ov, ok := c.provider.(graph.SelectorOverride); ok {
		if ids := ov.SelectTiles(v); ids != nil {
			return newIDSet(ids...)
		}
	}
	if !c.cfg.Selector.Enabled {
		return newIDSet(roots...)
	}

	sel := c.cfg.Selector
	out := idSet{}

	type qitem struct {
		id    graph.TileID
		depth int
	}
	queue := make([]qitem, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, qitem{id: r})
	}

	for len(queue) > 0 && len(out) < sel.MaxSelectedTiles {
		it := queue[0]
		queue = queue[1:]

		meta, hasMeta := c.provider.Meta(it.id)
		if hasMeta {
			dist := angularDistance(v.Yaw, v.Pitch, meta.CenterYaw, meta.CenterPitch)
			if dist > v.FOV/2+meta.AngularRadius*sel.RadiusSlack {
				continue // invisible: prune the subtree
			}
		}

		children := c.provider.Children(it.id)
		refine := len(children) > 0 &&
			it.depth < sel.MaxDepth &&
			v.FOV <= refinementThreshold(sel.RefinementFOV, it.depth)
		if refine {
			for _, ch := range children {
				queue = append(queue, qitem{id: ch, depth: it.depth + 1})
			}
			// A tile without meta stays selected: its children may all be
			// culled and something must represent this branch.
			if !hasMeta {
				out[it.id] = struct{}{}
			}
			continue
		}
		out[it.id] = struct{}{}
	}

	if len(out) == 0 {
		return newIDSet(roots...)
	}
	return out
}

// refinementThreshold is the widest field of view at which tiles of the given
// depth still refine into children: the base angle halved per level.
func refinementThreshold(base float64, depth int) float64 {
	return base / math.Pow(2, float64(depth))
}

// angularDistance is the angle in degrees between two view directions,
// taking the short way around on the yaw axis.
func angularDistance(yawA, pitchA, yawB, pitchB float64) float64 {
	dy := yawDelta(yawA, yawB)
	dp := pitchA - pitchB
	return math.Hypot(dy, dp)
}

// yawDelta wraps the yaw difference into [-180, 180]. Naive subtraction
// would see 359° and 1° as far apart and cause pop-in at the seam.
func yawDelta(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return d
}
