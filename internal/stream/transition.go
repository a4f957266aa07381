package stream

import "skygraph.app/internal/graph"

// minWeight is the floor below which a fading tile stops contributing.
const minWeight = 0.001

// transition is the cross-fade state machine. When from and to are nil the
// controller is stable and active equals the last resolved set.
type transition struct {
	active     idSet
	from, to   idSet
	startFrame uint64
}

func (t *transition) transitioning() bool { return t.to != nil }

// beginTransition reacts to a freshly resolved set. When a fade makes no
// sense (first content, zero-length fades, no visible change) the new set is
// adopted immediately.
func (c *Controller) beginTransition(resolved idSet) {
	t := &c.trans
	if len(t.active) == 0 || c.cfg.TransitionFrames <= 0 {
		t.active = resolved.clone()
		t.from, t.to = nil, nil
		return
	}

	// A change arriving mid-fade restarts the fade from whatever is active
	// now, so nothing visible jumps.
	from := t.active.clone()
	if from.equal(resolved) {
		t.active = resolved.clone()
		t.from, t.to = nil, nil
		return
	}
	t.from = from
	t.to = resolved.clone()
	t.startFrame = c.frame
	// While fading, everything from either side is active.
	union := from.clone()
	for id := range t.to {
		union[id] = struct{}{}
	}
	t.active = union
}

// advanceTransition recomputes blend weights for the current frame and
// finishes the fade once progress reaches 1.
func (c *Controller) advanceTransition() {
	t := &c.trans
	if !t.transitioning() {
		c.weights = stableWeights(t.active)
		return
	}

	frames := uint64(c.cfg.TransitionFrames)
	elapsed := c.frame - t.startFrame
	if elapsed >= frames {
		t.active = t.to
		t.from, t.to = nil, nil
		c.weights = stableWeights(t.active)
		return
	}

	p := float64(elapsed) / float64(frames)
	w := make(map[graph.TileID]float64, len(t.active))
	for id := range t.from {
		if t.to.has(id) {
			w[id] = 1 // survives the transition: never flickers
			continue
		}
		if out := 1 - p; out > minWeight {
			w[id] = out
		}
	}
	for id := range t.to {
		if t.from.has(id) {
			continue // already pinned above
		}
		if in := p; in > minWeight {
			w[id] = in
		}
	}
	c.weights = w
}

func stableWeights(active idSet) map[graph.TileID]float64 {
	w := make(map[graph.TileID]float64, len(active))
	for id := range active {
		w[id] = 1
	}
	return w
}
