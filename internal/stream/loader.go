package stream

import "skygraph.app/internal/graph"

type fetchResult struct {
	gen     uint64
	id      graph.TileID
	payload graph.TilePayload
	err     error
}

// enqueueLoad queues a tile for fetching. It is a no-op when the tile is
// already loaded, in flight, or queued. Previously failed tiles are none of
// those, so a tile that is still desired is retried on a later frame.
func (c *Controller) enqueueLoad(id graph.TileID) {
	if _, ok := c.loaded[id]; ok {
		return
	}
	if c.inFlight.has(id) || c.queued.has(id) {
		return
	}
	c.queued[id] = struct{}{}
	c.queue = append(c.queue, id)
}

// pumpQueue starts fetches for queued tiles up to the concurrency cap.
// It never blocks; results come back over c.done.
func (c *Controller) pumpQueue() {
	for len(c.queue) > 0 && len(c.inFlight) < c.cfg.MaxConcurrentLoads {
		id := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.queued, id)
		if _, ok := c.loaded[id]; ok {
			continue
		}
		if c.inFlight.has(id) {
			continue
		}
		c.inFlight[id] = struct{}{}
		go c.runFetch(c.gen, id)
	}
}

func (c *Controller) runFetch(gen uint64, id graph.TileID) {
	payload, err := c.provider.Fetch(c.ctx, id)
	res := fetchResult{gen: gen, id: id, payload: payload, err: err}
	select {
	case c.done <- res:
	default:
		// Channel full. Only reachable for stale-generation stragglers after
		// the owner stopped draining; dropping them is what a drain would do.
	}
}

// drainCompletions applies every fetch result that has arrived since the
// last call. Runs on the owner goroutine.
func (c *Controller) drainCompletions() bool {
	changed := false
	for {
		select {
		case res := <-c.done:
			if c.applyFetchResult(res) {
				changed = true
			}
		default:
			return changed
		}
	}
}

// applyFetchResult caches a fetched tile, prefetches its children, and
// re-resolves. Reports whether the resolved set changed.
func (c *Controller) applyFetchResult(res fetchResult) bool {
	if res.gen != c.gen {
		return false // fetch from before a reset; its state is gone
	}
	delete(c.inFlight, res.id)
	if res.err != nil {
		// Swallowed: the tile stays unloaded and, while still desired, gets
		// re-enqueued by a later Update.
		c.pumpQueue()
		return false
	}

	c.loaded[res.id] = &loadedTile{id: res.id, payload: res.payload, lastUsed: c.frame}
	for _, ch := range c.provider.Children(res.id) {
		c.enqueueLoad(ch)
	}

	changed := c.reresolve()
	c.rebuildScene()
	c.evictIfNeeded()
	c.pumpQueue()
	return changed
}
