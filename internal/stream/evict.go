package stream

import "sort"

// evictIfNeeded drives the cache back toward the configured cap, removing
// the least recently used unprotected tiles first. Tiles the viewer can
// currently see, or that a fade still references, are never evicted; if
// everything is protected the cap stays exceeded until the fade ends.
func (c *Controller) evictIfNeeded() {
	if len(c.loaded) <= c.cfg.MaxLoadedTiles {
		return
	}

	protected := c.resolved.clone()
	for id := range c.trans.active {
		protected[id] = struct{}{}
	}
	for id := range c.trans.from {
		protected[id] = struct{}{}
	}
	for id := range c.trans.to {
		protected[id] = struct{}{}
	}

	candidates := make([]*loadedTile, 0, len(c.loaded))
	for id, tile := range c.loaded {
		if !protected.has(id) {
			candidates = append(candidates, tile)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].lastUsed != candidates[j].lastUsed {
			return candidates[i].lastUsed < candidates[j].lastUsed
		}
		return candidates[i].id < candidates[j].id
	})

	for _, tile := range candidates {
		if len(c.loaded) <= c.cfg.MaxLoadedTiles {
			break
		}
		delete(c.loaded, tile.id)
	}
}
