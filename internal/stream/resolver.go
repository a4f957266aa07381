package stream

import "skygraph.app/internal/graph"

// resolve maps desired ids to loaded ids by walking each tile's parent chain
// until a loaded ancestor is found. Every returned id is in the cache. An
// empty result falls back to whichever roots happen to be loaded.
func (c *Controller) resolve(desired idSet) idSet {
	out := idSet{}
	for id := range desired {
		cur := id
		for {
			if tile, ok := c.loaded[cur]; ok {
				tile.lastUsed = c.frame
				out[cur] = struct{}{}
				break
			}
			parent, ok := c.parentOf(cur)
			if !ok {
				break // chain exhausted; this id contributes nothing
			}
			cur = parent
		}
	}
	if len(out) == 0 {
		for _, r := range c.provider.RootTileIDs() {
			if tile, ok := c.loaded[r]; ok {
				tile.lastUsed = c.frame
				out[r] = struct{}{}
			}
		}
	}
	return out
}

func (c *Controller) parentOf(id graph.TileID) (graph.TileID, bool) {
	if p, ok := c.provider.Parent(id); ok && p != "" {
		return p, true
	}
	if meta, ok := c.provider.Meta(id); ok && meta.Parent != "" {
		return meta.Parent, true
	}
	return "", false
}
