// Package graph models a tile graph: a hierarchy of scene tiles, each tile
// carrying a fragment of a node-link graph pinned to a direction on the
// viewing sphere.
package graph

import "context"

// TileID is unique within one graph.
type TileID string

// TileMeta is derived once from a tile's content. A tile without meta cannot
// be culled and is treated as always visible.
type TileMeta struct {
	CenterYaw     float64
	CenterPitch   float64
	AngularRadius float64
	Parent        TileID // empty for roots
}

// Node is one graph node contributed by a tile.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// Link is a directed edge between two node ids.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Position is an angular placement on the viewing sphere, degrees.
type Position struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// TilePayload is the content a tile contributes to the scene.
type TilePayload struct {
	Nodes       []Node              `json:"nodes"`
	Links       []Link              `json:"links,omitempty"`
	Arrangement map[string]Position `json:"arrangement,omitempty"`
}

// Provider exposes a tile hierarchy and an asynchronous per-tile fetch.
// RootTileIDs, Children, Parent and Meta must be cheap and synchronous;
// Fetch may take arbitrarily long and may fail.
type Provider interface {
	RootTileIDs() []TileID
	Children(id TileID) []TileID
	Parent(id TileID) (TileID, bool)
	Meta(id TileID) (TileMeta, bool)
	Fetch(ctx context.Context, id TileID) (TilePayload, error)
}

// ViewerState is the sampled viewer orientation and field of view, degrees.
type ViewerState struct {
	Yaw   float64
	Pitch float64
	FOV   float64
}

// SelectorOverride lets a provider replace the built-in tile selector.
type SelectorOverride interface {
	SelectTiles(v ViewerState) []TileID
}
