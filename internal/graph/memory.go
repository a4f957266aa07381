package graph

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Memory is an in-memory tile graph. It is the provider behind manifests and
// the demo generator.
type Memory struct {
	roots    []TileID
	parents  map[TileID]TileID
	metas    map[TileID]TileMeta
	children map[TileID][]TileID
	payloads map[TileID]TilePayload

	// FetchDelay, when set, makes Fetch sleep before returning. It exists so
	// a demo server over an in-memory graph still exercises the streaming
	// path instead of resolving everything on the first frame.
	FetchDelay time.Duration
}

func NewMemory() *Memory {
	return &Memory{
		parents:  map[TileID]TileID{},
		metas:    map[TileID]TileMeta{},
		children: map[TileID][]TileID{},
		payloads: map[TileID]TilePayload{},
	}
}

// AddTile registers a tile. parent is empty for roots; meta may be nil for
// tiles that cannot be culled.
func (m *Memory) AddTile(id TileID, parent TileID, meta *TileMeta, payload TilePayload) {
	if parent == "" {
		m.roots = append(m.roots, id)
	} else {
		m.parents[id] = parent
		m.children[parent] = append(m.children[parent], id)
	}
	if meta != nil {
		mm := *meta
		mm.Parent = parent
		m.metas[id] = mm
	}
	m.payloads[id] = payload
}

func (m *Memory) RootTileIDs() []TileID {
	out := make([]TileID, len(m.roots))
	copy(out, m.roots)
	return out
}

func (m *Memory) Children(id TileID) []TileID {
	kids := m.children[id]
	out := make([]TileID, len(kids))
	copy(out, kids)
	return out
}

func (m *Memory) Parent(id TileID) (TileID, bool) {
	p, ok := m.parents[id]
	return p, ok
}

func (m *Memory) Meta(id TileID) (TileMeta, bool) {
	meta, ok := m.metas[id]
	return meta, ok
}

func (m *Memory) Fetch(ctx context.Context, id TileID) (TilePayload, error) {
	if m.FetchDelay > 0 {
		select {
		case <-time.After(m.FetchDelay):
		case <-ctx.Done():
			return TilePayload{}, ctx.Err()
		}
	}
	p, ok := m.payloads[id]
	if !ok {
		return TilePayload{}, fmt.Errorf("tile %q: not in graph", id)
	}
	return p, nil
}

// TileIDs returns every tile id in the graph, sorted.
func (m *Memory) TileIDs() []TileID {
	ids := make([]TileID, 0, len(m.payloads))
	for id := range m.payloads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
