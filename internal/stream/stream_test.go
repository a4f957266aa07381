package stream

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"skygraph.app/internal/graph"
)

// fakeProvider is an instrumented tile graph for controller tests. Hierarchy
// lookups are plain maps; Fetch can be delayed, gated or failed per tile and
// records call and concurrency counts on the provider side, so tests never
// reach into controller state from another goroutine.
type fakeProvider struct {
	roots    []graph.TileID
	parents  map[graph.TileID]graph.TileID
	children map[graph.TileID][]graph.TileID
	metas    map[graph.TileID]graph.TileMeta
	payloads map[graph.TileID]graph.TilePayload

	mu       sync.Mutex
	delays   map[graph.TileID]time.Duration
	fail     map[graph.TileID]bool
	gate     chan struct{} // when non-nil, Fetch blocks here
	started  chan graph.TileID
	calls    map[graph.TileID]int
	inFlight int
	peak     int

	override func(v graph.ViewerState) []graph.TileID
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		parents:  map[graph.TileID]graph.TileID{},
		children: map[graph.TileID][]graph.TileID{},
		metas:    map[graph.TileID]graph.TileMeta{},
		payloads: map[graph.TileID]graph.TilePayload{},
		delays:   map[graph.TileID]time.Duration{},
		fail:     map[graph.TileID]bool{},
		calls:    map[graph.TileID]int{},
	}
}

// addTile wires one tile with a single node named after the tile.
func (f *fakeProvider) addTile(id, parent graph.TileID, meta *graph.TileMeta) {
	if parent == "" {
		f.roots = append(f.roots, id)
	} else {
		f.parents[id] = parent
		f.children[parent] = append(f.children[parent], id)
	}
	if meta != nil {
		m := *meta
		m.Parent = parent
		f.metas[id] = m
	}
	f.payloads[id] = graph.TilePayload{
		Nodes: []graph.Node{{ID: string(id) + "/n", Label: string(id)}},
	}
}

func (f *fakeProvider) RootTileIDs() []graph.TileID { return f.roots }

func (f *fakeProvider) Children(id graph.TileID) []graph.TileID { return f.children[id] }

func (f *fakeProvider) Parent(id graph.TileID) (graph.TileID, bool) {
	p, ok := f.parents[id]
	return p, ok
}

func (f *fakeProvider) Meta(id graph.TileID) (graph.TileMeta, bool) {
	m, ok := f.metas[id]
	return m, ok
}

func (f *fakeProvider) Fetch(ctx context.Context, id graph.TileID) (graph.TilePayload, error) {
	f.mu.Lock()
	f.calls[id]++
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	delay := f.delays[id]
	failed := f.fail[id]
	gate := f.gate
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			f.decInFlight()
			return graph.TilePayload{}, ctx.Err()
		}
	}
	f.decInFlight()

	if failed {
		return graph.TilePayload{}, fmt.Errorf("tile %q: fetch failed", id)
	}
	f.mu.Lock()
	p := f.payloads[id]
	f.mu.Unlock()
	return p, nil
}

func (f *fakeProvider) decInFlight() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeProvider) callCount(id graph.TileID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeProvider) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// selectorProvider adds the optional selector override.
type selectorProvider struct{ *fakeProvider }

func (s selectorProvider) SelectTiles(v graph.ViewerState) []graph.TileID {
	return s.override(v)
}

// drainUntil pumps completions on the owner goroutine until cond holds.
func drainUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		c.drainCompletions()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// loadNow fetches a tile synchronously into the cache, bypassing the queue.
func loadNow(c *Controller, f *fakeProvider, id graph.TileID) {
	c.loaded[id] = &loadedTile{id: id, payload: f.payloads[id], lastUsed: c.frame}
}
