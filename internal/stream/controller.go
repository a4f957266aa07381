package stream

import (
	"context"

	"skygraph.app/internal/graph"
)

// Controller owns the streaming state for one viewer. It is not safe for
// concurrent use: Update, MergedScene, Configure and Dispose must all be
// called from the same goroutine.
type Controller struct {
	cfg      Config
	provider graph.Provider

	ctx    context.Context
	cancel context.CancelFunc

	// gen guards against fetches started before a Configure reset writing
	// into the fresh state when they eventually complete.
	gen      uint64
	frame    uint64
	disposed bool

	loaded   map[graph.TileID]*loadedTile
	queue    []graph.TileID
	queued   idSet
	inFlight idSet
	done     chan fetchResult

	desired  idSet
	resolved idSet
	trans    transition
	weights  map[graph.TileID]float64

	merged   *MergedScene
	mergeSig string
	revision uint64
}

func New(provider graph.Provider, cfg Config) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		provider: provider,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan fetchResult, 256),
	}
	c.Configure(cfg)
	return c
}

// Configure applies a new configuration and discards all streaming state.
// Fetches already in flight are left to finish; their results are dropped.
func (c *Controller) Configure(cfg Config) {
	c.gen++
	c.cfg = cfg.withDefaults()
	c.loaded = map[graph.TileID]*loadedTile{}
	c.queue = nil
	c.queued = idSet{}
	c.inFlight = idSet{}
	c.desired = idSet{}
	c.resolved = idSet{}
	c.trans = transition{}
	c.weights = nil
	c.merged = nil
	c.mergeSig = ""
}

// Update runs one streaming cycle for the sampled viewer state. It reports
// whether the resolved tile set changed during this call (including changes
// applied from fetches that completed since the previous call).
func (c *Controller) Update(v graph.ViewerState, frame uint64) bool {
	if c.disposed || !c.cfg.Enabled {
		return false
	}
	c.frame = frame

	changed := c.drainCompletions()

	c.desired = c.selectDesired(v)
	// Roots stay enqueued so ancestor fallback always has a target.
	for _, r := range c.provider.RootTileIDs() {
		c.enqueueLoad(r)
	}
	for id := range c.desired {
		c.enqueueLoad(id)
	}
	c.pumpQueue()

	if c.reresolve() {
		changed = true
	}
	c.advanceTransition()
	c.rebuildScene()
	c.evictIfNeeded()
	return changed
}

// reresolve recomputes the resolved set from the current desired set and
// starts a transition when it differs from the previous one.
func (c *Controller) reresolve() bool {
	resolved := c.resolve(c.desired)
	if resolved.equal(c.resolved) {
		return false
	}
	c.resolved = resolved
	c.beginTransition(resolved)
	c.advanceTransition()
	return true
}

// MergedScene returns the current merged scene, or nil when nothing has
// resolved yet. The returned value is shared; callers must not mutate it.
func (c *Controller) MergedScene() *MergedScene {
	return c.merged
}

// Revision increases only when the merged scene content changes, so
// consumers can skip frames that altered nothing.
func (c *Controller) Revision() uint64 {
	return c.revision
}

func (c *Controller) DebugStats() DebugStats {
	return DebugStats{
		Desired:       len(c.desired),
		Resolved:      len(c.resolved),
		Active:        len(c.trans.active),
		Loaded:        len(c.loaded),
		InFlight:      len(c.inFlight),
		Queued:        len(c.queue),
		Transitioning: c.trans.transitioning(),
	}
}

// Dispose releases all state and cancels outstanding fetches. Subsequent
// Update calls are no-ops.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.cancel()
	c.Configure(c.cfg)
	c.merged = nil
}
