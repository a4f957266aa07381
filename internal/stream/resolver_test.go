package stream

import "testing"

func chainProvider() *fakeProvider {
	f := newFakeProvider()
	f.addTile("root", "", nil)
	f.addTile("mid", "root", nil)
	f.addTile("leaf", "mid", nil)
	return f
}

func TestResolveFallsBackToLoadedAncestor(t *testing.T) {
	f := chainProvider()
	c := New(f, DefaultConfig())
	loadNow(c, f, "root")

	got := c.resolve(newIDSet("leaf"))
	if !got.equal(newIDSet("root")) {
		t.Fatalf("unloaded chain must resolve to the loaded root, got %v", got)
	}
}

func TestResolvePrefersTheTileItself(t *testing.T) {
	f := chainProvider()
	c := New(f, DefaultConfig())
	loadNow(c, f, "root")
	loadNow(c, f, "leaf")

	got := c.resolve(newIDSet("leaf"))
	if !got.equal(newIDSet("leaf")) {
		t.Fatalf("loaded tile must resolve to itself, got %v", got)
	}
}

func TestResolveDeduplicates(t *testing.T) {
	f := chainProvider()
	c := New(f, DefaultConfig())
	loadNow(c, f, "root")

	got := c.resolve(newIDSet("leaf", "mid"))
	if !got.equal(newIDSet("root")) {
		t.Fatalf("siblings resolving to the same ancestor must deduplicate, got %v", got)
	}
}

func TestResolveEmptyWithNothingLoaded(t *testing.T) {
	c := New(chainProvider(), DefaultConfig())
	if got := c.resolve(newIDSet("leaf")); len(got) != 0 {
		t.Fatalf("nothing loaded should resolve to nothing, got %v", got)
	}
}

func TestResolveRootFallbackWhenChainBreaks(t *testing.T) {
	f := newFakeProvider()
	f.addTile("root", "", nil)
	// orphan references a parent absent from the graph
	f.addTile("orphan", "ghost", nil)
	c := New(f, DefaultConfig())
	loadNow(c, f, "root")

	got := c.resolve(newIDSet("orphan"))
	if !got.equal(newIDSet("root")) {
		t.Fatalf("a broken chain must fall back to loaded roots, got %v", got)
	}
}

func TestResolveRefreshesLastUsed(t *testing.T) {
	f := chainProvider()
	c := New(f, DefaultConfig())
	loadNow(c, f, "root")
	c.loaded["root"].lastUsed = 1

	c.frame = 9
	c.resolve(newIDSet("leaf"))
	if got := c.loaded["root"].lastUsed; got != 9 {
		t.Fatalf("resolution must refresh the LRU stamp, got frame %d", got)
	}
}

func TestResolveOutputAlwaysLoaded(t *testing.T) {
	f := chainProvider()
	c := New(f, DefaultConfig())
	loadNow(c, f, "mid")

	got := c.resolve(newIDSet("leaf", "root"))
	for id := range got {
		if _, ok := c.loaded[id]; !ok {
			t.Fatalf("resolved id %q is not in the cache", id)
		}
	}
	if !got.has("mid") {
		t.Fatalf("leaf should resolve to mid, got %v", got)
	}
}
