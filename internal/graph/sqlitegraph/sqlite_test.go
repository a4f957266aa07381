package sqlitegraph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"skygraph.app/internal/graph"
)

func testManifest() graph.Manifest {
	yaw, pitch, radius := 0.0, 0.0, 90.0
	cyaw, cpitch, cradius := 30.0, 10.0, 45.0
	return graph.Manifest{
		Version: 1,
		Tiles: []graph.ManifestTile{
			{
				ID:            "root",
				CenterYaw:     &yaw,
				CenterPitch:   &pitch,
				AngularRadius: &radius,
				Nodes:         []graph.Node{{ID: "n1", Label: "root node", Kind: "star"}},
				Arrangement:   map[string]graph.Position{"n1": {Yaw: 5, Pitch: -5}},
			},
			{
				ID:            "leaf",
				Parent:        "root",
				CenterYaw:     &cyaw,
				CenterPitch:   &cpitch,
				AngularRadius: &cradius,
				Nodes:         []graph.Node{{ID: "n2"}},
				Links:         []graph.Link{{Source: "n1", Target: "n2"}},
			},
			{
				ID:    "blind",
				Nodes: []graph.Node{{ID: "n3"}},
			},
		},
	}
}

func TestBuildOpenRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")
	if err := Build(path, testManifest()); err != nil {
		t.Fatalf("build: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if diff := cmp.Diff([]graph.TileID{"root", "blind"}, s.RootTileIDs()); diff != "" {
		t.Fatalf("roots (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]graph.TileID{"leaf"}, s.Children("root")); diff != "" {
		t.Fatalf("children (-want +got):\n%s", diff)
	}
	if p, ok := s.Parent("leaf"); !ok || p != "root" {
		t.Fatalf("parent of leaf = %q, %v", p, ok)
	}

	meta, ok := s.Meta("leaf")
	if !ok {
		t.Fatalf("leaf meta missing")
	}
	if meta.CenterYaw != 30 || meta.CenterPitch != 10 || meta.AngularRadius != 45 {
		t.Fatalf("leaf meta wrong: %+v", meta)
	}
	if meta.Parent != "root" {
		t.Fatalf("meta parent wrong: %q", meta.Parent)
	}
	if _, ok := s.Meta("blind"); ok {
		t.Fatalf("blind tile must have no meta")
	}
}

func TestFetchDecompressesPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")
	if err := Build(path, testManifest()); err != nil {
		t.Fatalf("build: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	p, err := s.Fetch(context.Background(), "root")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(p.Nodes) != 1 || p.Nodes[0].Kind != "star" {
		t.Fatalf("payload nodes wrong: %+v", p.Nodes)
	}
	want := graph.Position{Yaw: 5, Pitch: -5}
	if diff := cmp.Diff(want, p.Arrangement["n1"]); diff != "" {
		t.Fatalf("arrangement (-want +got):\n%s", diff)
	}

	if _, err := s.Fetch(context.Background(), "nope"); err == nil {
		t.Fatalf("unknown tile must fail")
	}
}

func TestOpenRejectsEmptyDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")
	if err := Build(path, graph.Manifest{Version: 1}); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("a database with no roots must be rejected")
	}
}
