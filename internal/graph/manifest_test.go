package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

const sampleManifest = `{
  "version": 1,
  "tiles": [
    {
      "id": "root",
      "center_yaw": 0, "center_pitch": 0, "angular_radius": 90,
      "nodes": [{"id": "n1", "label": "one"}],
      "links": [],
      "arrangement": {"n1": {"yaw": 10, "pitch": -5}}
    },
    {
      "id": "leaf",
      "parent": "root",
      "nodes": [{"id": "n2"}],
      "links": [{"source": "n1", "target": "n2"}]
    }
  ]
}`

func TestLoadManifestRoundtrip(t *testing.T) {
	man, err := LoadManifest(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, err := FromManifest(man)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if diff := cmp.Diff([]TileID{"root"}, m.RootTileIDs()); diff != "" {
		t.Fatalf("roots (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]TileID{"leaf"}, m.Children("root")); diff != "" {
		t.Fatalf("children (-want +got):\n%s", diff)
	}
	if p, ok := m.Parent("leaf"); !ok || p != "root" {
		t.Fatalf("parent of leaf = %q, %v", p, ok)
	}

	meta, ok := m.Meta("root")
	if !ok || meta.AngularRadius != 90 {
		t.Fatalf("root meta wrong: %+v ok=%v", meta, ok)
	}
	if _, ok := m.Meta("leaf"); ok {
		t.Fatalf("leaf has no angular placement; meta must be absent")
	}

	payload, err := m.Fetch(context.Background(), "root")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(payload.Nodes) != 1 || payload.Nodes[0].Label != "one" {
		t.Fatalf("payload mismatch: %+v", payload)
	}
	if payload.Arrangement["n1"].Pitch != -5 {
		t.Fatalf("arrangement lost: %+v", payload.Arrangement)
	}
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad version", `{"version": 2, "tiles": [{"id": "a", "nodes": []}]}`},
		{"no tiles", `{"version": 1, "tiles": []}`},
		{"not json", `hello`},
	}
	for _, tc := range cases {
		if _, err := LoadManifest(writeManifest(t, tc.body)); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestFromManifestStructuralErrors(t *testing.T) {
	dup := Manifest{Version: 1, Tiles: []ManifestTile{
		{ID: "a", Nodes: []Node{{ID: "n"}}},
		{ID: "a", Nodes: []Node{{ID: "n"}}},
	}}
	if _, err := FromManifest(dup); err == nil {
		t.Fatalf("duplicate ids must be rejected")
	}

	orphan := Manifest{Version: 1, Tiles: []ManifestTile{
		{ID: "a", Parent: "missing", Nodes: []Node{{ID: "n"}}},
	}}
	if _, err := FromManifest(orphan); err == nil {
		t.Fatalf("missing parent must be rejected")
	}
}

func TestManifestPartialMetaIsNoMeta(t *testing.T) {
	yaw := 10.0
	tile := ManifestTile{ID: "x", CenterYaw: &yaw}
	if tile.HasMeta() {
		t.Fatalf("partial placement must not count as meta")
	}
}
