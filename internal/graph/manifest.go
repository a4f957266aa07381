package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Manifest is the on-disk description of a tile graph.
type Manifest struct {
	Version int            `json:"version"`
	Tiles   []ManifestTile `json:"tiles"`
}

type ManifestTile struct {
	ID            TileID              `json:"id"`
	Parent        TileID              `json:"parent,omitempty"`
	CenterYaw     *float64            `json:"center_yaw,omitempty"`
	CenterPitch   *float64            `json:"center_pitch,omitempty"`
	AngularRadius *float64            `json:"angular_radius,omitempty"`
	Nodes         []Node              `json:"nodes"`
	Links         []Link              `json:"links,omitempty"`
	Arrangement   map[string]Position `json:"arrangement,omitempty"`
}

// HasMeta reports whether the tile carries full angular placement. Partial
// placement is treated as absent: culling needs all three fields.
func (t ManifestTile) HasMeta() bool {
	return t.CenterYaw != nil && t.CenterPitch != nil && t.AngularRadius != nil
}

// LoadManifest reads and decodes a manifest file.
func LoadManifest(path string) (Manifest, error) {
	var man Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return man, err
	}
	if err := json.Unmarshal(raw, &man); err != nil {
		return man, fmt.Errorf("manifest %s: %w", path, err)
	}
	if man.Version != 1 {
		return man, fmt.Errorf("manifest %s: unsupported version %d", path, man.Version)
	}
	if len(man.Tiles) == 0 {
		return man, fmt.Errorf("manifest %s: no tiles", path)
	}
	return man, nil
}

// ValidateManifest checks a manifest file against its JSON schema.
func ValidateManifest(schemaPath, manifestPath string) error {
	s, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile %s: %w", schemaPath, err)
	}
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	return nil
}

// FromManifest builds an in-memory graph from a decoded manifest.
func FromManifest(man Manifest) (*Memory, error) {
	m := NewMemory()
	seen := map[TileID]bool{}
	for _, t := range man.Tiles {
		if t.ID == "" {
			return nil, fmt.Errorf("manifest: tile with empty id")
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("manifest: duplicate tile id %q", t.ID)
		}
		seen[t.ID] = true

		payload := TilePayload{Nodes: t.Nodes, Links: t.Links, Arrangement: t.Arrangement}
		var meta *TileMeta
		if t.HasMeta() {
			meta = &TileMeta{
				CenterYaw:     *t.CenterYaw,
				CenterPitch:   *t.CenterPitch,
				AngularRadius: *t.AngularRadius,
			}
		}
		m.AddTile(t.ID, t.Parent, meta, payload)
	}
	for _, t := range man.Tiles {
		if t.Parent != "" && !seen[t.Parent] {
			return nil, fmt.Errorf("manifest: tile %q references missing parent %q", t.ID, t.Parent)
		}
	}
	if len(m.RootTileIDs()) == 0 {
		return nil, fmt.Errorf("manifest: no root tiles")
	}
	return m, nil
}
