package sqlitegraph

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"skygraph.app/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS tiles (
	id TEXT PRIMARY KEY,
	parent TEXT NOT NULL DEFAULT '',
	has_meta INTEGER NOT NULL DEFAULT 0,
	center_yaw REAL NOT NULL DEFAULT 0,
	center_pitch REAL NOT NULL DEFAULT 0,
	angular_radius REAL NOT NULL DEFAULT 0,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tiles_parent ON tiles(parent);
`

// Build writes a manifest into a fresh tile database at path. Payloads are
// stored as zstd-compressed JSON.
func Build(path string, man graph.Manifest) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM tiles`); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tiles (id, parent, has_meta, center_yaw, center_pitch, angular_radius, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, t := range man.Tiles {
		payload := graph.TilePayload{Nodes: t.Nodes, Links: t.Links, Arrangement: t.Arrangement}
		raw, err := json.Marshal(payload)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("tile %q: %w", t.ID, err)
		}
		blob := enc.EncodeAll(raw, nil)

		hasMeta := 0
		var yaw, pitch, radius float64
		if t.HasMeta() {
			hasMeta = 1
			yaw, pitch, radius = *t.CenterYaw, *t.CenterPitch, *t.AngularRadius
		}
		if _, err := stmt.Exec(string(t.ID), string(t.Parent), hasMeta, yaw, pitch, radius, blob); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("tile %q: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
