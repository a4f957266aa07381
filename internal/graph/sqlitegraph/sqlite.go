// Package sqlitegraph serves a tile graph from a sqlite file produced by
// cmd/tilepack. The id/parent/meta index is small and loaded eagerly at open
// so hierarchy lookups stay synchronous; payload rows are fetched lazily and
// are the asynchronous part of the provider.
package sqlitegraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"skygraph.app/internal/graph"
)

type Store struct {
	db  *sql.DB
	dec *zstd.Decoder

	roots    []graph.TileID
	parents  map[graph.TileID]graph.TileID
	children map[graph.TileID][]graph.TileID
	metas    map[graph.TileID]graph.TileMeta
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		dec:      dec,
		parents:  map[graph.TileID]graph.TileID{},
		children: map[graph.TileID][]graph.TileID{},
		metas:    map[graph.TileID]graph.TileMeta{},
	}
	if err := s.loadIndex(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if len(s.roots) == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("%s: no root tiles", path)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) loadIndex() error {
	rows, err := s.db.Query(`SELECT id, parent, has_meta, center_yaw, center_pitch, angular_radius FROM tiles ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, parent         string
			hasMeta            int
			yaw, pitch, radius float64
		)
		if err := rows.Scan(&id, &parent, &hasMeta, &yaw, &pitch, &radius); err != nil {
			return err
		}
		tid := graph.TileID(id)
		if parent == "" {
			s.roots = append(s.roots, tid)
		} else {
			pid := graph.TileID(parent)
			s.parents[tid] = pid
			s.children[pid] = append(s.children[pid], tid)
		}
		if hasMeta != 0 {
			s.metas[tid] = graph.TileMeta{
				CenterYaw:     yaw,
				CenterPitch:   pitch,
				AngularRadius: radius,
				Parent:        graph.TileID(parent),
			}
		}
	}
	return rows.Err()
}

func (s *Store) RootTileIDs() []graph.TileID {
	out := make([]graph.TileID, len(s.roots))
	copy(out, s.roots)
	return out
}

func (s *Store) Children(id graph.TileID) []graph.TileID {
	kids := s.children[id]
	out := make([]graph.TileID, len(kids))
	copy(out, kids)
	return out
}

func (s *Store) Parent(id graph.TileID) (graph.TileID, bool) {
	p, ok := s.parents[id]
	return p, ok
}

func (s *Store) Meta(id graph.TileID) (graph.TileMeta, bool) {
	m, ok := s.metas[id]
	return m, ok
}

func (s *Store) Fetch(ctx context.Context, id graph.TileID) (graph.TilePayload, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM tiles WHERE id = ?`, string(id)).Scan(&blob)
	if err == sql.ErrNoRows {
		return graph.TilePayload{}, fmt.Errorf("tile %q: not in graph", id)
	}
	if err != nil {
		return graph.TilePayload{}, err
	}
	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return graph.TilePayload{}, fmt.Errorf("tile %q: payload: %w", id, err)
	}
	var p graph.TilePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return graph.TilePayload{}, fmt.Errorf("tile %q: payload: %w", id, err)
	}
	return p, nil
}
