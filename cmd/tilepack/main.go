// tilepack validates a tile manifest and packs it into a sqlite tile
// database for cmd/server.
package main

import (
	"flag"
	"log"
	"os"

	"skygraph.app/internal/graph"
	"skygraph.app/internal/graph/sqlitegraph"
)

func main() {
	var (
		manifestPath = flag.String("manifest", "", "tile manifest json (required)")
		out          = flag.String("out", "tiles.db", "output database path")
		schemaPath   = flag.String("schema", "./schemas/manifest.schema.json", "manifest json schema (empty to skip validation)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[tilepack] ", log.LstdFlags)
	if *manifestPath == "" {
		logger.Fatalf("-manifest is required")
	}

	if *schemaPath != "" {
		if err := graph.ValidateManifest(*schemaPath, *manifestPath); err != nil {
			logger.Fatalf("validate: %v", err)
		}
	}

	man, err := graph.LoadManifest(*manifestPath)
	if err != nil {
		logger.Fatalf("load: %v", err)
	}
	// FromManifest re-checks structural rules (duplicate ids, orphan parents).
	if _, err := graph.FromManifest(man); err != nil {
		logger.Fatalf("check: %v", err)
	}

	if err := sqlitegraph.Build(*out, man); err != nil {
		logger.Fatalf("build: %v", err)
	}
	logger.Printf("wrote %s (%d tiles)", *out, len(man.Tiles))
}
