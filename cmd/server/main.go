package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"skygraph.app/internal/graph"
	"skygraph.app/internal/graph/sqlitegraph"
	"skygraph.app/internal/transport/ws"
	"skygraph.app/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")

		dbPath       = flag.String("db", "", "tile database built by tilepack (preferred source)")
		manifestPath = flag.String("manifest", "", "tile manifest json (used when -db is empty)")
		fetchDelay   = flag.Duration("fetch_delay", 40*time.Millisecond, "simulated fetch latency for manifest/demo graphs")

		demoSeed  = flag.Int64("demo_seed", 1337, "demo graph seed (used when no -db and no -manifest)")
		demoDepth = flag.Int("demo_depth", 2, "demo graph depth")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	provider, closeProvider, err := openProvider(*dbPath, *manifestPath, *demoSeed, *demoDepth, *fetchDelay, logger)
	if err != nil {
		logger.Fatalf("open tile graph: %v", err)
	}
	if closeProvider != nil {
		defer closeProvider()
	}
	logger.Printf("tile graph ready: %d roots", len(provider.RootTileIDs()))

	mux := http.NewServeMux()
	mux.Handle("/v1/ws", ws.NewServer(provider, tune, logger).Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)

	srv := &http.Server{Addr: *addr, Handler: mux}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Printf("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func openProvider(dbPath, manifestPath string, demoSeed int64, demoDepth int, fetchDelay time.Duration, logger *log.Logger) (graph.Provider, func(), error) {
	if dbPath != "" {
		store, err := sqlitegraph.Open(dbPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("serving tile db %s", dbPath)
		return store, func() { _ = store.Close() }, nil
	}
	if manifestPath != "" {
		man, err := graph.LoadManifest(manifestPath)
		if err != nil {
			return nil, nil, err
		}
		mem, err := graph.FromManifest(man)
		if err != nil {
			return nil, nil, err
		}
		mem.FetchDelay = fetchDelay
		logger.Printf("serving manifest %s (%d tiles)", manifestPath, len(man.Tiles))
		return mem, nil, nil
	}
	spec := graph.DefaultDemoSpec()
	spec.Seed = demoSeed
	spec.Depth = demoDepth
	mem := graph.GenerateDemo(spec)
	mem.FetchDelay = fetchDelay
	logger.Printf("serving generated demo graph (seed=%d depth=%d, %d tiles)", spec.Seed, spec.Depth, len(mem.TileIDs()))
	return mem, nil, nil
}
