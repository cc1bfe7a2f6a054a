package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"battlenav/internal/persistence/indexdb"
	persistlog "battlenav/internal/persistence/log"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
	"battlenav/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		scenarioPath = flag.String("scenario", "", "path to scenario yaml (required)")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (missing file: defaults)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite run index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navserver] ", log.LstdFlags|log.Lmicroseconds)
	if *scenarioPath == "" {
		fmt.Fprintln(os.Stderr, "missing -scenario")
		os.Exit(2)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "runs.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	runID := indexdb.NewRunID()
	runDir := filepath.Join(*dataDir, "runs", runID)
	traceLog := persistlog.NewTraceLogger(runDir)
	defer traceLog.Close()
	sinks := match.MultiSink{traceLog}
	if idx != nil {
		sinks = append(sinks, idx.TurnSink(runID))
	}

	m, err := sc.Build(tune, match.WithTrace(sinks), match.WithLogger(logger))
	if err != nil {
		logger.Fatalf("build scenario: %v", err)
	}
	loop := ws.NewLoop(sc.Name, m, sc.Turns(tune), logger)

	ctx, cancel := signalContext()
	defer cancel()

	started := time.Now()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("match loop stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		ctx2, cancel2 := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel2()
		st, err := loop.State(ctx2)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(st)
	})
	mux.Handle("/v1/ws", ws.NewServer(loop, logger).Handler())

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s run=%s scenario=%s", *addr, runID, sc.Name)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("http: %v", err)
		cancel()
	}
	<-loopDone

	if idx != nil {
		rctx, rcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := idx.RecordRun(rctx, indexdb.Run{
			RunID:      runID,
			Scenario:   sc.Name,
			Seed:       sc.Seed,
			StartedAt:  started,
			FinishedAt: time.Now(),
			TracePath:  filepath.Join(runDir, "trace"),
		}, m.Summary()); err != nil {
			logger.Printf("index run: %v", err)
		}
		rcancel()
	}
	logger.Printf("stopped after round %d", m.Round())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
