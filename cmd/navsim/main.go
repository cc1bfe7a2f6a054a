package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"battlenav/internal/persistence/indexdb"
	persistlog "battlenav/internal/persistence/log"
	"battlenav/internal/persistence/snapshot"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "path to scenario yaml (required)")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (missing file: defaults)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite run index")
		maxTurns     = flag.Int("max_turns", 0, "turn limit override (0: scenario, then tuning)")
		render       = flag.Bool("render", false, "print the final board")
		debug        = flag.Bool("debug", false, "log every navigation decision")
		noSnapshot   = flag.Bool("no_snapshot", false, "skip writing the final board snapshot")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[navsim] ", log.LstdFlags|log.Lmicroseconds)
	if strings.TrimSpace(*scenarioPath) == "" {
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
	}

	runID := indexdb.NewRunID()
	runDir := filepath.Join(*dataDir, "runs", runID)
	traceLog := persistlog.NewTraceLogger(runDir)
	sinks := match.MultiSink{traceLog}
	if idx != nil {
		sinks = append(sinks, idx.TurnSink(runID))
	}

	opts := []match.Option{match.WithTrace(sinks), match.WithLogger(logger)}
	if *debug {
		opts = append(opts, match.WithNavLogger(log.New(os.Stdout, "[nav] ", log.Lmicroseconds)))
	}
	m, err := sc.Build(tune, opts...)
	if err != nil {
		logger.Fatalf("build scenario: %v", err)
	}

	turns := sc.Turns(tune)
	if *maxTurns > 0 {
		turns = *maxTurns
	}

	ctx, cancel := signalContext()
	defer cancel()

	started := time.Now()
	sum, runErr := m.Run(ctx, turns)
	finished := time.Now()
	if err := traceLog.Close(); err != nil {
		logger.Printf("close trace: %v", err)
	}
	if runErr != nil {
		logger.Printf("run stopped: %v", runErr)
	}
	if !*noSnapshot {
		snap := m.World().ExportSnapshot()
		snap.Header.Scenario = sc.Name
		snap.Header.Round = m.Round()
		snap.Seed = sc.Seed
		if err := snapshot.WriteSnapshot(filepath.Join(runDir, "final.snap.zst"), snap); err != nil {
			logger.Printf("write snapshot: %v", err)
		}
	}

	if idx != nil {
		rctx, rcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := idx.RecordRun(rctx, indexdb.Run{
			RunID:      runID,
			Scenario:   sc.Name,
			Seed:       sc.Seed,
			StartedAt:  started,
			FinishedAt: finished,
			TracePath:  filepath.Join(runDir, "trace"),
		}, sum); err != nil {
			logger.Printf("index run: %v", err)
		}
		rcancel()
		if n := idx.Dropped(); n > 0 {
			logger.Printf("index dropped %d turn rows", n)
		}
		if err := idx.Close(); err != nil {
			logger.Printf("close index: %v", err)
		}
	}

	fmt.Printf("run=%s scenario=%s seed=%d turns=%d arrived=%d/%d elapsed=%s\n",
		runID, sc.Name, sc.Seed, sum.Turns, sum.Arrived, len(sum.Units), finished.Sub(started).Round(time.Millisecond))
	ids := make([]string, 0, len(sum.Units))
	for id := range sum.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		u := sum.Units[id]
		fmt.Printf("  %-12s %-8s start=%v final=%v arrived=%d moves=%d blocked=%d\n",
			id, m.Order(id).Kind(), u.Start, u.Final, u.ArrivedTurn, u.Moves, u.Blocked)
	}
	fmt.Printf("trace: %s\n", filepath.Join(runDir, "trace"))
	if *render {
		fmt.Print(m.World().Render())
	}
	if runErr != nil {
		os.Exit(1)
	}
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
