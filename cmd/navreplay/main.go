package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	persistlog "battlenav/internal/persistence/log"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "path to scenario yaml (required)")
		tuningPath   = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml (missing file: defaults)")
		tracePath    = flag.String("trace", "", "run directory or a single trace-*.jsonl.zst file (required)")
		toRound      = flag.Int("to_round", 0, "stop after round (inclusive, optional)")
	)
	flag.Parse()

	if *scenarioPath == "" || *tracePath == "" {
		fmt.Fprintln(os.Stderr, "missing -scenario or -trace")
		os.Exit(2)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenario:", err)
		os.Exit(1)
	}
	m, err := sc.Build(tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "build scenario:", err)
		os.Exit(1)
	}

	var want []match.TurnRecord
	if strings.HasSuffix(*tracePath, ".jsonl.zst") {
		want, err = persistlog.ReadTrace(*tracePath)
	} else {
		want, err = persistlog.ReadRunTrace(*tracePath)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read trace:", err)
		os.Exit(1)
	}

	checked, err := verify(m, want, *toRound)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: scenario=%s seed=%d checked=%d records rounds=%d\n", sc.Name, sc.Seed, checked, m.Round())
}

// verify re-plays m round by round and compares every produced record with
// the recorded one.
func verify(m *match.Match, want []match.TurnRecord, toRound int) (int, error) {
	checked := 0
	for checked < len(want) {
		if toRound > 0 && m.Round() >= toRound {
			break
		}
		for _, got := range m.Step() {
			if checked >= len(want) {
				return checked, fmt.Errorf("round %d: replay produced more records than the trace holds", got.Round)
			}
			exp := want[checked]
			if got != exp {
				return checked, fmt.Errorf("round %d unit %s: mismatch\n  trace:  %+v\n  replay: %+v", exp.Round, exp.Unit, exp, got)
			}
			checked++
		}
	}
	return checked, nil
}
