package main

import (
	"context"
	"strings"
	"testing"

	"battlenav/internal/nav/geom"
	persistlog "battlenav/internal/persistence/log"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
)

const explore = `
name: explore
seed: 99
max_turns: 40
map:
  rows:
    - ".........."
    - "....##...."
    - "....##...."
    - ".........."
    - ".........."
units:
  - id: a
    x: 0
    y: 0
    order: {kind: EXPLORE, patience: 3}
  - id: b
    x: 9
    y: 4
    marks: true
    order: {kind: MOVE_TO, x: 1, y: 3}
`

func build(t *testing.T, opts ...match.Option) (*scenario.Scenario, *match.Match) {
	t.Helper()
	sc, err := scenario.Parse([]byte(explore))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := sc.Build(tuning.Defaults(), opts...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sc, m
}

func TestVerifyMatchesRecordedTrace(t *testing.T) {
	dir := t.TempDir()
	trace := persistlog.NewTraceLogger(dir)
	sc, m := build(t, match.WithTrace(trace))
	if _, err := m.Run(context.Background(), sc.Turns(tuning.Defaults())); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := trace.Close(); err != nil {
		t.Fatal(err)
	}
	want, err := persistlog.ReadRunTrace(dir)
	if err != nil {
		t.Fatalf("ReadRunTrace: %v", err)
	}

	_, replay := build(t)
	checked, err := verify(replay, want, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != len(want) || replay.Round() != m.Round() {
		t.Fatalf("checked=%d of %d rounds=%d want %d", checked, len(want), replay.Round(), m.Round())
	}
}

func TestVerifyStopsAtRound(t *testing.T) {
	_, m := build(t)
	var want []match.TurnRecord
	for i := 0; i < 10; i++ {
		want = append(want, m.Step()...)
	}
	_, replay := build(t)
	checked, err := verify(replay, want, 4)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 8 || replay.Round() != 4 {
		t.Fatalf("checked=%d round=%d", checked, replay.Round())
	}
}

func TestVerifyDetectsDivergence(t *testing.T) {
	_, m := build(t)
	want := append(m.Step(), m.Step()...)
	want[3].To = geom.Cell{X: -1, Y: -1}

	_, replay := build(t)
	checked, err := verify(replay, want, 0)
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if checked != 3 {
		t.Fatalf("checked=%d", checked)
	}
}
