package match

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"battlenav/internal/nav"
	"battlenav/internal/nav/geom"
	"battlenav/internal/sim/grid"
	"battlenav/internal/sim/tuning"
)

type memSink struct {
	recs []TurnRecord
	err  error
}

func (s *memSink) WriteTurn(rec TurnRecord) error {
	s.recs = append(s.recs, rec)
	return s.err
}

type panicOrder struct{}

func (panicOrder) Kind() string { return "PANIC" }

func (panicOrder) Execute(TurnContext, *nav.Navigator, *grid.Host) (bool, error) {
	panic("sensor offline")
}

func openWorld(t *testing.T, w, h int) *grid.World {
	t.Helper()
	rows := make([]string, h)
	for i := range rows {
		rows[i] = strings.Repeat(".", w)
	}
	m, err := grid.ParseRows(rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	return grid.NewWorld(m, tuning.Defaults())
}

func addUnit(t *testing.T, w *grid.World, id string, x, y int) {
	t.Helper()
	if err := w.AddUnit(grid.Unit{ID: id, Team: "red", Pos: geom.Cell{X: x, Y: y}}); err != nil {
		t.Fatalf("AddUnit: %v", err)
	}
}

func TestRunOpenFieldArrives(t *testing.T) {
	w := openWorld(t, 30, 30)
	addUnit(t, w, "a", 10, 10)
	sink := &memSink{}
	m := New(w, 1, WithTrace(sink))
	if err := m.SetOrder("a", MoveTo{Target: geom.Cell{X: 10, Y: 15}, Threshold: 3}); err != nil {
		t.Fatal(err)
	}
	sum, err := m.Run(context.Background(), 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	u := sum.Units["a"]
	if u.ArrivedTurn != 5 || u.Moves != 5 || u.Blocked != 0 {
		t.Fatalf("summary=%+v", u)
	}
	if sum.Turns != 5 || sum.Arrived != 1 || !m.Done() {
		t.Fatalf("turns=%d arrived=%d", sum.Turns, sum.Arrived)
	}
	if len(sink.recs) != 5 {
		t.Fatalf("trace records=%d", len(sink.recs))
	}
	for i, rec := range sink.recs {
		if rec.Round != i+1 || !rec.Moved || rec.Order != KindMoveTo || rec.To.Y != 11+i {
			t.Fatalf("record %d: %+v", i, rec)
		}
	}
}

func TestRunDetoursAroundWall(t *testing.T) {
	m, err := grid.ParseRows([]string{
		"..........",
		"..........",
		"..........",
		".....#....",
		".....#....",
		".....#....",
		"..........",
		"..........",
		"..........",
		"..........",
	})
	if err != nil {
		t.Fatal(err)
	}
	w := grid.NewWorld(m, tuning.Defaults())
	addUnit(t, w, "a", 2, 5)
	sink := &memSink{}
	mt := New(w, 1, WithTrace(sink))
	_ = mt.SetOrder("a", MoveTo{Target: geom.Cell{X: 8, Y: 5}, Threshold: 3})
	sum, err := mt.Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Units["a"].ArrivedTurn == 0 {
		t.Fatalf("did not arrive: %+v", sum.Units["a"])
	}
	for _, rec := range sink.recs {
		if rec.Err != "" {
			t.Fatalf("round %d: %s", rec.Round, rec.Err)
		}
		if rec.Moved && !geom.Adjacent(rec.From, rec.To) {
			t.Fatalf("round %d jumped %v -> %v", rec.Round, rec.From, rec.To)
		}
	}
}

func TestRunStopsAtMaxTurnsWithoutDestinations(t *testing.T) {
	w := openWorld(t, 5, 5)
	addUnit(t, w, "a", 2, 2)
	m := New(w, 1)
	sum, err := m.Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Turns != 7 || sum.Units["a"].Moves != 0 || sum.Units["a"].Blocked != 0 {
		t.Fatalf("summary=%+v", sum)
	}
}

func TestRunHonoursContext(t *testing.T) {
	w := openWorld(t, 5, 5)
	addUnit(t, w, "a", 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := New(w, 1).Run(ctx, 10)
	if !errors.Is(err, context.Canceled) || sum.Turns != 0 {
		t.Fatalf("Run=%+v,%v", sum, err)
	}
}

func TestHostFaultIsRecorded(t *testing.T) {
	w := openWorld(t, 5, 5)
	addUnit(t, w, "a", 0, 0)
	addUnit(t, w, "b", 4, 4)
	m := New(w, 1)
	_ = m.SetOrder("a", panicOrder{})
	_ = m.SetOrder("b", MoveTo{Target: geom.Cell{X: 4, Y: 2}})
	recs := m.Step()
	if len(recs) != 2 {
		t.Fatalf("records=%d", len(recs))
	}
	if !strings.Contains(recs[0].Err, "sensor offline") || recs[0].Moved {
		t.Fatalf("fault record=%+v", recs[0])
	}
	if !recs[1].Moved || recs[1].To != (geom.Cell{X: 4, Y: 3}) {
		t.Fatalf("second unit did not play: %+v", recs[1])
	}
}

func TestTraceErrorSurfacesFromRun(t *testing.T) {
	w := openWorld(t, 5, 5)
	addUnit(t, w, "a", 0, 0)
	sink := &memSink{err: errors.New("disk full")}
	_, err := New(w, 1, WithTrace(sink)).Run(context.Background(), 2)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected trace error, got %v", err)
	}
	if len(sink.recs) != 2 {
		t.Fatalf("records=%d", len(sink.recs))
	}
}

func TestFleeMovesAway(t *testing.T) {
	w := openWorld(t, 20, 20)
	addUnit(t, w, "a", 10, 10)
	m := New(w, 1)
	threat := geom.Cell{X: 8, Y: 10}
	_ = m.SetOrder("a", Flee{Threat: threat, Threshold: 3})
	for i := 0; i < 3; i++ {
		m.Step()
	}
	u, _ := w.Unit("a")
	if u.Pos.DistSq(threat) <= 4 {
		t.Fatalf("unit did not flee: %v", u.Pos)
	}
}

func TestExploreIsDeterministicPerSeed(t *testing.T) {
	run := func(seed int64) []TurnRecord {
		w := openWorld(t, 12, 12)
		addUnit(t, w, "a", 1, 1)
		addUnit(t, w, "b", 10, 10)
		m := New(w, seed)
		_ = m.SetOrder("a", NewExplore(3, 4))
		_ = m.SetOrder("b", NewExplore(3, 4))
		var out []TurnRecord
		for i := 0; i < 25; i++ {
			out = append(out, m.Step()...)
		}
		return out
	}
	a, b := run(42), run(42)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different traces")
	}
	moved := 0
	for _, rec := range a {
		if rec.Moved {
			moved++
		}
	}
	if moved == 0 {
		t.Fatalf("explorers never moved")
	}
}

func TestExploreRepicksAfterPatience(t *testing.T) {
	w := openWorld(t, 8, 8)
	addUnit(t, w, "a", 0, 0)
	h, _ := w.Host("a")
	e := NewExplore(3, 2)
	n := nav.New(h)
	if _, err := e.Execute(TurnContext{Seed: 7}, n, h); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Target(); !ok {
		t.Fatalf("no target picked")
	}
	// Pin the unit so every turn is blocked.
	h.Unit().Cooldown = 1000
	for i := 0; i < 2; i++ {
		_, _ = e.Execute(TurnContext{Seed: 7}, n, h)
	}
	if e.blocked != 2 {
		t.Fatalf("blocked=%d", e.blocked)
	}
	_, _ = e.Execute(TurnContext{Seed: 7}, n, h)
	if e.blocked != 1 {
		t.Fatalf("expected a fresh target and one blocked turn, blocked=%d", e.blocked)
	}
}

func TestSetOrderUnknownUnit(t *testing.T) {
	m := New(openWorld(t, 3, 3), 1)
	if err := m.SetOrder("ghost", Hold{}); !errors.Is(err, grid.ErrUnknownUnit) {
		t.Fatalf("expected ErrUnknownUnit, got %v", err)
	}
	if m.Order("ghost").Kind() != KindHold {
		t.Fatalf("default order should hold")
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &memSink{}, &memSink{err: errors.New("b failed")}
	ms := MultiSink{a, nil, b}
	err := ms.WriteTurn(TurnRecord{Round: 1})
	if err == nil || err.Error() != "b failed" {
		t.Fatalf("err=%v", err)
	}
	if len(a.recs) != 1 || len(b.recs) != 1 {
		t.Fatalf("fan-out missed a sink")
	}
}
