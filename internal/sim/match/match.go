package match

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log"

	"battlenav/internal/nav"
	"battlenav/internal/nav/geom"
	"battlenav/internal/sim/grid"
	"battlenav/internal/sim/tuning"
)

// TurnRecord is the outcome of one unit's turn.
type TurnRecord struct {
	Round int       `json:"round"`
	Unit  string    `json:"unit"`
	Order string    `json:"order"`
	From  geom.Cell `json:"from"`
	To    geom.Cell `json:"to"`
	Moved bool      `json:"moved"`
	Err   string    `json:"err,omitempty"`
}

type TraceSink interface {
	WriteTurn(rec TurnRecord) error
}

type UnitSummary struct {
	Start       geom.Cell `json:"start"`
	Final       geom.Cell `json:"final"`
	ArrivedTurn int       `json:"arrived_turn"` // 0 = not arrived
	Moves       int       `json:"moves"`
	Blocked     int       `json:"blocked"`
}

type Summary struct {
	Turns   int                    `json:"turns"`
	Arrived int                    `json:"arrived"`
	Units   map[string]UnitSummary `json:"units"`
}

// Match drives every unit on a world one turn at a time. It is owned by a
// single goroutine; nothing here is synchronized.
type Match struct {
	world *grid.World
	tun   tuning.Tuning
	seed  int64
	round int

	orders map[string]Order
	turns  map[string]int
	stats  map[string]*UnitSummary

	sink    TraceSink
	sinkErr error
	log     *log.Logger
	navLog  *log.Logger
}

type Option func(*Match)

func WithTrace(s TraceSink) Option { return func(m *Match) { m.sink = s } }

func WithLogger(l *log.Logger) Option { return func(m *Match) { m.log = l } }

// WithNavLogger passes l to every unit's navigator for decision tracing.
func WithNavLogger(l *log.Logger) Option { return func(m *Match) { m.navLog = l } }

func New(world *grid.World, seed int64, opts ...Option) *Match {
	m := &Match{
		world:  world,
		tun:    world.Tuning(),
		seed:   seed,
		orders: map[string]Order{},
		turns:  map[string]int{},
		stats:  map[string]*UnitSummary{},
		log:    log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(m)
	}
	for _, u := range world.Units() {
		m.stats[u.ID] = &UnitSummary{Start: u.Pos, Final: u.Pos}
	}
	return m
}

func (m *Match) World() *grid.World { return m.world }
func (m *Match) Round() int         { return m.round }
func (m *Match) Seed() int64        { return m.seed }

// SetOrder replaces a unit's order from the next turn on. Arrival is reset.
func (m *Match) SetOrder(unitID string, o Order) error {
	u, ok := m.world.Unit(unitID)
	if !ok {
		return fmt.Errorf("%w: %s", grid.ErrUnknownUnit, unitID)
	}
	if o == nil {
		o = Hold{}
	}
	m.orders[unitID] = o
	m.stat(u).ArrivedTurn = 0
	return nil
}

func (m *Match) Order(unitID string) Order {
	if o, ok := m.orders[unitID]; ok {
		return o
	}
	return Hold{}
}

// Step plays one round: every unit in id order, then the world cools down.
func (m *Match) Step() []TurnRecord {
	m.round++
	units := m.world.Units()
	recs := make([]TurnRecord, 0, len(units))
	for _, u := range units {
		recs = append(recs, m.runUnit(u))
	}
	m.world.EndTurn()
	return recs
}

func (m *Match) runUnit(u *grid.Unit) TurnRecord {
	o := m.Order(u.ID)
	st := m.stat(u)
	rec := TurnRecord{Round: m.round, Unit: u.ID, Order: o.Kind(), From: u.Pos}
	ready := u.Cooldown < m.tun.BusyCooldown

	moved, err := m.execute(u, o)
	rec.To = u.Pos
	rec.Moved = moved
	if err != nil {
		rec.Err = err.Error()
		m.log.Printf("round %d unit %s: %v", m.round, u.ID, err)
	}

	switch {
	case moved:
		st.Moves++
	case ready && o.Kind() != KindHold && st.ArrivedTurn == 0:
		st.Blocked++
	}
	if a, ok := o.(arriver); ok && st.ArrivedTurn == 0 && a.Arrived(u.Pos) {
		st.ArrivedTurn = m.round
	}
	st.Final = u.Pos

	if m.sink != nil {
		if err := m.sink.WriteTurn(rec); err != nil {
			m.log.Printf("trace: %v", err)
			if m.sinkErr == nil {
				m.sinkErr = err
			}
		}
	}
	return rec
}

// execute runs one order. A panicking host is turned into an error so the
// rest of the round still plays.
func (m *Match) execute(u *grid.Unit, o Order) (moved bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			moved = false
			err = fmt.Errorf("host fault: %v", r)
		}
	}()
	h, err := m.world.Host(u.ID)
	if err != nil {
		return false, err
	}
	opts := []nav.Option{
		nav.WithBusyCooldown(m.tun.BusyCooldown),
		nav.WithDefaultThreshold(m.tun.DefaultThreshold),
	}
	if u.Marks {
		opts = append(opts, nav.WithMarker(h))
	}
	if m.navLog != nil {
		opts = append(opts, nav.WithLogger(m.navLog))
	}
	tc := TurnContext{Round: m.round, TurnCount: m.turns[u.ID], Seed: m.unitSeed(u.ID)}
	m.turns[u.ID]++
	return o.Execute(tc, nav.New(h, opts...), h)
}

func (m *Match) unitSeed(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return m.seed ^ int64(h.Sum64())
}

func (m *Match) stat(u *grid.Unit) *UnitSummary {
	st, ok := m.stats[u.ID]
	if !ok {
		st = &UnitSummary{Start: u.Pos, Final: u.Pos}
		m.stats[u.ID] = st
	}
	return st
}

// Done reports whether every unit with a destination has reached it. A match
// without destinations is never done.
func (m *Match) Done() bool {
	found := false
	for _, u := range m.world.Units() {
		if _, ok := m.Order(u.ID).(arriver); !ok {
			continue
		}
		found = true
		if m.stat(u).ArrivedTurn == 0 {
			return false
		}
	}
	return found
}

// Run steps until Done, ctx is cancelled or maxTurns rounds were played.
// maxTurns <= 0 uses the tuned limit.
func (m *Match) Run(ctx context.Context, maxTurns int) (Summary, error) {
	if maxTurns <= 0 {
		maxTurns = m.tun.MaxTurns
	}
	for i := 0; i < maxTurns && !m.Done(); i++ {
		if err := ctx.Err(); err != nil {
			return m.Summary(), err
		}
		m.Step()
	}
	if m.sinkErr != nil {
		return m.Summary(), fmt.Errorf("trace: %w", m.sinkErr)
	}
	return m.Summary(), nil
}

func (m *Match) Summary() Summary {
	s := Summary{Turns: m.round, Units: make(map[string]UnitSummary, len(m.stats))}
	for id, st := range m.stats {
		s.Units[id] = *st
		if st.ArrivedTurn > 0 {
			s.Arrived++
		}
	}
	return s
}

// MultiSink fans a record out to every non-nil sink and returns the first
// error.
type MultiSink []TraceSink

func (ms MultiSink) WriteTurn(rec TurnRecord) error {
	var first error
	for _, s := range ms {
		if s == nil {
			continue
		}
		if err := s.WriteTurn(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
