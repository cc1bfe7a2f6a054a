package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"battlenav/internal/protocol"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/scenario"
	"battlenav/internal/sim/tuning"
)

// Loop owns a match and plays it on a ticker. Every interaction with the
// match goes through its channels.
type Loop struct {
	m        *match.Match
	name     string
	tun      tuning.Tuning
	maxTurns int
	log      *log.Logger

	join   chan joinReq
	leave  chan string
	orders chan orderReq
	state  chan chan StateSnapshot

	// stopped is closed when Run returns.
	stopped chan struct{}

	clients map[string]*client
	owners  map[string]string // unit id -> session id
	pending map[string]match.Order
	done    bool
}

type client struct {
	id     string
	name   string
	unitID string
	out    chan []byte
}

type joinReq struct {
	name   string
	unitID string
	out    chan []byte
	resp   chan joinResp
}

type joinResp struct {
	welcome protocol.WelcomeMsg
	err     *protocol.ErrorMsg
}

type orderReq struct {
	session string
	msg     protocol.OrderMsg
	resp    chan protocol.AckMsg
}

// StateSnapshot is a read-only view for HTTP handlers.
type StateSnapshot struct {
	Scenario string               `json:"scenario"`
	Round    int                  `json:"round"`
	Done     bool                 `json:"done"`
	Clients  int                  `json:"clients"`
	Units    []protocol.UnitState `json:"units"`
	Summary  match.Summary        `json:"summary"`
}

func NewLoop(name string, m *match.Match, maxTurns int, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	tun := m.World().Tuning()
	if maxTurns <= 0 {
		maxTurns = tun.MaxTurns
	}
	return &Loop{
		m:        m,
		name:     name,
		tun:      tun,
		maxTurns: maxTurns,
		log:      logger,
		join:     make(chan joinReq, 64),
		leave:    make(chan string, 64),
		orders:   make(chan orderReq, 256),
		state:    make(chan chan StateSnapshot, 16),
		stopped:  make(chan struct{}),
		clients:  map[string]*client{},
		owners:   map[string]string{},
		pending:  map[string]match.Order{},
	}
}

var ErrLoopStopped = errors.New("ws: loop stopped")

// Leave releases a session and its unit claim. It never blocks once the loop
// has stopped.
func (l *Loop) Leave(session string) {
	select {
	case l.leave <- session:
	case <-l.stopped:
	}
}

// State asks the loop for a snapshot. It blocks until the loop answers or
// ctx ends.
func (l *Loop) State(ctx context.Context) (StateSnapshot, error) {
	ch := make(chan StateSnapshot, 1)
	select {
	case l.state <- ch:
	case <-l.stopped:
		return StateSnapshot{}, ErrLoopStopped
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}
	select {
	case s := <-ch:
		return s, nil
	case <-l.stopped:
		return StateSnapshot{}, ErrLoopStopped
	case <-ctx.Done():
		return StateSnapshot{}, ctx.Err()
	}
}

// Run plays the match until ctx ends. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	interval := time.Duration(l.tun.TurnDurationMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.join:
			req.resp <- l.handleJoin(req)
		case id := <-l.leave:
			l.handleLeave(id)
		case req := <-l.orders:
			req.resp <- l.handleOrder(req)
		case ch := <-l.state:
			ch <- l.snapshot()
		case <-ticker.C:
			l.step()
		}
	}
}

func (l *Loop) handleJoin(req joinReq) joinResp {
	if req.unitID != "" {
		if _, ok := l.m.World().Unit(req.unitID); !ok {
			e := protocol.NewError(protocol.ErrUnknownUnit, fmt.Sprintf("no unit %q", req.unitID))
			return joinResp{err: &e}
		}
		if owner, ok := l.owners[req.unitID]; ok {
			e := protocol.NewError(protocol.ErrBusy, fmt.Sprintf("unit %q is controlled by %s", req.unitID, owner))
			return joinResp{err: &e}
		}
	}
	c := &client{id: uuid.NewString(), name: req.name, unitID: req.unitID, out: req.out}
	l.clients[c.id] = c
	if c.unitID != "" {
		l.owners[c.unitID] = c.id
	}
	l.log.Printf("join session=%s name=%s unit=%s", c.id, c.name, c.unitID)

	w := l.m.World()
	return joinResp{welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       c.id,
		Scenario:        l.name,
		Width:           w.Map().Width(),
		Height:          w.Map().Height(),
		Rows:            w.Map().Rows(),
		Round:           l.m.Round(),
		TurnDurationMs:  l.tun.TurnDurationMs,
		ControlledUnit:  c.unitID,
		Units:           l.unitStates(nil),
	}}
}

func (l *Loop) handleLeave(session string) {
	c, ok := l.clients[session]
	if !ok {
		return
	}
	delete(l.clients, session)
	if c.unitID != "" && l.owners[c.unitID] == session {
		delete(l.owners, c.unitID)
	}
	l.log.Printf("leave session=%s", session)
}

func (l *Loop) handleOrder(req orderReq) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          req.msg.UnitID,
	}
	reject := func(code, msg string) protocol.AckMsg {
		ack.Code = code
		ack.Message = msg
		return ack
	}
	if _, ok := l.m.World().Unit(req.msg.UnitID); !ok {
		return reject(protocol.ErrUnknownUnit, fmt.Sprintf("no unit %q", req.msg.UnitID))
	}
	if l.owners[req.msg.UnitID] != req.session {
		return reject(protocol.ErrNotOwner, "unit is not controlled by this session")
	}
	if l.done {
		return reject(protocol.ErrBusy, "match is over")
	}
	spec := &scenario.OrderSpec{Kind: req.msg.Kind, Threshold: req.msg.Threshold, Patience: req.msg.Patience}
	if req.msg.Target != nil {
		x, y := req.msg.Target[0], req.msg.Target[1]
		spec.X, spec.Y = &x, &y
	}
	o, err := spec.Build(l.tun)
	if err != nil {
		return reject(protocol.ErrBadOrder, err.Error())
	}
	l.pending[req.msg.UnitID] = o
	ack.Accepted = true
	ack.Round = l.m.Round() + 1
	return ack
}

func (l *Loop) step() {
	if l.done {
		return
	}
	ids := make([]string, 0, len(l.pending))
	for id := range l.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := l.m.SetOrder(id, l.pending[id]); err != nil {
			l.log.Printf("set order %s: %v", id, err)
		}
		delete(l.pending, id)
	}

	recs := l.m.Step()
	if l.m.Done() || l.m.Round() >= l.maxTurns {
		l.done = true
		sum := l.m.Summary()
		l.log.Printf("match over round=%d arrived=%d", sum.Turns, sum.Arrived)
	}

	frame := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Round:           l.m.Round(),
		Units:           l.unitStates(recs),
		Arrived:         l.arrived(),
		Done:            l.done,
	}
	b, err := json.Marshal(frame)
	if err != nil {
		l.log.Printf("frame marshal: %v", err)
		return
	}
	for _, c := range l.clients {
		select {
		case c.out <- b:
		default:
			// Slow client; it catches up on the next frame.
		}
	}
}

func (l *Loop) unitStates(recs []match.TurnRecord) []protocol.UnitState {
	byUnit := make(map[string]match.TurnRecord, len(recs))
	for _, r := range recs {
		byUnit[r.Unit] = r
	}
	units := l.m.World().Units()
	out := make([]protocol.UnitState, 0, len(units))
	for _, u := range units {
		st := protocol.UnitState{
			ID:    u.ID,
			Team:  u.Team,
			Pos:   [2]int{u.Pos.X, u.Pos.Y},
			Order: l.m.Order(u.ID).Kind(),
		}
		if r, ok := byUnit[u.ID]; ok {
			st.Moved = r.Moved
			st.Err = r.Err
		}
		out = append(out, st)
	}
	return out
}

func (l *Loop) arrived() []string {
	sum := l.m.Summary()
	out := []string{}
	for id, u := range sum.Units {
		if u.ArrivedTurn > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (l *Loop) snapshot() StateSnapshot {
	return StateSnapshot{
		Scenario: l.name,
		Round:    l.m.Round(),
		Done:     l.done,
		Clients:  len(l.clients),
		Units:    l.unitStates(nil),
		Summary:  l.m.Summary(),
	}
}
