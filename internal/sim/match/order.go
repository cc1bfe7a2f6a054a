package match

import (
	"math/rand"

	"battlenav/internal/nav"
	"battlenav/internal/nav/geom"
	"battlenav/internal/sim/grid"
)

const (
	KindMoveTo  = "MOVE_TO"
	KindFlee    = "FLEE"
	KindExplore = "EXPLORE"
	KindHold    = "HOLD"
)

// TurnContext carries the per-turn facts a unit's order may depend on.
type TurnContext struct {
	Round     int
	TurnCount int   // turns this unit has taken, starting at 0
	Seed      int64 // stable per unit for the whole match
}

// Order is what a unit does each turn. Execute must issue at most one move.
type Order interface {
	Kind() string
	Execute(tc TurnContext, n *nav.Navigator, h *grid.Host) (bool, error)
}

// arriver is implemented by orders with a fixed destination.
type arriver interface {
	Arrived(pos geom.Cell) bool
}

type MoveTo struct {
	Target    geom.Cell
	Threshold int
}

func (MoveTo) Kind() string { return KindMoveTo }

func (o MoveTo) Execute(_ TurnContext, n *nav.Navigator, _ *grid.Host) (bool, error) {
	return n.MoveToWithin(o.Target, o.Threshold)
}

func (o MoveTo) Arrived(pos geom.Cell) bool { return pos == o.Target }

type Flee struct {
	Threat    geom.Cell
	Threshold int
}

func (Flee) Kind() string { return KindFlee }

func (o Flee) Execute(_ TurnContext, n *nav.Navigator, _ *grid.Host) (bool, error) {
	return n.FleeWithin(o.Threat, o.Threshold)
}

type Hold struct{}

func (Hold) Kind() string { return KindHold }

func (Hold) Execute(TurnContext, *nav.Navigator, *grid.Host) (bool, error) { return false, nil }

// Explore wanders between random on-map targets. A new target is drawn when
// the current one is reached or after Patience turns without a move.
type Explore struct {
	Threshold int
	Patience  int

	rng     *rand.Rand
	target  geom.Cell
	picked  bool
	blocked int
}

func NewExplore(threshold, patience int) *Explore {
	return &Explore{Threshold: threshold, Patience: patience}
}

func (*Explore) Kind() string { return KindExplore }

// Target returns the current destination, if one was drawn.
func (e *Explore) Target() (geom.Cell, bool) { return e.target, e.picked }

func (e *Explore) Execute(tc TurnContext, n *nav.Navigator, h *grid.Host) (bool, error) {
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(tc.Seed))
	}
	here := h.Location()
	if !e.picked || here == e.target || (e.Patience > 0 && e.blocked >= e.Patience) {
		e.pick(h)
	}
	moved, err := n.MoveToWithin(e.target, e.Threshold)
	if moved {
		e.blocked = 0
	} else {
		e.blocked++
	}
	return moved, err
}

func (e *Explore) pick(h *grid.Host) {
	w, ht := h.MapWidth(), h.MapHeight()
	here := h.Location()
	e.blocked = 0
	e.picked = true
	e.target = here
	if w <= 0 || ht <= 0 {
		return
	}
	for i := 0; i < 8; i++ {
		c := geom.Cell{X: e.rng.Intn(w), Y: e.rng.Intn(ht)}
		if c != here {
			e.target = c
			return
		}
	}
}
