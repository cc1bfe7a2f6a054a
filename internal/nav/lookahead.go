package nav

import (
	"math"

	"battlenav/internal/nav/geom"
)

type actionKind uint8

const (
	actStep actionKind = iota
	actRide
	actLeap
)

// action is one entry of a lookahead priority list.
type action struct {
	kind    actionKind
	heading Heading
	dx, dy  int // leap target relative to the chosen offset cell
}

type plan struct {
	dx, dy  int
	actions []action
}

func step(h Heading) action { return action{kind: actStep, heading: h} }
func leap(dx, dy int) action { return action{kind: actLeap, dx: dx, dy: dy} }

var ride = action{kind: actRide}

// bestPlan picks the two-cell offset closest to target; earlier offsets win
// ties.
func bestPlan(here, target geom.Cell) *plan {
	best := -1
	bestDist := math.MaxInt
	for i := range plans {
		d := target.DistSq(here.Offset(plans[i].dx, plans[i].dy))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return &plans[best]
}

// Lookahead ranks the sixteen cells two steps away and works through the
// priority list of the best one until a move succeeds.
func (n *Navigator) Lookahead(target geom.Cell) (bool, error) {
	here := n.ctrl.Location()
	p := bestPlan(here, target)
	probe := here.Offset(p.dx, p.dy)
	for _, a := range p.actions {
		var (
			ok  bool
			err error
		)
		switch a.kind {
		case actStep:
			ok, err = n.Step(a.heading)
		case actRide:
			ok, err = n.WallRide(target, 1)
		case actLeap:
			ok, err = n.MoveToward(probe.Offset(a.dx, a.dy), true)
		}
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
