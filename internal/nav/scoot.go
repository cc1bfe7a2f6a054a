package nav

import (
	"fmt"

	"battlenav/internal/nav/geom"
)

// MoveToward greedily steps toward target. When target is the unit's own
// cell the primary heading falls back to the map centre.
func (n *Navigator) MoveToward(target geom.Cell, restrictive bool) (bool, error) {
	here := n.ctrl.Location()
	dir := here.DirectionTo(target)
	if dir == geom.Center {
		mid := geom.Cell{X: n.ctrl.MapWidth() / 2, Y: n.ctrl.MapHeight() / 2}
		dir = here.DirectionTo(mid)
	}
	return n.Scoot(dir, geom.BiasDirection(here, target), restrictive)
}

// Scoot tries dir, then sec, then fans out around dir starting on the side
// opposite sec. Restrictive mode gives up after the first fan-out attempt.
func (n *Navigator) Scoot(dir, sec geom.Direction, restrictive bool) (bool, error) {
	order, k := scootOrder(dir, sec, restrictive)
	for _, d := range order[:k] {
		if ok, err := n.try(d); err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func scootOrder(dir, sec geom.Direction, restrictive bool) ([7]geom.Direction, int) {
	l1, r1 := dir.RotateLeft(), dir.RotateRight()
	l2, r2 := l1.RotateLeft(), r1.RotateRight()
	l3, r3 := l2.RotateLeft(), r2.RotateRight()
	var order [7]geom.Direction
	if sec == l1 {
		order = [7]geom.Direction{dir, sec, r1, l2, r2, l3, r3}
	} else {
		order = [7]geom.Direction{dir, sec, l1, r2, l2, r3, l3}
	}
	if restrictive {
		return order, 3
	}
	return order, 7
}

// try is the single gate every relocation goes through.
func (n *Navigator) try(d geom.Direction) (bool, error) {
	if !n.ctrl.CanMove(d) {
		return false, nil
	}
	if n.marker != nil {
		dest := n.ctrl.Location().Add(d)
		if n.marker.CanMark(dest) {
			if err := n.marker.Mark(dest); err != nil {
				return false, fmt.Errorf("mark %v: %w", dest, err)
			}
		}
	}
	if err := n.ctrl.Move(d); err != nil {
		return false, fmt.Errorf("move %s: %w", d, err)
	}
	return true, nil
}
