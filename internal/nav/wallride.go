package nav

import "battlenav/internal/nav/geom"

// EscapePoint sums, for every sensed wall around the unit, the wall's
// direction turned 90 degrees clockwise. It returns the resulting point and
// the number of adjacent walls.
func (n *Navigator) EscapePoint() (geom.Cell, int) {
	here := n.ctrl.Location()
	p := here
	walls := 0
	for _, d := range geom.Compass {
		c := here.Add(d)
		if !n.ctrl.OnMap(c) || !n.ctrl.IsWall(c) {
			continue
		}
		p = p.Add(d.RotateRight().RotateRight())
		walls++
	}
	return p, walls
}

// WallRide aims at the escape point instead of target when at least
// threshold walls touch the unit, unless that would turn away from target.
func (n *Navigator) WallRide(target geom.Cell, threshold int) (bool, error) {
	if threshold <= 0 {
		return false, nil
	}
	here := n.ctrl.Location()
	escape, walls := n.EscapePoint()

	goal := here.DirectionTo(target)
	away := here.DirectionTo(escape)
	r := away
	for i := 0; i < 3; i++ {
		r = r.RotateRight()
		if r == goal {
			return false, nil
		}
	}
	if walls < threshold {
		return false, nil
	}
	n.debugf("wall ride %v -> %v (walls=%d)", here, escape, walls)
	return n.MoveToward(escape, true)
}
