package geom

import "fmt"

// sectorRatio splits straight from diagonal sectors (tan 67.5°).
const sectorRatio = 2.414

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

func (c Cell) Add(d Direction) Cell {
	return Cell{X: c.X + d.DX(), Y: c.Y + d.DY()}
}

func (c Cell) Offset(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// DistSq is the squared Euclidean distance. It is the only metric used for
// ranking and thresholds.
func (c Cell) DistSq(o Cell) int {
	dx := o.X - c.X
	dy := o.Y - c.Y
	return dx*dx + dy*dy
}

// Mirror reflects o through c.
func (c Cell) Mirror(o Cell) Cell {
	return Cell{X: 2*c.X - o.X, Y: 2*c.Y - o.Y}
}

// DirectionTo classifies the heading from c to o into one of eight sectors.
func (c Cell) DirectionTo(o Cell) Direction {
	dx := float64(o.X - c.X)
	dy := float64(o.Y - c.Y)
	switch {
	case abs(dx) >= sectorRatio*abs(dy):
		if dx > 0 {
			return East
		} else if dx < 0 {
			return West
		}
		return Center
	case abs(dy) >= sectorRatio*abs(dx):
		if dy > 0 {
			return North
		}
		return South
	case dy > 0:
		if dx > 0 {
			return NorthEast
		}
		return NorthWest
	default:
		if dx > 0 {
			return SouthEast
		}
		return SouthWest
	}
}

// BiasDirection is the secondary heading tried after DirectionTo. In a
// straight sector it is the diagonal leaning toward the target; in a diagonal
// sector it is the dominant axis, North/South on an exact diagonal.
func BiasDirection(from, to Cell) Direction {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	switch {
	case abs(dx) >= sectorRatio*abs(dy):
		switch {
		case dx > 0 && dy > 0:
			return NorthEast
		case dx > 0:
			return SouthEast
		case dx < 0 && dy > 0:
			return NorthWest
		case dx < 0:
			return SouthWest
		}
		return Center
	case abs(dy) >= sectorRatio*abs(dx):
		switch {
		case dy > 0 && dx > 0:
			return NorthEast
		case dy > 0:
			return NorthWest
		case dx > 0:
			return SouthEast
		}
		return SouthWest
	}
	xDominant := abs(dx) > abs(dy)
	switch {
	case dy > 0 && xDominant && dx > 0:
		return East
	case dy > 0 && xDominant:
		return West
	case dy > 0:
		return North
	case xDominant && dx > 0:
		return East
	case xDominant:
		return West
	}
	return South
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
