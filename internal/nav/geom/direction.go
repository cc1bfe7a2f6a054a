package geom

// Direction is one of the eight compass points or Center. North is +Y.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	Center
)

// Compass lists the eight movement directions clockwise from North.
var Compass = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

var dirDelta = [9][2]int{
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	SouthEast: {1, -1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	NorthWest: {-1, 1},
	Center:    {0, 0},
}

var dirNames = [9]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "C"}

func (d Direction) DX() int { return dirDelta[d.norm()][0] }
func (d Direction) DY() int { return dirDelta[d.norm()][1] }

func (d Direction) String() string { return dirNames[d.norm()] }

// RotateLeft turns 45 degrees counter-clockwise.
func (d Direction) RotateLeft() Direction {
	if d.norm() == Center {
		return Center
	}
	return (d + 7) % 8
}

// RotateRight turns 45 degrees clockwise.
func (d Direction) RotateRight() Direction {
	if d.norm() == Center {
		return Center
	}
	return (d + 1) % 8
}

func (d Direction) Opposite() Direction {
	if d.norm() == Center {
		return Center
	}
	return (d + 4) % 8
}

// Adjacent reports whether a and b are one 45 degree rotation apart.
func Adjacent(a, b Direction) bool {
	if a.norm() == Center || b.norm() == Center {
		return false
	}
	return a.RotateLeft() == b || a.RotateRight() == b
}

// ParseDirection accepts the short names produced by String.
func ParseDirection(s string) (Direction, bool) {
	for i, n := range dirNames {
		if n == s {
			return Direction(i), true
		}
	}
	return Center, false
}

func (d Direction) norm() Direction {
	if d > Center {
		return Center
	}
	return d
}
