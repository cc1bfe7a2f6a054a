package nav

import "battlenav/internal/nav/geom"

// Heading is a 16-point compass heading used by lookahead steps.
type Heading uint8

const (
	hN Heading = iota
	hNNE
	hNE
	hENE
	hE
	hESE
	hSE
	hSSE
	hS
	hSSW
	hSW
	hWSW
	hW
	hWNW
	hNW
	hNNW
	headingCount
)

type headingSpec struct {
	name  string
	probe [2]geom.Direction
	moves []geom.Direction
}

// headings: a step toward h requires probe[0]+probe[1] to be on the map and
// not a sensed wall, then takes the first legal entry of moves.
var headings = [headingCount]headingSpec{
	hN:   {"N", [2]geom.Direction{geom.North, geom.North}, []geom.Direction{geom.North, geom.NorthEast, geom.NorthWest}},
	hNNE: {"NNE", [2]geom.Direction{geom.North, geom.NorthEast}, []geom.Direction{geom.North, geom.NorthEast}},
	hNE:  {"NE", [2]geom.Direction{geom.NorthEast, geom.NorthEast}, []geom.Direction{geom.NorthEast}},
	hENE: {"ENE", [2]geom.Direction{geom.East, geom.NorthEast}, []geom.Direction{geom.East, geom.NorthEast}},
	hE:   {"E", [2]geom.Direction{geom.East, geom.East}, []geom.Direction{geom.East, geom.NorthEast, geom.SouthEast}},
	hESE: {"ESE", [2]geom.Direction{geom.East, geom.SouthEast}, []geom.Direction{geom.East, geom.SouthEast}},
	hSE:  {"SE", [2]geom.Direction{geom.SouthEast, geom.SouthEast}, []geom.Direction{geom.SouthEast}},
	hSSE: {"SSE", [2]geom.Direction{geom.South, geom.SouthEast}, []geom.Direction{geom.South, geom.SouthEast}},
	hS:   {"S", [2]geom.Direction{geom.South, geom.South}, []geom.Direction{geom.South, geom.SouthWest, geom.SouthEast}},
	hSSW: {"SSW", [2]geom.Direction{geom.South, geom.SouthWest}, []geom.Direction{geom.South, geom.SouthWest}},
	hSW:  {"SW", [2]geom.Direction{geom.SouthWest, geom.SouthWest}, []geom.Direction{geom.SouthWest}},
	hWSW: {"WSW", [2]geom.Direction{geom.West, geom.SouthWest}, []geom.Direction{geom.West, geom.SouthWest}},
	hW:   {"W", [2]geom.Direction{geom.West, geom.West}, []geom.Direction{geom.West, geom.SouthWest, geom.NorthWest}},
	hWNW: {"WNW", [2]geom.Direction{geom.West, geom.NorthWest}, []geom.Direction{geom.West, geom.NorthWest}},
	hNW:  {"NW", [2]geom.Direction{geom.NorthWest, geom.NorthWest}, []geom.Direction{geom.NorthWest}},
	hNNW: {"NNW", [2]geom.Direction{geom.North, geom.NorthWest}, []geom.Direction{geom.North, geom.NorthWest}},
}

func (h Heading) String() string {
	if h >= headingCount {
		return "?"
	}
	return headings[h].name
}

// Probe is the cell two steps along h from c.
func (h Heading) Probe(c geom.Cell) geom.Cell {
	s := headings[h]
	return c.Add(s.probe[0]).Add(s.probe[1])
}

// Step moves one cell along h if the cell two steps out is open.
func (n *Navigator) Step(h Heading) (bool, error) {
	if h >= headingCount {
		return false, nil
	}
	probe := h.Probe(n.ctrl.Location())
	if !n.ctrl.OnMap(probe) || n.ctrl.IsWall(probe) {
		return false, nil
	}
	for _, d := range headings[h].moves {
		if ok, err := n.try(d); err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
