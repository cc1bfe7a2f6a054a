package grid

import (
	"fmt"
	"sort"
	"strings"

	"battlenav/internal/nav/geom"
	"battlenav/internal/sim/tuning"
)

type Unit struct {
	ID       string
	Team     string
	Pos      geom.Cell
	Cooldown int
	Paint    int

	// Marks makes the unit paint each cell it steps into.
	Marks bool
}

// World owns the map and every unit on it. It is not safe for concurrent
// use; callers serialize access through a single loop.
type World struct {
	m     *Map
	tun   tuning.Tuning
	units map[string]*Unit
}

func NewWorld(m *Map, tun tuning.Tuning) *World {
	return &World{m: m, tun: tun, units: map[string]*Unit{}}
}

func (w *World) Map() *Map             { return w.m }
func (w *World) Tuning() tuning.Tuning { return w.tun }

// AddUnit places a unit on an open, unoccupied cell. Paint defaults to the
// tuned starting amount when zero.
func (w *World) AddUnit(u Unit) error {
	if u.ID == "" {
		return fmt.Errorf("unit id is empty")
	}
	if _, ok := w.units[u.ID]; ok {
		return fmt.Errorf("duplicate unit id %q", u.ID)
	}
	if !w.m.InBounds(u.Pos) {
		return fmt.Errorf("unit %s: %v is off the map", u.ID, u.Pos)
	}
	if w.m.IsWall(u.Pos) {
		return fmt.Errorf("unit %s: %v is a wall", u.ID, u.Pos)
	}
	if other := w.occupant(u.Pos); other != nil {
		return fmt.Errorf("unit %s: %v already holds %s", u.ID, u.Pos, other.ID)
	}
	if u.Paint == 0 {
		u.Paint = w.tun.StartingPaint
	}
	cp := u
	w.units[u.ID] = &cp
	return nil
}

func (w *World) Unit(id string) (*Unit, bool) {
	u, ok := w.units[id]
	return u, ok
}

// Units returns every unit sorted by id.
func (w *World) Units() []*Unit {
	out := make([]*Unit, 0, len(w.units))
	for _, u := range w.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Occupied(c geom.Cell) bool { return w.occupant(c) != nil }

func (w *World) occupant(c geom.Cell) *Unit {
	for _, u := range w.units {
		if u.Pos == c {
			return u
		}
	}
	return nil
}

// EndTurn cools every unit down by one turn's worth.
func (w *World) EndTurn() {
	for _, u := range w.units {
		u.Cooldown -= w.tun.CooldownPerTurn
		if u.Cooldown < 0 {
			u.Cooldown = 0
		}
	}
}

// Render draws the board top row first. Units show as the first letter of
// their team (upper case), painted cells as the lower-case team letter.
func (w *World) Render() string {
	var b strings.Builder
	for y := w.m.height - 1; y >= 0; y-- {
		for x := 0; x < w.m.width; x++ {
			c := geom.Cell{X: x, Y: y}
			switch {
			case w.m.IsWall(c):
				b.WriteByte('#')
			case w.occupant(c) != nil:
				b.WriteString(teamGlyph(w.occupant(c).Team, true))
			case w.m.PaintOwner(c) != "":
				b.WriteString(teamGlyph(w.m.PaintOwner(c), false))
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func teamGlyph(team string, upper bool) string {
	if team == "" {
		team = "?"
	}
	g := team[:1]
	if upper {
		return strings.ToUpper(g)
	}
	return strings.ToLower(g)
}
