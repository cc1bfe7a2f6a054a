package nav

import (
	"fmt"
	"testing"

	"battlenav/internal/nav/geom"
)

// fakeCtrl is a tiny in-memory host. Every wall is sensed; blocked cells are
// passable terrain that is occupied this turn. Cooldown is only enforced by
// the navigator.
type fakeCtrl struct {
	pos      geom.Cell
	w, h     int
	walls    map[geom.Cell]bool
	blocked  map[geom.Cell]bool
	cooldown int

	lastLegal geom.Direction
	hasLegal  bool
	moves     []geom.Direction
	commands  int
	illegal   []string
}

func newFake(x, y int) *fakeCtrl {
	return &fakeCtrl{
		pos:     geom.Cell{X: x, Y: y},
		w:       30,
		h:       30,
		walls:   map[geom.Cell]bool{},
		blocked: map[geom.Cell]bool{},
	}
}

func (f *fakeCtrl) wall(cells ...geom.Cell) *fakeCtrl {
	for _, c := range cells {
		f.walls[c] = true
	}
	return f
}

func (f *fakeCtrl) block(cells ...geom.Cell) *fakeCtrl {
	for _, c := range cells {
		f.blocked[c] = true
	}
	return f
}

func (f *fakeCtrl) Location() geom.Cell { return f.pos }
func (f *fakeCtrl) OnMap(c geom.Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < f.w && c.Y < f.h
}
func (f *fakeCtrl) IsWall(c geom.Cell) bool { return f.walls[c] }
func (f *fakeCtrl) MovementCooldown() int { return f.cooldown }
func (f *fakeCtrl) MapWidth() int { return f.w }
func (f *fakeCtrl) MapHeight() int { return f.h }

func (f *fakeCtrl) CanMove(d geom.Direction) bool {
	f.hasLegal = false
	if d == geom.Center {
		return false
	}
	dest := f.pos.Add(d)
	if !f.OnMap(dest) || f.walls[dest] || f.blocked[dest] {
		return false
	}
	f.lastLegal, f.hasLegal = d, true
	return true
}

func (f *fakeCtrl) Move(d geom.Direction) error {
	f.commands++
	if !f.hasLegal || f.lastLegal != d {
		f.illegal = append(f.illegal, d.String())
		return fmt.Errorf("unchecked move %s", d)
	}
	f.hasLegal = false
	f.moves = append(f.moves, d)
	f.pos = f.pos.Add(d)
	f.cooldown += 10
	return nil
}

// endTurn mimics the host cooling the unit down between turns.
func (f *fakeCtrl) endTurn() {
	f.cooldown -= 10
	if f.cooldown < 0 {
		f.cooldown = 0
	}
}

func (f *fakeCtrl) assertLegal(t *testing.T) {
	t.Helper()
	if len(f.illegal) > 0 {
		t.Fatalf("moves issued without a legality check: %v", f.illegal)
	}
}

type fakeMarker struct {
	f      *fakeCtrl
	marked []geom.Cell
	deny   map[geom.Cell]bool
}

func (m *fakeMarker) CanMark(c geom.Cell) bool { return !m.deny[c] && m.f.OnMap(c) }
func (m *fakeMarker) Mark(c geom.Cell) error {
	m.f.commands++
	m.marked = append(m.marked, c)
	return nil
}
