package grid

import (
	"fmt"
	"strings"

	"battlenav/internal/nav/geom"
)

// Map is a rectangular board of walls and paint. (0,0) is the bottom-left
// cell; Y grows upward.
type Map struct {
	width  int
	height int
	walls  []bool
	paint  []string
}

func NewMap(width, height int) *Map {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Map{
		width:  width,
		height: height,
		walls:  make([]bool, width*height),
		paint:  make([]string, width*height),
	}
}

// ParseRows reads an ASCII board: '#' is a wall and '.' is open. The first
// row is the top of the map (highest Y). All rows must have equal length.
func ParseRows(rows []string) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("map has no rows")
	}
	w := len(rows[0])
	if w == 0 {
		return nil, fmt.Errorf("map row 0 is empty")
	}
	m := NewMap(w, len(rows))
	for i, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("map row %d: width %d, want %d", i, len(row), w)
		}
		y := len(rows) - 1 - i
		for x := 0; x < w; x++ {
			switch row[x] {
			case '#':
				m.walls[m.index(x, y)] = true
			case '.':
			default:
				return nil, fmt.Errorf("map row %d col %d: unexpected %q", i, x, row[x])
			}
		}
	}
	return m, nil
}

func (m *Map) Width() int  { return m.width }
func (m *Map) Height() int { return m.height }

func (m *Map) InBounds(c geom.Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < m.width && c.Y < m.height
}

func (m *Map) index(x, y int) int { return y*m.width + x }

// IsWall reports false for off-map cells.
func (m *Map) IsWall(c geom.Cell) bool {
	if !m.InBounds(c) {
		return false
	}
	return m.walls[m.index(c.X, c.Y)]
}

func (m *Map) SetWall(c geom.Cell, wall bool) {
	if m.InBounds(c) {
		m.walls[m.index(c.X, c.Y)] = wall
	}
}

func (m *Map) PaintOwner(c geom.Cell) string {
	if !m.InBounds(c) {
		return ""
	}
	return m.paint[m.index(c.X, c.Y)]
}

func (m *Map) SetPaint(c geom.Cell, team string) {
	if m.InBounds(c) {
		m.paint[m.index(c.X, c.Y)] = team
	}
}

// Rows renders the walls back into ParseRows form.
func (m *Map) Rows() []string {
	out := make([]string, 0, m.height)
	var b strings.Builder
	for y := m.height - 1; y >= 0; y-- {
		b.Reset()
		for x := 0; x < m.width; x++ {
			if m.walls[m.index(x, y)] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		out = append(out, b.String())
	}
	return out
}
