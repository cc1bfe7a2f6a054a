package nav

import "battlenav/internal/nav/geom"

// Controller is the host's view of one unit for the current turn. Sensing
// queries never mutate; Move is the only relocation command and must only be
// issued after CanMove reported true for the same direction.
type Controller interface {
	Location() geom.Cell
	OnMap(c geom.Cell) bool
	// IsWall reports sensed walls only. Cells outside vision read as open.
	IsWall(c geom.Cell) bool
	CanMove(d geom.Direction) bool
	Move(d geom.Direction) error
	MovementCooldown() int
	MapWidth() int
	MapHeight() int
}

// Marker paints the cell a unit is about to step into. Optional.
type Marker interface {
	CanMark(c geom.Cell) bool
	Mark(c geom.Cell) error
}
