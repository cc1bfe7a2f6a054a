package grid

import (
	"errors"
	"fmt"

	"battlenav/internal/nav/geom"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNoPaint     = errors.New("cannot mark")
	ErrUnknownUnit = errors.New("unknown unit")
)

// Host is one unit's view of the world for the current turn. It implements
// nav.Controller and nav.Marker.
type Host struct {
	w *World
	u *Unit
}

func (w *World) Host(id string) (*Host, error) {
	u, ok := w.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUnit, id)
	}
	return &Host{w: w, u: u}, nil
}

func (h *Host) Unit() *Unit { return h.u }

func (h *Host) Location() geom.Cell { return h.u.Pos }

func (h *Host) OnMap(c geom.Cell) bool { return h.w.m.InBounds(c) }

func (h *Host) IsWall(c geom.Cell) bool {
	if h.u.Pos.DistSq(c) > h.w.tun.VisionRadiusSq {
		return false
	}
	return h.w.m.IsWall(c)
}

func (h *Host) CanMove(d geom.Direction) bool {
	if d == geom.Center || h.u.Cooldown >= h.w.tun.BusyCooldown {
		return false
	}
	dst := h.u.Pos.Add(d)
	return h.w.m.InBounds(dst) && !h.w.m.IsWall(dst) && !h.w.Occupied(dst)
}

func (h *Host) Move(d geom.Direction) error {
	if !h.CanMove(d) {
		return fmt.Errorf("%w: %s from %v", ErrIllegalMove, d, h.u.Pos)
	}
	h.u.Pos = h.u.Pos.Add(d)
	h.u.Cooldown += h.w.tun.MoveCooldown
	return nil
}

func (h *Host) MovementCooldown() int { return h.u.Cooldown }
func (h *Host) MapWidth() int         { return h.w.m.width }
func (h *Host) MapHeight() int        { return h.w.m.height }

func (h *Host) CanMark(c geom.Cell) bool {
	m := h.w.m
	if !m.InBounds(c) || m.IsWall(c) {
		return false
	}
	if h.u.Pos.DistSq(c) > h.w.tun.MarkRadiusSq {
		return false
	}
	if m.PaintOwner(c) == h.u.Team {
		return false
	}
	return h.u.Paint >= h.w.tun.MarkCost
}

func (h *Host) Mark(c geom.Cell) error {
	if !h.CanMark(c) {
		return fmt.Errorf("%w: %v", ErrNoPaint, c)
	}
	h.w.m.SetPaint(c, h.u.Team)
	h.u.Paint -= h.w.tun.MarkCost
	return nil
}
