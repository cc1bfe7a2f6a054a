package grid

import (
	"fmt"

	"battlenav/internal/nav/geom"
	"battlenav/internal/persistence/snapshot"
	"battlenav/internal/sim/tuning"
)

// ExportSnapshot copies the world into a snapshot board. Header fields other
// than the version are left to the caller.
func (w *World) ExportSnapshot() snapshot.BoardV1 {
	b := snapshot.BoardV1{
		Header: snapshot.Header{Version: snapshot.Version},
		Width:  w.m.width,
		Height: w.m.height,
		Rows:   w.m.Rows(),
		Paint:  append([]string(nil), w.m.paint...),
	}
	for _, u := range w.Units() {
		b.Units = append(b.Units, snapshot.UnitV1{
			ID:       u.ID,
			Team:     u.Team,
			X:        u.Pos.X,
			Y:        u.Pos.Y,
			Cooldown: u.Cooldown,
			Paint:    u.Paint,
			Marks:    u.Marks,
		})
	}
	return b
}

// WorldFromSnapshot rebuilds a world, including cooldowns and paint.
func WorldFromSnapshot(b snapshot.BoardV1, tun tuning.Tuning) (*World, error) {
	m, err := ParseRows(b.Rows)
	if err != nil {
		return nil, err
	}
	if m.width != b.Width || m.height != b.Height {
		return nil, fmt.Errorf("snapshot size %dx%d does not match rows %dx%d", b.Width, b.Height, m.width, m.height)
	}
	if len(b.Paint) != 0 {
		if len(b.Paint) != len(m.paint) {
			return nil, fmt.Errorf("snapshot paint has %d cells, want %d", len(b.Paint), len(m.paint))
		}
		copy(m.paint, b.Paint)
	}
	w := NewWorld(m, tun)
	for _, u := range b.Units {
		if err := w.AddUnit(Unit{ID: u.ID, Team: u.Team, Pos: geom.Cell{X: u.X, Y: u.Y}, Paint: u.Paint, Marks: u.Marks}); err != nil {
			return nil, err
		}
		w.units[u.ID].Cooldown = u.Cooldown
		w.units[u.ID].Paint = u.Paint
	}
	return w, nil
}
