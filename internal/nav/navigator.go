package nav

import (
	"log"

	"battlenav/internal/nav/geom"
)

const (
	DefaultBusyCooldown = 10
	DefaultThreshold    = 3
)

// Navigator resolves one movement decision per call against a Controller.
// It keeps no state between calls apart from its configuration.
type Navigator struct {
	ctrl   Controller
	marker Marker
	log    *log.Logger

	busyCooldown     int
	defaultThreshold int
}

type Option func(*Navigator)

func WithMarker(m Marker) Option { return func(n *Navigator) { n.marker = m } }

func WithLogger(l *log.Logger) Option { return func(n *Navigator) { n.log = l } }

func WithBusyCooldown(v int) Option {
	return func(n *Navigator) {
		if v > 0 {
			n.busyCooldown = v
		}
	}
}

func WithDefaultThreshold(v int) Option {
	return func(n *Navigator) {
		if v >= 0 {
			n.defaultThreshold = v
		}
	}
}

func New(ctrl Controller, opts ...Option) *Navigator {
	n := &Navigator{
		ctrl:             ctrl,
		busyCooldown:     DefaultBusyCooldown,
		defaultThreshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// MoveTo steps toward target using the default wall sensitivity.
func (n *Navigator) MoveTo(target geom.Cell) (bool, error) {
	return n.MoveToWithin(target, n.defaultThreshold)
}

// MoveToWithin steps toward target. threshold is the number of adjacent walls
// (0-8) needed before wall riding takes over; 0 disables it. The bool reports
// whether the unit moved; the error is only set when the host rejected a
// command it had already declared legal.
func (n *Navigator) MoveToWithin(target geom.Cell, threshold int) (bool, error) {
	here := n.ctrl.Location()
	if here == target || n.ctrl.MovementCooldown() >= n.busyCooldown {
		return false, nil
	}
	if here.DistSq(target) <= 2 {
		return n.MoveToward(target, false)
	}
	if ok, err := n.WallRide(target, threshold); err != nil || ok {
		return ok, err
	}
	if ok, err := n.Lookahead(target); err != nil || ok {
		return ok, err
	}
	n.debugf("lookahead exhausted at %v, greedy toward %v", here, target)
	return n.MoveToward(target, false)
}

// Flee moves toward the reflection of threat through the unit's position.
func (n *Navigator) Flee(threat geom.Cell) (bool, error) {
	return n.FleeWithin(threat, n.defaultThreshold)
}

func (n *Navigator) FleeWithin(threat geom.Cell, threshold int) (bool, error) {
	here := n.ctrl.Location()
	return n.MoveToWithin(here.Mirror(threat), threshold)
}

func (n *Navigator) debugf(format string, args ...any) {
	if n.log != nil {
		n.log.Printf(format, args...)
	}
}
