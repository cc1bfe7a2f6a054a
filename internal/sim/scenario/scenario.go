package scenario

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"battlenav/internal/nav/geom"
	"battlenav/internal/sim/grid"
	"battlenav/internal/sim/match"
	"battlenav/internal/sim/tuning"
)

var ErrInvalid = errors.New("invalid scenario")

//go:embed scenario.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("scenario.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

type Scenario struct {
	Name     string `yaml:"name" json:"name"`
	Seed     int64  `yaml:"seed" json:"seed"`
	MaxTurns int    `yaml:"max_turns" json:"max_turns,omitempty"`
	Map      struct {
		Rows []string `yaml:"rows" json:"rows"`
	} `yaml:"map" json:"map"`
	Units []UnitSpec `yaml:"units" json:"units"`
}

type UnitSpec struct {
	ID    string     `yaml:"id" json:"id"`
	Team  string     `yaml:"team" json:"team,omitempty"`
	X     int        `yaml:"x" json:"x"`
	Y     int        `yaml:"y" json:"y"`
	Marks bool       `yaml:"marks" json:"marks,omitempty"`
	Order *OrderSpec `yaml:"order" json:"order,omitempty"`
}

type OrderSpec struct {
	Kind      string `yaml:"kind" json:"kind"`
	X         *int   `yaml:"x" json:"x,omitempty"`
	Y         *int   `yaml:"y" json:"y,omitempty"`
	Threshold *int   `yaml:"threshold" json:"threshold,omitempty"`
	Patience  *int   `yaml:"patience" json:"patience,omitempty"`
}

func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes YAML and checks it against the embedded schema before the
// typed decode.
func Parse(data []byte) (*Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// Round-trip through JSON so numbers reach the validator as JSON values.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := sc.check(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) check() error {
	seen := map[string]bool{}
	for _, u := range sc.Units {
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate unit id %q", ErrInvalid, u.ID)
		}
		seen[u.ID] = true
		if u.Order == nil {
			continue
		}
		switch strings.ToUpper(u.Order.Kind) {
		case match.KindMoveTo, match.KindFlee:
			if u.Order.X == nil || u.Order.Y == nil {
				return fmt.Errorf("%w: unit %s: %s needs x and y", ErrInvalid, u.ID, u.Order.Kind)
			}
		case match.KindExplore, match.KindHold:
		default:
			return fmt.Errorf("%w: unit %s: unknown order kind %q", ErrInvalid, u.ID, u.Order.Kind)
		}
	}
	return nil
}

// Turns is the turn limit for this scenario under tun.
func (sc *Scenario) Turns(tun tuning.Tuning) int {
	if sc.MaxTurns > 0 {
		return sc.MaxTurns
	}
	return tun.MaxTurns
}

// World builds the board and places every unit.
func (sc *Scenario) World(tun tuning.Tuning) (*grid.World, error) {
	m, err := grid.ParseRows(sc.Map.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	w := grid.NewWorld(m, tun)
	for _, u := range sc.Units {
		team := u.Team
		if team == "" {
			team = "red"
		}
		if err := w.AddUnit(grid.Unit{ID: u.ID, Team: team, Pos: geom.Cell{X: u.X, Y: u.Y}, Marks: u.Marks}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return w, nil
}

// Build creates a ready-to-run match with every unit's initial order set.
func (sc *Scenario) Build(tun tuning.Tuning, opts ...match.Option) (*match.Match, error) {
	w, err := sc.World(tun)
	if err != nil {
		return nil, err
	}
	m := match.New(w, sc.Seed, opts...)
	for _, u := range sc.Units {
		o, err := u.Order.Build(tun)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", u.ID, err)
		}
		if err := m.SetOrder(u.ID, o); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Build turns the entry into a match order. A nil entry holds.
func (o *OrderSpec) Build(tun tuning.Tuning) (match.Order, error) {
	if o == nil {
		return match.Hold{}, nil
	}
	threshold := tun.DefaultThreshold
	if o.Threshold != nil {
		threshold = *o.Threshold
	}
	var target geom.Cell
	if o.X != nil && o.Y != nil {
		target = geom.Cell{X: *o.X, Y: *o.Y}
	}
	switch strings.ToUpper(o.Kind) {
	case match.KindMoveTo:
		if o.X == nil || o.Y == nil {
			return nil, fmt.Errorf("%w: MOVE_TO needs x and y", ErrInvalid)
		}
		return match.MoveTo{Target: target, Threshold: threshold}, nil
	case match.KindFlee:
		if o.X == nil || o.Y == nil {
			return nil, fmt.Errorf("%w: FLEE needs x and y", ErrInvalid)
		}
		return match.Flee{Threat: target, Threshold: threshold}, nil
	case match.KindExplore:
		patience := tun.ExplorePatience
		if o.Patience != nil {
			patience = *o.Patience
		}
		return match.NewExplore(threshold, patience), nil
	case match.KindHold:
		return match.Hold{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown order kind %q", ErrInvalid, o.Kind)
	}
}
