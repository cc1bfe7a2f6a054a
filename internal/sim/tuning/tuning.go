package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	// Movement.
	BusyCooldown     int `yaml:"busy_cooldown"`
	MoveCooldown     int `yaml:"move_cooldown"`
	CooldownPerTurn  int `yaml:"cooldown_per_turn"`
	DefaultThreshold int `yaml:"default_threshold"`

	// Sensing and marking.
	VisionRadiusSq int `yaml:"vision_radius_sq"`
	MarkRadiusSq   int `yaml:"mark_radius_sq"`
	MarkCost       int `yaml:"mark_cost"`
	StartingPaint  int `yaml:"starting_paint"`

	// Match loop.
	MaxTurns        int `yaml:"max_turns"`
	TurnDurationMs  int `yaml:"turn_duration_ms"`
	ExplorePatience int `yaml:"explore_patience"`
}

func Defaults() Tuning {
	return Tuning{
		BusyCooldown:     10,
		MoveCooldown:     10,
		CooldownPerTurn:  10,
		DefaultThreshold: 3,
		VisionRadiusSq:   20,
		MarkRadiusSq:     9,
		MarkCost:         5,
		StartingPaint:    200,
		MaxTurns:         2000,
		TurnDurationMs:   200,
		ExplorePatience:  8,
	}
}

// Load reads a tuning file on top of Defaults; keys missing from the file keep
// their default.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"busy_cooldown", t.BusyCooldown},
		{"move_cooldown", t.MoveCooldown},
		{"cooldown_per_turn", t.CooldownPerTurn},
		{"vision_radius_sq", t.VisionRadiusSq},
		{"mark_radius_sq", t.MarkRadiusSq},
		{"max_turns", t.MaxTurns},
		{"turn_duration_ms", t.TurnDurationMs},
		{"explore_patience", t.ExplorePatience},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be > 0 (got %d)", p.name, p.v)
		}
	}
	if t.MarkCost < 0 || t.StartingPaint < 0 {
		return fmt.Errorf("mark_cost and starting_paint must be >= 0")
	}
	if t.DefaultThreshold < 0 || t.DefaultThreshold > 8 {
		return fmt.Errorf("default_threshold must be within 0..8 (got %d)", t.DefaultThreshold)
	}
	return nil
}
