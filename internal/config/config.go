// Package config assembles the parameter bundle for a simulation run from a
// named profile and an optional YAML overlay.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/engine"
	"github.com/talgya/civsim/internal/world"
)

// Errors returned by this package.
var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Profile names.
const (
	Baseline = "baseline"
	Orbital  = "orbital"
	Classic  = "classic"
)

// Config is everything a run needs. The rule set is fixed once the run starts.
type Config struct {
	Profile string          `yaml:"profile"`
	Seed    int64           `yaml:"seed"`
	Years   uint64          `yaml:"years"`
	Terrain world.GenConfig `yaml:"terrain"`
	Spawn   civ.SpawnConfig `yaml:"spawn"`
	Rules   engine.Rules    `yaml:"rules"`
}

var profiles = map[string]func() Config{
	Baseline: Default,
	Orbital: func() Config {
		cfg := Default()
		cfg.Profile = Orbital
		cfg.Terrain.Climate.Orbital = true
		return cfg
	},
	// Classic drops the spacing rule and the climate model: temperature is
	// the inverse of height and civilizations settle the first land they find.
	Classic: func() Config {
		cfg := Default()
		cfg.Profile = Classic
		cfg.Spawn.MinSeparation = 0
		cfg.Terrain.Climate.Enabled = false
		return cfg
	},
}

// Default returns the baseline profile.
func Default() Config {
	terrain := world.DefaultGenConfig()
	return Config{
		Profile: Baseline,
		Seed:    terrain.Seed,
		Years:   1000,
		Terrain: terrain,
		Spawn:   civ.DefaultSpawnConfig(),
		Rules:   engine.DefaultRules(),
	}
}

// Profiles lists the known profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile. An empty name selects the baseline.
func Profile(name string) (Config, error) {
	if name == "" {
		name = Baseline
	}
	build, ok := profiles[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, Profiles())
	}
	return build(), nil
}

// Load reads the named profile and overlays the YAML file at path on top of
// it. Keys absent from the file keep their profile values; unknown keys are
// rejected. An empty path returns the profile unchanged.
func Load(path, profile string) (Config, error) {
	cfg, err := Profile(profile)
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	seed := cfg.Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	// A top-level seed drives terrain too unless the file pins terrain.seed.
	if cfg.Seed != seed && cfg.Terrain.Seed == seed {
		cfg.Terrain.Seed = cfg.Seed
	}
	return cfg, nil
}

// WithSeed returns a copy of cfg with the run and terrain seeds replaced.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = seed
	c.Terrain.Seed = seed
	return c
}

// Validate rejects parameter bundles the simulation cannot run.
func (c Config) Validate() error {
	if err := c.Terrain.Validate(); err != nil {
		return fmt.Errorf("%w: terrain: %w", ErrInvalidConfig, err)
	}
	th := c.Terrain.Thresholds
	if th.Water > th.Beach {
		return invalid("thresholds: water %.2f above beach %.2f", th.Water, th.Beach)
	}

	s := c.Spawn
	switch {
	case s.Count < 0:
		return invalid("spawn.count %d is negative", s.Count)
	case s.PlacementAttempts < 1:
		return invalid("spawn.placement_attempts %d must be at least 1", s.PlacementAttempts)
	case s.InitialPopulation <= 0:
		return invalid("spawn.initial_population %.0f must be positive", s.InitialPopulation)
	case s.MinGrowthRate < 0 || s.MinGrowthRate > s.MaxGrowthRate:
		return invalid("spawn growth rates [%.4f, %.4f] are not an ordered non-negative range", s.MinGrowthRate, s.MaxGrowthRate)
	case s.InitialTerritory < 1:
		return invalid("spawn.initial_territory %d must be at least 1", s.InitialTerritory)
	}

	g := c.Rules.Growth
	switch {
	case g.PopulationCap <= 0:
		return invalid("growth.population_cap %.0f must be positive", g.PopulationCap)
	case s.InitialPopulation > g.PopulationCap:
		return invalid("spawn.initial_population %.0f exceeds the cap %.0f", s.InitialPopulation, g.PopulationCap)
	case g.SlowGrowthRate < 0:
		return invalid("growth.slow_growth_rate %.4f is negative", g.SlowGrowthRate)
	case g.CitizensPerCell < 0:
		return invalid("growth.citizens_per_cell %.0f is negative", g.CitizensPerCell)
	}

	k := c.Rules.Conflict
	if err := fraction("conflict.merge_probability", k.MergeProbability); err != nil {
		return err
	}
	if err := fraction("conflict.combat_damage", k.CombatDamage); err != nil {
		return err
	}
	if k.AdjacencyDistance < 0 || k.FightDistance < 0 || k.ExtinctionPopulation < 0 {
		return invalid("conflict distances and extinction population must be non-negative")
	}

	m := c.Rules.Meteors
	if err := fraction("meteors.chance", m.Chance); err != nil {
		return err
	}
	if err := fraction("meteors.impact_damage", m.ImpactDamage); err != nil {
		return err
	}
	switch {
	case m.RevertDelay < 1:
		return invalid("meteors.revert_delay must be at least 1 year")
	case m.MinRadius <= 0 || m.MinRadius > m.MaxRadius:
		return invalid("meteor radius range [%.1f, %.1f] is not ordered and positive", m.MinRadius, m.MaxRadius)
	}
	return nil
}

func fraction(name string, v float64) error {
	if v < 0 || v > 1 {
		return invalid("%s %.4f outside [0, 1]", name, v)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
