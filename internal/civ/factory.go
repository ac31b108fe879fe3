// Civilization placement: finds separated land sites and seeds founding territory.
package civ

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/civsim/internal/world"
)

// ErrPlacementExhausted is returned when no valid site is found within the
// attempt budget.
var ErrPlacementExhausted = errors.New("placement exhausted")

// SpawnConfig controls initial civilization placement.
type SpawnConfig struct {
	Count             int     `yaml:"count"`
	MinSeparation     float64 `yaml:"min_separation"`     // 0 disables the spacing rule
	PlacementAttempts int     `yaml:"placement_attempts"` // Per civilization
	InitialPopulation float64 `yaml:"initial_population"`
	MinGrowthRate     float64 `yaml:"min_growth_rate"`
	MaxGrowthRate     float64 `yaml:"max_growth_rate"`
	InitialTerritory  int     `yaml:"initial_territory"` // Jittered points around the center
	TerritoryRadius   int     `yaml:"territory_radius"`
}

// DefaultSpawnConfig returns the baseline founding parameters.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		Count:             8,
		MinSeparation:     40,
		PlacementAttempts: 10000,
		InitialPopulation: 1000,
		MinGrowthRate:     0.01,
		MaxGrowthRate:     0.05,
		InitialTerritory:  10,
		TerritoryRadius:   5,
	}
}

// Factory creates civilizations from a seeded random source.
type Factory struct {
	rng  *rand.Rand
	cfg  SpawnConfig
	used map[string]bool
}

// NewFactory creates a factory drawing from rng.
func NewFactory(rng *rand.Rand, cfg SpawnConfig) *Factory {
	return &Factory{
		rng:  rng,
		cfg:  cfg,
		used: make(map[string]bool),
	}
}

// Spawn places count civilizations on land, each at least minSeparation from
// every active center in reg and from each other, and registers them.
// A non-positive minSeparation accepts the first land cell found.
func (f *Factory) Spawn(reg *Registry, m *world.Model, count int, minSeparation float64, year uint64) ([]*Civilization, error) {
	var centers []world.Coord
	for _, c := range reg.Active() {
		centers = append(centers, c.Center)
	}

	spawned := make([]*Civilization, 0, count)
	for i := 0; i < count; i++ {
		center, err := f.findSite(m, centers, minSeparation)
		if err != nil {
			return spawned, fmt.Errorf("spawn civilization %d of %d: %w", i+1, count, err)
		}
		centers = append(centers, center)

		c := f.found(reg.NextID(), center, m)
		c.FoundedYear = year
		if err := reg.Add(c); err != nil {
			return spawned, fmt.Errorf("spawn civilization %d of %d: %w", i+1, count, err)
		}
		spawned = append(spawned, c)
	}
	return spawned, nil
}

// findSite samples random cells until one is land and far enough from centers.
func (f *Factory) findSite(m *world.Model, centers []world.Coord, minSeparation float64) (world.Coord, error) {
	attempts := f.cfg.PlacementAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		c := world.Coord{X: f.rng.Intn(m.Width), Y: f.rng.Intn(m.Height)}
		if !m.IsLand(c) {
			continue
		}
		if minSeparation > 0 && tooClose(c, centers, minSeparation) {
			continue
		}
		return c, nil
	}
	return world.Coord{}, fmt.Errorf("%w: no land site at distance %.1f after %d attempts",
		ErrPlacementExhausted, minSeparation, attempts)
}

func tooClose(c world.Coord, centers []world.Coord, minDist float64) bool {
	for _, o := range centers {
		if math.Hypot(float64(c.X-o.X), float64(c.Y-o.Y)) < minDist {
			return true
		}
	}
	return false
}

// found builds a civilization at center with a jittered founding territory.
func (f *Factory) found(id ID, center world.Coord, m *world.Model) *Civilization {
	rate := f.cfg.MinGrowthRate + f.rng.Float64()*(f.cfg.MaxGrowthRate-f.cfg.MinGrowthRate)

	territory := []world.Coord{center}
	r := f.cfg.TerritoryRadius
	for i := 0; i < f.cfg.InitialTerritory; i++ {
		p := center
		if r > 0 {
			p = center.Add(f.rng.Intn(2*r+1)-r, f.rng.Intn(2*r+1)-r)
		}
		p = clamp(p, m.Width, m.Height)
		if m.IsLand(p) {
			territory = append(territory, p)
		}
	}

	return New(id, f.name(), center, f.cfg.InitialPopulation, rate, territory)
}

func clamp(c world.Coord, width, height int) world.Coord {
	c.X = max(0, min(width-1, c.X))
	c.Y = max(0, min(height-1, c.Y))
	return c
}
