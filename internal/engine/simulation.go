// Simulation ties together the world, civilizations, and events and runs
// them each year.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/world"
)

// ErrInvariantViolation signals a corrupted simulation state. It indicates a
// bug and stops the run.
var ErrInvariantViolation = errors.New("invariant violation")

// maxEvents bounds the recent-event buffer.
const maxEvents = 1000

// Simulation holds the complete world state.
type Simulation struct {
	World       *world.Model     // Immutable after generation
	Biomes      *world.BiomeGrid // Runtime copy, painted by meteors
	Temperature *world.Field     // Current field; changes yearly in orbital climates
	Registry    *civ.Registry
	Meteors     *MeteorManager
	Rules       Rules

	Year   uint64  // Years completed
	Events []Event // Recent events, oldest first
	Stats  SimStats

	rng  *rand.Rand
	tick []Event // Events emitted during the current step
}

// Event is a notable occurrence in the world.
type Event struct {
	Year        uint64         `json:"year"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "merge", "combat", "meteor", "revert", "collapse"
	Meta        map[string]any `json:"meta,omitempty"`
}

// SimStats tracks aggregate statistics. Per-year counters reset every step.
type SimStats struct {
	Active          int     `json:"active"`
	Merged          int     `json:"merged"`
	Eliminated      int     `json:"eliminated"`
	TotalPopulation float64 `json:"total_population"`
	TerritoryCells  int     `json:"territory_cells"`
	InConflict      int     `json:"in_conflict"`
	PendingMeteors  int     `json:"pending_meteors"`

	BorderContacts int `json:"border_contacts"` // This year
	Battles        int `json:"battles"`         // This year

	Merges          int `json:"merges"` // Cumulative
	Eliminations    int `json:"eliminations"`
	MeteorsSpawned  int `json:"meteors_spawned"`
	MeteorsReverted int `json:"meteors_reverted"`
}

// NewSimulation creates a Simulation over a generated world and a populated
// registry. All randomness is drawn from rng.
func NewSimulation(m *world.Model, reg *civ.Registry, rules Rules, rng *rand.Rand) *Simulation {
	sim := &Simulation{
		World:       m,
		Biomes:      m.Biomes.Clone(),
		Temperature: m.Temperature,
		Registry:    reg,
		Meteors:     NewMeteorManager(rules.Meteors),
		Rules:       rules,
		rng:         rng,
	}
	sim.updateStats()
	return sim
}

// Setup generates the world and places the founding civilizations.
// Placement exhaustion aborts construction.
func Setup(terrain world.GenConfig, spawn civ.SpawnConfig, rules Rules, seed int64) (*Simulation, error) {
	m, err := world.Generate(terrain)
	if err != nil {
		return nil, fmt.Errorf("generate world: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	reg := civ.NewRegistry()
	factory := civ.NewFactory(rng, spawn)
	if _, err := factory.Spawn(reg, m, spawn.Count, spawn.MinSeparation, 0); err != nil {
		return nil, fmt.Errorf("place civilizations: %w", err)
	}

	slog.Info("world ready",
		"size", fmt.Sprintf("%dx%d", m.Width, m.Height),
		"land_cells", humanize.Comma(int64(m.LandCells())),
		"civilizations", reg.Len(),
	)
	return NewSimulation(m, reg, rules, rng), nil
}

// Step advances the simulation by one year: growth, meteors, borders,
// combat. Growth runs first so adjacency is judged on this year's territory.
// It returns the events of the year.
func (s *Simulation) Step() ([]Event, error) {
	s.tick = s.tick[:0]
	s.Stats.BorderContacts = 0
	s.Stats.Battles = 0

	s.processGrowth()
	s.processMeteors()
	if err := s.cullCollapsed(); err != nil {
		return nil, err
	}
	if err := s.checkBorders(); err != nil {
		return nil, err
	}
	s.checkCombat()
	if err := s.cullCollapsed(); err != nil {
		return nil, err
	}
	if err := s.checkInvariants(); err != nil {
		return nil, err
	}

	s.Year++
	if s.World.Climate.Orbital {
		s.Temperature = world.TemperatureField(s.World.Heights, s.World.Climate, s.World.Climate.OrbitalAngle(s.Year))
	}
	s.updateStats()

	events := make([]Event, len(s.tick))
	copy(events, s.tick)
	return events, nil
}

// CurrentYear returns the number of completed years.
func (s *Simulation) CurrentYear() uint64 {
	return s.Year
}

func (s *Simulation) emit(e Event) {
	s.tick = append(s.tick, e)
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// checkInvariants fails fast on states that only a bug can produce.
func (s *Simulation) checkInvariants() error {
	for _, c := range s.Registry.Active() {
		if math.IsNaN(c.Population) || c.Population < 0 {
			return fmt.Errorf("%w: %s population %f", ErrInvariantViolation, c.Name, c.Population)
		}
		if c.Population > s.Rules.Growth.PopulationCap {
			return fmt.Errorf("%w: %s population %f above cap %f",
				ErrInvariantViolation, c.Name, c.Population, s.Rules.Growth.PopulationCap)
		}
		for _, p := range c.Territory {
			if !s.World.IsLand(p) {
				return fmt.Errorf("%w: %s owns (%d, %d) which is off the map or under water",
					ErrInvariantViolation, c.Name, p.X, p.Y)
			}
		}
	}
	return nil
}

func (s *Simulation) updateStats() {
	active := s.Registry.Active()
	s.Stats.Active = len(active)
	s.Stats.TotalPopulation = 0
	s.Stats.TerritoryCells = 0
	s.Stats.InConflict = 0
	for _, c := range active {
		s.Stats.TotalPopulation += c.Population
		s.Stats.TerritoryCells += c.TerritorySize()
		if c.InConflict {
			s.Stats.InConflict++
		}
	}

	s.Stats.Merged = 0
	s.Stats.Eliminated = 0
	for _, c := range s.Registry.Retired() {
		switch c.State {
		case civ.StateMerged:
			s.Stats.Merged++
		case civ.StateEliminated:
			s.Stats.Eliminated++
		}
	}
	s.Stats.PendingMeteors = len(s.Meteors.Pending())
}

// LogReport writes a summary of the current state.
func (s *Simulation) LogReport() {
	slog.Info("yearly report",
		"year", s.Year,
		"active", s.Stats.Active,
		"population", humanize.Comma(int64(s.Stats.TotalPopulation)),
		"territory", humanize.Comma(int64(s.Stats.TerritoryCells)),
		"in_conflict", s.Stats.InConflict,
		"merged", s.Stats.Merged,
		"eliminated", s.Stats.Eliminated,
		"pending_meteors", s.Stats.PendingMeteors,
	)
	for _, c := range s.Registry.Active() {
		slog.Info("civilization",
			"name", c.Name,
			"population", humanize.SIWithDigits(c.Population, 2, ""),
			"territory", c.TerritorySize(),
			"growth_rate", fmt.Sprintf("%.4f", c.GrowthRate),
			"in_conflict", c.InConflict,
		)
	}
}
