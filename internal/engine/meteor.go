// Meteor strikes paint transient circular craters that heal after a fixed delay.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/geometry"
	"github.com/talgya/civsim/internal/world"
)

// ImpactCell records a painted cell and the label it had before any crater.
type ImpactCell struct {
	Coord    world.Coord `json:"coord"`
	Original world.Biome `json:"original"`
}

// Meteor is a pending impact awaiting revert.
type Meteor struct {
	ID        uint64       `json:"id"`
	SpawnYear uint64       `json:"spawn_year"`
	Center    world.Coord  `json:"center"`
	Radius    float64      `json:"radius"`
	Cells     []ImpactCell `json:"-"`
}

// MeteorManager tracks every pending meteor. Overlapping craters share a
// per-cell coverage count so a cell is restored only when its last crater
// heals, and always to the label it had before the first one.
type MeteorManager struct {
	cfg       MeteorConfig
	pending   []*Meteor
	coverage  map[world.Coord]int
	originals map[world.Coord]world.Biome
	nextID    uint64
}

// NewMeteorManager creates a manager with no pending meteors.
func NewMeteorManager(cfg MeteorConfig) *MeteorManager {
	return &MeteorManager{
		cfg:       cfg,
		coverage:  make(map[world.Coord]int),
		originals: make(map[world.Coord]world.Biome),
		nextID:    1,
	}
}

// Pending returns the meteors that have not reverted yet, oldest first.
func (m *MeteorManager) Pending() []*Meteor {
	out := make([]*Meteor, len(m.pending))
	copy(out, m.pending)
	return out
}

// SpawnDue reports whether year is a spawn-check year.
func (m *MeteorManager) SpawnDue(year uint64) bool {
	return m.cfg.Period > 0 && year%m.cfg.Period == 0
}

// Strike paints a crater of the given radius onto grid and starts tracking it.
func (m *MeteorManager) Strike(grid *world.BiomeGrid, year uint64, center world.Coord, radius float64) *Meteor {
	meteor := &Meteor{
		ID:        m.nextID,
		SpawnYear: year,
		Center:    center,
		Radius:    radius,
	}
	m.nextID++

	r := int(math.Ceil(radius))
	r2 := radius * radius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) > r2 {
				continue
			}
			c := center.Add(dx, dy)
			if !grid.InBounds(c) {
				continue
			}
			if m.coverage[c] == 0 {
				m.originals[c] = grid.At(c)
			}
			m.coverage[c]++
			meteor.Cells = append(meteor.Cells, ImpactCell{Coord: c, Original: m.originals[c]})
			grid.Set(c, world.BiomeCrater)
		}
	}

	m.pending = append(m.pending, meteor)
	return meteor
}

// RevertDue restores every meteor that has been pending for at least the
// revert delay and returns them.
func (m *MeteorManager) RevertDue(grid *world.BiomeGrid, year uint64) []*Meteor {
	var reverted []*Meteor
	remaining := m.pending[:0]
	for _, meteor := range m.pending {
		if year < meteor.SpawnYear || year-meteor.SpawnYear < m.cfg.RevertDelay {
			remaining = append(remaining, meteor)
			continue
		}
		for _, cell := range meteor.Cells {
			m.coverage[cell.Coord]--
			if m.coverage[cell.Coord] > 0 {
				continue
			}
			grid.Set(cell.Coord, m.originals[cell.Coord])
			delete(m.coverage, cell.Coord)
			delete(m.originals, cell.Coord)
		}
		reverted = append(reverted, meteor)
	}
	for i := len(remaining); i < len(m.pending); i++ {
		m.pending[i] = nil
	}
	m.pending = remaining
	return reverted
}

// RemainingTicks returns the years left before meteor reverts.
func (m *MeteorManager) RemainingTicks(meteor *Meteor, year uint64) uint64 {
	due := meteor.SpawnYear + m.cfg.RevertDelay
	if year >= due {
		return 0
	}
	return due - year
}

// Hits reports whether the impact circle overlaps c's territory or border.
func (meteor *Meteor) Hits(c *civ.Civilization) bool {
	cx, cy := float64(meteor.Center.X), float64(meteor.Center.Y)
	r2 := meteor.Radius * meteor.Radius
	for _, p := range c.Territory {
		dx, dy := float64(p.X)-cx, float64(p.Y)-cy
		if dx*dx+dy*dy <= r2 {
			return true
		}
	}
	return geometry.IntersectsCircle(c.Border, cx, cy, meteor.Radius)
}

// processMeteors runs the spawn check, then the revert check, so a meteor is
// never reverted in the year it lands.
func (s *Simulation) processMeteors() {
	cfg := s.Rules.Meteors

	if s.Meteors.SpawnDue(s.Year) && s.rng.Float64() < cfg.Chance {
		center := world.Coord{X: s.rng.Intn(s.World.Width), Y: s.rng.Intn(s.World.Height)}
		radius := cfg.MinRadius + s.rng.Float64()*(cfg.MaxRadius-cfg.MinRadius)
		s.strike(center, radius)
	}

	for _, meteor := range s.Meteors.RevertDue(s.Biomes, s.Year) {
		s.Stats.MeteorsReverted++
		slog.Debug("crater healed", "year", s.Year, "meteor", meteor.ID, "cells", len(meteor.Cells))
		s.emit(Event{
			Year:        s.Year,
			Description: fmt.Sprintf("The crater at (%d, %d) has healed", meteor.Center.X, meteor.Center.Y),
			Category:    "revert",
			Meta:        map[string]any{"meteor_id": meteor.ID},
		})
	}
}

// strike lands a meteor and applies the one-time population penalty.
func (s *Simulation) strike(center world.Coord, radius float64) *Meteor {
	meteor := s.Meteors.Strike(s.Biomes, s.Year, center, radius)
	s.Stats.MeteorsSpawned++

	var struck []civ.ID
	for _, c := range s.Registry.Active() {
		if !meteor.Hits(c) {
			continue
		}
		c.Population *= 1 - s.Rules.Meteors.ImpactDamage
		struck = append(struck, c.ID)
	}

	slog.Debug("meteor impact", "year", s.Year, "x", center.X, "y", center.Y,
		"radius", fmt.Sprintf("%.1f", radius), "struck", len(struck))
	s.emit(Event{
		Year:        s.Year,
		Description: fmt.Sprintf("A meteor strikes (%d, %d), radius %.1f", center.X, center.Y, radius),
		Category:    "meteor",
		Meta: map[string]any{
			"meteor_id": meteor.ID,
			"cells":     len(meteor.Cells),
			"struck":    struck,
		},
	})
	return meteor
}
