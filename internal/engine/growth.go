// Compound population growth and land-constrained territorial spread.
package engine

import (
	"math"

	"github.com/talgya/civsim/internal/civ"
)

// processGrowth advances every active civilization by one year.
func (s *Simulation) processGrowth() {
	for _, c := range s.Registry.Active() {
		s.advance(c)
	}
}

// advance grows population, then claims land until the territory matches
// the population.
func (s *Simulation) advance(c *civ.Civilization) {
	g := s.Rules.Growth

	rate := c.GrowthRate
	if c.Population > g.SlowGrowthThreshold {
		rate = g.SlowGrowthRate
	}
	c.Population *= 1 + rate
	if c.Population > g.PopulationCap {
		c.Population = g.PopulationCap
	}

	if g.CitizensPerCell <= 0 || c.TerritorySize() == 0 {
		return
	}
	target := int(math.Ceil(c.Population / g.CitizensPerCell))

	grew := false
	for attempt := 0; c.TerritorySize() < target && attempt < g.ExpansionAttempts; attempt++ {
		from := c.Territory[s.rng.Intn(c.TerritorySize())]
		p := from.Add(s.rng.Intn(3)-1, s.rng.Intn(3)-1)
		if !s.World.IsLand(p) {
			continue
		}
		if c.Claim(p) {
			grew = true
		}
	}
	if grew {
		c.RecomputeBorder()
	}
}
