// Package civ provides civilization agents, their registry, and the factory
// that places them on the planet.
package civ

import (
	"github.com/talgya/civsim/internal/geometry"
	"github.com/talgya/civsim/internal/world"
)

// ID is a unique, never reused civilization identifier.
type ID uint64

// State is the lifecycle state of a civilization.
type State uint8

const (
	StateActive     State = iota // Growing and fighting
	StateMerged                  // Absorbed by another civilization
	StateEliminated              // Population collapsed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateMerged:
		return "merged"
	case StateEliminated:
		return "eliminated"
	default:
		return "unknown"
	}
}

// Civilization is a territorial agent. Only the Registry holds references
// across ticks.
type Civilization struct {
	ID         ID          `json:"id"`
	Name       string      `json:"name"`
	Center     world.Coord `json:"center"` // Fixed at founding
	Population float64     `json:"population"`
	GrowthRate float64     `json:"growth_rate"` // Sampled once at founding

	Territory []world.Coord    `json:"territory"`
	Border    []geometry.Point `json:"border"` // CCW hull, nil below 3 distinct points

	InConflict bool  `json:"in_conflict"` // Touching another border this tick
	State      State `json:"state"`

	FoundedYear uint64 `json:"founded_year"`
	EndedYear   uint64 `json:"ended_year,omitempty"`
	AbsorbedBy  ID     `json:"absorbed_by,omitempty"`

	owned map[world.Coord]struct{}
}

// New creates an active civilization owning the given territory. Duplicate
// coordinates are dropped and the border is computed.
func New(id ID, name string, center world.Coord, population, growthRate float64, territory []world.Coord) *Civilization {
	c := &Civilization{
		ID:         id,
		Name:       name,
		Center:     center,
		Population: population,
		GrowthRate: growthRate,
		State:      StateActive,
		owned:      make(map[world.Coord]struct{}, len(territory)),
	}
	for _, p := range territory {
		c.addCell(p)
	}
	c.RecomputeBorder()
	return c
}

// Active reports whether the civilization is still in play.
func (c *Civilization) Active() bool {
	return c.State == StateActive
}

// Owns reports whether the cell belongs to the territory.
func (c *Civilization) Owns(p world.Coord) bool {
	_, ok := c.owned[p]
	return ok
}

// TerritorySize returns the number of owned cells.
func (c *Civilization) TerritorySize() int {
	return len(c.Territory)
}

// Claim adds a cell to the territory without touching the border.
// Returns false if the cell was already owned.
func (c *Civilization) Claim(p world.Coord) bool {
	return c.addCell(p)
}

func (c *Civilization) addCell(p world.Coord) bool {
	if c.owned == nil {
		c.owned = make(map[world.Coord]struct{})
	}
	if _, ok := c.owned[p]; ok {
		return false
	}
	c.owned[p] = struct{}{}
	c.Territory = append(c.Territory, p)
	return true
}

// RecomputeBorder rebuilds the convex hull of the territory.
func (c *Civilization) RecomputeBorder() {
	pts := make([]geometry.Point, len(c.Territory))
	for i, p := range c.Territory {
		pts[i] = geometry.Point{X: p.X, Y: p.Y}
	}
	c.Border = geometry.ConvexHull(pts)
}

// HasBorder reports whether a drawable hull exists.
func (c *Civilization) HasBorder() bool {
	return len(c.Border) >= 3
}

// Absorb folds other's territory into c and recomputes the border.
// Returns the number of newly claimed cells.
func (c *Civilization) Absorb(other *Civilization) int {
	added := 0
	for _, p := range other.Territory {
		if c.addCell(p) {
			added++
		}
	}
	if added > 0 {
		c.RecomputeBorder()
	}
	return added
}

// CenterPoint returns the center as a geometry point.
func (c *Civilization) CenterPoint() geometry.Point {
	return geometry.Point{X: c.Center.X, Y: c.Center.Y}
}
