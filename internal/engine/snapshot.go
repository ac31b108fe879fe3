package engine

import (
	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/geometry"
	"github.com/talgya/civsim/internal/world"
)

// Snapshot is a read-only view of the simulation after a step, for renderers
// and history sinks. Heights is shared with the simulation and must not be
// modified; everything else is copied.
type Snapshot struct {
	Year          uint64           `json:"year"`
	Width         int              `json:"width"`
	Height        int              `json:"height"`
	Heights       *world.Field     `json:"-"`
	Temperature   *world.Field     `json:"-"`
	Biomes        *world.BiomeGrid `json:"-"`
	Civilizations []CivView        `json:"civilizations"`
	Meteors       []MeteorView     `json:"meteors"`
	Stats         SimStats         `json:"stats"`
}

// CivView is the renderer-facing state of one active civilization.
type CivView struct {
	ID         civ.ID           `json:"id"`
	Name       string           `json:"name"`
	Center     world.Coord      `json:"center"`
	Population float64          `json:"population"`
	Territory  int              `json:"territory"`
	Border     []geometry.Point `json:"border"` // Empty when no hull exists
	InConflict bool             `json:"in_conflict"`
}

// MeteorView is the renderer-facing state of one pending meteor.
type MeteorView struct {
	ID             uint64      `json:"id"`
	Center         world.Coord `json:"center"`
	Radius         float64     `json:"radius"`
	SpawnYear      uint64      `json:"spawn_year"`
	RemainingTicks uint64      `json:"remaining_ticks"`
}

// Snapshot captures the current state.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Year:        s.Year,
		Width:       s.World.Width,
		Height:      s.World.Height,
		Heights:     s.World.Heights,
		Temperature: s.Temperature.Clone(),
		Biomes:      s.Biomes.Clone(),
		Stats:       s.Stats,
	}

	for _, c := range s.Registry.Active() {
		border := make([]geometry.Point, len(c.Border))
		copy(border, c.Border)
		snap.Civilizations = append(snap.Civilizations, CivView{
			ID:         c.ID,
			Name:       c.Name,
			Center:     c.Center,
			Population: c.Population,
			Territory:  c.TerritorySize(),
			Border:     border,
			InConflict: c.InConflict,
		})
	}

	for _, m := range s.Meteors.Pending() {
		snap.Meteors = append(snap.Meteors, MeteorView{
			ID:             m.ID,
			Center:         m.Center,
			Radius:         m.Radius,
			SpawnYear:      m.SpawnYear,
			RemainingTicks: s.Meteors.RemainingTicks(m, s.Year),
		})
	}
	return snap
}
