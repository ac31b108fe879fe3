// Conflict resolution: border contact with merges, and proximity combat.
// Both passes scan a frozen copy of the active set and apply outcomes after
// the scan completes.
package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/geometry"
)

type mergeDecision struct {
	winner, loser *civ.Civilization
}

// checkBorders flags every pair of civilizations whose borders touch and
// rolls for merges between them.
func (s *Simulation) checkBorders() error {
	cfg := s.Rules.Conflict
	active := s.Registry.Active()
	for _, c := range active {
		c.InConflict = false
	}

	var merges []mergeDecision
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if !bordersTouch(a.Border, b.Border, cfg.AdjacencyDistance) {
				continue
			}
			a.InConflict = true
			b.InConflict = true
			s.Stats.BorderContacts++

			if s.rng.Float64() < cfg.MergeProbability {
				winner, loser := a, b
				if s.rng.Intn(2) == 1 {
					winner, loser = b, a
				}
				merges = append(merges, mergeDecision{winner: winner, loser: loser})
			}
		}
	}

	for _, m := range merges {
		// An earlier merge this year may already have retired either side.
		if !m.winner.Active() || !m.loser.Active() {
			continue
		}
		if err := s.Registry.Merge(m.winner.ID, m.loser.ID, s.Year); err != nil {
			return fmt.Errorf("apply merge: %w", err)
		}
		s.Stats.Merges++
		slog.Debug("civilizations merged", "year", s.Year, "winner", m.winner.Name, "loser", m.loser.Name)
		s.emit(Event{
			Year:        s.Year,
			Description: fmt.Sprintf("%s absorbs %s", m.winner.Name, m.loser.Name),
			Category:    "merge",
			Meta: map[string]any{
				"winner_id": m.winner.ID,
				"loser_id":  m.loser.ID,
				"territory": m.winner.TerritorySize(),
			},
		})
	}
	return nil
}

// bordersTouch reports whether any vertex of a is within dist (Chebyshev) of
// any vertex of b. Empty borders never touch.
func bordersTouch(a, b []geometry.Point, dist int) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	for _, p := range a {
		for _, q := range b {
			if geometry.Chebyshev(p, q) <= dist {
				return true
			}
		}
	}
	return false
}

// checkCombat damages both sides of every pair whose centers are closer than
// the fight distance.
func (s *Simulation) checkCombat() {
	cfg := s.Rules.Conflict
	active := s.Registry.Active()

	type fight struct{ a, b *civ.Civilization }
	var fights []fight
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			a, b := active[i], active[j]
			if geometry.Euclidean(a.CenterPoint(), b.CenterPoint()) < cfg.FightDistance {
				fights = append(fights, fight{a, b})
			}
		}
	}

	for _, f := range fights {
		f.a.Population *= 1 - cfg.CombatDamage
		f.b.Population *= 1 - cfg.CombatDamage
		s.Stats.Battles++
		s.emit(Event{
			Year:        s.Year,
			Description: fmt.Sprintf("%s and %s clash", f.a.Name, f.b.Name),
			Category:    "combat",
			Meta: map[string]any{
				"a_id": f.a.ID,
				"b_id": f.b.ID,
			},
		})
	}
}

// cullCollapsed eliminates civilizations whose population fell below the
// extinction floor.
func (s *Simulation) cullCollapsed() error {
	floor := s.Rules.Conflict.ExtinctionPopulation
	for _, c := range s.Registry.Active() {
		if math.IsNaN(c.Population) || c.Population < 0 {
			return fmt.Errorf("%w: %s population %f", ErrInvariantViolation, c.Name, c.Population)
		}
		if c.Population >= floor {
			continue
		}
		if err := s.Registry.Eliminate(c.ID, s.Year); err != nil {
			return fmt.Errorf("eliminate %s: %w", c.Name, err)
		}
		s.Stats.Eliminations++
		s.emit(Event{
			Year:        s.Year,
			Description: fmt.Sprintf("%s has collapsed", c.Name),
			Category:    "collapse",
			Meta:        map[string]any{"civ_id": c.ID},
		})
	}
	return nil
}
