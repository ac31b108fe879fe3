package engine

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/world"
)

// quietRules disables every stochastic rule so tests opt in explicitly.
func quietRules() Rules {
	r := DefaultRules()
	r.Conflict.MergeProbability = 0
	r.Meteors.Chance = 0
	r.Meteors.Period = 0
	return r
}

func flatLand(width, height int) *world.Model {
	heights := world.NewField(width, height)
	for i := range heights.Values {
		heights.Values[i] = 0.8
	}
	return world.NewModel(heights, world.SmallTestConfig())
}

// square returns the cells of an inclusive axis-aligned block.
func square(x0, y0, x1, y1 int) []world.Coord {
	var out []world.Coord
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, world.Coord{X: x, Y: y})
		}
	}
	return out
}

func newSim(t *testing.T, m *world.Model, rules Rules, civs ...*civ.Civilization) *Simulation {
	t.Helper()
	reg := civ.NewRegistry()
	for _, c := range civs {
		if err := reg.Add(c); err != nil {
			t.Fatalf("add %s: %v", c.Name, err)
		}
	}
	return NewSimulation(m, reg, rules, rand.New(rand.NewSource(1)))
}

func stepN(t *testing.T, sim *Simulation, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := sim.Step(); err != nil {
			t.Fatalf("step %d: %v", sim.Year, err)
		}
	}
}

func TestCompoundGrowthOnGeneratedTerrain(t *testing.T) {
	gen := world.SmallTestConfig()
	m, err := world.Generate(gen)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if m.Width != 64 || m.Height != 32 {
		t.Fatalf("expected a 64x32 grid, got %dx%d", m.Width, m.Height)
	}

	// The highest cell normalizes to 1.0 and is always land.
	var peak world.Coord
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Heights.At(x, y) > m.Heights.At(peak.X, peak.Y) {
				peak = world.Coord{X: x, Y: y}
			}
		}
	}
	if !m.IsLand(peak) {
		t.Fatalf("peak %v is not land", peak)
	}

	tests := []struct {
		name string
		cap  float64
	}{
		{"uncapped", 1e12},
		{"capped", 20_000},
	}
	for _, tt := range tests {
		rules := quietRules()
		rules.Growth.PopulationCap = tt.cap
		rules.Growth.SlowGrowthThreshold = 1e12

		const rate, initial = 0.05, 1000.0
		c := civ.New(1, "Peak", peak, initial, rate, []world.Coord{peak})
		sim := newSim(t, m, rules, c)
		stepN(t, sim, 100)

		want := initial
		for i := 0; i < 100; i++ {
			want *= 1 + rate
			if want > tt.cap {
				want = tt.cap
			}
		}
		if c.Population != want {
			t.Fatalf("%s: population after 100 years = %f, want %f", tt.name, c.Population, want)
		}
		if tt.name == "capped" && c.Population != tt.cap {
			t.Fatalf("capped run should end at the cap, got %f", c.Population)
		}
		if sim.Year != 100 {
			t.Fatalf("%s: expected year 100, got %d", tt.name, sim.Year)
		}
		for _, p := range c.Territory {
			if !m.IsLand(p) {
				t.Fatalf("%s: territory cell %v is not land", tt.name, p)
			}
		}
	}
}

func TestSlowGrowthAboveThreshold(t *testing.T) {
	rules := quietRules()
	rules.Growth.SlowGrowthThreshold = 1000
	rules.Growth.SlowGrowthRate = 0.001
	rules.Growth.CitizensPerCell = 0

	small := civ.New(1, "Small", world.Coord{X: 1, Y: 1}, 1000, 0.1, []world.Coord{{X: 1, Y: 1}})
	big := civ.New(2, "Big", world.Coord{X: 60, Y: 30}, 2000, 0.1, []world.Coord{{X: 60, Y: 30}})
	sim := newSim(t, flatLand(64, 32), rules, small, big)
	stepN(t, sim, 1)

	own, slow := small.GrowthRate, rules.Growth.SlowGrowthRate
	if want := 1000 * (1 + own); small.Population != want {
		t.Fatalf("at the threshold the own rate applies: got %f want %f", small.Population, want)
	}
	if want := 2000 * (1 + slow); big.Population != want {
		t.Fatalf("above the threshold the slow rate applies: got %f want %f", big.Population, want)
	}
}

func TestTerritoryStaysOnLand(t *testing.T) {
	heights := world.NewField(40, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if x >= 20 {
				heights.Set(x, y, 0.9)
			}
		}
	}
	m := world.NewModel(heights, world.SmallTestConfig())

	rules := quietRules()
	rules.Growth.CitizensPerCell = 10
	center := world.Coord{X: 21, Y: 10}
	c := civ.New(1, "Coast", center, 1000, 0.1, []world.Coord{center})
	sim := newSim(t, m, rules, c)
	stepN(t, sim, 20)

	if c.TerritorySize() < 50 {
		t.Fatalf("expected substantial expansion, got %d cells", c.TerritorySize())
	}
	for _, p := range c.Territory {
		if p.X < 20 || !m.InBounds(p) {
			t.Fatalf("territory spread to water or off the map: %v", p)
		}
	}
	if !c.HasBorder() {
		t.Fatal("border should be recomputed after expansion")
	}
}

func TestForcedMerge(t *testing.T) {
	rules := quietRules()
	rules.Conflict.MergeProbability = 1.0

	a := civ.New(1, "West", world.Coord{X: 11, Y: 11}, 1000, 0, square(10, 10, 12, 12))
	b := civ.New(2, "East", world.Coord{X: 14, Y: 11}, 1000, 0, square(13, 10, 15, 12))
	sim := newSim(t, flatLand(64, 32), rules, a, b)

	events, err := sim.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	if sim.Registry.Len() != 1 {
		t.Fatalf("expected one civilization left, got %d", sim.Registry.Len())
	}
	winner := sim.Registry.Active()[0]
	loser := a
	if winner == a {
		loser = b
	}
	if loser.State != civ.StateMerged || loser.AbsorbedBy != winner.ID {
		t.Fatalf("loser should be merged into %d, got state %s absorbed_by %d", winner.ID, loser.State, loser.AbsorbedBy)
	}
	for _, p := range loser.Territory {
		if !winner.Owns(p) {
			t.Fatalf("winner is missing absorbed cell %v", p)
		}
	}
	if !slices.ContainsFunc(events, func(e Event) bool { return e.Category == "merge" }) {
		t.Fatalf("expected a merge event, got %v", events)
	}
	if sim.Stats.Merged != 1 || sim.Stats.Active != 1 {
		t.Fatalf("unexpected stats: %+v", sim.Stats)
	}
}

func TestChainedMergesSkipRetired(t *testing.T) {
	rules := quietRules()
	rules.Conflict.MergeProbability = 1.0

	// Three blocks in a row: every adjacent pair touches.
	a := civ.New(1, "A", world.Coord{X: 11, Y: 11}, 1000, 0, square(10, 10, 12, 12))
	b := civ.New(2, "B", world.Coord{X: 14, Y: 11}, 1000, 0, square(13, 10, 15, 12))
	c := civ.New(3, "C", world.Coord{X: 17, Y: 11}, 1000, 0, square(16, 10, 18, 12))
	sim := newSim(t, flatLand(64, 32), rules, a, b, c)
	stepN(t, sim, 1)

	active := sim.Registry.Len()
	retired := len(sim.Registry.Retired())
	if active+retired != 3 {
		t.Fatalf("civilizations lost or duplicated: %d active, %d retired", active, retired)
	}
	if active < 1 || active > 2 {
		t.Fatalf("expected one or two survivors, got %d", active)
	}
	for _, r := range sim.Registry.Retired() {
		if sim.Registry.Get(r.AbsorbedBy) == nil {
			t.Fatalf("%s absorbed by unknown civilization %d", r.Name, r.AbsorbedBy)
		}
	}
}

func TestBorderConflictSymmetric(t *testing.T) {
	a := civ.New(1, "A", world.Coord{X: 11, Y: 11}, 1000, 0, square(10, 10, 12, 12))
	b := civ.New(2, "B", world.Coord{X: 14, Y: 11}, 1000, 0, square(13, 10, 15, 12))
	c := civ.New(3, "C", world.Coord{X: 50, Y: 20}, 1000, 0, square(49, 19, 51, 21))
	sim := newSim(t, flatLand(64, 32), quietRules(), a, b, c)
	stepN(t, sim, 1)

	if !a.InConflict || !b.InConflict {
		t.Fatalf("touching civilizations must both be flagged: a=%t b=%t", a.InConflict, b.InConflict)
	}
	if c.InConflict {
		t.Fatal("distant civilization must not be flagged")
	}
	if sim.Registry.Len() != 3 {
		t.Fatal("no merge may happen with zero merge probability")
	}
}

func TestConflictFlagClearsWhenApart(t *testing.T) {
	a := civ.New(1, "A", world.Coord{X: 11, Y: 11}, 1000, 0, square(10, 10, 12, 12))
	a.InConflict = true
	sim := newSim(t, flatLand(64, 32), quietRules(), a)
	stepN(t, sim, 1)
	if a.InConflict {
		t.Fatal("stale conflict flag should be reset each year")
	}
}

func TestEmptyBorderNeverTouches(t *testing.T) {
	// Two single-cell civilizations side by side have no hull.
	a := civ.New(1, "A", world.Coord{X: 10, Y: 10}, 1000, 0, []world.Coord{{X: 10, Y: 10}})
	b := civ.New(2, "B", world.Coord{X: 11, Y: 10}, 1000, 0, []world.Coord{{X: 11, Y: 10}})
	rules := quietRules()
	rules.Growth.CitizensPerCell = 0
	sim := newSim(t, flatLand(64, 32), rules, a, b)
	stepN(t, sim, 1)
	if a.InConflict || b.InConflict {
		t.Fatal("civilizations without borders cannot be in border conflict")
	}
}

func TestCombatThreshold(t *testing.T) {
	rules := quietRules()
	rules.Growth.CitizensPerCell = 0
	rules.Conflict.FightDistance = 20
	rules.Conflict.CombatDamage = 0.1

	tests := []struct {
		name  string
		dx    int
		fight bool
	}{
		{"inside", 19, true},
		{"exactly at threshold", 20, false},
		{"outside", 21, false},
	}
	for _, tt := range tests {
		ca := world.Coord{X: 5, Y: 5}
		cb := world.Coord{X: 5 + tt.dx, Y: 5}
		a := civ.New(1, "A", ca, 1000, 0, []world.Coord{ca})
		b := civ.New(2, "B", cb, 1000, 0, []world.Coord{cb})
		sim := newSim(t, flatLand(64, 32), rules, a, b)
		stepN(t, sim, 1)

		want := 1000.0
		if tt.fight {
			want *= 1 - rules.Conflict.CombatDamage
		}
		if a.Population != want || b.Population != want {
			t.Fatalf("%s: populations %f and %f, want both %f", tt.name, a.Population, b.Population, want)
		}
	}
}

func TestPopulationBoundsUnderStress(t *testing.T) {
	rules := DefaultRules()
	rules.Growth.PopulationCap = 50_000
	rules.Growth.CitizensPerCell = 100
	rules.Conflict.MergeProbability = 0.3
	rules.Conflict.FightDistance = 15
	rules.Meteors.Period = 3
	rules.Meteors.Chance = 0.8
	rules.Meteors.RevertDelay = 4

	spawn := civ.DefaultSpawnConfig()
	spawn.Count = 6
	spawn.MinSeparation = 8

	sim, err := Setup(world.SmallTestConfig(), spawn, rules, 5)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	for year := 0; year < 200; year++ {
		if _, err := sim.Step(); err != nil {
			t.Fatalf("year %d: %v", year, err)
		}
		for _, c := range sim.Registry.Active() {
			if c.Population < 0 || c.Population > rules.Growth.PopulationCap {
				t.Fatalf("year %d: %s population %f outside [0, %f]", year, c.Name, c.Population, rules.Growth.PopulationCap)
			}
		}
		if got := sim.Registry.Len() + len(sim.Registry.Retired()); got != spawn.Count {
			t.Fatalf("year %d: %d civilizations accounted for, want %d", year, got, spawn.Count)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	rules := DefaultRules()
	rules.Conflict.MergeProbability = 0.2
	rules.Meteors.Chance = 0.5

	spawn := civ.DefaultSpawnConfig()
	spawn.Count = 4
	spawn.MinSeparation = 10

	run := func() Snapshot {
		sim, err := Setup(world.SmallTestConfig(), spawn, rules, 77)
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		stepN(t, sim, 60)
		return sim.Snapshot()
	}
	a, b := run(), run()
	if len(a.Civilizations) != len(b.Civilizations) {
		t.Fatalf("active counts differ: %d vs %d", len(a.Civilizations), len(b.Civilizations))
	}
	for i := range a.Civilizations {
		ca, cb := a.Civilizations[i], b.Civilizations[i]
		if ca.ID != cb.ID || ca.Population != cb.Population || ca.Territory != cb.Territory {
			t.Fatalf("civilization %d differs between identical seeds: %+v vs %+v", i, ca, cb)
		}
	}
	if !slices.Equal(a.Biomes.Cells, b.Biomes.Cells) {
		t.Fatal("biome overlays differ between identical seeds")
	}
}

func TestSetupPlacementExhausted(t *testing.T) {
	spawn := civ.DefaultSpawnConfig()
	spawn.Count = 50
	spawn.MinSeparation = 40
	spawn.PlacementAttempts = 100

	_, err := Setup(world.SmallTestConfig(), spawn, DefaultRules(), 1)
	if !errors.Is(err, civ.ErrPlacementExhausted) {
		t.Fatalf("expected placement exhaustion to abort setup, got %v", err)
	}
}

func TestInvariantViolations(t *testing.T) {
	t.Run("negative population", func(t *testing.T) {
		c := civ.New(1, "A", world.Coord{X: 5, Y: 5}, -1, 0, []world.Coord{{X: 5, Y: 5}})
		sim := newSim(t, flatLand(16, 16), quietRules(), c)
		if _, err := sim.Step(); !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("expected ErrInvariantViolation, got %v", err)
		}
	})
	t.Run("territory off the map", func(t *testing.T) {
		rules := quietRules()
		rules.Growth.CitizensPerCell = 0
		c := civ.New(1, "A", world.Coord{X: 0, Y: 0}, 100, 0, []world.Coord{{X: 0, Y: 0}, {X: -1, Y: 0}})
		sim := newSim(t, flatLand(16, 16), rules, c)
		if _, err := sim.Step(); !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("expected ErrInvariantViolation, got %v", err)
		}
	})
}

func TestCollapsedCivilizationEliminatedSameYear(t *testing.T) {
	rules := quietRules()
	rules.Conflict.ExtinctionPopulation = 10
	rules.Conflict.FightDistance = 5
	rules.Conflict.CombatDamage = 0.5
	rules.Growth.CitizensPerCell = 0

	weak := civ.New(1, "Weak", world.Coord{X: 5, Y: 5}, 15, 0, []world.Coord{{X: 5, Y: 5}})
	strong := civ.New(2, "Strong", world.Coord{X: 6, Y: 5}, 1000, 0, []world.Coord{{X: 6, Y: 5}})
	sim := newSim(t, flatLand(16, 16), rules, weak, strong)
	stepN(t, sim, 1)

	if weak.State != civ.StateEliminated || weak.EndedYear != 0 {
		t.Fatalf("expected weak to be eliminated in year 0, got %s at %d", weak.State, weak.EndedYear)
	}
	for _, c := range sim.Registry.Active() {
		if c == weak {
			t.Fatal("eliminated civilization still in the active set")
		}
	}
	if math.Abs(strong.Population-500) > 1e-9 {
		t.Fatalf("strong should still take combat damage, got %f", strong.Population)
	}
}

func TestOrbitalTemperatureAdvances(t *testing.T) {
	gen := world.SmallTestConfig()
	gen.Climate.Orbital = true
	spawn := civ.DefaultSpawnConfig()
	spawn.Count = 1

	sim, err := Setup(gen, spawn, quietRules(), 3)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	before := slices.Clone(sim.Temperature.Values)
	stepN(t, sim, 3)
	if slices.Equal(before, sim.Temperature.Values) {
		t.Fatal("orbital climate should change the temperature field")
	}
	if !slices.Equal(before, sim.World.Temperature.Values) {
		t.Fatal("the generated temperature field must stay untouched")
	}
}
