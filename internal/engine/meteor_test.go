package engine

import (
	"slices"
	"testing"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/world"
)

func grassGrid(width, height int) *world.BiomeGrid {
	g := world.NewBiomeGrid(width, height)
	for i := range g.Cells {
		g.Cells[i] = world.BiomeGrassland
	}
	return g
}

func TestMeteorRevertTiming(t *testing.T) {
	rules := quietRules()
	rules.Meteors.Period = 100
	rules.Meteors.Chance = 1
	rules.Meteors.RevertDelay = 5
	sim := newSim(t, flatLand(64, 32), rules)

	stepN(t, sim, 1)
	if len(sim.Meteors.Pending()) != 1 {
		t.Fatalf("expected a meteor in year 0, got %d pending", len(sim.Meteors.Pending()))
	}
	if slices.Equal(sim.Biomes.Cells, sim.World.Biomes.Cells) {
		t.Fatal("the crater should be painted onto the runtime grid")
	}
	snap := sim.Snapshot()
	if len(snap.Meteors) != 1 || snap.Meteors[0].RemainingTicks != 4 {
		t.Fatalf("expected 4 years remaining after the first step, got %+v", snap.Meteors)
	}

	stepN(t, sim, 4)
	if len(sim.Meteors.Pending()) != 1 {
		t.Fatal("the crater must persist until the revert delay has passed")
	}

	stepN(t, sim, 1)
	if len(sim.Meteors.Pending()) != 0 {
		t.Fatal("the crater should revert five years after it landed")
	}
	if !slices.Equal(sim.Biomes.Cells, sim.World.Biomes.Cells) {
		t.Fatal("reverted cells must match the generated biomes")
	}
	if sim.Stats.MeteorsSpawned != 1 || sim.Stats.MeteorsReverted != 1 {
		t.Fatalf("unexpected meteor stats: %+v", sim.Stats)
	}
	if !slices.Equal(sim.World.Biomes.Cells, flatLand(64, 32).Biomes.Cells) {
		t.Fatal("the generated biome grid must never be painted")
	}
}

func TestOverlappingCratersRestoreOriginals(t *testing.T) {
	grid := grassGrid(20, 20)
	mgr := NewMeteorManager(MeteorConfig{RevertDelay: 5})

	first := mgr.Strike(grid, 0, world.Coord{X: 5, Y: 5}, 3)
	second := mgr.Strike(grid, 2, world.Coord{X: 7, Y: 5}, 3)

	shared := world.Coord{X: 6, Y: 5}
	onlyFirst := world.Coord{X: 2, Y: 5}
	onlySecond := world.Coord{X: 10, Y: 5}

	for _, cell := range second.Cells {
		if cell.Original != world.BiomeGrassland {
			t.Fatalf("cell %v remembers %s instead of its pre-impact label", cell.Coord, cell.Original)
		}
	}

	if got := mgr.RevertDue(grid, 4); len(got) != 0 {
		t.Fatalf("nothing is due in year 4, got %d", len(got))
	}

	reverted := mgr.RevertDue(grid, 5)
	if len(reverted) != 1 || reverted[0] != first {
		t.Fatalf("only the first crater is due in year 5, got %v", reverted)
	}
	if grid.At(onlyFirst) != world.BiomeGrassland {
		t.Fatalf("cell only under the first crater should heal, got %s", grid.At(onlyFirst))
	}
	if grid.At(shared) != world.BiomeCrater {
		t.Fatal("cell still under the second crater must stay a crater")
	}

	mgr.RevertDue(grid, 7)
	for _, c := range []world.Coord{shared, onlySecond} {
		if grid.At(c) != world.BiomeGrassland {
			t.Fatalf("cell %v should be restored to grassland, got %s", c, grid.At(c))
		}
	}
	if len(mgr.Pending()) != 0 {
		t.Fatalf("expected no pending meteors, got %d", len(mgr.Pending()))
	}
}

func TestCraterClipsAtEdges(t *testing.T) {
	grid := grassGrid(10, 10)
	mgr := NewMeteorManager(MeteorConfig{RevertDelay: 1})
	meteor := mgr.Strike(grid, 0, world.Coord{X: 0, Y: 0}, 2)
	for _, cell := range meteor.Cells {
		if !grid.InBounds(cell.Coord) {
			t.Fatalf("painted out-of-bounds cell %v", cell.Coord)
		}
	}
	if grid.At(world.Coord{X: 0, Y: 0}) != world.BiomeCrater {
		t.Fatal("impact center should be a crater")
	}
}

func TestImpactDamageAppliedOnce(t *testing.T) {
	rules := quietRules()
	rules.Growth.CitizensPerCell = 0
	rules.Meteors.RevertDelay = 2
	rules.Meteors.ImpactDamage = 0.5

	center := world.Coord{X: 20, Y: 10}
	hit := civ.New(1, "Hit", center, 1000, 0, square(19, 9, 21, 11))
	far := civ.New(2, "Far", world.Coord{X: 55, Y: 25}, 1000, 0, square(54, 24, 56, 26))
	sim := newSim(t, flatLand(64, 32), rules, hit, far)

	sim.strike(center, 3)
	if hit.Population != 500 {
		t.Fatalf("struck civilization should lose half, got %f", hit.Population)
	}
	if far.Population != 1000 {
		t.Fatalf("distant civilization should be untouched, got %f", far.Population)
	}

	stepN(t, sim, 4)
	if hit.Population != 500 {
		t.Fatalf("damage must not repeat while the crater persists, got %f", hit.Population)
	}
	if len(sim.Meteors.Pending()) != 0 {
		t.Fatal("the crater should have healed")
	}
}

func TestMeteorHitsBorderInterior(t *testing.T) {
	// Hull corners only: the impact lands inside the border without
	// covering any owned cell.
	corners := []world.Coord{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 20}, {X: 0, Y: 20}}
	c := civ.New(1, "Ring", world.Coord{X: 0, Y: 0}, 1000, 0, corners)
	meteor := &Meteor{Center: world.Coord{X: 10, Y: 10}, Radius: 2}
	if !meteor.Hits(c) {
		t.Fatal("an impact inside the border should hit")
	}
	miss := &Meteor{Center: world.Coord{X: 40, Y: 40}, Radius: 2}
	if miss.Hits(c) {
		t.Fatal("a distant impact should miss")
	}
}
