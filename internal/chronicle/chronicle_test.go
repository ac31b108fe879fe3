package chronicle

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/civsim/internal/civ"
	"github.com/talgya/civsim/internal/config"
	"github.com/talgya/civsim/internal/engine"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "chronicle.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func smallConfig() config.Config {
	cfg, _ := config.Profile(config.Baseline)
	cfg = cfg.WithSeed(11)
	cfg.Terrain.Width = 64
	cfg.Terrain.Height = 32
	cfg.Terrain.Scale = 16
	cfg.Spawn.Count = 3
	cfg.Spawn.MinSeparation = 10
	cfg.Rules.Meteors.Chance = 1
	return cfg
}

func TestRecordRunRoundTrip(t *testing.T) {
	db := openTest(t)
	cfg := smallConfig()

	run, err := db.BeginRun(cfg)
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	sim, err := engine.Setup(cfg.Terrain, cfg.Spawn, cfg.Rules, cfg.Seed)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	var total int
	for i := 0; i < 12; i++ {
		events, err := sim.Step()
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		total += len(events)
		if err := db.RecordEvents(run, events); err != nil {
			t.Fatalf("record events: %v", err)
		}
		if err := db.RecordYear(run, sim.Snapshot()); err != nil {
			t.Fatalf("record year: %v", err)
		}
	}
	if err := db.EndRun(run, sim.Year); err != nil {
		t.Fatalf("end run: %v", err)
	}

	years, err := db.Years(run)
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	if len(years) != 12 || years[0].Year != 1 || years[11].Year != 12 {
		t.Fatalf("expected years 1..12, got %d records", len(years))
	}
	last := years[11]
	if last.Active != sim.Stats.Active || last.Population != sim.Stats.TotalPopulation {
		t.Fatalf("stored year %+v does not match stats %+v", last, sim.Stats)
	}

	civs, err := db.Civilizations(run, 12)
	if err != nil {
		t.Fatalf("civilizations: %v", err)
	}
	if len(civs) != sim.Registry.Len() {
		t.Fatalf("expected %d civilization rows, got %d", sim.Registry.Len(), len(civs))
	}
	for _, c := range civs {
		live := sim.Registry.Get(civ.ID(c.CivID))
		if live == nil || live.Name != c.Name || live.Population != c.Population {
			t.Fatalf("stored civilization %+v does not match the simulation", c)
		}
	}

	events, err := db.RecentEvents(run, 1000)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != total {
		t.Fatalf("expected %d events, got %d", total, len(events))
	}
	// Chance 1 and period 10 guarantee a strike in year 0 and year 10.
	var meteors int
	for _, e := range events {
		if e.Category == "meteor" {
			meteors++
			if !strings.Contains(e.Meta, "meteor_id") {
				t.Fatalf("meteor event lost its metadata: %q", e.Meta)
			}
		}
	}
	if meteors != 2 {
		t.Fatalf("expected 2 meteor events, got %d", meteors)
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run || !runs[0].Finished || runs[0].LastYear != 12 {
		t.Fatalf("unexpected run rows: %+v", runs)
	}
	if runs[0].Seed != 11 || !strings.Contains(runs[0].Config, "revert_delay") {
		t.Fatalf("run config not stored: %+v", runs[0])
	}
}

func TestRunsAreIsolated(t *testing.T) {
	db := openTest(t)
	a, err := db.BeginRun(smallConfig())
	if err != nil {
		t.Fatalf("begin a: %v", err)
	}
	b, err := db.BeginRun(smallConfig())
	if err != nil {
		t.Fatalf("begin b: %v", err)
	}
	if a == b {
		t.Fatal("run IDs must be unique")
	}

	if err := db.RecordYear(a, engine.Snapshot{Year: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	years, err := db.Years(b)
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	if len(years) != 0 {
		t.Fatalf("run b should have no years, got %d", len(years))
	}
}

func TestRecordYearUnknownRun(t *testing.T) {
	db := openTest(t)
	if err := db.RecordYear("missing", engine.Snapshot{Year: 1}); !errors.Is(err, ErrUnknownRun) {
		t.Fatalf("expected ErrUnknownRun, got %v", err)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	run, err := db.BeginRun(smallConfig())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := db.RecordYear(run, engine.Snapshot{Year: 5}); err != nil {
		t.Fatalf("record: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	years, err := db.Years(run)
	if err != nil || len(years) != 1 || years[0].Year != 5 {
		t.Fatalf("history lost across reopen: %v %+v", err, years)
	}
}
