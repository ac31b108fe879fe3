// Command civsim generates a planet and runs the civilization simulation on it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/civsim/internal/chronicle"
	"github.com/talgya/civsim/internal/config"
	"github.com/talgya/civsim/internal/engine"
	"github.com/talgya/civsim/internal/world"
)

func main() {
	var (
		profile     = flag.String("profile", config.Baseline, fmt.Sprintf("rule profile %v", config.Profiles()))
		configPath  = flag.String("config", "", "YAML file overlaid on the profile")
		seed        = flag.Int64("seed", 0, "world and simulation seed (0 keeps the profile seed)")
		years       = flag.Uint64("years", 0, "years to simulate (0 keeps the profile value)")
		chronPath   = flag.String("chronicle", os.Getenv("CIVSIM_CHRONICLE"), "SQLite file recording run history (empty disables)")
		reportEvery = flag.Uint64("report-every", engine.YearsPerDecade, "years between reports")
		interval    = flag.Duration("interval", 0, "wall-clock time per simulated year")
		verbose     = flag.Bool("v", false, "log individual events")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := run(*profile, *configPath, *seed, *years, *chronPath, *reportEvery, *interval); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(profile, configPath string, seed int64, years uint64, chronPath string, reportEvery uint64, interval time.Duration) error {
	cfg, err := config.Load(configPath, profile)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg = cfg.WithSeed(seed)
	}
	if years != 0 {
		cfg.Years = years
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.Info("civsim starting", "profile", cfg.Profile, "seed", cfg.Seed, "years", cfg.Years,
		"size", fmt.Sprintf("%dx%d", cfg.Terrain.Width, cfg.Terrain.Height))

	// ── World ─────────────────────────────────────────────────────────
	sim, err := engine.Setup(cfg.Terrain, cfg.Spawn, cfg.Rules, cfg.Seed)
	if err != nil {
		return err
	}
	counts := sim.World.BiomeCounts()
	for b := world.BiomeWater; b < world.BiomeCrater; b++ {
		slog.Info("biome", "type", b.Name(), "cells", humanize.Comma(int64(counts[b])))
	}
	for _, c := range sim.Registry.Active() {
		slog.Info("civilization founded", "name", c.Name, "x", c.Center.X, "y", c.Center.Y,
			"growth_rate", fmt.Sprintf("%.4f", c.GrowthRate))
	}

	// ── Chronicle ─────────────────────────────────────────────────────
	var (
		db    *chronicle.DB
		runID chronicle.RunID
	)
	if chronPath != "" {
		if dir := filepath.Dir(chronPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create chronicle dir: %w", err)
			}
		}
		db, err = chronicle.Open(chronPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.BeginRun(cfg); err != nil {
			return err
		}
		slog.Info("chronicle opened", "path", chronPath, "run", runID)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Interval = interval
	eng.OnYear = func(year uint64, events []engine.Event) {
		if db != nil {
			if err := db.RecordEvents(runID, events); err != nil {
				slog.Error("record events failed", "year", year, "error", err)
			}
			if err := db.RecordYear(runID, sim.Snapshot()); err != nil {
				slog.Error("record year failed", "year", year, "error", err)
			}
		}
		if reportEvery > 0 && year%reportEvery == 0 {
			sim.LogReport()
		}
	}
	eng.OnCentury = func(year uint64) {
		logCraters(sim.Biomes, year)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n%d civilizations on %s land cells. Running %d years... (Ctrl+C to stop)\n",
		sim.Registry.Len(), humanize.Comma(int64(sim.World.LandCells())), cfg.Years)

	err = eng.Run(ctx, cfg.Years)
	if db != nil {
		if endErr := db.EndRun(runID, sim.Year); endErr != nil {
			slog.Error("end run failed", "error", endErr)
		}
	}
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "year", sim.Year)
		err = nil
	}
	if err != nil {
		return err
	}

	sim.LogReport()
	fmt.Printf("Simulation stopped at year %d: %d active, %d merged, %d eliminated.\n",
		sim.Year, sim.Stats.Active, sim.Stats.Merged, sim.Stats.Eliminated)
	return nil
}

func logCraters(g *world.BiomeGrid, year uint64) {
	slog.Info("surface", "year", year, "crater_cells", g.Counts()[world.BiomeCrater])
}
