// Package engine provides the yearly simulation loop: growth, meteors,
// border conflict, and combat over a generated planet.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Report schedule in simulated years.
const (
	YearsPerDecade  = 10
	YearsPerCentury = 100
)

// Engine drives a Simulation forward.
type Engine struct {
	Sim      *Simulation
	Interval time.Duration // Wall-clock pacing per year; 0 runs flat out

	// Callbacks, populated during setup.
	OnYear    func(year uint64, events []Event) // Every year
	OnDecade  func(year uint64)                 // Every 10 years
	OnCentury func(year uint64)                 // Every 100 years
}

// NewEngine creates an unpaced engine for sim.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{Sim: sim}
}

// Run advances the simulation by the given number of years. It stops early
// when ctx is cancelled (returning ctx.Err()) or when a step fails.
func (e *Engine) Run(ctx context.Context, years uint64) error {
	slog.Info("simulation engine started", "year", e.Sim.Year, "years", years, "interval", e.Interval)

	for i := uint64(0); i < years; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine stopped", "year", e.Sim.Year)
			return err
		}

		start := time.Now()
		if err := e.step(); err != nil {
			return err
		}

		if e.Interval > 0 {
			if wait := e.Interval - time.Since(start); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					slog.Info("simulation engine stopped", "year", e.Sim.Year)
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
	}

	slog.Info("simulation engine finished", "year", e.Sim.Year)
	return nil
}

// step advances the simulation by one year and fires the callbacks.
func (e *Engine) step() error {
	events, err := e.Sim.Step()
	if err != nil {
		return fmt.Errorf("year %d: %w", e.Sim.Year, err)
	}
	year := e.Sim.Year

	if e.OnYear != nil {
		e.OnYear(year, events)
	}
	if year%YearsPerDecade == 0 && e.OnDecade != nil {
		e.OnDecade(year)
	}
	if year%YearsPerCentury == 0 && e.OnCentury != nil {
		e.OnCentury(year)
	}
	return nil
}
