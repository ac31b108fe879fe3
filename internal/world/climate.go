package world

import "math"

// ClimateConfig controls the temperature model.
type ClimateConfig struct {
	// Enabled uses latitude and elevation. When false, temperature is 1-height.
	Enabled bool `yaml:"enabled"`
	// ElevationCooling is subtracted per unit of height.
	ElevationCooling float64 `yaml:"elevation_cooling"`
	// Orbital adds a seasonal term driven by an orbital angle.
	Orbital bool `yaml:"orbital"`
	// SeasonalAmplitude scales the seasonal term.
	SeasonalAmplitude float64 `yaml:"seasonal_amplitude"`
	// OrbitalStep is the angle in radians the planet advances per year.
	OrbitalStep float64 `yaml:"orbital_step"`
}

// DefaultClimateConfig returns latitude-based climate with no seasons.
func DefaultClimateConfig() ClimateConfig {
	return ClimateConfig{
		Enabled:           true,
		ElevationCooling:  0.3,
		Orbital:           false,
		SeasonalAmplitude: 0.25,
		OrbitalStep:       2 * math.Pi / 12,
	}
}

// OrbitalAngle returns the orbital angle reached in the given year.
func (c ClimateConfig) OrbitalAngle(year uint64) float64 {
	if !c.Orbital {
		return 0
	}
	return math.Mod(float64(year)*c.OrbitalStep, 2*math.Pi)
}

// TemperatureField computes a normalized temperature grid. Hotter at the
// equator, colder with height, and in orbital climates shifted between
// hemispheres by sin(angle).
func TemperatureField(heights *Field, cfg ClimateConfig, angle float64) *Field {
	temp := NewField(heights.Width, heights.Height)
	if !cfg.Enabled {
		for i, h := range heights.Values {
			temp.Values[i] = 1 - h
		}
		return temp
	}

	rows := float64(heights.Height)
	season := 0.0
	if cfg.Orbital {
		season = cfg.SeasonalAmplitude * math.Sin(angle)
	}

	for y := 0; y < heights.Height; y++ {
		lat := float64(y) / rows
		latitude := 1 - math.Abs(lat-0.5)*2
		// Northern rows warm when sin(angle) > 0, southern rows cool.
		seasonal := season * (1 - 2*lat)
		for x := 0; x < heights.Width; x++ {
			temp.Set(x, y, latitude+seasonal-heights.At(x, y)*cfg.ElevationCooling)
		}
	}

	temp.Normalize()
	return temp
}
