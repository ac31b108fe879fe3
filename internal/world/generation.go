// World generation using layered simplex noise.
// Generates a normalized heightmap and temperature field, then derives biomes.
package world

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is returned when generation parameters cannot describe a grid.
var ErrInvalidGrid = errors.New("invalid grid parameters")

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Seed        int64   `yaml:"seed"`
	Octaves     int     `yaml:"octaves"`     // Number of noise layers
	Persistence float64 `yaml:"persistence"` // Amplitude falloff per octave
	Lacunarity  float64 `yaml:"lacunarity"`  // Frequency growth per octave
	Scale       float64 `yaml:"scale"`       // Larger is smoother terrain
	Tileable    bool    `yaml:"tileable"`    // Wrap noise at the grid edges

	Thresholds Thresholds    `yaml:"thresholds"`
	LandLevel  float64       `yaml:"land_level"` // Heights at or above are land
	Climate    ClimateConfig `yaml:"climate"`
}

// DefaultGenConfig returns the baseline planet: 512×256 cells.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       512,
		Height:      256,
		Seed:        42,
		Octaves:     6,
		Persistence: 0.5,
		Lacunarity:  2.0,
		Scale:       100.0,
		Tileable:    true,
		Thresholds:  DefaultThresholds(),
		LandLevel:   0.30,
		Climate:     DefaultClimateConfig(),
	}
}

// SmallTestConfig returns a tiny world for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.Width = 64
	cfg.Height = 32
	cfg.Scale = 16.0
	cfg.Octaves = 4
	return cfg
}

// Validate checks that the configuration can produce a world.
func (cfg GenConfig) Validate() error {
	if cfg.Width < 1 || cfg.Height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidGrid, cfg.Width, cfg.Height)
	}
	if cfg.Scale <= 0 {
		return fmt.Errorf("%w: scale %.3f must be positive", ErrInvalidGrid, cfg.Scale)
	}
	if cfg.Octaves < 1 {
		return fmt.Errorf("%w: octaves %d must be at least 1", ErrInvalidGrid, cfg.Octaves)
	}
	return nil
}

// Model is the generated planet. Heights and the base biome grid never change
// after generation; the simulation works on a clone of Biomes.
type Model struct {
	Width       int
	Height      int
	Heights     *Field
	Temperature *Field
	Biomes      *BiomeGrid
	LandLevel   float64
	Thresholds  Thresholds
	Climate     ClimateConfig
}

// Generate creates a complete world model from noise.
func Generate(cfg GenConfig) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewModel(GenerateHeightmap(cfg), cfg), nil
}

// GenerateHeightmap samples the noise field for every cell and normalizes the
// result to [0, 1].
func GenerateHeightmap(cfg GenConfig) *Field {
	noise := NewNoiseField(cfg.Seed, cfg.Octaves, cfg.Persistence, cfg.Lacunarity)
	heights := NewField(cfg.Width, cfg.Height)

	periodX := float64(cfg.Width) / cfg.Scale
	periodY := float64(cfg.Height) / cfg.Scale

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			nx := float64(x) / cfg.Scale
			ny := float64(y) / cfg.Scale
			if cfg.Tileable {
				heights.Set(x, y, noise.SampleTiled(nx, ny, periodX, periodY))
			} else {
				heights.Set(x, y, noise.Sample(nx, ny))
			}
		}
	}

	heights.Normalize()
	return heights
}

// NewModel derives temperature and biomes from an existing heightmap.
// The heightmap is used as given; callers pass normalized values.
func NewModel(heights *Field, cfg GenConfig) *Model {
	temp := TemperatureField(heights, cfg.Climate, 0)
	return &Model{
		Width:       heights.Width,
		Height:      heights.Height,
		Heights:     heights,
		Temperature: temp,
		Biomes:      ClassifyAll(heights, temp, cfg.Thresholds),
		LandLevel:   cfg.LandLevel,
		Thresholds:  cfg.Thresholds,
		Climate:     cfg.Climate,
	}
}

// ClassifyAll assigns a biome to every cell.
func ClassifyAll(heights, temp *Field, th Thresholds) *BiomeGrid {
	grid := NewBiomeGrid(heights.Width, heights.Height)
	for y := 0; y < heights.Height; y++ {
		for x := 0; x < heights.Width; x++ {
			grid.Set(Coord{X: x, Y: y}, Classify(heights.At(x, y), temp.At(x, y), th))
		}
	}
	return grid
}

// InBounds reports whether c lies on the map.
func (m *Model) InBounds(c Coord) bool {
	return m.Heights.InBounds(c)
}

// HeightAt returns the normalized elevation at c.
func (m *Model) HeightAt(c Coord) float64 {
	return m.Heights.At(c.X, c.Y)
}

// IsLand reports whether c is in bounds and at or above the land level.
func (m *Model) IsLand(c Coord) bool {
	return m.InBounds(c) && m.HeightAt(c) >= m.LandLevel
}

// LandCells returns the number of land cells.
func (m *Model) LandCells() int {
	n := 0
	for _, h := range m.Heights.Values {
		if h >= m.LandLevel {
			n++
		}
	}
	return n
}

// String returns a summary of the model.
func (m *Model) String() string {
	return fmt.Sprintf("Model(%dx%d, land=%d)", m.Width, m.Height, m.LandCells())
}

// BiomeCounts returns the distribution of base biomes.
func (m *Model) BiomeCounts() map[Biome]int {
	return m.Biomes.Counts()
}
