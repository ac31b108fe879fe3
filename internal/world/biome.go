package world

// Biome is the categorical terrain label of a cell.
type Biome uint8

const (
	BiomeWater     Biome = iota // Below sea level
	BiomeBeach                  // Thin band just above sea level
	BiomeDesert                 // Hot land
	BiomeGrassland              // Temperate land
	BiomeForest                 // Cool land
	BiomeSnow                   // Cold land, the fallback label
	BiomeCrater                 // Painted by meteor impacts, never produced by Classify
)

// Thresholds are the ordered classification cut-offs.
type Thresholds struct {
	Water     float64 `yaml:"water"`     // height below → Water
	Beach     float64 `yaml:"beach"`     // height below → Beach
	Desert    float64 `yaml:"desert"`    // temperature above → Desert
	Grassland float64 `yaml:"grassland"` // temperature above → Grassland
	Forest    float64 `yaml:"forest"`    // temperature above → Forest
}

// DefaultThresholds returns the cut-offs of the baseline planet.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Water:     0.30,
		Beach:     0.35,
		Desert:    0.70,
		Grassland: 0.50,
		Forest:    0.30,
	}
}

// Classify maps a normalized height and temperature to a biome.
// Rules are evaluated top to bottom and the first match wins; the ranges are
// not disjoint, so the order is part of the contract.
func Classify(height, temperature float64, th Thresholds) Biome {
	if height < th.Water {
		return BiomeWater
	}
	if height < th.Beach {
		return BiomeBeach
	}
	if temperature > th.Desert {
		return BiomeDesert
	}
	if temperature > th.Grassland {
		return BiomeGrassland
	}
	if temperature > th.Forest {
		return BiomeForest
	}
	return BiomeSnow
}

// Name returns a human-readable name for the biome.
func (b Biome) Name() string {
	switch b {
	case BiomeWater:
		return "Water"
	case BiomeBeach:
		return "Beach"
	case BiomeDesert:
		return "Desert"
	case BiomeGrassland:
		return "Grassland"
	case BiomeForest:
		return "Forest"
	case BiomeSnow:
		return "Snow"
	case BiomeCrater:
		return "Crater"
	default:
		return "Unknown"
	}
}

// String implements fmt.Stringer.
func (b Biome) String() string {
	return b.Name()
}
