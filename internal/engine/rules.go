package engine

// GrowthConfig controls population growth and territorial expansion.
type GrowthConfig struct {
	SlowGrowthThreshold float64 `yaml:"slow_growth_threshold"` // Above this, SlowGrowthRate applies
	SlowGrowthRate      float64 `yaml:"slow_growth_rate"`
	PopulationCap       float64 `yaml:"population_cap"`
	CitizensPerCell     float64 `yaml:"citizens_per_cell"`  // Population needed per territory cell
	ExpansionAttempts   int     `yaml:"expansion_attempts"` // Jitter tries per civilization per year
}

// ConflictConfig controls border merges and proximity combat.
type ConflictConfig struct {
	AdjacencyDistance    int     `yaml:"adjacency_distance"` // Chebyshev distance between border vertices
	MergeProbability     float64 `yaml:"merge_probability"`  // Per touching pair per year
	FightDistance        float64 `yaml:"fight_distance"`     // Centers closer than this fight
	CombatDamage         float64 `yaml:"combat_damage"`      // Population fraction lost per fight
	ExtinctionPopulation float64 `yaml:"extinction_population"`
}

// MeteorConfig controls the catastrophic event cycle.
type MeteorConfig struct {
	Period       uint64  `yaml:"period"` // Years between spawn checks; 0 disables meteors
	Chance       float64 `yaml:"chance"`
	MinRadius    float64 `yaml:"min_radius"`
	MaxRadius    float64 `yaml:"max_radius"`
	RevertDelay  uint64  `yaml:"revert_delay"`  // Years until craters heal
	ImpactDamage float64 `yaml:"impact_damage"` // Population fraction lost on impact
}

// Rules is the fixed rule set of a simulation profile.
type Rules struct {
	Growth   GrowthConfig   `yaml:"growth"`
	Conflict ConflictConfig `yaml:"conflict"`
	Meteors  MeteorConfig   `yaml:"meteors"`
}

// DefaultRules returns the baseline rule set.
func DefaultRules() Rules {
	return Rules{
		Growth: GrowthConfig{
			SlowGrowthThreshold: 1_000_000,
			SlowGrowthRate:      0.005,
			PopulationCap:       5_000_000,
			CitizensPerCell:     500,
			ExpansionAttempts:   200,
		},
		Conflict: ConflictConfig{
			AdjacencyDistance:    1,
			MergeProbability:     0.01,
			FightDistance:        20,
			CombatDamage:         0.1,
			ExtinctionPopulation: 1,
		},
		Meteors: MeteorConfig{
			Period:       10,
			Chance:       0.2,
			MinRadius:    5,
			MaxRadius:    20,
			RevertDelay:  20,
			ImpactDamage: 0.5,
		},
	}
}
