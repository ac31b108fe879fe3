package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// NoiseField is a deterministic fractal noise source. The same seed always
// yields the same value for the same coordinate.
type NoiseField struct {
	noise       opensimplex.Noise
	Octaves     int
	Persistence float64 // amplitude multiplier per octave
	Lacunarity  float64 // frequency multiplier per octave
}

// NewNoiseField creates a fractal noise field seeded with seed.
func NewNoiseField(seed int64, octaves int, persistence, lacunarity float64) *NoiseField {
	if octaves < 1 {
		octaves = 1
	}
	return &NoiseField{
		noise:       opensimplex.New(seed),
		Octaves:     octaves,
		Persistence: persistence,
		Lacunarity:  lacunarity,
	}
}

// Sample returns layered noise at (x, y), roughly in [-1, 1].
func (n *NoiseField) Sample(x, y float64) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := 1.0
	maxVal := 0.0

	for i := 0; i < n.Octaves; i++ {
		total += n.noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= n.Persistence
		frequency *= n.Lacunarity
	}

	return total / maxVal
}

// SampleTiled returns noise that wraps with period (periodX, periodY) in
// noise space. The plane is mapped onto a torus in 4D so opposite grid edges
// meet seamlessly.
func (n *NoiseField) SampleTiled(x, y, periodX, periodY float64) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := 1.0
	maxVal := 0.0

	ax := 2 * math.Pi * x / periodX
	ay := 2 * math.Pi * y / periodY
	rx := periodX / (2 * math.Pi)
	ry := periodY / (2 * math.Pi)
	cx, sx := math.Cos(ax)*rx, math.Sin(ax)*rx
	cy, sy := math.Cos(ay)*ry, math.Sin(ay)*ry

	for i := 0; i < n.Octaves; i++ {
		total += n.noise.Eval4(cx*frequency, sx*frequency, cy*frequency, sy*frequency) * amplitude
		maxVal += amplitude
		amplitude *= n.Persistence
		frequency *= n.Lacunarity
	}

	return total / maxVal
}
