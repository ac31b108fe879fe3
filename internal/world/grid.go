// Package world provides the rectangular planet grid, terrain, and climate layers.
// Coordinates are (X column, Y row) with the origin in the top-left corner.
package world

import "fmt"

// Coord is a cell position on the grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the coordinate offset by (dx, dy).
func (c Coord) Add(dx, dy int) Coord {
	return Coord{X: c.X + dx, Y: c.Y + dy}
}

// Field is a width×height grid of float values stored row-major.
type Field struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Values []float64 `json:"-"`
}

// NewField allocates a zeroed field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// At returns the value at (x, y). The caller must stay in bounds.
func (f *Field) At(x, y int) float64 {
	return f.Values[y*f.Width+x]
}

// Set writes the value at (x, y).
func (f *Field) Set(x, y int, v float64) {
	f.Values[y*f.Width+x] = v
}

// InBounds reports whether c lies inside the field.
func (f *Field) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < f.Width && c.Y < f.Height
}

// Range returns the observed minimum and maximum values.
func (f *Field) Range() (lo, hi float64) {
	if len(f.Values) == 0 {
		return 0, 0
	}
	lo, hi = f.Values[0], f.Values[0]
	for _, v := range f.Values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Normalize rescales the field in place to [0, 1] using its observed min/max.
// A flat field becomes all zeros.
func (f *Field) Normalize() {
	lo, hi := f.Range()
	span := hi - lo
	for i, v := range f.Values {
		if span == 0 {
			f.Values[i] = 0
			continue
		}
		f.Values[i] = (v - lo) / span
	}
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	out := &Field{Width: f.Width, Height: f.Height, Values: make([]float64, len(f.Values))}
	copy(out.Values, f.Values)
	return out
}

// BiomeGrid holds a biome label per cell.
type BiomeGrid struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Cells  []Biome `json:"-"`
}

// NewBiomeGrid allocates a grid filled with Water.
func NewBiomeGrid(width, height int) *BiomeGrid {
	return &BiomeGrid{
		Width:  width,
		Height: height,
		Cells:  make([]Biome, width*height),
	}
}

// At returns the biome at c. The caller must stay in bounds.
func (g *BiomeGrid) At(c Coord) Biome {
	return g.Cells[c.Y*g.Width+c.X]
}

// Set overwrites the biome at c.
func (g *BiomeGrid) Set(c Coord, b Biome) {
	g.Cells[c.Y*g.Width+c.X] = b
}

// InBounds reports whether c lies inside the grid.
func (g *BiomeGrid) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Clone returns a deep copy, used as the mutable runtime layer.
func (g *BiomeGrid) Clone() *BiomeGrid {
	out := &BiomeGrid{Width: g.Width, Height: g.Height, Cells: make([]Biome, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// Counts returns the number of cells per biome.
func (g *BiomeGrid) Counts() map[Biome]int {
	counts := make(map[Biome]int)
	for _, b := range g.Cells {
		counts[b]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *BiomeGrid) String() string {
	return fmt.Sprintf("BiomeGrid(%dx%d)", g.Width, g.Height)
}
