package raster

import "math"

// Grid is a single raster band held in memory as a row-major slice of
// float64 samples plus a validity mask. Pixels flagged invalid carry no
// usable measurement and stay excluded from every downstream stage.
type Grid struct {
	Width  int
	Height int
	Values []float64
	Valid  []bool
}

// Georef ties a grid to the ground so results can be written with the
// same footprint as the scene they came from.
type Georef struct {
	GeoTransform  [6]float64
	ProjectionWKT string
}

// Window is a rectangular pixel region of a grid.
type Window struct {
	X      int
	Y      int
	Width  int
	Height int
}

func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
		Valid:  make([]bool, width*height),
	}
}

func (g *Grid) Index(x, y int) int {
	return y*g.Width + x
}

func (g *Grid) At(x, y int) float64 {
	return g.Values[g.Index(x, y)]
}

func (g *Grid) IsValid(x, y int) bool {
	return g.Valid[g.Index(x, y)]
}

func (g *Grid) Set(x, y int, value float64) {
	i := g.Index(x, y)
	g.Values[i] = value
	g.Valid[i] = true
}

func (g *Grid) SetInvalid(x, y int) {
	i := g.Index(x, y)
	g.Values[i] = math.NaN()
	g.Valid[i] = false
}

func (g *Grid) ValidCount() int {
	count := 0
	for _, ok := range g.Valid {
		if ok {
			count++
		}
	}
	return count
}

// SameShape reports whether both grids cover the same pixel dimensions.
func (g *Grid) SameShape(other *Grid) bool {
	return g.Width == other.Width && g.Height == other.Height
}

func FullWindow(width, height int) Window {
	return Window{Width: width, Height: height}
}

// Crop copies the window w out of the grid. The window must lie inside
// the grid bounds.
func (g *Grid) Crop(w Window) *Grid {
	out := NewGrid(w.Width, w.Height)
	for y := 0; y < w.Height; y++ {
		src := g.Index(w.X, w.Y+y)
		dst := y * w.Width
		copy(out.Values[dst:dst+w.Width], g.Values[src:src+w.Width])
		copy(out.Valid[dst:dst+w.Width], g.Valid[src:src+w.Width])
	}
	return out
}

// Crop shifts the georeferencing origin to the window corner.
func (r Georef) Crop(w Window) Georef {
	gt := r.GeoTransform
	gt[0] += float64(w.X)*gt[1] + float64(w.Y)*gt[2]
	gt[3] += float64(w.X)*gt[4] + float64(w.Y)*gt[5]
	return Georef{GeoTransform: gt, ProjectionWKT: r.ProjectionWKT}
}
