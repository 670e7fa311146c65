package emissivity

import (
	"fmt"
	"math"

	"github.com/heatscape/heatscape-cli/internal/raster"
)

// Source selects where per-pixel emissivity comes from. Exactly one of
// the three constructors applies to a scene.
type Source struct {
	landCover  *raster.Grid
	fixed      *Class
	ndvi       *raster.Grid
	average    *raster.Grid
	difference *raster.Grid
}

// PerPixel classifies every pixel through a land-cover raster. An NDVI
// grid is optional and refines vegetated classes through their
// fractional vegetation cover.
func PerPixel(landCover, ndvi *raster.Grid) Source {
	return Source{landCover: landCover, ndvi: ndvi}
}

// FixedClass applies one legend class to the whole scene, with the same
// optional NDVI refinement.
func FixedClass(class Class, ndvi *raster.Grid) Source {
	fixed := class
	return Source{fixed: &fixed, ndvi: ndvi}
}

// Direct passes externally derived mean emissivity and band difference
// rasters straight through.
func Direct(average, difference *raster.Grid) Source {
	return Source{average: average, difference: difference}
}

// Model derives the two emissivity grids the split-window equation
// needs: the band mean and the band difference.
type Model struct {
	legend *Legend
	source Source
}

func NewModel(legend *Legend, source Source) *Model {
	return &Model{legend: legend, source: source}
}

type Result struct {
	Average        *raster.Grid
	Difference     *raster.Grid
	UnknownClasses int
}

// Derive computes emissivity for every pixel of a width x height scene.
// Pixels whose land-cover code is outside the legend become no-data and
// are counted rather than failing the scene.
func (m *Model) Derive(width, height int) (*Result, error) {
	if m.source.average != nil {
		return m.deriveDirect(width, height)
	}

	if m.source.landCover != nil {
		if m.source.landCover.Width != width || m.source.landCover.Height != height {
			return nil, fmt.Errorf("land-cover raster is %dx%d, scene is %dx%d",
				m.source.landCover.Width, m.source.landCover.Height, width, height)
		}
	}
	if m.source.ndvi != nil {
		if m.source.ndvi.Width != width || m.source.ndvi.Height != height {
			return nil, fmt.Errorf("ndvi raster is %dx%d, scene is %dx%d",
				m.source.ndvi.Width, m.source.ndvi.Height, width, height)
		}
	}

	result := &Result{
		Average:    raster.NewGrid(width, height),
		Difference: raster.NewGrid(width, height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			class, ok := m.classAt(x, y, result)
			if !ok {
				result.Average.SetInvalid(x, y)
				result.Difference.SetInvalid(x, y)
				continue
			}
			band10, band11 := m.bandEmissivities(class, x, y)
			result.Average.Set(x, y, (band10+band11)/2)
			result.Difference.Set(x, y, band10-band11)
		}
	}
	return result, nil
}

func (m *Model) classAt(x, y int, result *Result) (Class, bool) {
	if m.source.fixed != nil {
		return *m.source.fixed, true
	}
	if !m.source.landCover.IsValid(x, y) {
		return Class{}, false
	}
	code := int(m.source.landCover.At(x, y))
	class, err := m.legend.ByCode(code)
	if err != nil {
		result.UnknownClasses++
		return Class{}, false
	}
	return class, true
}

func (m *Model) bandEmissivities(class Class, x, y int) (float64, float64) {
	if m.source.ndvi == nil || !class.Vegetated || !m.source.ndvi.IsValid(x, y) {
		return class.TIRS10, class.TIRS11
	}
	cover := fractionalCover(m.source.ndvi.At(x, y), class.NDVIMin, class.NDVIMax)
	band10 := cover*class.Veg10 + (1-cover)*class.Soil10 + class.Cavity
	band11 := cover*class.Veg11 + (1-cover)*class.Soil11 + class.Cavity
	return band10, band11
}

// fractionalCover squares the scaled NDVI, so sparse canopies
// contribute less vegetation signal than their linear fraction. The
// scaled value is clamped to [0, 1] before squaring.
func fractionalCover(ndvi, min, max float64) float64 {
	if max <= min {
		return 0
	}
	scaled := (ndvi - min) / (max - min)
	if scaled < 0 {
		scaled = 0
	} else if scaled > 1 {
		scaled = 1
	}
	return scaled * scaled
}

func (m *Model) deriveDirect(width, height int) (*Result, error) {
	average, difference := m.source.average, m.source.difference
	if average.Width != width || average.Height != height || !average.SameShape(difference) {
		return nil, fmt.Errorf("emissivity rasters are %dx%d and %dx%d, scene is %dx%d",
			average.Width, average.Height, difference.Width, difference.Height, width, height)
	}
	result := &Result{
		Average:    raster.NewGrid(width, height),
		Difference: raster.NewGrid(width, height),
	}
	for i := range average.Values {
		if !average.Valid[i] || !difference.Valid[i] {
			result.Average.Values[i] = math.NaN()
			result.Difference.Values[i] = math.NaN()
			continue
		}
		result.Average.Values[i] = average.Values[i]
		result.Average.Valid[i] = true
		result.Difference.Values[i] = difference.Values[i]
		result.Difference.Valid[i] = true
	}
	return result, nil
}
