package emissivity

import (
	"testing"

	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestLegend(t *testing.T) *Legend {
	t.Helper()
	legend, err := LoadLegend()
	require.NoError(t, err)
	return legend
}

func TestDerive_FixedClass(t *testing.T) {
	legend := loadTestLegend(t)
	water, err := legend.ByCode(60)
	require.NoError(t, err)

	model := NewModel(legend, FixedClass(water, nil))
	result, err := model.Derive(3, 2)

	require.NoError(t, err)
	assert.Equal(t, 0, result.UnknownClasses)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			require.True(t, result.Average.IsValid(x, y))
			assert.InDelta(t, 0.995, result.Average.At(x, y), 1e-12)
			assert.InDelta(t, -0.006, result.Difference.At(x, y), 1e-12)
		}
	}
}

func TestDerive_PerPixelWithUnknownCode(t *testing.T) {
	legend := loadTestLegend(t)

	landCover := raster.NewGrid(3, 1)
	landCover.Set(0, 0, 20) // Forest
	landCover.Set(1, 0, 42) // not in the legend
	landCover.SetInvalid(2, 0)

	model := NewModel(legend, PerPixel(landCover, nil))
	result, err := model.Derive(3, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, result.UnknownClasses)
	assert.True(t, result.Average.IsValid(0, 0))
	assert.InDelta(t, (0.995+0.996)/2, result.Average.At(0, 0), 1e-12)
	assert.InDelta(t, 0.995-0.996, result.Difference.At(0, 0), 1e-12)
	assert.False(t, result.Average.IsValid(1, 0))
	assert.False(t, result.Difference.IsValid(1, 0))
	assert.False(t, result.Average.IsValid(2, 0))
}

func TestDerive_NDVIRefinement(t *testing.T) {
	legend := loadTestLegend(t)
	forest, err := legend.ByCode(20)
	require.NoError(t, err)

	ndvi := raster.NewGrid(4, 1)
	ndvi.Set(0, 0, 0.1)  // below range, pure soil
	ndvi.Set(1, 0, 0.86) // at the top, pure vegetation
	ndvi.Set(2, 0, 0.53) // halfway, cover 0.25
	ndvi.SetInvalid(3, 0)

	model := NewModel(legend, FixedClass(forest, ndvi))
	result, err := model.Derive(4, 1)
	require.NoError(t, err)

	soil := (forest.Soil10+forest.Soil11)/2 + forest.Cavity
	assert.InDelta(t, soil, result.Average.At(0, 0), 1e-12)
	assert.InDelta(t, (forest.Soil10+forest.Cavity)-(forest.Soil11+forest.Cavity), result.Difference.At(0, 0), 1e-12)

	veg := (forest.Veg10 + forest.Cavity + forest.Veg11 + forest.Cavity) / 2
	assert.InDelta(t, veg, result.Average.At(1, 0), 1e-12)

	cover := 0.25
	mixed10 := cover*forest.Veg10 + (1-cover)*forest.Soil10 + forest.Cavity
	mixed11 := cover*forest.Veg11 + (1-cover)*forest.Soil11 + forest.Cavity
	assert.InDelta(t, (mixed10+mixed11)/2, result.Average.At(2, 0), 1e-12)
	assert.InDelta(t, mixed10-mixed11, result.Difference.At(2, 0), 1e-12)

	// No NDVI at the pixel falls back to the class averages.
	assert.InDelta(t, (forest.TIRS10+forest.TIRS11)/2, result.Average.At(3, 0), 1e-12)
}

func TestDerive_NDVIIgnoredForNonVegetated(t *testing.T) {
	legend := loadTestLegend(t)
	water, err := legend.ByCode(60)
	require.NoError(t, err)

	ndvi := raster.NewGrid(1, 1)
	ndvi.Set(0, 0, 0.9)

	model := NewModel(legend, FixedClass(water, ndvi))
	result, err := model.Derive(1, 1)

	require.NoError(t, err)
	assert.InDelta(t, (water.TIRS10+water.TIRS11)/2, result.Average.At(0, 0), 1e-12)
}

func TestDerive_DirectPassthrough(t *testing.T) {
	average := raster.NewGrid(2, 1)
	average.Set(0, 0, 0.98)
	average.SetInvalid(1, 0)
	difference := raster.NewGrid(2, 1)
	difference.Set(0, 0, 0.004)
	difference.Set(1, 0, 0.004)

	model := NewModel(loadTestLegend(t), Direct(average, difference))
	result, err := model.Derive(2, 1)

	require.NoError(t, err)
	assert.Equal(t, 0.98, result.Average.At(0, 0))
	assert.Equal(t, 0.004, result.Difference.At(0, 0))
	// Either band missing drops the pixel from both outputs.
	assert.False(t, result.Average.IsValid(1, 0))
	assert.False(t, result.Difference.IsValid(1, 0))
}

func TestDerive_DimensionMismatch(t *testing.T) {
	legend := loadTestLegend(t)

	landCover := raster.NewGrid(2, 2)
	model := NewModel(legend, PerPixel(landCover, nil))
	_, err := model.Derive(3, 3)
	assert.Error(t, err)

	average := raster.NewGrid(2, 2)
	difference := raster.NewGrid(3, 3)
	model = NewModel(legend, Direct(average, difference))
	_, err = model.Derive(2, 2)
	assert.Error(t, err)
}

func TestFractionalCover(t *testing.T) {
	assert.Equal(t, 0.0, fractionalCover(0.1, 0.2, 0.86))
	assert.Equal(t, 1.0, fractionalCover(0.9, 0.2, 0.86))
	assert.InDelta(t, 0.25, fractionalCover(0.53, 0.2, 0.86), 1e-12)
	assert.Equal(t, 0.0, fractionalCover(0.5, 0.6, 0.6))
}
