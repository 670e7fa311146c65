package lst

import (
	"testing"

	"github.com/heatscape/heatscape-cli/internal/coefficients"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sceneInputs builds aligned grids for a width x height scene where
// both bands carry the same temperature, emissivity is 1 and water
// vapour is constant, so the expected LST has the closed form
// b0 + b1*t of whichever single set the water vapour selects.
func sceneInputs(width, height int, cwv float64) (t10, t11, emissivity, difference, waterVapour *raster.Grid) {
	t10 = raster.NewGrid(width, height)
	t11 = raster.NewGrid(width, height)
	emissivity = raster.NewGrid(width, height)
	difference = raster.NewGrid(width, height)
	waterVapour = raster.NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			kelvin := 290 + float64(x) + 0.5*float64(y)
			t10.Set(x, y, kelvin)
			t11.Set(x, y, kelvin)
			emissivity.Set(x, y, 1)
			difference.Set(x, y, 0)
			waterVapour.Set(x, y, cwv)
		}
	}
	return
}

func TestRetrieve_WholeScene(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(4, 3, 1.0)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})

	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 12, Retrieved: 12}, result.Stats)
	assert.Nil(t, result.Uncertainty)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			kelvin := 290 + float64(x) + 0.5*float64(y)
			require.True(t, result.LST.IsValid(x, y))
			assert.InDelta(t, -2.78009+1.01408*kelvin, result.LST.At(x, y), 1e-9)
		}
	}
}

func TestRetrieve_MissingInputsDegradePixels(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(3, 3, 1.0)
	t10.SetInvalid(0, 0)
	emissivity.SetInvalid(1, 1)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.MissingInput)
	assert.Equal(t, 7, result.Stats.Retrieved)
	assert.False(t, result.LST.IsValid(0, 0))
	assert.False(t, result.LST.IsValid(1, 1))
}

func TestRetrieve_NoWaterVapourWithoutFallback(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(2, 2, 1.0)
	waterVapour.SetInvalid(1, 1)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.NoWaterVapour)
	assert.Equal(t, 3, result.Stats.Retrieved)
	assert.False(t, result.LST.IsValid(1, 1))
}

func TestRetrieve_WholeRangeFallback(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(2, 2, 1.0)
	waterVapour.SetInvalid(0, 1) // no estimate
	waterVapour.Set(1, 1, 9.0)   // outside the fitted domain

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{WholeRangeFallback: true})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Fallback)
	assert.Equal(t, 4, result.Stats.Retrieved)
	assert.Equal(t, 0, result.Stats.NoWaterVapour)
	assert.Equal(t, 0, result.Stats.OutOfRange)

	// Fallback pixels use the whole-range set: b0 + b1*t.
	kelvin := 290 + 0.0 + 0.5
	assert.InDelta(t, -0.41165+1.00522*kelvin, result.LST.At(0, 1), 1e-9)
}

func TestRetrieve_OutOfRangeWithoutFallback(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(2, 1, 1.0)
	waterVapour.Set(1, 0, 7.5)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.OutOfRange)
	assert.False(t, result.LST.IsValid(1, 0))
}

func TestRetrieve_BadEmissivityCounts(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(2, 1, 1.0)
	emissivity.Set(0, 0, 1.5)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.BadEmissivity)
	assert.Equal(t, 1, result.Stats.Retrieved)
	assert.False(t, result.LST.IsValid(0, 0))
}

func TestRetrieve_OverlapAveragesAndReportsUncertainty(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(1, 1, 2.2)

	result, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{Uncertainty: true})

	require.NoError(t, err)
	require.NotNil(t, result.Uncertainty)

	kelvin := 290.0
	fromRange1 := -2.78009 + 1.01408*kelvin
	fromRange2 := 11.00824 + 0.95995*kelvin
	assert.InDelta(t, (fromRange1+fromRange2)/2, result.LST.At(0, 0), 1e-9)
	assert.InDelta(t, (0.34+0.60)/2, result.Uncertainty.At(0, 0), 1e-12)
}

func TestRetrieve_Celsius(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(1, 1, 1.0)

	kelvinRun, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{})
	require.NoError(t, err)
	celsiusRun, err := Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{Celsius: true})
	require.NoError(t, err)

	assert.InDelta(t, kelvinRun.LST.At(0, 0)-273.15, celsiusRun.LST.At(0, 0), 1e-9)
}

func TestRetrieve_ShapeMismatch(t *testing.T) {
	table := loadTable(t)
	t10, t11, emissivity, difference, _ := sceneInputs(2, 2, 1.0)

	_, err := Retrieve(t10, t11, emissivity, difference, raster.NewGrid(3, 3), table, Options{})

	assert.Error(t, err)
}

func TestRetrieve_FallbackNeedsAverageSet(t *testing.T) {
	table, err := coefficients.NewTable([]coefficients.Set{
		{Key: "only", Kind: coefficients.KindSubrange, Low: 0, High: 6},
	})
	require.NoError(t, err)
	t10, t11, emissivity, difference, waterVapour := sceneInputs(1, 1, 1.0)

	_, err = Retrieve(t10, t11, emissivity, difference, waterVapour, table, Options{WholeRangeFallback: true})

	assert.ErrorContains(t, err, "no average set")
}
