package cwv

import (
	"testing"

	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEstimator_RejectsBadWindows(t *testing.T) {
	for _, window := range []int{0, 1, 2, 4, 8, -3} {
		_, err := NewEstimator(window, 2)
		assert.Error(t, err, "window %d", window)
	}
	for _, minValid := range []int{-1, 0, 1} {
		_, err := NewEstimator(7, minValid)
		assert.Error(t, err, "minValid %d", minValid)
	}

	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, estimator.Window)
}

// fill sets every pixel of a new grid from a function of its coords.
func fill(width, height int, value func(x, y int) float64) *raster.Grid {
	grid := raster.NewGrid(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			grid.Set(x, y, value(x, y))
		}
	}
	return grid
}

func TestEstimate_PerfectLinearBands(t *testing.T) {
	// With t11 = a + b*t10 the window ratio is exactly b everywhere,
	// so the regression collapses to a single known value.
	t10 := fill(9, 9, func(x, y int) float64 { return 285 + float64(x)*0.7 + float64(y)*0.3 })
	t11 := fill(9, 9, func(x, y int) float64 { return 0.5 + 0.9*(285+float64(x)*0.7+float64(y)*0.3) })

	estimator, err := NewEstimator(5, 2)
	require.NoError(t, err)
	grid, failed, err := estimator.Estimate(t10, t11)

	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	expected := c0 + c1*0.9 + c2*0.9*0.9
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			require.True(t, grid.IsValid(x, y))
			assert.InDelta(t, expected, grid.At(x, y), 1e-9)
		}
	}
}

func TestEstimate_IdenticalBandsGiveUnitRatio(t *testing.T) {
	t10 := fill(5, 5, func(x, y int) float64 { return 280 + float64(x+y) })
	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)

	grid, failed, err := estimator.Estimate(t10, t10)

	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	expected := c0 + c1 + c2 // ratio 1
	assert.InDelta(t, expected, grid.At(0, 0), 1e-9) // truncated corner window still resolves
	assert.InDelta(t, expected, grid.At(2, 2), 1e-9)
}

func TestEstimate_FlatSceneHasNoRatio(t *testing.T) {
	flat := fill(5, 5, func(x, y int) float64 { return 290 })
	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)

	grid, failed, err := estimator.Estimate(flat, flat)

	require.NoError(t, err)
	assert.Equal(t, 25, failed)
	assert.Equal(t, 0, grid.ValidCount())
}

func TestEstimate_SparseWindowFails(t *testing.T) {
	t10 := raster.NewGrid(5, 5)
	t11 := raster.NewGrid(5, 5)
	// A single valid pixel: its window never reaches MinValid.
	t10.Set(2, 2, 290)
	t11.Set(2, 2, 289)

	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)
	grid, failed, err := estimator.Estimate(t10, t11)

	require.NoError(t, err)
	assert.Equal(t, 1, failed)
	assert.False(t, grid.IsValid(2, 2))
}

func TestEstimate_InvalidCenterIsNotCounted(t *testing.T) {
	t10 := fill(5, 5, func(x, y int) float64 { return 280 + float64(x)*2 })
	t11 := fill(5, 5, func(x, y int) float64 { return 279 + float64(x)*2 })
	t10.SetInvalid(2, 2)

	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)
	grid, failed, err := estimator.Estimate(t10, t11)

	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	assert.False(t, grid.IsValid(2, 2))
	// Neighbours simply skip the hole and stay valid.
	assert.True(t, grid.IsValid(1, 2))
	assert.True(t, grid.IsValid(3, 2))
}

func TestEstimate_Deterministic(t *testing.T) {
	// Strictly increasing band 10 keeps every window's variance
	// positive, so no pixel falls out as NaN.
	t10 := fill(12, 12, func(x, y int) float64 { return 280 + float64(x) + 12*float64(y) })
	t11 := fill(12, 12, func(x, y int) float64 { return 279 + 0.5*float64(x) + 3*float64(y) })
	estimator, err := NewEstimator(5, 2)
	require.NoError(t, err)

	first, _, err := estimator.Estimate(t10, t11)
	require.NoError(t, err)
	second, _, err := estimator.Estimate(t10, t11)
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Valid, second.Valid)
}

func TestEstimate_ShapeMismatch(t *testing.T) {
	estimator, err := NewEstimator(3, 2)
	require.NoError(t, err)

	_, _, err = estimator.Estimate(raster.NewGrid(3, 3), raster.NewGrid(4, 4))

	assert.Error(t, err)
}
