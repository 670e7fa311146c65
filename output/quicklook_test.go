package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRampColor_Endpoints(t *testing.T) {
	assert.Equal(t, thermalRamp[0], rampColor(0))
	assert.Equal(t, thermalRamp[len(thermalRamp)-1], rampColor(1))

	mid := rampColor(0.5)
	assert.NotEqual(t, thermalRamp[0], mid)
	assert.NotEqual(t, thermalRamp[len(thermalRamp)-1], mid)
}

func TestNormalise_Clamps(t *testing.T) {
	assert.Equal(t, 0.0, normalise(250, 280, 310))
	assert.Equal(t, 1.0, normalise(350, 280, 310))
	assert.InDelta(t, 0.5, normalise(295, 280, 310), 1e-12)
}

func TestPercentileStretch_IgnoresInvalid(t *testing.T) {
	grid := raster.NewGrid(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			grid.Set(x, y, 280+float64(y*10+x)*0.3)
		}
	}
	grid.SetInvalid(0, 0)

	low, high, err := percentileStretch(grid)

	require.NoError(t, err)
	assert.Greater(t, high, low)
	assert.GreaterOrEqual(t, low, 280.0)
	assert.LessOrEqual(t, high, 280+99*0.3)
}

func TestPercentileStretch_EmptyGrid(t *testing.T) {
	_, _, err := percentileStretch(raster.NewGrid(4, 4))

	assert.Error(t, err)
}

func TestRenderQuicklook_WritesPNG(t *testing.T) {
	grid := raster.NewGrid(20, 15)
	for y := 0; y < 15; y++ {
		for x := 0; x < 20; x++ {
			grid.Set(x, y, 285+float64(x))
		}
	}
	grid.SetInvalid(3, 3)
	path := filepath.Join(t.TempDir(), "preview", "lst.png")

	err := RenderQuicklook(path, grid, "K")

	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
