// Package output renders retrieval products into shareable files.
package output

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"gonum.org/v1/gonum/stat"
)

// thermalRamp is the quicklook colour scale, cold to hot.
var thermalRamp = []color.RGBA{
	{R: 13, G: 8, B: 135, A: 255},
	{R: 84, G: 2, B: 163, A: 255},
	{R: 156, G: 23, B: 158, A: 255},
	{R: 216, G: 87, B: 107, A: 255},
	{R: 251, G: 164, B: 54, A: 255},
	{R: 240, G: 249, B: 33, A: 255},
}

const legendHeight = 44

// RenderQuicklook draws a PNG preview of a temperature grid with a
// colour bar. The stretch runs from the 2nd to the 98th percentile so
// a few extreme pixels do not wash out the scene. Invalid pixels stay
// dark grey.
func RenderQuicklook(path string, grid *raster.Grid, unit string) error {
	low, high, err := percentileStretch(grid)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			if !grid.IsValid(x, y) {
				img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
				continue
			}
			img.Set(x, y, rampColor(normalise(grid.At(x, y), low, high)))
		}
	}

	dc := gg.NewContext(grid.Width, grid.Height+legendHeight)
	dc.SetRGB(0.12, 0.12, 0.12)
	dc.Clear()
	dc.DrawImage(img, 0, 0)

	// Colour bar with the stretch bounds at its ends.
	barY := float64(grid.Height + 8)
	for x := 0; x < grid.Width; x++ {
		c := rampColor(float64(x) / float64(max(grid.Width-1, 1)))
		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 255)
		dc.DrawRectangle(float64(x), barY, 1, 14)
		dc.Fill()
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f %s", low, unit), 4, barY+26, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f %s", high, unit), float64(grid.Width-4), barY+26, 1, 0.5)

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return dc.SavePNG(path)
}

func percentileStretch(grid *raster.Grid) (float64, float64, error) {
	values := make([]float64, 0, len(grid.Values))
	for i, v := range grid.Values {
		if grid.Valid[i] {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, 0, fmt.Errorf("no valid pixels to render")
	}
	sort.Float64s(values)
	low := stat.Quantile(0.02, stat.Empirical, values, nil)
	high := stat.Quantile(0.98, stat.Empirical, values, nil)
	if high <= low {
		high = low + 1
	}
	return low, high, nil
}

func normalise(value, low, high float64) float64 {
	scaled := (value - low) / (high - low)
	if scaled < 0 {
		return 0
	}
	if scaled > 1 {
		return 1
	}
	return scaled
}

// rampColor interpolates the colour scale at t in [0, 1].
func rampColor(t float64) color.RGBA {
	segments := len(thermalRamp) - 1
	position := t * float64(segments)
	i := int(position)
	if i >= segments {
		return thermalRamp[segments]
	}
	fraction := position - float64(i)
	from, to := thermalRamp[i], thermalRamp[i+1]
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + fraction*(float64(b)-float64(a)))
	}
	return color.RGBA{R: lerp(from.R, to.R), G: lerp(from.G, to.G), B: lerp(from.B, to.B), A: 255}
}
