// Package cloudmask flags pixels whose thermal measurements are
// contaminated by cloud so they never reach the retrieval stages.
package cloudmask

import (
	"math"

	"github.com/heatscape/heatscape-cli/internal/raster"
)

// DefaultQACloudValue is the Landsat 8 quality band code for a pixel
// flagged as cloud with high confidence.
const DefaultQACloudValue = 61440

type Mask struct {
	Width  int
	Height int
	cloud  []bool
	count  int
}

// FromQA builds a mask from a quality assessment band by exact match
// against one encoded cloud value. Quality codes are integers, so the
// comparison is exact even through float64 storage.
func FromQA(qa *raster.Grid, cloudValue float64) *Mask {
	mask := &Mask{Width: qa.Width, Height: qa.Height, cloud: make([]bool, len(qa.Values))}
	for i, v := range qa.Values {
		if qa.Valid[i] && v == cloudValue {
			mask.cloud[i] = true
			mask.count++
		}
	}
	return mask
}

// FromBinary builds a mask from a raster where any non-zero pixel
// means cloud.
func FromBinary(cloud *raster.Grid) *Mask {
	mask := &Mask{Width: cloud.Width, Height: cloud.Height, cloud: make([]bool, len(cloud.Values))}
	for i, v := range cloud.Values {
		if cloud.Valid[i] && v != 0 {
			mask.cloud[i] = true
			mask.count++
		}
	}
	return mask
}

func (m *Mask) IsCloud(x, y int) bool {
	return m.cloud[y*m.Width+x]
}

// CloudCount reports how many pixels the mask flags.
func (m *Mask) CloudCount() int {
	return m.count
}

// Apply invalidates every flagged pixel of the grid and reports how
// many valid pixels it removed.
func (m *Mask) Apply(grid *raster.Grid) int {
	removed := 0
	for i, cloudy := range m.cloud {
		if cloudy && grid.Valid[i] {
			grid.Valid[i] = false
			grid.Values[i] = math.NaN()
			removed++
		}
	}
	return removed
}
