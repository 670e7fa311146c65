// Package cwv estimates column water vapour from the two thermal bands
// through the modified split-window covariance and variance ratio.
package cwv

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/stat"
)

// Regression constants mapping the band ratio to water vapour in g/cm2.
const (
	c0 = -9.674
	c1 = 0.653
	c2 = 9.087
)

const (
	DefaultWindow   = 7
	DefaultMinValid = 2
)

// Estimator derives a water vapour grid from brightness temperatures.
// The window is the square neighbourhood side in pixels; MinValid is
// how many valid samples a window needs before the ratio is trusted.
type Estimator struct {
	Window   int
	MinValid int
}

func NewEstimator(window, minValid int) (*Estimator, error) {
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("window must be odd and at least 3, got %d", window)
	}
	if minValid < 2 {
		return nil, fmt.Errorf("a window ratio needs at least 2 valid samples, got %d", minValid)
	}
	return &Estimator{Window: window, MinValid: minValid}, nil
}

// Estimate computes water vapour for every pixel from the covariance to
// variance ratio of its surrounding window. Windows are truncated at
// the scene edges. Pixels whose window holds too few valid samples, or
// no spread at all in band 10, come back invalid; the count of such
// windows is returned alongside the grid. Output does not depend on
// worker scheduling because rows are disjoint.
func (e *Estimator) Estimate(t10, t11 *raster.Grid) (*raster.Grid, int, error) {
	if !t10.SameShape(t11) {
		return nil, 0, fmt.Errorf("band grids differ: %dx%d vs %dx%d",
			t10.Width, t10.Height, t11.Width, t11.Height)
	}

	out := raster.NewGrid(t10.Width, t10.Height)
	half := e.Window / 2

	var (
		mu          sync.Mutex
		failed      int
		progressBar = progressbar.Default(int64(t10.Height), "Estimating water vapour")
	)

	wp := workerpool.New(runtime.NumCPU())
	for y := 0; y < t10.Height; y++ {
		row := y // capture range variable
		wp.Submit(func() {
			ti := make([]float64, 0, e.Window*e.Window)
			tj := make([]float64, 0, e.Window*e.Window)
			rowFailed := 0
			for x := 0; x < t10.Width; x++ {
				if !t10.IsValid(x, row) || !t11.IsValid(x, row) {
					out.SetInvalid(x, row)
					continue
				}
				ti, tj = gatherWindow(t10, t11, x, row, half, ti, tj)
				if len(ti) < e.MinValid {
					out.SetInvalid(x, row)
					rowFailed++
					continue
				}
				variance := stat.Variance(ti, nil)
				if variance <= 0 {
					out.SetInvalid(x, row)
					rowFailed++
					continue
				}
				ratio := stat.Covariance(ti, tj, nil) / variance
				out.Set(x, row, c0+c1*ratio+c2*ratio*ratio)
			}
			mu.Lock()
			failed += rowFailed
			mu.Unlock()
			progressBar.Add(1)
		})
	}
	wp.StopWait()

	return out, failed, nil
}

func gatherWindow(t10, t11 *raster.Grid, x, y, half int, ti, tj []float64) ([]float64, []float64) {
	ti, tj = ti[:0], tj[:0]
	for wy := y - half; wy <= y+half; wy++ {
		if wy < 0 || wy >= t10.Height {
			continue
		}
		for wx := x - half; wx <= x+half; wx++ {
			if wx < 0 || wx >= t10.Width {
				continue
			}
			if !t10.IsValid(wx, wy) || !t11.IsValid(wx, wy) {
				continue
			}
			ti = append(ti, t10.At(wx, wy))
			tj = append(tj, t11.At(wx, wy))
		}
	}
	return ti, tj
}
