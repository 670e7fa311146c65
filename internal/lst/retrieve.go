package lst

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/heatscape/heatscape-cli/internal/coefficients"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/schollz/progressbar/v3"
)

const kelvinToCelsius = 273.15

// Options tune how a scene retrieval treats pixels without a usable
// water vapour estimate and how results come back.
type Options struct {
	// WholeRangeFallback solves pixels whose water vapour is missing
	// or out of range with the whole-range average set instead of
	// dropping them.
	WholeRangeFallback bool
	// Celsius converts retrieved temperatures from kelvin.
	Celsius bool
	// Uncertainty adds a grid holding the regression error of the
	// coefficient sets each pixel was solved with.
	Uncertainty bool
}

// Stats counts where every pixel of a scene ended up.
type Stats struct {
	Total         int
	Retrieved     int
	MissingInput  int
	NoWaterVapour int
	OutOfRange    int
	BadEmissivity int
	Fallback      int
}

func (s *Stats) merge(other Stats) {
	s.Retrieved += other.Retrieved
	s.MissingInput += other.MissingInput
	s.NoWaterVapour += other.NoWaterVapour
	s.OutOfRange += other.OutOfRange
	s.BadEmissivity += other.BadEmissivity
	s.Fallback += other.Fallback
}

type Result struct {
	LST         *raster.Grid
	Uncertainty *raster.Grid
	Stats       Stats
}

// Retrieve solves the split-window equation across a scene. Per-pixel
// problems degrade that pixel to no-data and are counted; only
// impossible scene setups return an error. Rows are solved in parallel
// and the output does not depend on scheduling.
func Retrieve(t10, t11, emissivity, difference, waterVapour *raster.Grid, table *coefficients.Table, opts Options) (*Result, error) {
	for name, grid := range map[string]*raster.Grid{
		"band 11 temperature": t11, "emissivity": emissivity,
		"emissivity difference": difference, "water vapour": waterVapour,
	} {
		if !t10.SameShape(grid) {
			return nil, fmt.Errorf("%s grid is %dx%d, scene is %dx%d",
				name, grid.Width, grid.Height, t10.Width, t10.Height)
		}
	}

	average, haveAverage := table.Average()
	if opts.WholeRangeFallback && !haveAverage {
		return nil, errors.New("whole-range fallback requested but the coefficient table has no average set")
	}
	fallbackSets := []coefficients.Set{average}

	result := &Result{
		LST:   raster.NewGrid(t10.Width, t10.Height),
		Stats: Stats{Total: t10.Width * t10.Height},
	}
	if opts.Uncertainty {
		result.Uncertainty = raster.NewGrid(t10.Width, t10.Height)
	}

	var (
		mu          sync.Mutex
		progressBar = progressbar.Default(int64(t10.Height), "Solving split-window")
	)

	wp := workerpool.New(runtime.NumCPU())
	for y := 0; y < t10.Height; y++ {
		row := y // capture range variable
		wp.Submit(func() {
			var rowStats Stats
			for x := 0; x < t10.Width; x++ {
				i := t10.Index(x, row)
				if !t10.Valid[i] || !t11.Valid[i] || !emissivity.Valid[i] || !difference.Valid[i] {
					result.LST.SetInvalid(x, row)
					rowStats.MissingInput++
					continue
				}

				var sets []coefficients.Set
				if waterVapour.Valid[i] {
					matched, err := table.Lookup(waterVapour.Values[i])
					switch {
					case err == nil:
						sets = matched
					case opts.WholeRangeFallback:
						sets = fallbackSets
						rowStats.Fallback++
					default:
						result.LST.SetInvalid(x, row)
						rowStats.OutOfRange++
						continue
					}
				} else if opts.WholeRangeFallback {
					sets = fallbackSets
					rowStats.Fallback++
				} else {
					result.LST.SetInvalid(x, row)
					rowStats.NoWaterVapour++
					continue
				}

				value, err := Solve(t10.Values[i], t11.Values[i], emissivity.Values[i], difference.Values[i], sets)
				if err != nil {
					result.LST.SetInvalid(x, row)
					rowStats.BadEmissivity++
					continue
				}
				if opts.Celsius {
					value -= kelvinToCelsius
				}
				result.LST.Set(x, row, value)
				if result.Uncertainty != nil {
					result.Uncertainty.Set(x, row, Uncertainty(sets))
				}
				rowStats.Retrieved++
			}
			mu.Lock()
			result.Stats.merge(rowStats)
			mu.Unlock()
			progressBar.Add(1)
		})
	}
	wp.StopWait()

	return result, nil
}
