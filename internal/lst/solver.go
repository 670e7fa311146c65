// Package lst solves the split-window land surface temperature
// equation over calibrated thermal scenes.
package lst

import (
	"errors"
	"fmt"

	"github.com/heatscape/heatscape-cli/internal/coefficients"
)

// InvalidEmissivityError reports a pixel whose emissivity cannot enter
// the split-window equation.
type InvalidEmissivityError struct {
	Emissivity float64
}

func (e *InvalidEmissivityError) Error() string {
	return fmt.Sprintf("emissivity %g is outside the physical range (0, 1]", e.Emissivity)
}

// Solve evaluates the split-window equation for one pixel:
//
//	LST = b0 + (b1 + b2*(1-e)/e + b3*de/e^2) * (t10+t11)/2
//	         + (b4 + b5*(1-e)/e + b6*de/e^2) * (t10-t11)/2
//	         + b7 * (t10-t11)^2
//
// where e is the band-mean emissivity and de the band difference. With
// more than one applicable coefficient set the results are averaged.
func Solve(t10, t11, emissivity, difference float64, sets []coefficients.Set) (float64, error) {
	if len(sets) == 0 {
		return 0, errors.New("no coefficient sets to solve with")
	}
	if emissivity <= 0 || emissivity > 1 {
		return 0, &InvalidEmissivityError{Emissivity: emissivity}
	}

	mean := (t10 + t11) / 2
	halfDiff := (t10 - t11) / 2
	ratio := (1 - emissivity) / emissivity
	delta := difference / (emissivity * emissivity)

	sum := 0.0
	for _, s := range sets {
		sum += s.B0 +
			(s.B1+s.B2*ratio+s.B3*delta)*mean +
			(s.B4+s.B5*ratio+s.B6*delta)*halfDiff +
			s.B7*(t10-t11)*(t10-t11)
	}
	return sum / float64(len(sets)), nil
}

// Uncertainty is the mean regression error of the sets a pixel was
// solved with, in kelvin.
func Uncertainty(sets []coefficients.Set) float64 {
	if len(sets) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range sets {
		sum += s.RMSE
	}
	return sum / float64(len(sets))
}
