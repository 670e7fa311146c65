package landsat

import (
	"fmt"
	"math"

	"github.com/heatscape/heatscape-cli/internal/raster"
)

// Calibration rescales one thermal band from raw digital numbers to
// top-of-atmosphere radiance and converts radiance to at-sensor
// brightness temperature through the band's Planck constants.
type Calibration struct {
	Mult float64
	Add  float64
	K1   float64
	K2   float64
}

// CalibrationError reports a sample that cannot be converted to a
// physical temperature.
type CalibrationError struct {
	DN       float64
	Radiance float64
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("digital number %g rescales to non-positive radiance %g", e.DN, e.Radiance)
}

// Validate rejects constants that can never produce a temperature.
func (c Calibration) Validate() error {
	if c.K1 <= 0 || c.K2 <= 0 {
		return fmt.Errorf("thermal constants must be positive, got k1=%g k2=%g", c.K1, c.K2)
	}
	if c.Mult <= 0 {
		return fmt.Errorf("radiance rescaling gain must be positive, got %g", c.Mult)
	}
	return nil
}

func (c Calibration) Radiance(dn float64) float64 {
	return c.Mult*dn + c.Add
}

// BrightnessTemperature converts one digital number to kelvin.
func (c Calibration) BrightnessTemperature(dn float64) (float64, error) {
	radiance := c.Radiance(dn)
	if radiance <= 0 {
		return 0, &CalibrationError{DN: dn, Radiance: radiance}
	}
	return c.K2 / math.Log(c.K1/radiance+1), nil
}

// RadianceForTemperature inverts the Planck conversion.
func (c Calibration) RadianceForTemperature(kelvin float64) float64 {
	return c.K1 / math.Expm1(c.K2/kelvin)
}

// CalibrateGrid converts a whole band of digital numbers to brightness
// temperature. Samples that rescale to non-positive radiance are
// flagged invalid and counted instead of failing the scene.
func CalibrateGrid(dn *raster.Grid, cal Calibration) (*raster.Grid, int) {
	out := raster.NewGrid(dn.Width, dn.Height)
	dropped := 0
	for i, v := range dn.Values {
		if !dn.Valid[i] {
			out.Values[i] = math.NaN()
			continue
		}
		radiance := cal.Mult*v + cal.Add
		if radiance <= 0 {
			out.Values[i] = math.NaN()
			dropped++
			continue
		}
		out.Values[i] = cal.K2 / math.Log(cal.K1/radiance+1)
		out.Valid[i] = true
	}
	return out, dropped
}
