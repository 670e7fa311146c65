package delivery

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heatscape/heatscape-cli/internal/cloudmask"
	"github.com/heatscape/heatscape-cli/internal/coefficients"
	"github.com/heatscape/heatscape-cli/internal/cwv"
	"github.com/heatscape/heatscape-cli/internal/emissivity"
	"github.com/heatscape/heatscape-cli/internal/landsat"
	"github.com/heatscape/heatscape-cli/internal/lst"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/heatscape/heatscape-cli/output"
)

const noDataValue = -9999

type sceneInputs struct {
	t10        *raster.Grid
	t11        *raster.Grid
	georef     raster.Georef
	qa         *raster.Grid
	cloud      *raster.Grid
	landCover  *raster.Grid
	ndvi       *raster.Grid
	average    *raster.Grid
	difference *raster.Grid
	metadata   map[string]string
	scene      string
}

// RetrieveLST runs one scene end to end: load, calibrate, mask, derive
// emissivity, estimate water vapour, solve the split-window equation
// and write the surface temperature raster next to its report entry.
func RetrieveLST(cfg RetrievalConfig) (*RunReport, error) {
	start := time.Now()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	legend, err := emissivity.LoadLegend()
	if err != nil {
		return nil, err
	}
	table, err := coefficients.Load()
	if err != nil {
		return nil, err
	}

	var fixedClass emissivity.Class
	if cfg.EmissivityClass != "" {
		fixedClass, err = legend.ByName(cfg.EmissivityClass)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
	}

	stepStart := time.Now()
	in, err := loadInputs(cfg)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Loading rasters took %v\n", time.Since(stepStart))

	report := &RunReport{
		Scene:      in.scene,
		FinishedAt: time.Now().Format(time.RFC3339),
		Width:      in.t10.Width,
		Height:     in.t10.Height,
		Output:     cfg.OutputPath,
	}

	t10, t11 := in.t10, in.t11
	if cfg.MTLPath != "" {
		report.Mode = "raw"
		stepStart = time.Now()
		cal10, cal11, err := landsat.ThermalCalibrations(in.metadata)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		if err := cal10.Validate(); err != nil {
			return nil, &ConfigurationError{Reason: "band 10: " + err.Error()}
		}
		if err := cal11.Validate(); err != nil {
			return nil, &ConfigurationError{Reason: "band 11: " + err.Error()}
		}
		var dropped10, dropped11 int
		t10, dropped10 = landsat.CalibrateGrid(t10, cal10)
		t11, dropped11 = landsat.CalibrateGrid(t11, cal11)
		report.CalibrationDropped = dropped10 + dropped11
		fmt.Printf("Calibration took %v\n", time.Since(stepStart))
	} else {
		report.Mode = "brightness"
	}

	if in.qa != nil || in.cloud != nil {
		var mask *cloudmask.Mask
		if in.qa != nil {
			mask = cloudmask.FromQA(in.qa, *cfg.QACloudValue)
		} else {
			mask = cloudmask.FromBinary(in.cloud)
		}
		mask.Apply(t10)
		mask.Apply(t11)
		report.CloudPixels = mask.CloudCount()
		fmt.Printf("Masked %d cloud pixels\n", report.CloudPixels)
	}

	var source emissivity.Source
	switch {
	case cfg.LandCoverPath != "":
		source = emissivity.PerPixel(in.landCover, in.ndvi)
	case cfg.EmissivityClass != "":
		source = emissivity.FixedClass(fixedClass, in.ndvi)
	default:
		source = emissivity.Direct(in.average, in.difference)
	}
	stepStart = time.Now()
	emResult, err := emissivity.NewModel(legend, source).Derive(t10.Width, t10.Height)
	if err != nil {
		return nil, err
	}
	report.UnknownClasses = emResult.UnknownClasses
	fmt.Printf("Emissivity took %v\n", time.Since(stepStart))

	estimator, err := cwv.NewEstimator(cfg.Window, cfg.MinWindowValid)
	if err != nil {
		return nil, err
	}
	stepStart = time.Now()
	waterVapour, failedWindows, err := estimator.Estimate(t10, t11)
	if err != nil {
		return nil, err
	}
	report.WaterVapourFailed = failedWindows
	fmt.Printf("Water vapour took %v\n", time.Since(stepStart))

	stepStart = time.Now()
	result, err := lst.Retrieve(t10, t11, emResult.Average, emResult.Difference, waterVapour, table, lst.Options{
		WholeRangeFallback: cfg.WholeRangeFallback,
		Celsius:            cfg.Celsius,
		Uncertainty:        cfg.Uncertainty,
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("Split-window retrieval took %v\n", time.Since(stepStart))

	report.Retrieved = result.Stats.Retrieved
	report.MissingInput = result.Stats.MissingInput
	report.NoWaterVapour = result.Stats.NoWaterVapour
	report.OutOfRange = result.Stats.OutOfRange
	report.BadEmissivity = result.Stats.BadEmissivity
	report.Fallback = result.Stats.Fallback
	report.Unit = "K"
	if cfg.Celsius {
		report.Unit = "C"
	}
	report.MeanLST, report.MinLST, report.MaxLST = gridSummary(result.LST)

	if err := raster.WriteGeoTIFF(cfg.OutputPath, result.LST, in.georef, noDataValue); err != nil {
		return nil, err
	}
	fmt.Println("Surface temperature written to", cfg.OutputPath)

	if cfg.Uncertainty {
		rmsePath := strings.TrimSuffix(cfg.OutputPath, filepath.Ext(cfg.OutputPath)) + "_rmse.tif"
		if err := raster.WriteGeoTIFF(rmsePath, result.Uncertainty, in.georef, noDataValue); err != nil {
			return nil, err
		}
		fmt.Println("Retrieval uncertainty written to", rmsePath)
	}

	if cfg.Quicklook {
		pngPath := strings.TrimSuffix(cfg.OutputPath, filepath.Ext(cfg.OutputPath)) + ".png"
		if err := output.RenderQuicklook(pngPath, result.LST, report.Unit); err != nil {
			return nil, err
		}
		report.Quicklook = pngPath
		fmt.Println("Quicklook written to", pngPath)
	}

	report.Duration = time.Since(start).Round(time.Millisecond).String()
	if err := appendRunReport(report); err != nil {
		fmt.Printf("Failed to append run report: %s\n", err.Error())
	}
	fmt.Printf("Total retrieval time: %v\n", time.Since(start))
	return report, nil
}

// loadInputs opens every configured raster, verifies it shares the
// thermal grid and crops everything to the area of interest. The two
// thermal bands come back as read, digital numbers or kelvin.
func loadInputs(cfg RetrievalConfig) (*sceneInputs, error) {
	referencePath := cfg.Band10Path
	secondPath := cfg.Band11Path
	if referencePath == "" {
		referencePath = cfg.T10Path
		secondPath = cfg.T11Path
	}

	reference, georef, err := raster.LoadBand(referencePath, 1)
	if err != nil {
		return nil, err
	}
	fullWidth, fullHeight := reference.Width, reference.Height

	window := raster.FullWindow(fullWidth, fullHeight)
	if cfg.AOIPath != "" {
		window, err = raster.WindowFromAOI(cfg.AOIPath, georef, fullWidth, fullHeight)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Area of interest clipped to %dx%d pixels at (%d,%d)\n", window.Width, window.Height, window.X, window.Y)
	}

	in := &sceneInputs{
		t10:    reference.Crop(window),
		georef: georef.Crop(window),
		scene:  strings.TrimSuffix(filepath.Base(referencePath), filepath.Ext(referencePath)),
	}

	loadAligned := func(path string, dst **raster.Grid) func() error {
		return func() error {
			grid, _, err := raster.LoadBand(path, 1)
			if err != nil {
				return err
			}
			if grid.Width != fullWidth || grid.Height != fullHeight {
				return &ConfigurationError{Reason: fmt.Sprintf("%s is %dx%d, the thermal reference band is %dx%d",
					filepath.Base(path), grid.Width, grid.Height, fullWidth, fullHeight)}
			}
			*dst = grid.Crop(window)
			return nil
		}
	}

	g := new(errgroup.Group)
	g.Go(loadAligned(secondPath, &in.t11))
	if cfg.QAPath != "" {
		g.Go(loadAligned(cfg.QAPath, &in.qa))
	}
	if cfg.CloudPath != "" {
		g.Go(loadAligned(cfg.CloudPath, &in.cloud))
	}
	if cfg.LandCoverPath != "" {
		g.Go(loadAligned(cfg.LandCoverPath, &in.landCover))
	}
	if cfg.NDVIPath != "" {
		g.Go(loadAligned(cfg.NDVIPath, &in.ndvi))
	}
	if cfg.EmissivityPath != "" {
		g.Go(loadAligned(cfg.EmissivityPath, &in.average))
		g.Go(loadAligned(cfg.DeltaPath, &in.difference))
	}
	if cfg.MTLPath != "" {
		g.Go(func() error {
			metadata, err := landsat.ParseMTL(cfg.MTLPath)
			if err != nil {
				return err
			}
			in.metadata = metadata
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if in.metadata != nil {
		for _, key := range []string{"LANDSAT_PRODUCT_ID", "LANDSAT_SCENE_ID"} {
			if id, ok := in.metadata[key]; ok {
				in.scene = id
				break
			}
		}
	}
	return in, nil
}

func gridSummary(grid *raster.Grid) (mean, min, max float64) {
	count := 0
	for i, value := range grid.Values {
		if !grid.Valid[i] {
			continue
		}
		if count == 0 || value < min {
			min = value
		}
		if count == 0 || value > max {
			max = value
		}
		mean += value
		count++
	}
	if count == 0 {
		return 0, 0, 0
	}
	return mean / float64(count), min, max
}
