package raster

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
)

func gdalErrors(ec godal.ErrorCategory, code int, msg string) error {
	if ec <= godal.CE_Warning {
		return nil
	}
	return fmt.Errorf("gdal: %s", msg)
}

// LoadBand reads one band of a raster file into a Grid. Pixels equal to
// the file's no-data value come back flagged invalid. Band numbering
// starts at 1, following GDAL.
func LoadBand(path string, band int) (*Grid, Georef, error) {
	dataset, err := godal.Open(path, godal.ErrLogger(gdalErrors))
	if err != nil {
		return nil, Georef{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer dataset.Close()

	bands := dataset.Bands()
	if band < 1 || band > len(bands) {
		return nil, Georef{}, fmt.Errorf("%s has %d bands, no band %d", path, len(bands), band)
	}

	structure := dataset.Structure()
	width, height := structure.SizeX, structure.SizeY
	values := make([]float64, width*height)
	if err := bands[band-1].Read(0, 0, values, width, height); err != nil {
		return nil, Georef{}, fmt.Errorf("reading band %d of %s: %w", band, path, err)
	}

	grid := &Grid{Width: width, Height: height, Values: values, Valid: make([]bool, len(values))}
	nodata, hasNodata := bands[band-1].NoData()
	for i, v := range values {
		if math.IsNaN(v) || (hasNodata && v == nodata) {
			grid.Values[i] = math.NaN()
			continue
		}
		grid.Valid[i] = true
	}

	georef := Georef{}
	if gt, err := dataset.GeoTransform(); err == nil {
		georef.GeoTransform = gt
	}
	if sr := dataset.SpatialRef(); sr != nil {
		if wkt, err := sr.WKT(); err == nil {
			georef.ProjectionWKT = wkt
		}
	}
	return grid, georef, nil
}

// WriteGeoTIFF stores a grid as a single-band float32 GeoTIFF. Invalid
// pixels are written as the no-data value and the band is tagged with
// it so downstream tools mask them again.
func WriteGeoTIFF(path string, grid *Grid, georef Georef, nodata float64) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	dataset, err := godal.Create(godal.GTiff, path, 1, godal.Float32, grid.Width, grid.Height,
		godal.ErrLogger(gdalErrors))
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if georef.GeoTransform != ([6]float64{}) {
		if err := dataset.SetGeoTransform(georef.GeoTransform); err != nil {
			dataset.Close()
			return fmt.Errorf("georeferencing %s: %w", path, err)
		}
	}
	if georef.ProjectionWKT != "" {
		sr, err := godal.NewSpatialRefFromWKT(georef.ProjectionWKT)
		if err == nil {
			err = dataset.SetSpatialRef(sr)
			sr.Close()
		}
		if err != nil {
			dataset.Close()
			return fmt.Errorf("georeferencing %s: %w", path, err)
		}
	}

	band := dataset.Bands()[0]
	if err := band.SetNoData(nodata); err != nil {
		dataset.Close()
		return fmt.Errorf("tagging no-data on %s: %w", path, err)
	}
	buffer := make([]float64, len(grid.Values))
	for i, v := range grid.Values {
		if grid.Valid[i] {
			buffer[i] = v
		} else {
			buffer[i] = nodata
		}
	}
	if err := band.Write(0, 0, buffer, grid.Width, grid.Height); err != nil {
		dataset.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return dataset.Close()
}
