package raster

import (
	"fmt"
	"math"
	"os"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// AOIBound reads a GeoJSON file and returns the WGS84 bounding box of
// everything in it. Feature collections, single features and bare
// geometries are all accepted.
func AOIBound(path string) (orb.Bound, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("reading area of interest: %w", err)
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		bound := fc.Features[0].Geometry.Bound()
		for _, feature := range fc.Features[1:] {
			bound = bound.Union(feature.Geometry.Bound())
		}
		return bound, nil
	}
	if feature, err := geojson.UnmarshalFeature(data); err == nil {
		return feature.Geometry.Bound(), nil
	}
	geometry, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return geometry.Geometry().Bound(), nil
}

// WindowFromAOI intersects a WGS84 area of interest with a scene
// footprint and returns the pixel window covering the intersection.
// The AOI corners are reprojected into the scene's reference system
// before the inverse geotransform is applied.
func WindowFromAOI(aoiPath string, georef Georef, width, height int) (Window, error) {
	bound, err := AOIBound(aoiPath)
	if err != nil {
		return Window{}, err
	}
	if georef.ProjectionWKT == "" {
		return Window{}, fmt.Errorf("scene carries no projection, cannot place %s", aoiPath)
	}

	src, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return Window{}, fmt.Errorf("building WGS84 reference: %w", err)
	}
	defer src.Close()
	dst, err := godal.NewSpatialRefFromWKT(georef.ProjectionWKT)
	if err != nil {
		return Window{}, fmt.Errorf("parsing scene projection: %w", err)
	}
	defer dst.Close()
	transform, err := godal.NewTransform(src, dst)
	if err != nil {
		return Window{}, fmt.Errorf("building reprojection: %w", err)
	}
	defer transform.Close()

	xs := []float64{bound.Min[0], bound.Max[0], bound.Min[0], bound.Max[0]}
	ys := []float64{bound.Min[1], bound.Min[1], bound.Max[1], bound.Max[1]}
	if err := transform.TransformEx(xs, ys, nil, nil); err != nil {
		return Window{}, fmt.Errorf("reprojecting area of interest: %w", err)
	}

	return pixelWindow(georef.GeoTransform, xs, ys, width, height)
}

// pixelWindow maps projected corner coordinates through the inverse
// geotransform and clips the hull to the scene. North-up scenes only.
func pixelWindow(gt [6]float64, xs, ys []float64, width, height int) (Window, error) {
	if gt[1] == 0 || gt[5] == 0 {
		return Window{}, fmt.Errorf("scene has no usable geotransform")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range xs {
		px := (xs[i] - gt[0]) / gt[1]
		py := (ys[i] - gt[3]) / gt[5]
		minX = math.Min(minX, px)
		maxX = math.Max(maxX, px)
		minY = math.Min(minY, py)
		maxY = math.Max(maxY, py)
	}

	x0 := int(math.Floor(minX))
	y0 := int(math.Floor(minY))
	x1 := int(math.Ceil(maxX))
	y1 := int(math.Ceil(maxY))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > width {
		x1 = width
	}
	if y1 > height {
		y1 = height
	}
	if x1 <= x0 || y1 <= y0 {
		return Window{}, fmt.Errorf("area of interest does not intersect the scene footprint")
	}
	return Window{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}
