package landsat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/heatscape/heatscape-cli/internal/cache"
	"github.com/heatscape/heatscape-cli/internal/properties"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2/clientcredentials"
)

// SceneBundle points at the single-band rasters split out of one
// downloaded acquisition, ready to feed a retrieval in brightness
// temperature mode.
type SceneBundle struct {
	Dir     string `json:"dir"`
	T10Path string `json:"t10_path"`
	T11Path string `json:"t11_path"`
	QAPath  string `json:"qa_path"`
	From    string `json:"from"`
	To      string `json:"to"`
}

const sceneResolution = 30 // metres per Landsat thermal pixel after resampling

const sceneEvalscript = `
    //VERSION=3
    function setup() {
      return {
        input: ["B10", "B11", "BQA"],
        output: {
          id: "default",
          bands: 3,
          sampleType: SampleType.FLOAT32,
        },
      }
    }

    function evaluatePixel(sample) {
      return [sample.B10, sample.B11, sample.BQA];
    }
  `

// FetchScene downloads the two thermal bands and the quality band for
// an area of interest from the process API, splitting them into
// single-band GeoTIFFs. A bundle already on disk for the same request
// is reused instead of hitting the network again.
func FetchScene(ctx context.Context, aoiPath string, from, to time.Time) (*SceneBundle, error) {
	aoiData, err := os.ReadFile(aoiPath)
	if err != nil {
		return nil, fmt.Errorf("reading area of interest: %w", err)
	}
	geometry, err := aoiGeometry(aoiData)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", aoiPath, err)
	}

	scenes := cache.NewFileCache[SceneBundle]("scenes")
	key := scenes.GenerateKey(string(aoiData), from.Format(time.RFC3339), to.Format(time.RFC3339))
	if bundle, ok := scenes.Get(key); ok && bundleOnDisk(&bundle) {
		fmt.Println("Scene already downloaded, reusing", bundle.Dir)
		return &bundle, nil
	}

	payload, err := requestPayload(geometry, from, to)
	if err != nil {
		return nil, err
	}
	imageData, err := requestScene(ctx, payload)
	if err != nil {
		return nil, err
	}

	bundleDir := filepath.Join(properties.RootPath(), "data", "scenes", key[:12])
	if err := os.MkdirAll(bundleDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating scene directory: %w", err)
	}
	rawPath := filepath.Join(bundleDir, "scene.tif")
	if err := os.WriteFile(rawPath, imageData, 0644); err != nil {
		return nil, fmt.Errorf("writing scene: %w", err)
	}

	bundle := &SceneBundle{
		Dir:     bundleDir,
		T10Path: filepath.Join(bundleDir, "T10.tif"),
		T11Path: filepath.Join(bundleDir, "T11.tif"),
		QAPath:  filepath.Join(bundleDir, "QA.tif"),
		From:    from.Format(time.RFC3339),
		To:      to.Format(time.RFC3339),
	}
	for band, path := range map[int]string{1: bundle.T10Path, 2: bundle.T11Path, 3: bundle.QAPath} {
		grid, georef, err := raster.LoadBand(rawPath, band)
		if err != nil {
			return nil, fmt.Errorf("splitting scene band %d: %w", band, err)
		}
		if err := raster.WriteGeoTIFF(path, grid, georef, -9999); err != nil {
			return nil, err
		}
	}

	if err := scenes.Set(key, *bundle); err != nil {
		fmt.Printf("Could not record scene manifest: %v\n", err)
	}
	return bundle, nil
}

func aoiGeometry(data []byte) (orb.Geometry, error) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		return fc.Features[0].Geometry, nil
	}
	if feature, err := geojson.UnmarshalFeature(data); err == nil {
		return feature.Geometry, nil
	}
	geometry, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	return geometry.Geometry(), nil
}

func bundleOnDisk(bundle *SceneBundle) bool {
	for _, path := range []string{bundle.T10Path, bundle.T11Path, bundle.QAPath} {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// scenePixels sizes the output by measuring the bound in metres on the
// ground, clamped to the API's allowed range.
func scenePixels(bound orb.Bound) (int, int) {
	midLat := (bound.Min[1] + bound.Max[1]) / 2
	widthMetres := geo.Distance(orb.Point{bound.Min[0], midLat}, orb.Point{bound.Max[0], midLat})
	heightMetres := geo.Distance(orb.Point{bound.Min[0], bound.Min[1]}, orb.Point{bound.Min[0], bound.Max[1]})

	clamp := func(metres float64) int {
		pixels := int(math.Round(metres / sceneResolution))
		if pixels < 1 {
			return 1
		}
		if pixels > 2500 {
			return 2500
		}
		return pixels
	}
	return clamp(widthMetres), clamp(heightMetres)
}

func requestPayload(geometry orb.Geometry, from, to time.Time) ([]byte, error) {
	width, height := scenePixels(geometry.Bound())

	payload := map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"geometry": geojson.NewGeometry(geometry),
			},
			"data": []map[string]interface{}{
				{
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": from.Format(time.RFC3339),
							"to":   to.Format(time.RFC3339),
						},
					},
					"type": "landsat-ot-l1",
				},
			},
		},
		"output": map[string]interface{}{
			"width":  width,
			"height": height,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format": map[string]string{
						"type": "image/tiff",
					},
				},
			},
		},
		"evalscript": sceneEvalscript,
		"mosaicking": "mostRecent",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling process request: %w", err)
	}
	return body, nil
}

func requestScene(ctx context.Context, body []byte) ([]byte, error) {
	clientID := properties.SentinelHubClientID()
	clientSecret := properties.SentinelHubClientSecret()
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing required environment variables: SH_CLIENT_ID or SH_CLIENT_SECRET")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     properties.SentinelHubTokenURL(),
	}
	httpClient := config.Client(ctx)

	retries := 10
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		response, err := httpClient.Post(properties.SentinelHubProcessURL(), "application/json", bytes.NewBuffer(body))
		if err != nil {
			lastErr = err
			fmt.Printf("Attempt %d failed: %v\n", attempt, err)
			time.Sleep(5 * time.Second)
			continue
		}
		content, err := io.ReadAll(response.Body)
		response.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if response.StatusCode == http.StatusOK {
			return content, nil
		}
		if response.StatusCode == http.StatusForbidden || response.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("unauthorized access, check your client ID and secret")
		}
		lastErr = fmt.Errorf("process API returned %d: %s", response.StatusCode, content)
		fmt.Printf("Attempt %d failed: %s\n", attempt, content)
		time.Sleep(5 * time.Second)
	}
	return nil, fmt.Errorf("failed to request scene after %d attempts: %w", retries, lastErr)
}
