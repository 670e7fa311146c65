package delivery

import (
	"fmt"
	"path/filepath"

	"github.com/heatscape/heatscape-cli/internal/cloudmask"
	"github.com/heatscape/heatscape-cli/internal/cwv"
	"github.com/heatscape/heatscape-cli/internal/properties"
)

// ConfigurationError marks an input combination that can never produce
// a retrieval. It always aborts before any raster work starts; pixel
// level problems never use it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// RetrievalConfig describes one scene retrieval. The command line layer
// fills it and RetrieveLST consumes it as-is.
type RetrievalConfig struct {
	// Raw thermal input: both band rasters plus the MTL metadata
	// holding their rescaling and Planck constants.
	Band10Path string
	Band11Path string
	MTLPath    string

	// Precomputed input: brightness temperature rasters in kelvin.
	T10Path string
	T11Path string

	// Cloud masking, at most one source. A nil QACloudValue takes the
	// default cloud code; an explicit zero matches fill pixels.
	QAPath       string
	QACloudValue *float64
	CloudPath    string

	// Emissivity, exactly one source.
	LandCoverPath   string
	EmissivityClass string
	EmissivityPath  string
	DeltaPath       string
	NDVIPath        string

	// Optional GeoJSON area of interest cropping the scene.
	AOIPath string

	// Water vapour estimation window.
	Window         int
	MinWindowValid int

	WholeRangeFallback bool
	Celsius            bool
	Uncertainty        bool
	Quicklook          bool

	OutputPath string
}

func (c *RetrievalConfig) applyDefaults() {
	if c.Window == 0 {
		c.Window = cwv.DefaultWindow
	}
	if c.MinWindowValid == 0 {
		c.MinWindowValid = cwv.DefaultMinValid
	}
	if c.QACloudValue == nil {
		cloudValue := float64(cloudmask.DefaultQACloudValue)
		c.QACloudValue = &cloudValue
	}
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join(properties.RootPath(), "data", "result", "lst.tif")
	}
}

func (c *RetrievalConfig) validate() error {
	rawInput := c.Band10Path != "" || c.Band11Path != "" || c.MTLPath != ""
	precomputed := c.T10Path != "" || c.T11Path != ""
	switch {
	case rawInput && precomputed:
		return &ConfigurationError{Reason: "raw band inputs and brightness temperature inputs are mutually exclusive"}
	case rawInput && (c.Band10Path == "" || c.Band11Path == "" || c.MTLPath == ""):
		return &ConfigurationError{Reason: "raw input needs band 10, band 11 and the MTL metadata file"}
	case precomputed && (c.T10Path == "" || c.T11Path == ""):
		return &ConfigurationError{Reason: "brightness temperature input needs both bands"}
	case !rawInput && !precomputed:
		return &ConfigurationError{Reason: "no thermal input: give band 10/11 with MTL metadata, or precomputed brightness temperatures"}
	}

	if c.QAPath != "" && c.CloudPath != "" {
		return &ConfigurationError{Reason: "quality band matching and an external cloud raster are mutually exclusive"}
	}

	sources := 0
	if c.LandCoverPath != "" {
		sources++
	}
	if c.EmissivityClass != "" {
		sources++
	}
	if c.EmissivityPath != "" || c.DeltaPath != "" {
		if c.EmissivityPath == "" || c.DeltaPath == "" {
			return &ConfigurationError{Reason: "direct emissivity input needs both the average and the difference raster"}
		}
		sources++
	}
	if sources != 1 {
		return &ConfigurationError{Reason: "exactly one emissivity source: a land-cover raster, a fixed class, or direct emissivity rasters"}
	}
	if c.NDVIPath != "" && c.EmissivityPath != "" {
		return &ConfigurationError{Reason: "an NDVI raster has no effect with direct emissivity input"}
	}

	if c.Window < 3 || c.Window%2 == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("water vapour window must be odd and at least 3, got %d", c.Window)}
	}
	if c.MinWindowValid < 2 {
		return &ConfigurationError{Reason: fmt.Sprintf("water vapour window needs at least 2 valid samples, got %d", c.MinWindowValid)}
	}
	return nil
}
