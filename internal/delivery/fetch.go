package delivery

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/heatscape/heatscape-cli/internal/landsat"
)

// FetchConfig describes a scene download: an area of interest and the
// acquisition period to search.
type FetchConfig struct {
	AOIPath string
	From    time.Time
	To      time.Time
}

func (c *FetchConfig) validate() error {
	if c.AOIPath == "" {
		return &ConfigurationError{Reason: "fetching a scene needs a GeoJSON area of interest"}
	}
	if _, err := os.Stat(c.AOIPath); err != nil {
		return &ConfigurationError{Reason: fmt.Sprintf("area of interest %s is not readable", c.AOIPath)}
	}
	if c.From.IsZero() || c.To.IsZero() {
		return &ConfigurationError{Reason: "fetching a scene needs a from and a to date"}
	}
	if c.To.Before(c.From) {
		return &ConfigurationError{Reason: "the to date precedes the from date"}
	}
	return nil
}

// FetchScene downloads the most recent cloud-sorted Landsat acquisition
// covering the area of interest and splits it into the three rasters a
// retrieval takes: both thermal bands in kelvin plus the quality band.
func FetchScene(cfg FetchConfig) (*landsat.SceneBundle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bundle, err := landsat.FetchScene(context.Background(), cfg.AOIPath, cfg.From, cfg.To)
	if err != nil {
		return nil, err
	}
	fmt.Printf("FetchScene took %v\n", time.Since(start))
	return bundle, nil
}
