package delivery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/heatscape/heatscape-cli/internal/properties"
)

// RunReport summarises one finished retrieval. Every run appends a row
// to data/result/runs.csv so scenes stay comparable over time.
type RunReport struct {
	Scene              string  `csv:"scene"`
	FinishedAt         string  `csv:"finished_at"`
	Mode               string  `csv:"mode"`
	Width              int     `csv:"width"`
	Height             int     `csv:"height"`
	Retrieved          int     `csv:"retrieved"`
	MissingInput       int     `csv:"missing_input"`
	NoWaterVapour      int     `csv:"no_water_vapour"`
	OutOfRange         int     `csv:"out_of_range"`
	BadEmissivity      int     `csv:"bad_emissivity"`
	Fallback           int     `csv:"fallback"`
	CloudPixels        int     `csv:"cloud_pixels"`
	CalibrationDropped int     `csv:"calibration_dropped"`
	UnknownClasses     int     `csv:"unknown_classes"`
	WaterVapourFailed  int     `csv:"water_vapour_failed"`
	MeanLST            float64 `csv:"mean_lst"`
	MinLST             float64 `csv:"min_lst"`
	MaxLST             float64 `csv:"max_lst"`
	Unit               string  `csv:"unit"`
	Output             string  `csv:"output"`
	Quicklook          string  `csv:"quicklook"`
	Duration           string  `csv:"duration"`
}

func runLogPath() string {
	return filepath.Join(properties.RootPath(), "data", "result", "runs.csv")
}

func appendRunReport(report *RunReport) error {
	logPath := runLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result folder: %w", err)
	}

	var reports []RunReport
	if _, err := os.Stat(logPath); err == nil {
		file, err := os.Open(logPath)
		if err != nil {
			return fmt.Errorf("failed to open run log: %w", err)
		}
		if err := gocsv.UnmarshalFile(file, &reports); err != nil {
			file.Close()
			return fmt.Errorf("failed to read run log: %w", err)
		}
		file.Close()
	}
	reports = append(reports, *report)

	file, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&reports, file); err != nil {
		return fmt.Errorf("failed to save run log: %w", err)
	}
	return nil
}
