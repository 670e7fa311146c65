package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/heatscape/heatscape-cli/internal/landsat"
	"github.com/heatscape/heatscape-cli/internal/properties"
	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/joho/godotenv"
)

func main() {
	// Hardcoded test parameters - modify these to test different scenarios
	aoiName := "test_city"
	to := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	from := to.AddDate(0, 0, -16)

	fmt.Println("=== Heatscape Test Scene Download ===")
	fmt.Printf("AOI: %s\n", aoiName)
	fmt.Printf("Period: %s to %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load("../../.env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
		fmt.Println("Make sure you have set the required environment variables:")
		fmt.Println("- SH_CLIENT_ID")
		fmt.Println("- SH_CLIENT_SECRET")
		fmt.Println("- HEATSCAPE_ROOT_PATH")
		fmt.Println()
	}

	// Set HEATSCAPE_ROOT_PATH if not already set
	if os.Getenv("HEATSCAPE_ROOT_PATH") == "" {
		rootPath, _ := os.Getwd()
		os.Setenv("HEATSCAPE_ROOT_PATH", rootPath)
		fmt.Printf("Setting HEATSCAPE_ROOT_PATH to: %s\n", rootPath)
	}

	// Initialize GDAL
	godal.RegisterAll()

	aoiPath := filepath.Join(properties.RootPath(), "data", "geojsons", aoiName+".geojson")
	fmt.Printf("Using area of interest %s...\n", aoiPath)

	bundle, err := landsat.FetchScene(context.Background(), aoiPath, from, to)
	if err != nil {
		log.Fatalf("Failed to fetch scene: %v", err)
	}
	fmt.Println("✓ Scene fetched successfully")

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Scene folder: %s\n", bundle.Dir)

	for _, bandPath := range []string{bundle.T10Path, bundle.T11Path, bundle.QAPath} {
		grid, georef, err := raster.LoadBand(bandPath, 1)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", bandPath, err)
		}
		fmt.Printf("- %s", filepath.Base(bandPath))
		fmt.Printf(" (size: %dx%d)", grid.Width, grid.Height)
		fmt.Printf(" (valid pixels: %d)", grid.ValidCount())
		fmt.Printf(" (origin: %.6f, %.6f)", georef.GeoTransform[0], georef.GeoTransform[3])
		fmt.Println()
	}

	// Check if any files exist in the directory
	if entries, err := os.ReadDir(bundle.Dir); err == nil {
		fmt.Printf("Files in directory: %d\n", len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				fmt.Printf("- %s\n", entry.Name())
			}
		}
	}

	fmt.Println("\n✓ Test completed successfully!")
}
