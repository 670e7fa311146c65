package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/heatscape/heatscape-cli/internal/cloudmask"
	"github.com/heatscape/heatscape-cli/internal/coefficients"
	"github.com/heatscape/heatscape-cli/internal/delivery"
	"github.com/heatscape/heatscape-cli/internal/emissivity"
	"github.com/heatscape/heatscape-cli/internal/notification"
	"github.com/heatscape/heatscape-cli/internal/utils"
	"github.com/joho/godotenv"
)

func printBanner() {
	// Print the banner with go-figure
	figure1 := figure.NewFigure("Heatscape", "isometric1", true)
	figure2 := figure.NewFigure("CLI", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

var commandHelp = map[string]string{
	"retrieve": "solve land surface temperature for a Landsat scene",
	"fetch":    "download the most recent scene covering an area of interest",
	"info":     "print the coefficient table, the legend and the defaults",
}

func usage() {
	fmt.Println("Usage: heatscape <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, name := range utils.SortedKeys(commandHelp) {
		fmt.Printf("  %-10s %s\n", name, commandHelp[name])
	}
	fmt.Println()
	fmt.Println("Run 'heatscape <command> -h' for the command's flags.")
}

func runRetrieve(args []string) error {
	flags := flag.NewFlagSet("retrieve", flag.ExitOnError)
	cfg := delivery.RetrievalConfig{}
	flags.StringVar(&cfg.Band10Path, "b10", "", "band 10 digital number raster")
	flags.StringVar(&cfg.Band11Path, "b11", "", "band 11 digital number raster")
	flags.StringVar(&cfg.MTLPath, "mtl", "", "MTL metadata file for the raw bands")
	flags.StringVar(&cfg.T10Path, "t10", "", "band 10 brightness temperature raster, kelvin")
	flags.StringVar(&cfg.T11Path, "t11", "", "band 11 brightness temperature raster, kelvin")
	flags.StringVar(&cfg.QAPath, "qa", "", "quality band raster for cloud masking")
	cfg.QACloudValue = flags.Float64("qa-value", cloudmask.DefaultQACloudValue, "quality band value marking clouds")
	flags.StringVar(&cfg.CloudPath, "clouds", "", "external cloud raster, non-zero marks clouds")
	flags.StringVar(&cfg.LandCoverPath, "landcover", "", "land-cover class raster")
	flags.StringVar(&cfg.EmissivityClass, "class", "", "fixed land-cover class for the whole scene")
	flags.StringVar(&cfg.EmissivityPath, "emissivity", "", "mean emissivity raster")
	flags.StringVar(&cfg.DeltaPath, "delta", "", "emissivity band difference raster")
	flags.StringVar(&cfg.NDVIPath, "ndvi", "", "NDVI raster refining vegetated classes")
	flags.StringVar(&cfg.AOIPath, "aoi", "", "GeoJSON area of interest clipping the scene")
	flags.IntVar(&cfg.Window, "window", 0, "water vapour estimation window size (default 7)")
	flags.IntVar(&cfg.MinWindowValid, "min-window", 0, "minimum valid pixel pairs per window (default 2)")
	flags.BoolVar(&cfg.WholeRangeFallback, "average-coefficients", false, "solve pixels without usable water vapour with the whole-range set")
	flags.BoolVar(&cfg.Celsius, "celsius", false, "write temperatures in celsius instead of kelvin")
	flags.BoolVar(&cfg.Uncertainty, "rmse", false, "also write the retrieval uncertainty raster")
	flags.BoolVar(&cfg.Quicklook, "quicklook", false, "also render a PNG quicklook")
	flags.StringVar(&cfg.OutputPath, "out", "", "output GeoTIFF path (default data/result/lst.tif)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	report, err := delivery.RetrieveLST(cfg)
	if err != nil {
		return err
	}

	total := report.Width * report.Height
	fmt.Printf("\n\033[32mRetrieval finished for scene %s\033[0m\n", report.Scene)
	fmt.Printf("\033[32mRetrieved %d of %d pixels (%.1f%%)\033[0m\n", report.Retrieved, total, 100*float64(report.Retrieved)/float64(total))
	fmt.Printf("\033[32mSurface temperature: mean %.2f %s, min %.2f, max %.2f\033[0m\n", report.MeanLST, report.Unit, report.MinLST, report.MaxLST)
	fmt.Printf("\033[32mResult located at: %s\033[0m\n", report.Output)

	message := fmt.Sprintf("Heatscape CLI\n\nRetrieval finished for scene %s\nRetrieved %d of %d pixels\nMean surface temperature: %.2f %s\nResult: %s",
		report.Scene, report.Retrieved, total, report.MeanLST, report.Unit, report.Output)
	if err := notification.SendDiscordSuccessNotification(message); err != nil {
		fmt.Printf("\033[33mFailed to send notification: %s\033[0m\n", err.Error())
	}
	return nil
}

func runFetch(args []string) error {
	flags := flag.NewFlagSet("fetch", flag.ExitOnError)
	var aoiPath, fromArg, toArg string
	flags.StringVar(&aoiPath, "aoi", "", "GeoJSON area of interest to search")
	flags.StringVar(&fromArg, "from", "", "start of the acquisition period, YYYY-MM-DD (default 30 days before -to)")
	flags.StringVar(&toArg, "to", "", "end of the acquisition period, YYYY-MM-DD (default today)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	if toArg != "" {
		parsed, err := time.Parse("2006-01-02", toArg)
		if err != nil {
			return fmt.Errorf("invalid -to date %q: %w", toArg, err)
		}
		to = parsed
	}
	from := to.AddDate(0, 0, -30)
	if fromArg != "" {
		parsed, err := time.Parse("2006-01-02", fromArg)
		if err != nil {
			return fmt.Errorf("invalid -from date %q: %w", fromArg, err)
		}
		from = parsed
	}

	fmt.Printf("Searching acquisitions from %s to %s\n", from.Format("2006-01-02"), to.Format("2006-01-02"))
	bundle, err := delivery.FetchScene(delivery.FetchConfig{AOIPath: aoiPath, From: from, To: to})
	if err != nil {
		return err
	}

	fmt.Printf("\n\033[32mScene downloaded to %s\033[0m\n", bundle.Dir)
	fmt.Printf("\033[32mRetrieve it with:\033[0m\n")
	fmt.Printf("\033[32m  heatscape retrieve -t10 %s -t11 %s -qa %s -landcover <raster>\033[0m\n", bundle.T10Path, bundle.T11Path, bundle.QAPath)
	return nil
}

func runInfo(args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}

	table, err := coefficients.Load()
	if err != nil {
		return err
	}
	legend, err := emissivity.LoadLegend()
	if err != nil {
		return err
	}

	fmt.Println("Split-window retrieval:")
	fmt.Println("  LST = b0 + (b1 + b2*(1-e)/e + b3*de/e^2) * (T10+T11)/2")
	fmt.Println("           + (b4 + b5*(1-e)/e + b6*de/e^2) * (T10-T11)/2")
	fmt.Println("           + b7 * (T10-T11)^2")
	fmt.Println()

	fmt.Println("Citation:")
	fmt.Println("  " + coefficients.Citation)
	fmt.Println()

	fmt.Println("Coefficient sets by column water vapour (g/cm2):")
	for _, set := range table.Subranges() {
		fmt.Printf("  %-8s [%.1f, %.1f)  b0..b7 = %.5f %.5f %.5f %.5f %.5f %.5f %.5f %.5f  rmse %.2f K\n",
			set.Key, set.Low, set.High, set.B0, set.B1, set.B2, set.B3, set.B4, set.B5, set.B6, set.B7, set.RMSE)
	}
	if average, ok := table.Average(); ok {
		fmt.Printf("  %-8s whole range  b0..b7 = %.5f %.5f %.5f %.5f %.5f %.5f %.5f %.5f  rmse %.2f K\n",
			average.Key, average.B0, average.B1, average.B2, average.B3, average.B4, average.B5, average.B6, average.B7, average.RMSE)
	}
	fmt.Println()

	fmt.Println("Land-cover legend:")
	for _, class := range legend.Classes() {
		refined := ""
		if class.Vegetated {
			refined = "  (NDVI refined)"
		}
		fmt.Printf("  %3d  %-22s e10 %.4f  e11 %.4f%s\n", class.Code, class.Name, class.TIRS10, class.TIRS11, refined)
	}
	fmt.Println()

	fmt.Println("Defaults:")
	fmt.Println("  water vapour window   7x7, at least 2 valid pairs")
	fmt.Println("  cloud value           61440 (Landsat Collection QA)")
	fmt.Println("  output                data/result/lst.tif, kelvin, no-data -9999")
	return nil
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			pc, file, line, ok := runtime.Caller(3)
			var location string
			if ok {
				fn := runtime.FuncForPC(pc)
				location = fmt.Sprintf("%s:%d in %s", file, line, fn.Name())
			} else {
				location = "Unknown location"
			}

			fmt.Printf("\n\033[31mPANIC: %v\033[0m\n", r)
			fmt.Printf("\033[31mLocation: %s\033[0m\n", location)
			fmt.Printf("\033[31mExiting...\033[0m\n")

			stack := debug.Stack()
			errMessage := fmt.Sprintf("Heatscape CLI panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, stack)
			if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
				fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", err.Error())
			}
			os.Exit(1)
		}
	}()

	if err := godotenv.Load("../../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Println("\033[33mNo .env file found, relying on the process environment.\033[0m")
		}
	}

	godal.RegisterAll()
	printBanner()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var run func([]string) error
	switch os.Args[1] {
	case "retrieve":
		run = runRetrieve
	case "fetch":
		run = runFetch
	case "info":
		run = runInfo
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Printf("\033[31mUnknown command: %s\033[0m\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err := run(os.Args[2:]); err != nil {
		fmt.Printf("\n\033[31mError: %s\033[0m\n", err.Error())
		notifyErr := notification.SendDiscordErrorNotification(fmt.Sprintf("Heatscape CLI\n\n%s failed: %s", os.Args[1], err.Error()))
		if notifyErr != nil {
			fmt.Printf("\033[31mFailed to send notification: %s\033[0m\n", notifyErr.Error())
		}
		os.Exit(1)
	}
}
