// Command routecheck runs the closure pipeline against a GPX file from the
// command line and writes the results to local files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gpxstatus/server/internal/cache"
	"github.com/gpxstatus/server/internal/clients/jartic"
	"github.com/gpxstatus/server/internal/clients/nominatim"
	"github.com/gpxstatus/server/internal/clients/overpass"
	"github.com/gpxstatus/server/internal/config"
	"github.com/gpxstatus/server/internal/services"
)

func main() {
	var (
		gpxPath  = flag.String("gpx", "", "path to the GPX file to check (required)")
		interval = flag.Int("interval", 0, "point sampling stride (default from SAMPLING_INTERVAL)")
		csvPath  = flag.String("csv", "closed_roads.csv", "output path for the restriction table")
		htmlPath = flag.String("html", "map.html", "output path for the map page")
		kmlPath  = flag.String("kml", "", "optional output path for a KML export")
		timeout  = flag.Duration("timeout", 5*time.Minute, "overall run timeout")
		verbose  = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *gpxPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration invalid: %v", err)
	}
	if *interval == 0 {
		*interval = cfg.SamplingInterval
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("Failed to create logger: %v", err)
		}
	}

	pipeline := services.NewPipeline(
		nominatim.NewClient(cfg.NominatimBaseURL),
		overpass.NewClient(cfg.OverpassBaseURL),
		jartic.NewClient(cfg.TrafficBaseURL),
		cache.New(cache.DefaultTTL),
		logger,
		services.Options{
			SnapThresholdMeters: cfg.SnapThresholdMeters,
			MapStyle:            cfg.MapStyle,
			MapAccessToken:      cfg.MapAccessToken,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	file, err := os.Open(*gpxPath)
	if err != nil {
		log.Fatalf("Failed to open GPX file: %v", err)
	}
	defer file.Close()

	result, err := pipeline.Run(ctx, file, *interval)
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	if err := writeCSV(*csvPath, result); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}
	if err := writeFile(*htmlPath, result.Figure.WriteHTML); err != nil {
		log.Fatalf("Failed to write map page: %v", err)
	}
	if *kmlPath != "" {
		if err := writeFile(*kmlPath, result.Figure.WriteKML); err != nil {
			log.Fatalf("Failed to write KML: %v", err)
		}
	}

	fmt.Printf("Restrictions on route roads: %d\n", len(result.AffectedRoads.Records))
	fmt.Printf("Complete closures:           %d\n", len(result.CompleteClosures.Records))
	fmt.Printf("Closed sections on route:    %d\n", result.Figure.ClosureCount())
	for _, r := range result.CompleteClosures.Records {
		fmt.Printf("  %s  %s (%s, %.3f km)\n", r.RouteName, r.LocationDescription, r.WorkType, r.DistanceKm)
	}
	fmt.Printf("\nTable written to %s, map written to %s\n", *csvPath, *htmlPath)
}

func writeCSV(path string, result *services.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return result.AffectedRoads.WriteCSV(f)
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}
