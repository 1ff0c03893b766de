package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ashish-Rautela/Disaster-Managment/pkg/config"
	"github.com/Ashish-Rautela/Disaster-Managment/pkg/importer"
	osmparser "github.com/Ashish-Rautela/Disaster-Managment/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "seed.toml", "Output seed TOML file path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 18.4,72.7,19.5,74.1)")
	maharashtra := flag.Bool("maharashtra", false, "Shortcut for --bbox 15.6,72.6,22.1,80.9 (Maharashtra bounding box)")
	workers := flag.Int("workers", 0, "Search workers (0 = GOMAXPROCS)")
	maxSnap := flag.Float64("max-snap", importer.DefaultMaxSnapMeters, "Drop settlements further than this many meters from a road")
	maxRoadKm := flag.Int("max-road-km", 0, "Drop roads longer than this many km (0 = unlimited)")
	maxCities := flag.Int("max-cities", 0, "Keep only the most populous settlements (0 = all)")
	resources := flag.Int("resources", importer.DefaultResources, "Initial resources for every city")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: import --input <file.osm.pbf> [--output seed.toml] [--maharashtra | --bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})

	var opts osmparser.ParseOptions
	if *maharashtra {
		opts.BBox = osmparser.BBox{MinLat: 15.6, MaxLat: 22.1, MinLng: 72.6, MaxLng: 80.9}
		log.Info("Using Maharashtra bounding box filter: lat [15.60, 22.10], lng [72.60, 80.90]")
	} else if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Infof("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()
	ctx := context.Background()

	// Step 1: Parse OSM data.
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Info("Parsing OSM data...")
	result, err := osmparser.Parse(ctx, f, opts)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}
	log.Infof("Parsed %d edges, %d nodes, %d settlements", len(result.Edges), len(result.NodeLat), len(result.Settlements))

	// Step 2: Snap settlements and find direct roads between them.
	seed, err := importer.Import(ctx, result, importer.Options{
		Workers:       *workers,
		MaxSnapMeters: *maxSnap,
		MaxRoadMeters: uint32(*maxRoadKm) * 1000,
		Resources:     *resources,
		MaxCities:     *maxCities,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	// Step 3: Write the seed.
	log.Infof("Writing seed to %s...", *output)
	if err := config.WriteSeedFile(*output, seed); err != nil {
		log.Fatalf("Failed to write seed: %v", err)
	}

	log.Infof("Done in %s. Output: %s (%d cities, %d roads)", time.Since(start).Round(time.Second), *output, len(seed.Cities), len(seed.Roads))
}
