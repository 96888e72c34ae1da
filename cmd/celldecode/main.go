package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"celldecode/pkg/config"
	"celldecode/pkg/kmeans"
	"celldecode/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "Microscopy image the outlines were segmented from")
	outlinePath := flag.String("outlines", "", "Outline file, one cell per line (cells mode)")
	outputPath := flag.String("output", "clusters.png", "Rendered cluster image (.png, .jpg or .webp)")
	configPath := flag.String("config", "", "YAML configuration file")
	createConfig := flag.String("create-config", "", "Write a default configuration file to this path and exit")
	mode := flag.String("mode", "", "What to cluster: cells or pixels")
	k := flag.Int("k", 0, "Number of clusters")
	maxIter := flag.Int("max-iter", 0, "Maximum number of k-means iterations")
	initMethod := flag.String("init", "", "Centroid initialization: sample, bounds or kmeans++")
	seed := flag.Int64("seed", 0, "Random seed (0 seeds from the clock)")
	workers := flag.Int("workers", 0, "Number of goroutines per pass (default: all cores)")
	featureList := flag.String("features", "", "Comma-separated feature columns to cluster on (default: all)")
	scale := flag.Int("scale", 0, "Integer up-scaling factor of the rendered image")
	masksDir := flag.String("masks", "", "Directory for per-cluster mask images")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *createConfig != "" {
		if err := config.CreateDefaultConfigFile(*createConfig); err != nil {
			log.Fatalf("Failed to create config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *createConfig)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags given explicitly override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = config.Mode(*mode)
		case "k":
			cfg.Clustering.K = *k
		case "max-iter":
			cfg.Clustering.MaxIterations = *maxIter
		case "init":
			cfg.Clustering.Init = *initMethod
		case "seed":
			cfg.Clustering.Seed = *seed
		case "workers":
			cfg.Clustering.Workers = *workers
		case "features":
			cfg.Features.Names = parseFeatureList(*featureList)
		case "scale":
			cfg.Output.Scale = *scale
		case "masks":
			cfg.Output.SaveMasks = true
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Validate inputs
	if *imagePath == "" || (cfg.Mode == config.ModeCells && *outlinePath == "") {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	params := pipeline.ParamsFromConfig(cfg)
	params.ImagePath = *imagePath
	params.OutlinePath = *outlinePath
	params.OutputFile = *outputPath
	params.Logger = logger

	outputDir := filepath.Dir(*outputPath)
	base := strings.TrimSuffix(filepath.Base(*outputPath), filepath.Ext(*outputPath))
	if cfg.Output.SaveMasks {
		params.MasksDir = *masksDir
		if params.MasksDir == "" {
			params.MasksDir = filepath.Join(outputDir, base+"_masks")
		}
	}
	if cfg.Output.SaveFeatures {
		params.SummaryFile = filepath.Join(outputDir, base+"_summary.yaml")
		if cfg.Mode == config.ModeCells {
			params.FeaturesFile = filepath.Join(outputDir, base+"_features.csv")
		}
	}

	fmt.Println("================================")
	fmt.Println("CELL CLUSTERING BY SHAPE, INTENSITY AND NEIGHBOURHOOD")
	fmt.Println("================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.NewPipeline(params)

	startTime := time.Now()
	if err := p.Process(ctx); err != nil {
		log.Fatalf("Clustering failed: %v", err)
	}
	processingTime := time.Since(startTime)

	metrics := p.Metrics()
	fmt.Printf("\nClustering completed in %.2f seconds\n", processingTime.Seconds())
	fmt.Printf("Output image saved to: %s\n\n", *outputPath)

	fmt.Printf("Clustering Summary:\n")
	fmt.Printf("===================\n")
	fmt.Printf("Mode: %s\n", cfg.Mode)
	if cfg.Mode == config.ModeCells {
		fmt.Printf("Cells: %d\n", len(p.Cells()))
	}
	fmt.Printf("Clusters (k): %d\n", cfg.Clustering.K)
	fmt.Printf("Iterations: %d\n", metrics.Iterations)
	if metrics.Converged {
		fmt.Printf("State: %s\n", kmeans.Converged)
	} else {
		fmt.Printf("State: %s (cap %d)\n", kmeans.MaxIterReached, cfg.Clustering.MaxIterations)
	}
	fmt.Printf("Inertia: %.4f\n", metrics.Inertia)
	if cfg.Mode == config.ModeCells {
		fmt.Printf("Silhouette: %.3f\n", metrics.Silhouette)
	}
	fmt.Printf("Cluster sizes: %v\n", metrics.ClusterSizes)
	if metrics.EmptyClusters > 0 {
		fmt.Printf("Empty clusters: %d\n", metrics.EmptyClusters)
	}

	if params.FeaturesFile != "" {
		fmt.Printf("\nFeature table saved to: %s\n", params.FeaturesFile)
	}
	if params.SummaryFile != "" {
		fmt.Printf("Run summary saved to: %s\n", params.SummaryFile)
	}
	if params.MasksDir != "" {
		fmt.Printf("Cluster masks saved to: %s\n", params.MasksDir)
	}
}

// parseFeatureList splits a comma-separated list of feature names, trimming
// whitespace and dropping empty entries. An empty result selects all features.
func parseFeatureList(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
