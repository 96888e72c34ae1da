// Package pipeline runs the complete cell clustering process: outline and
// image loading, per-cell measurement, feature normalization, k-means, and
// rendering of the result.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"celldecode/internal/models"
	"celldecode/pkg/config"
	"celldecode/pkg/features"
	"celldecode/pkg/imageio"
	"celldecode/pkg/kmeans"
	"celldecode/pkg/vector"
	"celldecode/pkg/visualization"
)

// ClusterMetrics summarizes the quality of a clustering run.
type ClusterMetrics struct {
	// Inertia is the within-cluster sum of squared distances. Lower values
	// mean tighter clusters.
	Inertia float64

	// Silhouette is the mean silhouette coefficient in [-1, 1]. Only
	// computed in cell mode, where the item count is small.
	Silhouette float64

	// Iterations is the number of k-means update steps performed
	Iterations int

	// Converged is false when the iteration cap stopped the run
	Converged bool

	// ClusterSizes is the member count of every cluster
	ClusterSizes []int

	// EmptyClusters counts clusters that ended without members
	EmptyClusters int
}

// Params holds the pipeline inputs, outputs and processing configuration.
type Params struct {
	// ImagePath is the microscopy image the outlines were segmented from
	ImagePath string

	// OutlinePath is the outline text file, one cell per line. Unused in
	// pixel mode.
	OutlinePath string

	// OutputFile receives the rendered cluster image (.png, .jpg or .webp)
	OutputFile string

	// Mode selects feature-space cell clustering or raw pixel clustering
	Mode config.Mode

	// Clustering parameters, see kmeans.Config
	K             int
	MaxIterations int
	Tolerance     float64
	Init          kmeans.InitMethod
	Workers       int

	// Seed makes the run reproducible. Zero seeds from the clock.
	Seed int64

	// FeatureNames selects the feature columns to cluster on (empty = all)
	FeatureNames []string

	// VoronoiMethod selects the nearest-site search for Voronoi areas
	VoronoiMethod features.VoronoiMethod

	// BrightnessThreshold excludes dark pixels (R+G+B below it) in pixel mode
	BrightnessThreshold int

	// Scale is the integer up-scaling factor of the rendered image
	Scale int

	// MasksDir, when set, receives one mask image per cluster
	MasksDir string

	// FeaturesFile, when set, receives the per-cell feature table as CSV
	FeaturesFile string

	// SummaryFile, when set, receives the run summary as YAML
	SummaryFile string

	// Logger receives progress output. Nil discards it.
	Logger *slog.Logger
}

// ParamsFromConfig fills the processing fields of Params from cfg. Input
// and output paths are left for the caller.
func ParamsFromConfig(cfg *config.Config) *Params {
	return &Params{
		Mode:                cfg.Mode,
		K:                   cfg.Clustering.K,
		MaxIterations:       cfg.Clustering.MaxIterations,
		Tolerance:           cfg.Clustering.Tolerance,
		Init:                kmeans.InitMethod(cfg.Clustering.Init),
		Workers:             cfg.Clustering.Workers,
		Seed:                cfg.Clustering.Seed,
		FeatureNames:        cfg.Features.Names,
		VoronoiMethod:       features.VoronoiMethod(cfg.Features.VoronoiMethod),
		BrightnessThreshold: cfg.Pixels.BrightnessThreshold,
		Scale:               cfg.Output.Scale,
	}
}

// Pipeline carries the state of one run. Each stage fills in the fields the
// next one reads; nothing is kept between runs.
type Pipeline struct {
	params *Params
	log    *slog.Logger
	rng    *rand.Rand

	img    *image.NRGBA
	width  int
	height int

	// outlines and cells are indexed identically
	outlines []models.Outline
	cells    []models.Cell

	featureNames []string
	raw          *mat.Dense
	normalized   *mat.Dense

	items  []vector.Vector
	result *kmeans.Result

	// labels is the per-pixel cluster id, [row][column]; -1 is background
	labels [][]int

	metrics ClusterMetrics
}

// NewPipeline creates a pipeline for the given parameters.
func NewPipeline(params *Params) *Pipeline {
	logger := params.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Pipeline{
		params: params,
		log:    logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Process runs the complete pipeline. Calling it again starts from scratch.
func (p *Pipeline) Process(ctx context.Context) error {
	p.reset()

	// Step 1: Load the image
	p.log.Info("step 1: loading image", "path", p.params.ImagePath)
	if err := p.loadImage(); err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	switch p.params.Mode {
	case config.ModePixels:
		// Step 2: Collect pixel coordinates
		p.log.Info("step 2: collecting pixels", "threshold", p.params.BrightnessThreshold)
		if err := p.collectPixels(); err != nil {
			return fmt.Errorf("failed to collect pixels: %w", err)
		}

	case config.ModeCells, "":
		// Step 2: Load outlines and measure each cell
		p.log.Info("step 2: measuring cells", "path", p.params.OutlinePath)
		if err := p.loadOutlines(); err != nil {
			return fmt.Errorf("failed to load outlines: %w", err)
		}
		if err := p.measureCells(); err != nil {
			return fmt.Errorf("failed to measure cells: %w", err)
		}
		if err := p.measureIntensities(); err != nil {
			return fmt.Errorf("failed to measure intensities: %w", err)
		}
		if err := p.measureVoronoiAreas(ctx); err != nil {
			return fmt.Errorf("failed to compute voronoi areas: %w", err)
		}

		// Step 3: Build the normalized feature matrix
		p.log.Info("step 3: building feature vectors", "cells", len(p.cells))
		if err := p.buildFeatures(); err != nil {
			return fmt.Errorf("failed to build features: %w", err)
		}

	default:
		return fmt.Errorf("unknown mode %q", p.params.Mode)
	}

	// Step 4: Cluster
	p.log.Info("step 4: clustering", "items", len(p.items), "k", p.params.K)
	if err := p.cluster(ctx); err != nil {
		return fmt.Errorf("failed to cluster: %w", err)
	}

	// Step 5: Render and write outputs
	p.log.Info("step 5: rendering", "output", p.params.OutputFile)
	if err := p.buildLabelMatrix(ctx); err != nil {
		return fmt.Errorf("failed to label image: %w", err)
	}
	if err := p.writeOutputs(); err != nil {
		return err
	}

	return nil
}

// reset drops everything a previous run produced
func (p *Pipeline) reset() {
	p.img = nil
	p.width, p.height = 0, 0
	p.outlines = nil
	p.cells = nil
	p.featureNames = nil
	p.raw, p.normalized = nil, nil
	p.items = nil
	p.result = nil
	p.labels = nil
	p.metrics = ClusterMetrics{}
}

func (p *Pipeline) loadImage() error {
	img, err := imageio.Load(p.params.ImagePath)
	if err != nil {
		return err
	}
	p.img = img
	p.width = img.Bounds().Dx()
	p.height = img.Bounds().Dy()
	p.log.Debug("image loaded", "width", p.width, "height", p.height)
	return nil
}

// collectPixels turns every sufficiently bright pixel into a 2-D item
func (p *Pipeline) collectPixels() error {
	p.labels = make([][]int, p.height)
	for y := 0; y < p.height; y++ {
		p.labels[y] = make([]int, p.width)
		for x := 0; x < p.width; x++ {
			p.labels[y][x] = -1
			c := p.img.NRGBAAt(x, y)
			if int(c.R)+int(c.G)+int(c.B) < p.params.BrightnessThreshold {
				continue
			}
			p.items = append(p.items, vector.Of(float64(x), float64(y)))
		}
	}
	if len(p.items) == 0 {
		return fmt.Errorf("no pixels at or above brightness threshold %d", p.params.BrightnessThreshold)
	}
	return nil
}

func (p *Pipeline) cluster(ctx context.Context) error {
	res, err := kmeans.Cluster(ctx, p.items, kmeans.Config{
		K:             p.params.K,
		MaxIterations: p.params.MaxIterations,
		Tolerance:     p.params.Tolerance,
		Init:          p.params.Init,
		Workers:       p.params.Workers,
		Rand:          p.rng,
		Logger:        p.log,
	})
	if err != nil {
		return err
	}
	p.result = res

	p.metrics = ClusterMetrics{
		Inertia:       res.Inertia(p.items),
		Iterations:    res.Iterations,
		Converged:     res.Converged,
		ClusterSizes:  res.Sizes(),
		EmptyClusters: res.EmptyClusters(),
	}
	if p.params.Mode != config.ModePixels {
		p.metrics.Silhouette = res.Silhouette(p.items)
	}

	if !res.Converged {
		p.log.Warn("clustering stopped at iteration cap", "iterations", res.Iterations)
	}
	p.log.Info("clustering finished", "iterations", res.Iterations, "converged", res.Converged, "empty_clusters", p.metrics.EmptyClusters)
	return nil
}

// buildLabelMatrix assigns a cluster id to every output pixel. In cell
// mode each pixel takes the cluster of the cell whose centroid is nearest.
func (p *Pipeline) buildLabelMatrix(ctx context.Context) error {
	if p.params.Mode == config.ModePixels {
		for i, it := range p.items {
			x, y := int(it[0]), int(it[1])
			p.labels[y][x] = p.result.Labels[i]
		}
		return nil
	}

	owners, err := features.VoronoiLabels(ctx, p.centroids(), p.width, p.height, p.voronoiOptions())
	if err != nil {
		return err
	}
	for y := range owners {
		for x, cell := range owners[y] {
			owners[y][x] = p.result.Labels[cell]
		}
	}
	p.labels = owners
	return nil
}

func (p *Pipeline) writeOutputs() error {
	palette := visualization.Palette(p.params.K, p.rng)
	viewer := visualization.NewViewer(p.labels, p.width, p.height, palette)
	viewer.SetScale(p.params.Scale)

	if p.params.OutputFile != "" {
		if err := viewer.SaveImage(p.params.OutputFile); err != nil {
			return fmt.Errorf("failed to save clustered image: %w", err)
		}
	}

	if p.params.MasksDir != "" {
		if err := viewer.SaveClusterMasks(p.params.K, p.params.MasksDir); err != nil {
			return fmt.Errorf("failed to save cluster masks: %w", err)
		}
	}

	if p.params.FeaturesFile != "" && p.params.Mode != config.ModePixels {
		if err := p.writeFeatureTable(p.params.FeaturesFile); err != nil {
			return fmt.Errorf("failed to write feature table: %w", err)
		}
	}

	if p.params.SummaryFile != "" {
		if err := p.writeSummary(p.params.SummaryFile); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// Cells returns the measured cells
func (p *Pipeline) Cells() []models.Cell { return p.cells }

// Result returns the clustering result, or nil before Process has run
func (p *Pipeline) Result() *kmeans.Result { return p.result }

// Metrics returns the clustering quality metrics
func (p *Pipeline) Metrics() ClusterMetrics { return p.metrics }

// Features returns the feature column names and the raw and normalized
// feature matrices
func (p *Pipeline) Features() ([]string, *mat.Dense, *mat.Dense) {
	return p.featureNames, p.raw, p.normalized
}

// Labels returns the per-pixel cluster matrix, indexed [row][column]
func (p *Pipeline) Labels() [][]int { return p.labels }
