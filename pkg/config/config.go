// Package config provides configuration loading and management for celldecode.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"celldecode/pkg/features"
	"celldecode/pkg/kmeans"
)

// Mode selects what is clustered
type Mode string

const (
	// ModeCells clusters per-cell feature vectors
	ModeCells Mode = "cells"

	// ModePixels clusters the coordinates of the image pixels directly
	ModePixels Mode = "pixels"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Mode is either "cells" or "pixels"
	Mode Mode `yaml:"mode"`

	// Clustering parameters
	Clustering struct {
		// K is the number of clusters
		K int `yaml:"k"`

		// MaxIterations caps the number of k-means update steps
		MaxIterations int `yaml:"maxIterations"`

		// Tolerance is the centroid movement treated as convergence (0 = exact)
		Tolerance float64 `yaml:"tolerance"`

		// Init is the initialization policy: sample, bounds or kmeans++
		Init string `yaml:"init"`

		// Seed makes runs reproducible; 0 seeds from the clock
		Seed int64 `yaml:"seed"`

		// Workers is the number of goroutines used per pass
		Workers int `yaml:"workers"`
	} `yaml:"clustering"`

	// Feature extraction parameters
	Features struct {
		// Names selects the feature columns used for clustering (empty = all)
		Names []string `yaml:"names"`

		// VoronoiMethod is naive or kdtree
		VoronoiMethod string `yaml:"voronoiMethod"`
	} `yaml:"features"`

	// Raw pixel clustering parameters
	Pixels struct {
		// BrightnessThreshold excludes pixels whose R+G+B is below it
		BrightnessThreshold int `yaml:"brightnessThreshold"`
	} `yaml:"pixels"`

	// Output parameters
	Output struct {
		// Scale is the integer up-scaling factor for rendered images
		Scale int `yaml:"scale"`

		// SaveMasks writes one mask image per cluster
		SaveMasks bool `yaml:"saveMasks"`

		// SaveFeatures writes the feature table and run summary
		SaveFeatures bool `yaml:"saveFeatures"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Mode = ModeCells

	// Set default clustering parameters
	cfg.Clustering.K = 10
	cfg.Clustering.MaxIterations = kmeans.DefaultMaxIterations
	cfg.Clustering.Tolerance = 0
	cfg.Clustering.Init = string(kmeans.InitSample)
	cfg.Clustering.Seed = 0
	cfg.Clustering.Workers = runtime.NumCPU() // Use all available cores by default

	// Set default feature parameters
	cfg.Features.Names = nil
	cfg.Features.VoronoiMethod = string(features.VoronoiKDTree)

	// Dark background pixels are dropped in pixel mode
	cfg.Pixels.BrightnessThreshold = 80

	// Set default output parameters
	cfg.Output.Scale = 1
	cfg.Output.SaveMasks = false
	cfg.Output.SaveFeatures = true
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeCells, ModePixels:
	default:
		return fmt.Errorf("invalid mode %q (must be cells or pixels)", c.Mode)
	}
	if c.Clustering.K <= 0 {
		return fmt.Errorf("clustering.k must be positive, got %d", c.Clustering.K)
	}
	if c.Clustering.MaxIterations < 0 {
		return fmt.Errorf("clustering.maxIterations must not be negative, got %d", c.Clustering.MaxIterations)
	}
	if c.Clustering.Tolerance < 0 {
		return fmt.Errorf("clustering.tolerance must not be negative, got %g", c.Clustering.Tolerance)
	}
	switch kmeans.InitMethod(c.Clustering.Init) {
	case kmeans.InitSample, kmeans.InitBounds, kmeans.InitPlusPlus:
	default:
		return fmt.Errorf("invalid clustering.init %q", c.Clustering.Init)
	}
	switch features.VoronoiMethod(c.Features.VoronoiMethod) {
	case features.VoronoiNaive, features.VoronoiKDTree:
	default:
		return fmt.Errorf("invalid features.voronoiMethod %q", c.Features.VoronoiMethod)
	}
	if _, err := features.NewBuilder(c.Features.Names...); err != nil {
		return err
	}
	if c.Output.Scale < 1 {
		return fmt.Errorf("output.scale must be at least 1, got %d", c.Output.Scale)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
