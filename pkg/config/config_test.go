package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies that the defaults are usable as-is
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	if cfg.Mode != ModeCells {
		t.Errorf("Expected default mode %q, got %q", ModeCells, cfg.Mode)
	}

	if cfg.Clustering.MaxIterations != 1000 {
		t.Errorf("Expected default max iterations 1000, got %d", cfg.Clustering.MaxIterations)
	}

	if cfg.Clustering.Workers < 1 {
		t.Errorf("Expected at least one worker, got %d", cfg.Clustering.Workers)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields the defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Clustering.K != DefaultConfig().Clustering.K {
		t.Errorf("Expected default k, got %d", cfg.Clustering.K)
	}
}

// TestSaveAndLoadConfig verifies a saved config loads back unchanged
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "celldecode.yaml")

	cfg := DefaultConfig()
	cfg.Mode = ModePixels
	cfg.Clustering.K = 4
	cfg.Clustering.Seed = 99
	cfg.Clustering.Init = "bounds"
	cfg.Features.Names = []string{"hull_area", "mean_red"}
	cfg.Output.Scale = 3

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Mode != ModePixels || loaded.Clustering.K != 4 || loaded.Clustering.Seed != 99 {
		t.Errorf("Loaded config differs: %+v", loaded)
	}
	if loaded.Clustering.Init != "bounds" || loaded.Output.Scale != 3 {
		t.Errorf("Loaded config differs: %+v", loaded)
	}
	if len(loaded.Features.Names) != 2 || loaded.Features.Names[1] != "mean_red" {
		t.Errorf("Expected feature names to round trip, got %v", loaded.Features.Names)
	}
}

// TestLoadConfigPartial verifies unspecified keys keep their defaults
func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("clustering:\n  k: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Clustering.K != 3 {
		t.Errorf("Expected k 3, got %d", cfg.Clustering.K)
	}
	if cfg.Clustering.MaxIterations != 1000 {
		t.Errorf("Expected default max iterations, got %d", cfg.Clustering.MaxIterations)
	}
	if cfg.Features.VoronoiMethod != "kdtree" {
		t.Errorf("Expected default voronoi method, got %q", cfg.Features.VoronoiMethod)
	}
}

// TestLoadConfigInvalid verifies malformed and invalid files are rejected
func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "clustering: [k"},
		{"zero k", "clustering:\n  k: 0\n"},
		{"negative iterations", "clustering:\n  maxIterations: -5\n"},
		{"unknown init", "clustering:\n  init: random\n"},
		{"unknown mode", "mode: voxels\n"},
		{"unknown feature", "features:\n  names: [volume]\n"},
		{"unknown voronoi method", "features:\n  voronoiMethod: fortune\n"},
		{"zero scale", "output:\n  scale: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

// TestCreateDefaultConfigFile verifies the default file is written
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
}
