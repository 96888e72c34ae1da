package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary is the YAML run report written next to the rendered image
type Summary struct {
	Created       time.Time   `yaml:"created"`
	Mode          string      `yaml:"mode"`
	Image         string      `yaml:"image"`
	Outlines      string      `yaml:"outlines,omitempty"`
	Items         int         `yaml:"items"`
	K             int         `yaml:"k"`
	Init          string      `yaml:"init"`
	Iterations    int         `yaml:"iterations"`
	Converged     bool        `yaml:"converged"`
	State         string      `yaml:"state"`
	Inertia       float64     `yaml:"inertia"`
	Silhouette    float64     `yaml:"silhouette,omitempty"`
	ClusterSizes  []int       `yaml:"clusterSizes"`
	EmptyClusters int         `yaml:"emptyClusters"`
	Features      []string    `yaml:"features,omitempty"`
	Centroids     [][]float64 `yaml:"centroids"`
}

// Summary collects the run report. It is only meaningful after Process.
func (p *Pipeline) Summary() Summary {
	s := Summary{
		Created:       time.Now().UTC(),
		Mode:          string(p.params.Mode),
		Image:         p.params.ImagePath,
		Outlines:      p.params.OutlinePath,
		Items:         len(p.items),
		K:             p.params.K,
		Init:          string(p.params.Init),
		Iterations:    p.metrics.Iterations,
		Converged:     p.metrics.Converged,
		Inertia:       p.metrics.Inertia,
		Silhouette:    p.metrics.Silhouette,
		ClusterSizes:  p.metrics.ClusterSizes,
		EmptyClusters: p.metrics.EmptyClusters,
		Features:      p.featureNames,
	}
	if p.result != nil {
		s.State = p.result.State.String()
		for _, c := range p.result.Centroids {
			s.Centroids = append(s.Centroids, []float64(c))
		}
	}
	return s
}

func (p *Pipeline) writeSummary(path string) error {
	data, err := yaml.Marshal(p.Summary())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeFeatureTable writes one row per cell: index, every raw feature, every
// normalized feature and the assigned cluster.
func (p *Pipeline) writeFeatureTable(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"cell"}
	header = append(header, p.featureNames...)
	for _, name := range p.featureNames {
		header = append(header, "norm_"+name)
	}
	header = append(header, "cluster")
	if err := w.Write(header); err != nil {
		return err
	}

	rows, cols := p.raw.Dims()
	for i := 0; i < rows; i++ {
		record := make([]string, 0, 2*cols+2)
		record = append(record, strconv.Itoa(i))
		for j := 0; j < cols; j++ {
			record = append(record, strconv.FormatFloat(p.raw.At(i, j), 'g', -1, 64))
		}
		for j := 0; j < cols; j++ {
			record = append(record, strconv.FormatFloat(p.normalized.At(i, j), 'g', -1, 64))
		}
		record = append(record, strconv.Itoa(p.result.Labels[i]))
		if err := w.Write(record); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
