package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"celldecode/internal/models"
	"celldecode/pkg/vector"
)

// Feature names, in the column order produced by Builder when no subset is
// selected.
const (
	CentroidX     = "centroid_x"
	CentroidY     = "centroid_y"
	HullArea      = "hull_area"
	HullPerimeter = "hull_perimeter"
	OutlineArea   = "outline_area"
	Solidity      = "solidity"
	Circularity   = "circularity"
	PixelCount    = "pixel_count"
	MeanRed       = "mean_red"
	MeanGreen     = "mean_green"
	MeanBlue      = "mean_blue"
	VoronoiArea   = "voronoi_area"
)

// FeatureNames lists every available feature column.
var FeatureNames = []string{
	CentroidX, CentroidY,
	HullArea, HullPerimeter, OutlineArea, Solidity, Circularity, PixelCount,
	MeanRed, MeanGreen, MeanBlue,
	VoronoiArea,
}

var extractors = map[string]func(c *models.Cell) float64{
	CentroidX:     func(c *models.Cell) float64 { return c.CentroidX },
	CentroidY:     func(c *models.Cell) float64 { return c.CentroidY },
	HullArea:      func(c *models.Cell) float64 { return c.HullArea },
	HullPerimeter: func(c *models.Cell) float64 { return c.HullPerimeter },
	OutlineArea:   func(c *models.Cell) float64 { return c.OutlineArea },
	Solidity:      func(c *models.Cell) float64 { return c.Solidity },
	Circularity:   func(c *models.Cell) float64 { return c.Circularity },
	PixelCount:    func(c *models.Cell) float64 { return float64(len(c.Outline)) },
	MeanRed:       func(c *models.Cell) float64 { return c.MeanIntensity.R },
	MeanGreen:     func(c *models.Cell) float64 { return c.MeanIntensity.G },
	MeanBlue:      func(c *models.Cell) float64 { return c.MeanIntensity.B },
	VoronoiArea:   func(c *models.Cell) float64 { return c.VoronoiArea },
}

// Builder assembles the raw M x D feature matrix for a set of cells.
type Builder struct {
	names []string
}

// NewBuilder returns a builder for the named feature columns. With no names
// every feature in FeatureNames is used.
func NewBuilder(names ...string) (*Builder, error) {
	if len(names) == 0 {
		names = FeatureNames
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := extractors[n]; !ok {
			return nil, fmt.Errorf("features: unknown feature %q", n)
		}
		if seen[n] {
			return nil, fmt.Errorf("features: duplicate feature %q", n)
		}
		seen[n] = true
	}
	return &Builder{names: append([]string(nil), names...)}, nil
}

// Names returns the column names in matrix order.
func (b *Builder) Names() []string {
	return append([]string(nil), b.names...)
}

// Build returns one row per cell and one column per feature.
func (b *Builder) Build(cells []models.Cell) (*mat.Dense, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("features: no cells to build features from")
	}
	m := mat.NewDense(len(cells), len(b.names), nil)
	for i := range cells {
		for j, name := range b.names {
			m.Set(i, j, extractors[name](&cells[i]))
		}
	}
	return m, nil
}

// Normalize returns a copy of m with every column min-max scaled to [0, 1].
// Columns whose range is below machine epsilon become all zeros. Scaling is
// per column so that one feature is comparable across cells.
func Normalize(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		lo, hi := floats.Min(col), floats.Max(col)
		span := hi - lo
		if math.Abs(span) < epsilon {
			continue
		}
		for i, v := range col {
			out.Set(i, j, (v-lo)/span)
		}
	}
	return out
}

const epsilon = 2.220446049250313e-16

// Rows returns each row of m as an independent vector.
func Rows(m mat.Matrix) []vector.Vector {
	rows, cols := m.Dims()
	out := make([]vector.Vector, rows)
	for i := range out {
		v := vector.New(cols)
		mat.Row(v, i, m)
		out[i] = v
	}
	return out
}
