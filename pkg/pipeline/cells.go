package pipeline

import (
	"context"
	"fmt"

	"celldecode/internal/models"
	"celldecode/pkg/features"
	"celldecode/pkg/geometry"
	"celldecode/pkg/outline"
	"celldecode/pkg/vector"
)

func (p *Pipeline) loadOutlines() error {
	outlines, err := outline.ReadFile(p.params.OutlinePath)
	if err != nil {
		return err
	}
	if len(outlines) == 0 {
		return fmt.Errorf("no cells in %s", p.params.OutlinePath)
	}
	p.outlines = outlines
	p.log.Debug("outlines loaded", "cells", len(outlines))
	return nil
}

// measureCells computes the hull and shape descriptors of every cell
func (p *Pipeline) measureCells() error {
	p.cells = make([]models.Cell, len(p.outlines))
	for i, o := range p.outlines {
		hull, err := geometry.ConvexHull(o)
		if err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}

		cx, cy := geometry.Centroid(hull)
		area := geometry.Area(hull)
		perimeter := geometry.Perimeter(hull)
		outlineArea := geometry.Area(o)

		p.cells[i] = models.Cell{
			Index:         i,
			Outline:       o,
			Hull:          hull,
			CentroidX:     cx,
			CentroidY:     cy,
			HullArea:      area,
			HullPerimeter: perimeter,
			OutlineArea:   outlineArea,
			Solidity:      geometry.Solidity(outlineArea, area),
			Circularity:   geometry.Circularity(area, perimeter),
		}
	}
	return nil
}

func (p *Pipeline) measureIntensities() error {
	means, err := features.ChannelMeans(p.img, p.outlines, p.log)
	if err != nil {
		return err
	}
	for i := range p.cells {
		p.cells[i].MeanIntensity = means[i]
	}
	return nil
}

func (p *Pipeline) centroids() []vector.Vector {
	sites := make([]vector.Vector, len(p.cells))
	for i, c := range p.cells {
		sites[i] = vector.Of(c.CentroidX, c.CentroidY)
	}
	return sites
}

func (p *Pipeline) voronoiOptions() features.VoronoiOptions {
	return features.VoronoiOptions{Method: p.params.VoronoiMethod, Workers: p.params.Workers}
}

// measureVoronoiAreas counts the image pixels nearest to each cell centroid
func (p *Pipeline) measureVoronoiAreas(ctx context.Context) error {
	areas, err := features.VoronoiAreas(ctx, p.centroids(), p.width, p.height, p.voronoiOptions())
	if err != nil {
		return err
	}
	for i, a := range areas {
		p.cells[i].VoronoiArea = float64(a)
	}
	return nil
}

func (p *Pipeline) buildFeatures() error {
	builder, err := features.NewBuilder(p.params.FeatureNames...)
	if err != nil {
		return err
	}
	raw, err := builder.Build(p.cells)
	if err != nil {
		return err
	}

	p.featureNames = builder.Names()
	p.raw = raw
	p.normalized = features.Normalize(raw)
	p.items = features.Rows(p.normalized)
	return nil
}
