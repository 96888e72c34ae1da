package features

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"

	"celldecode/pkg/vector"
)

// VoronoiMethod selects the nearest-site search used for Voronoi areas.
type VoronoiMethod string

const (
	// VoronoiNaive compares every pixel against every site.
	VoronoiNaive VoronoiMethod = "naive"

	// VoronoiKDTree answers nearest-site queries from a k-d tree. Ties are
	// still resolved by lowest site index, so results match VoronoiNaive.
	VoronoiKDTree VoronoiMethod = "kdtree"
)

var (
	// ErrNoSites is returned when no generating points are supplied.
	ErrNoSites = errors.New("features: no voronoi sites")

	// ErrInvalidDomain is returned for a non-positive domain size.
	ErrInvalidDomain = errors.New("features: domain width and height must be positive")
)

// VoronoiOptions controls how the domain is swept.
type VoronoiOptions struct {
	Method VoronoiMethod

	// Workers is the number of row partitions processed concurrently.
	// Zero or less uses runtime.NumCPU().
	Workers int
}

// VoronoiAreas assigns every integer pixel of the width x height domain to
// its nearest site (Euclidean, ties to the lowest index) and returns the
// number of pixels owned by each site. The counts always sum to
// width*height.
func VoronoiAreas(ctx context.Context, sites []vector.Vector, width, height int, opts VoronoiOptions) ([]int, error) {
	return sweep(ctx, sites, width, height, opts, nil)
}

// VoronoiLabels returns, for every pixel, the index of its nearest site.
// The matrix is indexed [row][column].
func VoronoiLabels(ctx context.Context, sites []vector.Vector, width, height int, opts VoronoiOptions) ([][]int, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDomain
	}
	labels := make([][]int, height)
	for y := range labels {
		labels[y] = make([]int, width)
	}
	if _, err := sweep(ctx, sites, width, height, opts, labels); err != nil {
		return nil, err
	}
	return labels, nil
}

type nearestFunc func(x, y float64) int

func sweep(ctx context.Context, sites []vector.Vector, width, height int, opts VoronoiOptions, labels [][]int) ([]int, error) {
	if len(sites) == 0 {
		return nil, ErrNoSites
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDomain
	}
	for i, s := range sites {
		if s.Dim() != 2 {
			return nil, fmt.Errorf("features: voronoi site %d has %d dimensions, want 2", i, s.Dim())
		}
	}

	var nearest nearestFunc
	switch opts.Method {
	case VoronoiNaive, "":
		nearest = naiveNearest(sites)
	case VoronoiKDTree:
		nearest = treeNearest(sites)
	default:
		return nil, fmt.Errorf("features: unknown voronoi method %q", opts.Method)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}

	// Each worker owns a contiguous band of rows and a private counter
	partials := make([][]int, workers)
	rowsPer := (height + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * rowsPer
		end := min(start+rowsPer, height)
		counts := make([]int, len(sites))
		partials[w] = counts

		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				for x := 0; x < width; x++ {
					idx := nearest(float64(x), float64(y))
					counts[idx]++
					if labels != nil {
						labels[y][x] = idx
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	areas := make([]int, len(sites))
	for _, counts := range partials {
		for i, c := range counts {
			areas[i] += c
		}
	}
	return areas, nil
}

func naiveNearest(sites []vector.Vector) nearestFunc {
	return func(x, y float64) int {
		best := 0
		bestDist := -1.0
		for i, s := range sites {
			dx, dy := x-s[0], y-s[1]
			d := dx*dx + dy*dy
			if bestDist < 0 || d < bestDist {
				best, bestDist = i, d
			}
		}
		return best
	}
}

// site is a Voronoi generator stored in the k-d tree
type site struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the k-d tree
func (p site) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two sites
func (p site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// siteList satisfies kdtree.Interface
type siteList []site

func (p siteList) Index(i int) kdtree.Comparable         { return p[i] }
func (p siteList) Len() int                              { return len(p) }
func (p siteList) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p siteList) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(sitePlane{siteList: p, Dim: d}, kdtree.MedianOfRandoms(sitePlane{siteList: p, Dim: d}, 100))
}

// sitePlane implements sort.Interface and kdtree.SortSlicer for siteList
type sitePlane struct {
	siteList
	kdtree.Dim
}

func (p sitePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.siteList[i].X < p.siteList[j].X
	case 1:
		return p.siteList[i].Y < p.siteList[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	return sitePlane{siteList: p.siteList[start:end], Dim: p.Dim}
}

func (p sitePlane) Swap(i, j int) {
	p.siteList[i], p.siteList[j] = p.siteList[j], p.siteList[i]
}

func treeNearest(sites []vector.Vector) nearestFunc {
	list := make(siteList, len(sites))
	for i, s := range sites {
		list[i] = site{X: s[0], Y: s[1], Index: i}
	}
	tree := kdtree.New(list, false)

	return func(x, y float64) int {
		q := site{X: x, Y: y, Index: -1}
		_, dist := tree.Nearest(q)

		// Collect every site at the nearest distance and keep the lowest
		// index so ties resolve exactly as in the naive scan.
		keeper := kdtree.NewDistKeeper(dist)
		tree.NearestSet(keeper, q)

		best := -1
		for _, item := range keeper.Heap {
			if item.Comparable == nil {
				continue
			}
			idx := item.Comparable.(site).Index
			if best < 0 || idx < best {
				best = idx
			}
		}
		return best
	}
}
