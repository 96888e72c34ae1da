package kmeans

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"celldecode/pkg/vector"
)

// Inertia returns the within-cluster sum of squared distances between each
// item and its assigned centroid.
func (r *Result) Inertia(items []vector.Vector) float64 {
	var sum float64
	for i, l := range r.Labels {
		sum += items[i].SquaredDistance(r.Centroids[l])
	}
	return sum
}

// Sizes returns the member count of each cluster.
func (r *Result) Sizes() []int {
	sizes := make([]int, len(r.Groups))
	for i, g := range r.Groups {
		sizes[i] = len(g)
	}
	return sizes
}

// EmptyClusters returns the number of clusters without members.
func (r *Result) EmptyClusters() int {
	n := 0
	for _, g := range r.Groups {
		if len(g) == 0 {
			n++
		}
	}
	return n
}

// Silhouette returns the mean silhouette coefficient of the clustering, in
// [-1, 1]. Items in singleton clusters score 0. With fewer than two
// non-empty clusters the score is 0. Cost is quadratic in the item count.
func (r *Result) Silhouette(items []vector.Vector) float64 {
	nonEmpty := 0
	for _, g := range r.Groups {
		if len(g) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return 0
	}

	scores := make([]float64, len(items))
	dists := make([]float64, 0, len(items))
	for i, item := range items {
		own := r.Labels[i]
		if len(r.Groups[own]) < 2 {
			continue
		}

		a := 0.0
		b := math.Inf(1)
		for c, members := range r.Groups {
			if len(members) == 0 {
				continue
			}
			dists = dists[:0]
			for _, j := range members {
				if j != i {
					dists = append(dists, item.Distance(items[j]))
				}
			}
			mean := stat.Mean(dists, nil)
			if c == own {
				a = mean
			} else if mean < b {
				b = mean
			}
		}

		if m := math.Max(a, b); m > 0 {
			scores[i] = (b - a) / m
		}
	}
	return stat.Mean(scores, nil)
}
