// Package vector provides the n-dimensional point type shared by feature
// vectors, pixel coordinates and cluster centroids.
package vector

import (
	"gonum.org/v1/gonum/floats"
)

// Vector is a point in n-dimensional Euclidean space.
type Vector []float64

// New returns a zero vector with dim components.
func New(dim int) Vector {
	return make(Vector, dim)
}

// Of returns a vector holding the given components.
func Of(components ...float64) Vector {
	return Vector(components)
}

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v) }

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Distance returns the Euclidean distance between v and w.
// It panics if the dimensions differ.
func (v Vector) Distance(w Vector) float64 {
	return floats.Distance(v, w, 2)
}

// SquaredDistance returns the squared Euclidean distance between v and w.
func (v Vector) SquaredDistance(w Vector) float64 {
	if len(v) != len(w) {
		panic("vector: dimension mismatch")
	}
	var sum float64
	for i := range v {
		d := v[i] - w[i]
		sum += d * d
	}
	return sum
}

// Equal reports whether v and w have the same dimension and identical
// components.
func (v Vector) Equal(w Vector) bool {
	return floats.Equal(v, w)
}

// EqualApprox reports whether every component of v and w differs by at most
// tol.
func (v Vector) EqualApprox(w Vector, tol float64) bool {
	return floats.EqualApprox(v, w, tol)
}

// Mean returns the component-wise arithmetic mean of vs. It returns nil for
// an empty input and panics if the dimensions differ.
func Mean(vs []Vector) Vector {
	if len(vs) == 0 {
		return nil
	}
	sum := New(vs[0].Dim())
	for _, v := range vs {
		floats.Add(sum, v)
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] /= n
	}
	return sum
}

// Bounds returns the component-wise minimum and maximum of vs.
func Bounds(vs []Vector) (lo, hi Vector) {
	if len(vs) == 0 {
		return nil, nil
	}
	lo = vs[0].Clone()
	hi = vs[0].Clone()
	for _, v := range vs[1:] {
		for i, c := range v {
			if c < lo[i] {
				lo[i] = c
			}
			if c > hi[i] {
				hi[i] = c
			}
		}
	}
	return lo, hi
}
