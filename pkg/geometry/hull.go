// Package geometry implements the planar measurements taken on cell
// outlines: convex hull construction, polygon area, perimeter and centroid.
package geometry

import (
	"errors"
	"sort"

	"celldecode/internal/models"
)

// ErrInsufficientPoints is returned when a point set has fewer than three
// distinct, non-collinear points and therefore no two-dimensional hull.
var ErrInsufficientPoints = errors.New("geometry: at least 3 distinct non-collinear points are required")

// cross returns the z component of (b-a) x (c-a). Positive values mean
// a->b->c turns left (counter-clockwise).
func cross(a, b, c models.Point) int64 {
	return int64(b.X-a.X)*int64(c.Y-a.Y) - int64(b.Y-a.Y)*int64(c.X-a.X)
}

// ConvexHull returns the convex hull of points in counter-clockwise order
// using Andrew's monotone chain. Duplicate points are tolerated and the
// input slice is left untouched.
func ConvexHull(points []models.Point) (models.Hull, error) {
	sorted := make([]models.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	// Drop duplicates so the chains never see zero-length edges
	unique := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			unique = append(unique, p)
		}
	}
	if len(unique) < 3 {
		return nil, ErrInsufficientPoints
	}

	hull := make(models.Hull, 0, 2*len(unique))

	// Lower chain, left to right
	for _, p := range unique {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper chain, right to left. The lower chain must stay intact, so
	// popping never goes below lowerLen.
	lowerLen := len(hull) + 1
	for i := len(unique) - 2; i >= 0; i-- {
		p := unique[i]
		for len(hull) >= lowerLen && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// The last point repeats the first
	hull = hull[:len(hull)-1]
	if len(hull) < 3 {
		return nil, ErrInsufficientPoints
	}
	return hull, nil
}
