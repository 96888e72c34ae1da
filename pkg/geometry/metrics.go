package geometry

import (
	"math"

	"celldecode/internal/models"
)

// signedArea2 returns twice the signed shoelace area of the closed polygon.
// Positive for counter-clockwise winding.
func signedArea2(points []models.Point) float64 {
	n := len(points)
	var sum int64
	for i := 0; i < n; i++ {
		p, q := points[i], points[(i+1)%n]
		sum += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return float64(sum)
}

// Area returns the unsigned shoelace area of the closed polygon described by
// points. Winding direction and starting vertex do not affect the result.
func Area(points []models.Point) float64 {
	if len(points) < 3 {
		return 0
	}
	return 0.5 * math.Abs(signedArea2(points))
}

// Perimeter returns the sum of Euclidean edge lengths around the closed
// polygon, including the edge from the last vertex back to the first.
func Perimeter(points []models.Point) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	var perimeter float64
	for i := 0; i < n; i++ {
		dx := float64(points[(i+1)%n].X - points[i].X)
		dy := float64(points[(i+1)%n].Y - points[i].Y)
		perimeter += math.Hypot(dx, dy)
	}
	return perimeter
}

// Centroid returns the area-weighted centroid of the polygon (Green's
// theorem). Polygons with zero area fall back to the arithmetic mean of the
// vertices. An empty polygon yields the origin.
func Centroid(points []models.Point) (x, y float64) {
	n := len(points)
	if n == 0 {
		return 0, 0
	}

	a2 := signedArea2(points)
	if n < 3 || a2 == 0 {
		for _, p := range points {
			x += float64(p.X)
			y += float64(p.Y)
		}
		return x / float64(n), y / float64(n)
	}

	for i := 0; i < n; i++ {
		p, q := points[i], points[(i+1)%n]
		c := float64(int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y))
		x += float64(p.X+q.X) * c
		y += float64(p.Y+q.Y) * c
	}
	// 6A == 3 * a2
	return x / (3 * a2), y / (3 * a2)
}

// Circularity returns 4*pi*A/P^2, which is 1 for a disc and approaches 0 for
// elongated shapes. A zero perimeter yields 0.
func Circularity(area, perimeter float64) float64 {
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// Solidity returns outlineArea / hullArea, or 0 for an empty hull.
func Solidity(outlineArea, hullArea float64) float64 {
	if hullArea == 0 {
		return 0
	}
	return outlineArea / hullArea
}
