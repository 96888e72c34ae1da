package models

// Point is an integer pixel coordinate. X is the image column and Y the row.
type Point struct {
	X, Y int
}

// Less orders points lexicographically by X, then Y.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// Outline is the ordered list of pixels that make up one segmented cell.
// It is not guaranteed to be convex or free of duplicates.
type Outline []Point

// Hull is a convex polygon in counter-clockwise order.
type Hull []Point

// RGB holds per-channel intensities on the 0-255 scale
type RGB struct {
	R, G, B float64
}

// Cell collects every measurement taken for a single segmented cell
type Cell struct {
	// Index is the zero-based position of the cell in the outline file,
	// blank lines not counted
	Index int

	// Outline is the cell boundary as supplied by segmentation
	Outline Outline

	// Hull is the convex hull of the outline
	Hull Hull

	// CentroidX and CentroidY are the area-weighted hull centroid
	CentroidX, CentroidY float64

	// HullArea and HullPerimeter describe the convex hull
	HullArea      float64
	HullPerimeter float64

	// OutlineArea is the shoelace area of the raw outline polygon
	OutlineArea float64

	// Solidity is OutlineArea / HullArea
	Solidity float64

	// Circularity is 4*pi*A/P^2 over the hull
	Circularity float64

	// MeanIntensity is the per-channel mean over the outline pixels
	MeanIntensity RGB

	// VoronoiArea is the number of image pixels closer to this cell's
	// centroid than to any other
	VoronoiArea float64
}
