// Package visualization renders cluster assignments as colour images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"golang.org/x/image/draw"

	"celldecode/pkg/imageio"
)

// Viewer renders a label matrix with one palette colour per cluster.
type Viewer struct {
	// labels holds the cluster id of every pixel, indexed [row][column].
	// Negative ids mark pixels that belong to no cluster.
	labels [][]int

	// dimensions of the output image
	width  int
	height int

	palette []color.RGBA

	// scale is the integer up-scaling factor applied when saving
	scale int
}

// NewViewer creates a viewer for a width x height output image. The label
// matrix may be smaller than the output; uncovered pixels render black.
func NewViewer(labels [][]int, width, height int, palette []color.RGBA) *Viewer {
	return &Viewer{
		labels:  labels,
		width:   width,
		height:  height,
		palette: palette,
		scale:   1,
	}
}

// SetScale sets the nearest-neighbour up-scaling factor used by SaveImage.
func (v *Viewer) SetScale(scale int) {
	if scale < 1 {
		scale = 1
	}
	v.scale = scale
}

func (v *Viewer) label(x, y int) (int, bool) {
	if y >= len(v.labels) || x >= len(v.labels[y]) {
		return 0, false
	}
	return v.labels[y][x], true
}

// Render paints every pixel with its cluster colour. Labels without a
// palette entry use FallbackColor and pixels outside the label matrix use
// OutsideColor.
func (v *Viewer) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, v.width, v.height))
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			l, ok := v.label(x, y)
			switch {
			case !ok:
				img.SetRGBA(x, y, OutsideColor)
			case l < 0 || l >= len(v.palette):
				img.SetRGBA(x, y, FallbackColor)
			default:
				img.SetRGBA(x, y, v.palette[l])
			}
		}
	}
	return img
}

// ClusterMask returns a white-on-black mask of the pixels labeled cluster.
func (v *Viewer) ClusterMask(cluster int) (image.Image, error) {
	if cluster < 0 {
		return nil, fmt.Errorf("cluster must be non-negative")
	}

	img := image.NewGray(image.Rect(0, 0, v.width, v.height))
	for y := 0; y < v.height; y++ {
		for x := 0; x < v.width; x++ {
			if l, ok := v.label(x, y); ok && l == cluster {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img, nil
}

// Scale returns img enlarged by an integer factor with nearest-neighbour
// sampling, so label boundaries stay crisp.
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SaveImage renders the labels and writes them to filename. The encoder is
// chosen from the extension.
func (v *Viewer) SaveImage(filename string) error {
	return imageio.Save(filename, Scale(v.Render(), v.scale))
}

// SaveClusterMasks writes one mask image per cluster id in [0, clusters)
// into outputDir as cluster_NNN.png.
func (v *Viewer) SaveClusterMasks(clusters int, outputDir string) error {
	for c := 0; c < clusters; c++ {
		mask, err := v.ClusterMask(c)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("cluster_%03d.png", c))
		if err := imageio.Save(filename, Scale(mask, v.scale)); err != nil {
			return err
		}
	}
	return nil
}
