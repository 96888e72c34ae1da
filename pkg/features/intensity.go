// Package features turns measured cells into feature vectors: per-cell
// colour intensities, Voronoi areas over the image domain, and the
// column-normalized feature matrix fed to clustering.
package features

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"celldecode/internal/models"
)

var (
	// ErrEmptyRegion is returned when a cell contributes no pixels.
	ErrEmptyRegion = errors.New("features: region has no pixels")

	// ErrPixelOutOfBounds is returned when an outline pixel lies outside the image.
	ErrPixelOutOfBounds = errors.New("features: pixel outside image bounds")
)

func rgbAt(img image.Image, x, y int) (r, g, b float64) {
	if n, ok := img.(*image.NRGBA); ok {
		c := n.NRGBAAt(x, y)
		return float64(c.R), float64(c.G), float64(c.B)
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return float64(c.R), float64(c.G), float64(c.B)
}

// ChannelMean returns the arithmetic mean of each colour channel over the
// given pixels, addressing the image by row y and column x. An empty pixel
// list yields a zero RGB together with ErrEmptyRegion.
func ChannelMean(img image.Image, pixels []models.Point) (models.RGB, error) {
	if len(pixels) == 0 {
		return models.RGB{}, ErrEmptyRegion
	}

	bounds := img.Bounds()
	reds := make([]float64, len(pixels))
	greens := make([]float64, len(pixels))
	blues := make([]float64, len(pixels))
	for i, p := range pixels {
		x, y := bounds.Min.X+p.X, bounds.Min.Y+p.Y
		if !(image.Point{X: x, Y: y}).In(bounds) {
			return models.RGB{}, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrPixelOutOfBounds, p.X, p.Y, bounds.Dx(), bounds.Dy())
		}
		reds[i], greens[i], blues[i] = rgbAt(img, x, y)
	}

	return models.RGB{
		R: stat.Mean(reds, nil),
		G: stat.Mean(greens, nil),
		B: stat.Mean(blues, nil),
	}, nil
}

// ChannelMeans computes ChannelMean for every outline. Empty outlines are
// recorded as zero intensity and logged rather than aborting the run; any
// other failure is returned with the offending cell index.
func ChannelMeans(img image.Image, outlines []models.Outline, logger *slog.Logger) ([]models.RGB, error) {
	means := make([]models.RGB, len(outlines))
	for i, o := range outlines {
		m, err := ChannelMean(img, o)
		switch {
		case errors.Is(err, ErrEmptyRegion):
			if logger != nil {
				logger.Warn("cell has no pixels, using zero intensity", "cell", i)
			}
		case err != nil:
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		means[i] = m
	}
	return means, nil
}
