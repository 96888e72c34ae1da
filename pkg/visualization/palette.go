package visualization

import (
	"image/color"
	"math/rand"
)

// NamedColors are the fixed colours given to the first clusters
var NamedColors = []color.RGBA{
	{255, 0, 0, 255},     // red
	{0, 255, 0, 255},     // green
	{0, 0, 255, 255},     // blue
	{255, 255, 0, 255},   // yellow
	{0, 255, 255, 255},   // cyan
	{255, 0, 255, 255},   // magenta
	{192, 192, 192, 255}, // silver
	{128, 0, 0, 255},     // maroon
	{128, 128, 0, 255},   // olive
	{0, 128, 0, 255},     // dark green
	{128, 0, 128, 255},   // purple
	{0, 128, 128, 255},   // teal
	{255, 165, 0, 255},   // orange
	{255, 192, 203, 255}, // pink
	{75, 0, 130, 255},    // indigo
}

var (
	// FallbackColor paints labels that have no palette entry
	FallbackColor = color.RGBA{30, 30, 30, 255}

	// OutsideColor paints pixels not covered by the label matrix
	OutsideColor = color.RGBA{0, 0, 0, 255}
)

// Palette returns n colours: the named colours first, then random opaque
// colours drawn from rng.
func Palette(n int, rng *rand.Rand) []color.RGBA {
	colors := make([]color.RGBA, 0, n)
	for i := 0; i < n; i++ {
		if i < len(NamedColors) {
			colors = append(colors, NamedColors[i])
			continue
		}
		colors = append(colors, color.RGBA{
			R: uint8(rng.Intn(256)),
			G: uint8(rng.Intn(256)),
			B: uint8(rng.Intn(256)),
			A: 255,
		})
	}
	return colors
}
