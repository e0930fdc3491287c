package legend

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/colornames"
)

// Swatches draws entries as a vertical strip of square swatches, top to bottom.
// Unknown color names are drawn transparent.
func Swatches(entries []Entry, size int) *image.RGBA {
	if size <= 0 {
		size = 18
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size*len(entries)))
	for i, e := range entries {
		c, ok := colornames.Map[string(e.Color)]
		if !ok {
			c = color.RGBA{}
		}

		rect := image.Rect(0, i*size, size, (i+1)*size)
		draw.Draw(img, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}

	return img
}

// EncodeWebP writes img losslessly so swatch colors survive exactly.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := webp.Encode(w, img, &webp.Options{Lossless: true}); err != nil {
		return fmt.Errorf("encode legend: %w", err)
	}
	return nil
}
