package ocr

import (
	"image"
	"math"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

// DefaultBinarizeThreshold separates light market text from dark UI backgrounds.
const DefaultBinarizeThreshold = 180

// Binarize converts img to grayscale, equalizes its histogram and thresholds it:
// pixels brighter than threshold become white, everything else black.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	g := EqualizeHist(frame.Gray(img))
	for i, v := range g.Pix {
		if v > threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
	return g
}

// EqualizeHist spreads the intensity histogram of g over the full 0..255 range.
// A uniform image keeps its single intensity.
func EqualizeHist(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Rect)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	total := w * h
	if total == 0 {
		return out
	}

	var hist [256]int
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, v := range row {
			hist[v]++
		}
	}

	first := 0
	for hist[first] == 0 {
		first++
	}

	var lut [256]uint8
	if hist[first] == total {
		for i := range lut {
			lut[i] = uint8(first)
		}
	} else {
		scale := 255.0 / float64(total-hist[first])
		sum := 0
		for i := first + 1; i < 256; i++ {
			sum += hist[i]
			lut[i] = uint8(math.Min(255, math.Round(float64(sum)*scale)))
		}
	}

	for y := 0; y < h; y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+w]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x, v := range src {
			dst[x] = lut[v]
		}
	}
	return out
}
