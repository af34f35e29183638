package features

import (
	"image"
	"math"
)

// HueBand is an inclusive hue interval in degrees.
type HueBand struct {
	Min, Max float64
}

// RedBands cover red on both sides of the hue wrap-around.
var RedBands = []HueBand{{Min: 0, Max: 20}, {Min: 340, Max: 360}}

// Saturation and value floors (0-255) that screen out dark and washed-out pixels.
const (
	MinRedSaturation = 80
	MinRedValue      = 50
)

// DefaultROIFraction is the share of the frame height, from the top, scanned for red.
const DefaultROIFraction = 0.2

// DefaultROI returns the top DefaultROIFraction of bounds.
func DefaultROI(bounds image.Rectangle) image.Rectangle {
	h := int(float64(bounds.Dy()) * DefaultROIFraction)
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+h)
}

// RedPixelCount counts pixels in roi (clipped to img) whose hue lies in any
// of RedBands with saturation and value above the floors. An empty roi counts 0.
func RedPixelCount(img image.Image, roi image.Rectangle) int {
	roi = roi.Intersect(img.Bounds())
	if roi.Empty() {
		return 0
	}

	count := 0
	for y := roi.Min.Y; y < roi.Max.Y; y++ {
		for x := roi.Min.X; x < roi.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if isRed(uint8(r>>8), uint8(g>>8), uint8(b>>8)) {
				count++
			}
		}
	}
	return count
}

func isRed(r, g, b uint8) bool {
	h, s, v := hsv(r, g, b)
	if s < MinRedSaturation || v < MinRedValue {
		return false
	}
	for _, band := range RedBands {
		if h >= band.Min && h <= band.Max {
			return true
		}
	}
	return false
}

// hsv converts to hue in degrees [0,360) and saturation/value on 0..255.
func hsv(r, g, b uint8) (h float64, s, v uint8) {
	hi := max(r, g, b)
	lo := min(r, g, b)
	v = hi
	if hi == 0 {
		return 0, 0, 0
	}
	delta := float64(hi - lo)
	s = uint8(math.Round(255 * delta / float64(hi)))
	if delta == 0 {
		return 0, s, v
	}

	rf, gf, bf := float64(r), float64(g), float64(b)
	switch hi {
	case r:
		h = 60 * (gf - bf) / delta
	case g:
		h = 120 + 60*(bf-rf)/delta
	default:
		h = 240 + 60*(rf-gf)/delta
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
