package features

import (
	"image"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/nfnt/resize"
)

// DominantColorSize caps the longer side of the image averaged by DominantColor.
const DominantColorSize = 64

// DominantColor returns the per-channel mean of img after downscaling its
// longer side to at most DominantColorSize. Channels are truncated.
func DominantColor(img image.Image) frame.RGB {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return frame.RGB{}
	}

	if longer := max(w, h); longer > DominantColorSize {
		nw := max(1, w*DominantColorSize/longer)
		nh := max(1, h*DominantColorSize/longer)
		img = resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)
		b = img.Bounds()
	}

	var sr, sg, sb uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sr += uint64(r >> 8)
			sg += uint64(g >> 8)
			sb += uint64(bl >> 8)
		}
	}
	n := uint64(b.Dx() * b.Dy())
	return frame.RGB{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n)}
}
