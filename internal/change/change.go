// Package change scores how much a region changed between two captures.
package change

import (
	"image"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/nfnt/resize"
)

// DiffThreshold is the intensity difference above which a pixel counts as changed.
const DiffThreshold = 30

// Score returns the fraction of pixels whose intensity differs by more than
// DiffThreshold. A nil prev scores 0. Frames of different sizes are both
// resized to the smaller shape first.
func Score(prev, cur *frame.Frame) float64 {
	if prev == nil || cur == nil {
		return 0
	}
	a := frame.Gray(prev.Image())
	b := frame.Gray(cur.Image())

	if a.Rect.Size() != b.Rect.Size() {
		w := uint(min(a.Rect.Dx(), b.Rect.Dx()))
		h := uint(min(a.Rect.Dy(), b.Rect.Dy()))
		if w == 0 || h == 0 {
			return 0
		}
		a = toGray(resize.Resize(w, h, a, resize.Bilinear))
		b = toGray(resize.Resize(w, h, b, resize.Bilinear))
	}

	w, h := a.Rect.Dx(), a.Rect.Dy()
	total := w * h
	if total == 0 {
		return 0
	}

	changed := 0
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x := range ra {
			d := int(ra[x]) - int(rb[x])
			if d < 0 {
				d = -d
			}
			if d > DiffThreshold {
				changed++
			}
		}
	}
	return float64(changed) / float64(total)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	return frame.Gray(img)
}

// Tracker keeps the most recent frame per region. It is owned by a single
// session flow and is not safe for concurrent use.
type Tracker struct {
	last map[string]*frame.Frame
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]*frame.Frame)}
}

// Observe scores cur against the previous frame of its region and retains
// cur as the new previous frame.
func (t *Tracker) Observe(cur *frame.Frame) float64 {
	score := Score(t.last[cur.RegionID], cur)
	t.last[cur.RegionID] = cur
	return score
}

// Last returns the retained frame for region, or nil.
func (t *Tracker) Last(region string) *frame.Frame {
	return t.last[region]
}
