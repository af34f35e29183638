package change

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

func solidFrame(region string, w, h int, c color.Color) *frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return frame.New(region, img, time.Now())
}

func TestScoreIdentity(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	f := frame.New("r", img, time.Now())
	if got := Score(f, f); got != 0 {
		t.Errorf("Score(f, f) = %v, want 0", got)
	}
}

func TestScoreNoPrevious(t *testing.T) {
	if got := Score(nil, solidFrame("r", 4, 4, color.White)); got != 0 {
		t.Errorf("Score(nil, f) = %v, want 0", got)
	}
}

func TestScoreBlackToWhite(t *testing.T) {
	if got := Score(solidFrame("r", 4, 4, color.Black), solidFrame("r", 4, 4, color.White)); got != 1 {
		t.Errorf("Score(black, white) = %v, want 1", got)
	}
}

func TestScorePartial(t *testing.T) {
	prev := solidFrame("r", 4, 4, color.Black)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 4, 1), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if got := Score(prev, frame.New("r", img, time.Now())); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Score() = %v, want 0.25", got)
	}
}

func TestScoreBelowDiffThreshold(t *testing.T) {
	prev := solidFrame("r", 4, 4, color.Gray{Y: 100})
	cur := solidFrame("r", 4, 4, color.Gray{Y: 100 + DiffThreshold})
	if got := Score(prev, cur); got != 0 {
		t.Errorf("difference of exactly DiffThreshold scored %v, want 0", got)
	}
}

func TestScoreResizesToSmaller(t *testing.T) {
	small := solidFrame("r", 4, 4, color.Black)
	large := solidFrame("r", 16, 8, color.White)

	if got := Score(small, large); got != 1 {
		t.Errorf("Score(small, large) = %v, want 1", got)
	}
	if got := Score(large, small); got != 1 {
		t.Errorf("Score(large, small) = %v, want 1", got)
	}
	if got := Score(solidFrame("r", 16, 8, color.Black), small); got != 0 {
		t.Errorf("same content at different sizes scored %v, want 0", got)
	}
}

func TestTrackerPerRegion(t *testing.T) {
	tr := NewTracker()
	black := solidFrame("a", 4, 4, color.Black)

	if got := tr.Observe(black); got != 0 {
		t.Errorf("first observation = %v, want 0", got)
	}
	if got := tr.Observe(solidFrame("b", 4, 4, color.White)); got != 0 {
		t.Errorf("first observation of another region = %v, want 0", got)
	}
	if got := tr.Observe(solidFrame("a", 4, 4, color.White)); got != 1 {
		t.Errorf("second observation = %v, want 1", got)
	}
	if tr.Last("a") == black {
		t.Error("tracker should retain the latest frame")
	}
}
