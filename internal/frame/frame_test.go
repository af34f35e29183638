package frame

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestNewCopiesPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{R: 200, A: 255})

	f := New("main", src, time.Now())
	src.Set(10, 10, color.RGBA{G: 200, A: 255})

	if f.Width() != 4 || f.Height() != 2 {
		t.Fatalf("size = %dx%d, want 4x2", f.Width(), f.Height())
	}
	if got := f.Image().RGBAAt(0, 0); got.R != 200 || got.G != 0 {
		t.Errorf("pixel = %+v, frame should not share the source buffer", got)
	}
	if f.Bounds().Min != (image.Point{}) {
		t.Errorf("bounds min = %v, want origin", f.Bounds().Min)
	}
}

func TestEmptyFrame(t *testing.T) {
	f := New("main", image.NewRGBA(image.Rect(0, 0, 0, 0)), time.Now())
	if !f.Empty() {
		t.Error("zero-size frame should be empty")
	}
}

func TestRegionFromCorners(t *testing.T) {
	r := FromCorners("caerleon", 100, 50, 400, 250)
	if r.Width != 300 || r.Height != 200 {
		t.Errorf("size = %dx%d, want 300x200", r.Width, r.Height)
	}
	if !r.Valid() {
		t.Error("region should be valid")
	}
	if r.Rect() != image.Rect(100, 50, 400, 250) {
		t.Errorf("Rect() = %v", r.Rect())
	}
	if FromCorners("bad", 10, 10, 5, 20).Valid() {
		t.Error("inverted corners should be invalid")
	}
	if !FullScreenRegion("screen").Valid() {
		t.Error("full screen region should be valid")
	}
}

func TestRGBString(t *testing.T) {
	if got := (RGB{R: 255, G: 16, B: 0}).String(); got != "#ff1000" {
		t.Errorf("String() = %q", got)
	}
}

func TestGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	src.Set(1, 0, color.RGBA{A: 255})

	g := Gray(src)
	if g.GrayAt(0, 0).Y != 255 || g.GrayAt(1, 0).Y != 0 {
		t.Errorf("gray = %v %v, want 255 0", g.GrayAt(0, 0), g.GrayAt(1, 0))
	}
}
