package features

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// countingEngine returns texts in call order, repeating the last one, or
// text when texts is empty.
type countingEngine struct {
	text  string
	texts []string
	err   error
	calls int
}

func (c *countingEngine) ExtractText(context.Context, image.Image, ocr.Options) (string, error) {
	c.calls++
	if len(c.texts) > 0 {
		return c.texts[min(c.calls, len(c.texts))-1], c.err
	}
	return c.text, c.err
}

// priceStrip draws 5x7 white glyph blocks on black. Each entry of holes
// clears the centre pixel of that glyph, standing in for a changed digit.
func priceStrip(holes ...int) *image.RGBA {
	img := solid(300, 30, color.RGBA{A: 255})
	white := &image.Uniform{C: color.RGBA{R: 255, G: 255, B: 255, A: 255}}
	for g := 0; g < 8; g++ {
		r := image.Rect(200+g*8, 10, 205+g*8, 17)
		draw.Draw(img, r, white, image.Point{}, draw.Src)
	}
	for _, g := range holes {
		img.Set(202+g*8, 13, color.RGBA{A: 255})
	}
	return img
}

func TestDominantColorSolid(t *testing.T) {
	colors := []color.RGBA{
		{R: 255, A: 255},
		{R: 12, G: 200, B: 99, A: 255},
		{A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	}
	sizes := []image.Point{{1, 1}, {3, 7}, {64, 64}, {640, 200}, {1920, 1080}}

	for _, c := range colors {
		for _, sz := range sizes {
			got := DominantColor(solid(sz.X, sz.Y, c))
			want := frame.RGB{R: c.R, G: c.G, B: c.B}
			if got != want {
				t.Errorf("DominantColor(%v @ %v) = %v, want %v", c, sz, got, want)
			}
		}
	}
}

func TestDominantColorTruncates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, A: 255})
	img.Set(1, 0, color.RGBA{R: 11, A: 255})

	if got := DominantColor(img); got.R != 10 {
		t.Errorf("R = %d, want 10 (mean 10.5 truncated)", got.R)
	}
}

func TestDominantColorEmpty(t *testing.T) {
	if got := DominantColor(image.NewRGBA(image.Rect(0, 0, 0, 0))); got != (frame.RGB{}) {
		t.Errorf("DominantColor(empty) = %v", got)
	}
}

func TestRedPixelCount(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		want int
	}{
		{"pure red", color.RGBA{R: 255, A: 255}, 100},
		{"black", color.RGBA{A: 255}, 0},
		{"white", color.RGBA{R: 255, G: 255, B: 255, A: 255}, 0},
		{"crimson wraps past 340", color.RGBA{R: 220, G: 20, B: 60, A: 255}, 100},
		{"dark red below value floor", color.RGBA{R: 40, A: 255}, 0},
		{"washed out pink", color.RGBA{R: 255, G: 200, B: 200, A: 255}, 0},
		{"green", color.RGBA{G: 255, A: 255}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solid(10, 10, tt.c)
			if got := RedPixelCount(img, img.Bounds()); got != tt.want {
				t.Errorf("RedPixelCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRedPixelCountDefaultROI(t *testing.T) {
	img := solid(10, 10, color.RGBA{R: 255, A: 255})
	if got := RedPixelCount(img, DefaultROI(img.Bounds())); got != 20 {
		t.Errorf("top 20%% of 10x10 = %d, want 20", got)
	}
}

func TestRedPixelCountEmptyROI(t *testing.T) {
	img := solid(10, 4, color.RGBA{R: 255, A: 255})
	if got := RedPixelCount(img, DefaultROI(img.Bounds())); got != 0 {
		t.Errorf("ROI of zero height = %d, want 0", got)
	}
	if got := RedPixelCount(img, image.Rect(50, 50, 60, 60)); got != 0 {
		t.Errorf("ROI outside frame = %d, want 0", got)
	}
}

func TestExtract(t *testing.T) {
	eng := &countingEngine{text: "  danger \n zone "}
	img := solid(20, 10, color.RGBA{R: 255, A: 255})
	f := frame.New("screen", img, time.Now())

	fs := NewExtractor(eng, WithNormalize(), WithRedROI(image.Rect(0, 0, 5, 5))).Extract(context.Background(), f)

	if fs.DominantColor != (frame.RGB{R: 255}) {
		t.Errorf("DominantColor = %v", fs.DominantColor)
	}
	if fs.RedPixels != 25 {
		t.Errorf("RedPixels = %d, want 25", fs.RedPixels)
	}
	if fs.OCR.Text != "danger zone" {
		t.Errorf("OCR = %q", fs.OCR.Text)
	}
	if fs.ChangeScore != 0 {
		t.Errorf("ChangeScore = %v, extractor must not set it", fs.ChangeScore)
	}
}

func TestExtractOCRFailureIsNotFatal(t *testing.T) {
	eng := &countingEngine{err: errors.New("engine gone")}
	f := frame.New("screen", solid(10, 10, color.RGBA{R: 255, A: 255}), time.Now())

	fs := NewExtractor(eng).Extract(context.Background(), f)
	if !fs.OCR.Failed() {
		t.Fatal("OCR should report failure")
	}
	if fs.RedPixels != 20 {
		t.Errorf("RedPixels = %d, other features must still be computed", fs.RedPixels)
	}
}

func TestGateSkipsIdenticalFrames(t *testing.T) {
	for _, mode := range []string{GateExact, GatePerceptual} {
		t.Run(mode, func(t *testing.T) {
			eng := &countingEngine{text: "Iron Ore 100"}
			ex := NewExtractor(eng, WithGate(NewOCRGate(mode, 0)), WithBinarize(ocr.DefaultBinarizeThreshold))
			img := priceStrip()

			for i := 0; i < 3; i++ {
				res := ex.Text(context.Background(), frame.New("market", img, time.Now()))
				if res.Text != "Iron Ore 100" {
					t.Fatalf("Text() = %q", res.Text)
				}
			}
			if eng.calls != 1 {
				t.Errorf("engine calls = %d, want 1", eng.calls)
			}
		})
	}
}

func TestExactGateSeesSingleGlyphChange(t *testing.T) {
	eng := &countingEngine{texts: []string{"Iron Sword 1200", "Iron Sword 1900"}}
	ex := NewExtractor(eng, WithGate(NewOCRGate(GateExact, 0)), WithBinarize(ocr.DefaultBinarizeThreshold))

	first := ex.Text(context.Background(), frame.New("martlock", priceStrip(), time.Now()))
	second := ex.Text(context.Background(), frame.New("martlock", priceStrip(1), time.Now()))

	if first.Text != "Iron Sword 1200" || second.Text != "Iron Sword 1900" {
		t.Errorf("texts = %q, %q, a changed digit must be recognised again", first.Text, second.Text)
	}
	if eng.calls != 2 {
		t.Errorf("engine calls = %d, want 2", eng.calls)
	}
}

func TestGateIsPerRegion(t *testing.T) {
	eng := &countingEngine{text: "x"}
	ex := NewExtractor(eng, WithGate(NewOCRGate(GateExact, 0)))
	img := solid(16, 16, color.RGBA{B: 90, A: 255})

	ex.Text(context.Background(), frame.New("a", img, time.Now()))
	ex.Text(context.Background(), frame.New("b", img, time.Now()))
	if eng.calls != 2 {
		t.Errorf("engine calls = %d, want one per region", eng.calls)
	}
}

func TestGateDisabled(t *testing.T) {
	for _, mode := range []string{GateOff, "unknown"} {
		eng := &countingEngine{text: "x"}
		ex := NewExtractor(eng, WithGate(NewOCRGate(mode, 0)))
		img := solid(16, 16, color.RGBA{B: 90, A: 255})

		ex.Text(context.Background(), frame.New("a", img, time.Now()))
		ex.Text(context.Background(), frame.New("a", img, time.Now()))
		if eng.calls != 2 {
			t.Errorf("mode %q: engine calls = %d, want 2", mode, eng.calls)
		}
	}
}

func TestGateDoesNotCacheFailures(t *testing.T) {
	eng := &countingEngine{err: errors.New("down")}
	ex := NewExtractor(eng, WithGate(NewOCRGate(GateExact, 0)))
	img := solid(16, 16, color.RGBA{B: 90, A: 255})

	ex.Text(context.Background(), frame.New("a", img, time.Now()))
	ex.Text(context.Background(), frame.New("a", img, time.Now()))
	if eng.calls != 2 {
		t.Errorf("engine calls = %d, failures must be retried", eng.calls)
	}
}

func TestDigestCoversWholeImage(t *testing.T) {
	a := priceStrip()
	b := priceStrip(7)
	if digest(a) == digest(b) {
		t.Error("digest should change when the last glyph changes")
	}
	if digest(a) != digest(priceStrip()) {
		t.Error("digest should be stable for identical pixels")
	}
	sub := a.SubImage(image.Rect(0, 0, 100, 30))
	if digest(sub) == digest(a) {
		t.Error("digest should include the image size")
	}
}
