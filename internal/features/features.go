// Package features derives the per-frame feature set: dominant color, red
// indicator pixels and recognised text.
package features

import (
	"context"
	"image"

	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
)

// FeatureSet is computed once per frame and not modified afterwards.
// ChangeScore is filled by the session from its change tracker.
type FeatureSet struct {
	DominantColor frame.RGB
	OCR           ocr.Result
	RedPixels     int
	ChangeScore   float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRedROI replaces the default top-of-frame red scan area.
func WithRedROI(roi image.Rectangle) Option {
	return func(e *Extractor) {
		e.redROI = &roi
	}
}

// WithOCROptions sets the engine hints passed on every recognition.
func WithOCROptions(opts ocr.Options) Option {
	return func(e *Extractor) {
		e.ocrOpts = opts
	}
}

// WithBinarize enables contrast equalisation and thresholding before OCR.
func WithBinarize(threshold uint8) Option {
	return func(e *Extractor) {
		e.binarize = true
		e.threshold = threshold
	}
}

// WithNormalize collapses whitespace in recognised text.
func WithNormalize() Option {
	return func(e *Extractor) {
		e.normalize = true
	}
}

// WithGate skips recognition for regions that look unchanged.
func WithGate(g *OCRGate) Option {
	return func(e *Extractor) {
		e.gate = g
	}
}

// Extractor computes FeatureSets. It holds no per-frame state apart from the
// optional OCR gate.
type Extractor struct {
	engine    ocr.Engine
	ocrOpts   ocr.Options
	redROI    *image.Rectangle
	binarize  bool
	threshold uint8
	normalize bool
	gate      *OCRGate
}

// NewExtractor creates an extractor using engine for text recognition.
func NewExtractor(engine ocr.Engine, opts ...Option) *Extractor {
	e := &Extractor{engine: engine, threshold: ocr.DefaultBinarizeThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes every feature of f except the change score. OCR failure
// is reported in the result, never as an error.
func (e *Extractor) Extract(ctx context.Context, f *frame.Frame) FeatureSet {
	img := f.Image()
	roi := DefaultROI(img.Bounds())
	if e.redROI != nil {
		roi = *e.redROI
	}
	return FeatureSet{
		DominantColor: DominantColor(img),
		RedPixels:     RedPixelCount(img, roi),
		OCR:           e.Text(ctx, f),
	}
}

// Text runs recognition only, as the arbitrage path needs.
func (e *Extractor) Text(ctx context.Context, f *frame.Frame) ocr.Result {
	var img image.Image = f.Image()
	if e.binarize {
		img = ocr.Binarize(img, e.threshold)
	}

	key, cached, hit := e.gate.Lookup(f.RegionID, img)
	if hit {
		return ocr.Result{Text: cached}
	}

	res := ocr.Recognize(ctx, e.engine, img, e.ocrOpts)
	if res.Failed() {
		return res
	}
	if e.normalize {
		res.Text = ocr.Normalize(res.Text)
	}
	e.gate.Store(f.RegionID, key, res.Text)
	return res
}
