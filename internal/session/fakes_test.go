package session

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/arbitrage"
	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
	"github.com/GriffinCanCode/screenwatch/internal/ocr"
	"github.com/GriffinCanCode/screenwatch/internal/record"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// scriptedCapturer returns queued images per region, repeating the last one.
type scriptedCapturer struct {
	mu     sync.Mutex
	images map[string][]image.Image
	fail   map[string]int
	calls  []string
}

func newCapturer() *scriptedCapturer {
	return &scriptedCapturer{images: map[string][]image.Image{}, fail: map[string]int{}}
}

func (c *scriptedCapturer) queue(region string, imgs ...image.Image) *scriptedCapturer {
	c.images[region] = append(c.images[region], imgs...)
	return c
}

func (c *scriptedCapturer) failNext(region string, n int) *scriptedCapturer {
	c.fail[region] = n
	return c
}

func (c *scriptedCapturer) Capture(_ context.Context, r frame.Region) (*frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, r.ID)
	if c.fail[r.ID] > 0 {
		c.fail[r.ID]--
		return nil, apperrors.New(apperrors.CodeCaptureFailed, "display unavailable").WithMetadata("region", r.ID)
	}
	q := c.images[r.ID]
	img := q[0]
	if len(q) > 1 {
		c.images[r.ID] = q[1:]
	}
	return frame.New(r.ID, img, time.Now()), nil
}

// scriptedOCR returns queued texts in call order, repeating the last one.
type scriptedOCR struct {
	mu    sync.Mutex
	texts []string
	err   error
	opts  []ocr.Options
}

func (o *scriptedOCR) ExtractText(_ context.Context, _ image.Image, opts ocr.Options) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opts = append(o.opts, opts)
	if o.err != nil {
		return "", o.err
	}
	t := o.texts[0]
	if len(o.texts) > 1 {
		o.texts = o.texts[1:]
	}
	return t, nil
}

type recordingSink struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (s *recordingSink) Publish(_ context.Context, p any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type memoryLog struct {
	mu      sync.Mutex
	samples []record.Sample
	opps    []arbitrage.Opportunity
}

func (l *memoryLog) RecordSample(_ context.Context, s record.Sample) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, s)
	return nil
}

func (l *memoryLog) RecordOpportunity(_ context.Context, o arbitrage.Opportunity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opps = append(l.opps, o)
	return nil
}
