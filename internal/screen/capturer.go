// Package screen provides the frame source: region capture with buffer validation.
package screen

import (
	"context"
	"image"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/GriffinCanCode/screenwatch/internal/frame"
)

// Capturer returns a frame for a screen region.
type Capturer interface {
	Capture(ctx context.Context, region frame.Region) (*frame.Frame, error)
}

// backend implements the raw pixel grab.
type backend interface {
	displayBounds() (image.Rectangle, error)
	grab(rect image.Rectangle) (*image.RGBA, error)
}

// baseCapturer validates raw buffers and stamps frames.
type baseCapturer struct {
	backend
	now func() time.Time
}

func newBase(b backend) *baseCapturer {
	return &baseCapturer{backend: b, now: time.Now}
}

func (c *baseCapturer) Capture(ctx context.Context, region frame.Region) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "capture cancelled")
	}
	if !region.Valid() {
		return nil, apperrors.Newf(apperrors.CodeCaptureFailed, "invalid region %s", region)
	}

	rect := region.Rect()
	if region.FullScreen {
		b, err := c.displayBounds()
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeCaptureFailed, "display bounds")
		}
		rect = b
	}

	img, err := c.grab(rect)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeCaptureFailed, "grab %s", region)
	}
	if img == nil || img.Rect.Dx() != rect.Dx() || img.Rect.Dy() != rect.Dy() || len(img.Pix) < img.Stride*img.Rect.Dy() {
		return nil, apperrors.Newf(apperrors.CodeCaptureMalformed, "buffer for %s does not match %dx%d", region, rect.Dx(), rect.Dy())
	}
	return frame.New(region.ID, img, c.now()), nil
}
