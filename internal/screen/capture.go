package screen

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

type displayBackend struct{}

func (displayBackend) displayBounds() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, errors.New("no active displays found")
	}
	return screenshot.GetDisplayBounds(0), nil
}

func (displayBackend) grab(rect image.Rectangle) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("capturing %v: %w", rect, err)
	}
	return img, nil
}

// New creates a capturer for the local displays.
func New() Capturer {
	return newBase(displayBackend{})
}
