//go:build tesseract

package ocr

import (
	"context"
	"image"
	"sync"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs recognition in-process through libtesseract.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates an engine for the given languages (default "eng").
func NewTesseractEngine(langs ...string) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			client.Close()
			return nil, apperrors.Wrap(err, apperrors.CodeConfigInvalid, "set tesseract language")
		}
	}
	return &TesseractEngine{client: client}, nil
}

// ExtractText implements Engine. Calls are serialised: the client is not
// safe for concurrent use.
func (e *TesseractEngine) ExtractText(ctx context.Context, img image.Image, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeCancelled, "ocr cancelled")
	}
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	mode := gosseract.PSM_AUTO
	if opts.PageSegMode != PageSegAuto {
		mode = gosseract.PageSegMode(opts.PageSegMode)
	}
	if err := e.client.SetPageSegMode(mode); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeOCRFailed, "set page segmentation mode")
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeOCRFailed, "load image")
	}
	text, err := e.client.Text()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeOCRFailed, "recognise text")
	}
	return text, nil
}

// Close releases the tesseract handle.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
