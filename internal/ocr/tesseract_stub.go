//go:build !tesseract

package ocr

import (
	"context"
	"image"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// TesseractEngine is unavailable in builds without the tesseract tag.
type TesseractEngine struct{}

// NewTesseractEngine reports that in-process recognition was not compiled in.
func NewTesseractEngine(...string) (*TesseractEngine, error) {
	return nil, apperrors.New(apperrors.CodeConfigInvalid, "built without tesseract support; rebuild with -tags tesseract or use OCR_ENGINE=grpc")
}

// ExtractText implements Engine.
func (e *TesseractEngine) ExtractText(context.Context, image.Image, Options) (string, error) {
	return "", apperrors.New(apperrors.CodeOCRUnavailable, "tesseract not compiled in")
}

// Close is a no-op.
func (e *TesseractEngine) Close() error { return nil }
