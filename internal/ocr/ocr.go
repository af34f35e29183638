// Package ocr wraps text recognition engines behind a typed result.
package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// ErrorMarker prefixes the display form of a failed recognition.
const ErrorMarker = "OCR_ERROR: "

// Page segmentation hints understood by tesseract-compatible engines.
const (
	PageSegAuto        = 0
	PageSegSingleBlock = 6
)

// Options tunes one recognition call.
type Options struct {
	// PageSegMode is forwarded to the engine when non-zero.
	PageSegMode int
}

// Engine recognises text in an image. Results are not assumed deterministic.
type Engine interface {
	ExtractText(ctx context.Context, img image.Image, opts Options) (string, error)
}

// Result separates recognised text from engine failure.
type Result struct {
	Text string
	Err  error
}

// Failed reports whether the engine failed.
func (r Result) Failed() bool { return r.Err != nil }

// Display returns the text, or the error marker string for a failed call.
func (r Result) Display() string {
	if r.Err != nil {
		return ErrorMarker + r.Err.Error()
	}
	return r.Text
}

// Recognize runs the engine and never returns an error: failures land in Result.Err.
func Recognize(ctx context.Context, engine Engine, img image.Image, opts Options) Result {
	if engine == nil {
		return Result{Err: apperrors.New(apperrors.CodeOCRUnavailable, "no OCR engine configured")}
	}
	text, err := engine.ExtractText(ctx, img, opts)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			err = apperrors.Wrap(err, apperrors.CodeOCRFailed, "extract text")
		}
		return Result{Err: err}
	}
	return Result{Text: text}
}

// Normalize collapses whitespace runs into single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// EncodePNG encodes img for transport to an engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeOCRFailed, "encode png")
	}
	return buf.Bytes(), nil
}
