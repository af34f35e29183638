package ocr

import (
	"context"
	stderrors "errors"
	"image"
	"strings"
	"testing"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// fakeEngine returns canned output and records the options it saw.
type fakeEngine struct {
	text  string
	err   error
	calls int
	opts  Options
}

func (f *fakeEngine) ExtractText(_ context.Context, _ image.Image, opts Options) (string, error) {
	f.calls++
	f.opts = opts
	return f.text, f.err
}

func TestRecognizeSuccess(t *testing.T) {
	eng := &fakeEngine{text: "Iron Ore 1.200"}
	res := Recognize(context.Background(), eng, image.NewGray(image.Rect(0, 0, 4, 4)), Options{PageSegMode: PageSegSingleBlock})

	if res.Failed() {
		t.Fatalf("Recognize() failed: %v", res.Err)
	}
	if res.Display() != "Iron Ore 1.200" {
		t.Errorf("Display() = %q", res.Display())
	}
	if eng.opts.PageSegMode != PageSegSingleBlock {
		t.Errorf("PageSegMode = %d, want %d", eng.opts.PageSegMode, PageSegSingleBlock)
	}
}

func TestRecognizeWrapsEngineError(t *testing.T) {
	eng := &fakeEngine{err: stderrors.New("segfault")}
	res := Recognize(context.Background(), eng, image.NewGray(image.Rect(0, 0, 1, 1)), Options{})

	if !res.Failed() {
		t.Fatal("Recognize() should fail")
	}
	if !apperrors.IsCode(res.Err, apperrors.CodeOCRFailed) {
		t.Errorf("code = %v, want OCR_FAILED", apperrors.CodeOf(res.Err))
	}
	if !strings.HasPrefix(res.Display(), ErrorMarker) {
		t.Errorf("Display() = %q, want %q prefix", res.Display(), ErrorMarker)
	}
}

func TestRecognizeKeepsCodedError(t *testing.T) {
	eng := &fakeEngine{err: apperrors.New(apperrors.CodeTimeout, "slow")}
	res := Recognize(context.Background(), eng, image.NewGray(image.Rect(0, 0, 1, 1)), Options{})

	if !apperrors.IsCode(res.Err, apperrors.CodeTimeout) {
		t.Errorf("code = %v, want TIMEOUT", apperrors.CodeOf(res.Err))
	}
}

func TestRecognizeNilEngine(t *testing.T) {
	res := Recognize(context.Background(), nil, image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	if !apperrors.IsCode(res.Err, apperrors.CodeOCRUnavailable) {
		t.Errorf("code = %v, want OCR_UNAVAILABLE", apperrors.CodeOf(res.Err))
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello \n\t world  ", "hello world"},
		{"", ""},
		{"\n\n", ""},
		{"one", "one"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
