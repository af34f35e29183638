//go:build !clickhook

package input

import (
	"context"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// HookSource is unavailable in builds without the clickhook tag.
type HookSource struct{}

// NewHookSource reports that the global mouse hook was not compiled in.
func NewHookSource() (*HookSource, error) {
	return nil, apperrors.New(apperrors.CodeConfigInvalid, "built without mouse hook support; rebuild with -tags clickhook or use CLICK_SOURCE=stdin")
}

// Run implements Source.
func (s *HookSource) Run(context.Context, func()) error {
	return apperrors.New(apperrors.CodeConfigInvalid, "mouse hook not compiled in")
}
