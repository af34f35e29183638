// Package session runs the capture-analyze-decide loops. Each session owns
// its mutable state (click counter, last frame per region, dedup keys) and
// passes it explicitly to the pipeline stages.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

// guard turns a panic inside one cycle into an INTERNAL error so the loop
// can continue with the next trigger.
func guard(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("cycle panicked", "cycle", name, "panic", r, "stack", string(debug.Stack()))
			err = apperrors.New(apperrors.CodeInternal, fmt.Sprintf("%s cycle panicked: %v", name, r))
		}
	}()
	return fn()
}

// logCycleError reports a failed cycle. Cancellation at shutdown is not logged.
func logCycleError(ctx context.Context, name string, err error) {
	if err == nil || ctx.Err() != nil {
		return
	}
	slog.Warn("cycle failed", "cycle", name, "code", apperrors.CodeOf(err).String(), "error", err)
}
