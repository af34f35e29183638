//go:build clickhook

package input

import (
	"context"
	"log/slog"

	hook "github.com/robotn/gohook"
)

// HookSource listens for global left mouse button presses.
type HookSource struct{}

// NewHookSource returns the global mouse hook source.
func NewHookSource() (*HookSource, error) {
	return &HookSource{}, nil
}

// Run implements Source.
func (s *HookSource) Run(ctx context.Context, onClick func()) error {
	events := hook.Start()
	defer hook.End()
	slog.Info("mouse hook started")

	left := hook.MouseMap["left"]
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == hook.MouseDown && ev.Button == left {
				onClick()
			}
		}
	}
}
