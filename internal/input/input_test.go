package input

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/screenwatch/internal/errors"
)

func TestLineSourceCountsLines(t *testing.T) {
	clicks := 0
	err := NewLineSource(strings.NewReader("\n\nx\n")).Run(context.Background(), func() { clicks++ })
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if clicks != 3 {
		t.Errorf("clicks = %d, want 3", clicks)
	}
}

func TestLineSourceStopsOnCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewLineSource(r).Run(ctx, func() {}) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestHookSourceWithoutTag(t *testing.T) {
	if _, err := NewHookSource(); err != nil && !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("NewHookSource() error = %v, want CONFIG_INVALID", err)
	}
}
