// Package input delivers click events to the click-triggered session.
package input

import (
	"bufio"
	"context"
	"io"
)

// Source runs a listening loop and calls onClick for every click until ctx
// is cancelled. onClick must return quickly.
type Source interface {
	Run(ctx context.Context, onClick func()) error
}

// LineSource treats every line read from r as a click. It serves headless
// runs where a newline on stdin stands in for the mouse.
type LineSource struct {
	r io.Reader
}

// NewLineSource reads clicks from r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r}
}

// Run implements Source. It returns nil at end of input.
func (s *LineSource) Run(ctx context.Context, onClick func()) error {
	lines := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.r)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case <-lines:
			onClick()
		}
	}
}
