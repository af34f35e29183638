package record

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/screenwatch/internal/trace"
)

// Batcher defaults
const (
	DefaultBatcherMaxSize    = 50
	DefaultBatcherFlushDelay = 2 * time.Second
)

// FlushFunc writes one batch.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Batcher accumulates items and flushes them when full or after a quiet delay.
type Batcher[T any] struct {
	name       string
	flush      FlushFunc[T]
	maxSize    int
	flushDelay time.Duration

	mu    sync.Mutex
	items []T
	timer *time.Timer
	wg    sync.WaitGroup
}

// NewBatcher creates a batcher. Non-positive sizes select the defaults.
func NewBatcher[T any](name string, flush FlushFunc[T], maxSize int, flushDelay time.Duration) *Batcher[T] {
	if maxSize <= 0 {
		maxSize = DefaultBatcherMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultBatcherFlushDelay
	}
	return &Batcher[T]{
		name:       name,
		flush:      flush,
		maxSize:    maxSize,
		flushDelay: flushDelay,
		items:      make([]T, 0, maxSize),
	}
}

// Add queues an item.
func (b *Batcher[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, item)

	if len(b.items) >= b.maxSize {
		b.flushLocked()
		return
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.flushDelay, b.timerFlush)
	} else {
		b.timer.Reset(b.flushDelay)
	}
}

// Pending returns the number of queued items.
func (b *Batcher[T]) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Batcher[T]) timerFlush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *Batcher[T]) flushLocked() {
	if len(b.items) == 0 {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	items := b.items
	b.items = make([]T, 0, b.maxSize)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, span := trace.Start(context.Background(), b.name+"_flush")
		defer span.End()
		span.Set("count", len(items))

		log := trace.Logger(ctx)
		if err := b.flush(ctx, items); err != nil {
			span.Fail(err)
			log.Warn("batch flush failed", "batch", b.name, "error", err, "count", len(items))
			return
		}
		log.Debug("batch flushed", "batch", b.name, "count", len(items))
	}()
}

// Flush forces an immediate flush of pending items.
func (b *Batcher[T]) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Stop flushes remaining items and waits for in-flight flushes.
func (b *Batcher[T]) Stop() {
	b.Flush()
	b.wg.Wait()
}
