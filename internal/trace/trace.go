// Package trace tags each capture cycle with trace and span ids so logs,
// alert posts and OCR calls from one cycle can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Propagation keys for HTTP headers and gRPC metadata.
const (
	TraceIDKey      = "x-trace-id"
	SpanIDKey       = "x-span-id"
	ParentSpanIDKey = "x-parent-span-id"
)

type idsKey struct{}

// IDs identifies one span within a trace.
type IDs struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
}

// Root starts a new trace.
func Root() IDs {
	return IDs{TraceID: newTraceID(), SpanID: newSpanID()}
}

// Child returns a new span in the same trace, parented to ids.
func (ids IDs) Child() IDs {
	return IDs{TraceID: ids.TraceID, SpanID: newSpanID(), ParentSpanID: ids.SpanID}
}

// logArgs returns the ids as slog key/value pairs.
func (ids IDs) logArgs() []any {
	args := []any{"trace_id", ids.TraceID, "span_id", ids.SpanID}
	if ids.ParentSpanID != "" {
		args = append(args, "parent_span_id", ids.ParentSpanID)
	}
	return args
}

// From returns the ids carried by ctx.
func From(ctx context.Context) (IDs, bool) {
	ids, ok := ctx.Value(idsKey{}).(IDs)
	return ids, ok
}

// Into returns a copy of ctx carrying ids.
func Into(ctx context.Context, ids IDs) context.Context {
	return context.WithValue(ctx, idsKey{}, ids)
}

// Ensure returns ctx and its ids, starting a new trace if ctx has none.
func Ensure(ctx context.Context) (context.Context, IDs) {
	if ids, ok := From(ctx); ok {
		return ctx, ids
	}
	ids := Root()
	return Into(ctx, ids), ids
}

// continued builds the local span for a request that arrived with the
// caller's trace and span ids. Missing trace ids start a new trace.
func continued(traceID, callerSpanID string) IDs {
	if traceID == "" {
		return IDs{TraceID: newTraceID(), SpanID: newSpanID(), ParentSpanID: callerSpanID}
	}
	return IDs{TraceID: traceID, SpanID: newSpanID(), ParentSpanID: callerSpanID}
}

func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func newSpanID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Span times one cycle or stage. It is not safe for concurrent use.
type Span struct {
	Name    string
	IDs     IDs
	Started time.Time
	Ended   time.Time
	attrs   []slog.Attr
	err     error
}

// Start begins a span as a child of any span in ctx.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	ids := Root()
	if parent, ok := From(ctx); ok && parent.TraceID != "" {
		ids = parent.Child()
	}
	s := &Span{Name: name, IDs: ids, Started: time.Now()}
	return Into(ctx, ids), s
}

// Set records an attribute. Later values for the same key are appended, not replaced.
func (s *Span) Set(key string, val any) {
	s.attrs = append(s.attrs, slog.Any(key, val))
}

// Fail marks the span as failed with err.
func (s *Span) Fail(err error) {
	s.err = err
}

// Err returns the error passed to Fail.
func (s *Span) Err() error { return s.err }

// Attr returns the last value recorded for key.
func (s *Span) Attr(key string) (any, bool) {
	for i := len(s.attrs) - 1; i >= 0; i-- {
		if s.attrs[i].Key == key {
			return s.attrs[i].Value.Any(), true
		}
	}
	return nil, false
}

// End stops the clock and logs the span at debug level.
func (s *Span) End() time.Duration {
	s.Ended = time.Now()
	slog.Debug("span finished", "span", s)
	return s.Duration()
}

// Duration is zero until End is called.
func (s *Span) Duration() time.Duration {
	if s.Ended.IsZero() {
		return 0
	}
	return s.Ended.Sub(s.Started)
}

// LogValue implements slog.LogValuer.
func (s *Span) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", s.Name),
		slog.String("trace_id", s.IDs.TraceID),
		slog.String("span_id", s.IDs.SpanID),
		slog.Duration("duration", s.Duration()),
	}
	if s.IDs.ParentSpanID != "" {
		attrs = append(attrs, slog.String("parent_span_id", s.IDs.ParentSpanID))
	}
	if s.err != nil {
		attrs = append(attrs, slog.String("error", s.err.Error()))
	}
	return slog.GroupValue(append(attrs, s.attrs...)...)
}

// Logger returns the default logger annotated with the ids in ctx.
func Logger(ctx context.Context) *slog.Logger {
	ids, ok := From(ctx)
	if !ok {
		return slog.Default()
	}
	return slog.Default().With(ids.logArgs()...)
}
