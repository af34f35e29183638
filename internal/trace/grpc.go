package trace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// UnaryClientInterceptor sends the ids in ctx as outgoing metadata, starting
// a trace for calls made outside one.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(outgoing(ctx), method, req, reply, cc, opts...)
	}
}

// FromIncoming returns the server-side span for a call carrying trace metadata.
func FromIncoming(ctx context.Context) IDs {
	md, _ := metadata.FromIncomingContext(ctx)
	get := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return continued(get(TraceIDKey), get(SpanIDKey))
}

func outgoing(ctx context.Context) context.Context {
	ctx, ids := Ensure(ctx)
	pairs := []string{TraceIDKey, ids.TraceID, SpanIDKey, ids.SpanID}
	if ids.ParentSpanID != "" {
		pairs = append(pairs, ParentSpanIDKey, ids.ParentSpanID)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
