package trace

import "net/http"

// Middleware continues the caller's trace, or starts one, for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := continued(r.Header.Get(TraceIDKey), r.Header.Get(SpanIDKey))
		w.Header().Set(TraceIDKey, ids.TraceID)
		next.ServeHTTP(w, r.WithContext(Into(r.Context(), ids)))
	})
}

// InjectHeaders copies the ids in r's context onto its headers.
func InjectHeaders(r *http.Request) {
	ids, ok := From(r.Context())
	if !ok {
		return
	}
	r.Header.Set(TraceIDKey, ids.TraceID)
	r.Header.Set(SpanIDKey, ids.SpanID)
	if ids.ParentSpanID != "" {
		r.Header.Set(ParentSpanIDKey, ids.ParentSpanID)
	}
}
