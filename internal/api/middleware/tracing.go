package middleware

import (
	"net/http"

	"github.com/futig/interview-engine/internal/observe"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Tracing continues the caller's W3C trace (or starts one), answers with
// X-Correlation-ID and adds trace_id to the context logger. It must run
// after Logger.
func Tracing(next http.Handler) http.Handler {
	prop := propagation.TraceContext{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := observe.StartSpan(ctx, "HTTP "+r.Method,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		if traceID := observe.TraceID(ctx); traceID != "" {
			w.Header().Set("X-Correlation-ID", traceID)
			ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("trace_id", traceID)))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
