package observe

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Middleware wraps HTTP handlers with tracing and request logging.
//
// Contract:
//   - Concurrency: Wrap returns a handler safe for concurrent use.
//   - Context: the request context carries the request span to the handler.
//   - Ownership: the response body is passed through without modification.
type Middleware struct {
	tracer Tracer
	logger Logger
}

// NewMiddleware creates a new Middleware with the given components.
func NewMiddleware(tracer Tracer, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer: tracer,
		logger: logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) *Middleware {
	return NewMiddleware(TracerFromObserver(obs), obs.Logger())
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Wrap wraps next with a span and a completion log line.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.StartSpan(r.Context(), SpanRequest,
			attribute.String("http.method", r.Method),
			attribute.String("http.path", r.URL.Path),
		)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		duration := time.Since(start)
		span.SetAttributes(attribute.Int("http.status_code", rec.status))

		var err error
		if rec.status >= http.StatusInternalServerError {
			err = errStatus(rec.status)
		}
		m.tracer.EndSpan(span, err)

		fields := []Field{
			F("method", r.Method),
			F("path", r.URL.Path),
			F("status", rec.status),
			F("duration_ms", float64(duration.Milliseconds())),
		}
		if rec.status >= http.StatusInternalServerError {
			m.logger.Error(ctx, "request failed", fields...)
		} else {
			m.logger.Info(ctx, "request completed", fields...)
		}
	})
}

type errStatus int

func (e errStatus) Error() string {
	return http.StatusText(int(e))
}
