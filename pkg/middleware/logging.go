package middleware

import (
	"context"
	"net/http"
	"staybook/pkg/logger"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// RequestLogging tags each request with an ID, echoed in X-Request-ID, and
// logs its start and completion. An inbound X-Request-ID is kept.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			r = r.WithContext(ctx)
			w.Header().Set(RequestIDHeader, requestID)

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			fields := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
				fields = append(fields, "trace_id", sc.TraceID().String())
			}

			log.Info("HTTP request started", append(fields, "remote_addr", r.RemoteAddr)...)

			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request completed", append(fields,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
			)...)
		})
	}
}

// RequestIDFromContext returns the ID assigned by RequestLogging, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
