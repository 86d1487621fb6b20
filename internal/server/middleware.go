package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ollama-chatbot/pkg/metrics"
)

const correlationHeader = "X-Correlation-ID"

type ctxKey string

const correlationIDKey ctxKey = "correlation_id"

// statusWriter captures the status code and size of a response.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// CorrelationID returns the request's correlation id, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// requestLogging tags each request with a correlation id, then logs and
// records metrics for it once it completes.
func requestLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(correlationHeader)
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			w.Header().Set(correlationHeader, correlationID)
			r = r.WithContext(context.WithValue(r.Context(), correlationIDKey, correlationID))

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			duration := time.Since(start)
			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Int64("bytes", sw.written),
				zap.Duration("duration", duration),
				zap.String("correlation_id", correlationID),
				zap.String("remote_addr", r.RemoteAddr),
			}
			switch {
			case sw.status >= 500:
				log.Error("request completed", fields...)
			case sw.status >= 400:
				log.Warn("request completed", fields...)
			default:
				log.Info("request completed", fields...)
			}
			metrics.RecordRequest(r.Method, path, http.StatusText(sw.status), duration.Seconds())
		})
	}
}

// recoverer turns a handler panic into the chat error body.
func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("unhandled error",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("correlation_id", CorrelationID(r.Context())),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, chatResponse{Response: fmt.Sprintf("Error: %v", rec)})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
