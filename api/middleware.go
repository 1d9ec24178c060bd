package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const requestIDHeader = "X-Request-Id"

type loggerKey struct{}

// loggerFrom returns the request scoped logger stored by accessLog.
func loggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// accessLog tags every request with an id, logs it once done and records
// it in m.
func accessLog(logger *slog.Logger, m RequestMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = gonanoid.Must(12)
		}
		w.Header().Set(requestIDHeader, id)

		log := logger.With(slog.String("request_id", id))
		ctx := context.WithValue(r.Context(), loggerKey{}, log)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		took := time.Since(start)
		m.Request(route(r.URL.Path), rec.status, took)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(ctx, level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("query", r.URL.RawQuery),
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Int64("lat_ms", took.Milliseconds()),
		)
	})
}

// route is the low cardinality label used for request metrics.
func route(path string) string {
	switch {
	case path == statusPath:
		return "status"
	case path == metricsPath:
		return "metrics"
	case strings.HasPrefix(path, "/grpc.health."):
		return "health"
	default:
		return "image"
	}
}
