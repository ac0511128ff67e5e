package server

import (
	"log/slog"
	"net/http"
	"time"

	"QuantLab/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with a request id, logs it and records
// its latency under the matched route pattern.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = logger.NewRequestID()
		}
		w.Header().Set("X-Request-Id", id)
		r = r.WithContext(logger.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.Metrics.RequestDur.WithLabelValues(route).Observe(elapsed.Seconds())

		level := slog.LevelInfo
		if route == "GET /metrics" || route == "GET /healthz" {
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed)
	})
}
