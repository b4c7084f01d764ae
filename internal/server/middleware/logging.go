package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
)

// Logger logs one structured line per request. Server errors log at error
// level, client errors at warn, everything else at info. For gated requests
// only the key prefix is logged, never the raw key.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if ww.status >= 500 {
				level = slog.LevelError
			} else if ww.status >= 400 {
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"duration_ms", float64(duration.Microseconds()) / 1000.0,
				"bytes", ww.bytes,
				"request_id", GetRequestID(r.Context()),
				"remote_addr", r.RemoteAddr,
			}
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				attrs = append(attrs, "key_prefix", auth.KeyPrefix(strings.TrimPrefix(h, "Bearer ")))
			}
			if session := r.Header.Get("X-Session-ID"); session != "" {
				attrs = append(attrs, "session_id", session)
			}

			logger.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// responseWriter captures the status code and bytes written for logging.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for interface assertions
// through middleware chains.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
