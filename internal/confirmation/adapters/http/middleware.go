package http

import (
	"net/http"
	"strings"
	"time"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func WithMetrics(next http.Handler, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		metrics.RecordRequest(r.Context(), r.Method, routeOf(r.URL.Path), rw.statusCode, duration)
	})
}

// routeOf maps a request path to its route template.
func routeOf(path string) string {
	trimmed, ok := strings.CutPrefix(path, confirmationsPath+"/")
	if !ok {
		return path
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	switch {
	case trimmed == "":
		return confirmationsPath
	case strings.HasSuffix(trimmed, "/"+confirmSuffix):
		return confirmationsPath + "/{key}/" + confirmSuffix
	case strings.HasSuffix(trimmed, "/"+cancelSuffix):
		return confirmationsPath + "/{key}/" + cancelSuffix
	default:
		return confirmationsPath + "/{key}"
	}
}
