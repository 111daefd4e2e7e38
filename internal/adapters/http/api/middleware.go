package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// instrument records request count, latency and error class for endpoint,
// and logs failed requests.
func instrument(next http.HandlerFunc, endpoint string, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		code := strconv.Itoa(sw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, float64(elapsed.Milliseconds()))

		if sw.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http_"+endpoint, errorClass(sw.status))
			log.Warn(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.Int("status", sw.status),
				logger.Duration("elapsed", elapsed))
			return
		}
		log.Debug(r.Context(), "request served",
			logger.String("endpoint", endpoint),
			logger.Int("status", sw.status),
			logger.Duration("elapsed", elapsed))
	}
}

func errorClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

// statusWriter remembers the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
