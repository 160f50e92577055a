package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/providerkit/providerkit/internal/observability"
)

// HTTP metric names.
const (
	HTTPRequestsTotalName   = "http_requests_total"
	HTTPRequestDurationName = "http_request_duration_ms"
	HTTPRequestSizeName     = "http_request_size_bytes"
	HTTPResponseSizeName    = "http_response_size_bytes"
	HTTPErrorsTotalName     = "http_errors_total"
)

// statusRecorder captures status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// getEndpointPattern returns the chi route pattern, so model ids in cooldown
// paths never become label values.
func getEndpointPattern(r *http.Request) string {
	if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
		return pattern
	}

	path := r.URL.Path
	switch {
	case path == "/health" || strings.HasPrefix(path, "/health/"):
		return "/health/*"
	case path == "/version", path == "/metrics", path == "/":
		return path
	case path == "/v1/providers":
		return "/v1/providers"
	case strings.HasPrefix(path, "/v1/providers/"):
		return "/v1/providers/{provider}/key"
	case path == "/v1/models/resolve":
		return "/v1/models/resolve"
	case path == "/v1/cooldowns":
		return "/v1/cooldowns"
	case strings.HasPrefix(path, "/v1/cooldowns/"):
		return "/v1/cooldowns/*"
	default:
		return "/unknown"
	}
}

// RequestMetrics emits per-request telemetry and a completion log line.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if observability.TelemetrySystem == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		requestSize := r.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		status := strconv.Itoa(wrapped.statusCode)

		labels := map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
			"status":   status,
		}
		sizeLabels := map[string]string{
			"method":   r.Method,
			"endpoint": endpoint,
		}

		telemetry := observability.TelemetrySystem
		_ = telemetry.Counter(HTTPRequestsTotalName, 1, labels)
		_ = telemetry.Histogram(HTTPRequestDurationName, duration, labels)
		_ = telemetry.Gauge(HTTPRequestSizeName, float64(requestSize), sizeLabels)
		_ = telemetry.Gauge(HTTPResponseSizeName, float64(wrapped.bytesWritten), sizeLabels)

		if wrapped.statusCode >= 400 {
			errorType := "client_error"
			if wrapped.statusCode >= 500 {
				errorType = "server_error"
			}
			_ = telemetry.Counter(HTTPErrorsTotalName, 1, map[string]string{
				"method":     r.Method,
				"endpoint":   endpoint,
				"status":     status,
				"error_type": errorType,
			})
		}

		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("endpoint", endpoint),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("request_size", requestSize),
				zap.Int64("response_size", wrapped.bytesWritten),
				zap.String("requestID", GetRequestID(r.Context())),
			)
		}
	})
}
