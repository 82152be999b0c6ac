// Package metrics provides HTTP-level request metrics shared by every
// route; domain packages register their own metrics alongside.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds the request-level Prometheus metrics.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTP creates and registers the request metrics.
func NewHTTP() *HTTP {
	return &HTTP{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total HTTP requests by method and status code",
		}, []string{"method", "status"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency by method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method"}),
	}
}

// Middleware records one observation per request.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		m.Requests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
		m.Duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
