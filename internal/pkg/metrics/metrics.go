/*
Package metrics registers the service's prometheus collectors and provides the
HTTP middleware that records request counts and latencies.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sniproom_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sniproom_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sniproom_ws_active_subscribers",
			Help: "Number of active room subscription connections.",
		},
	)
	snapshotsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sniproom_snapshots_sent_total",
			Help: "Total number of room snapshots fanned out to subscribers.",
		},
	)
	sweptRoomsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sniproom_swept_rooms_total",
			Help: "Total number of expired rooms removed by the cleanup sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveSubscribers,
		snapshotsSentTotal,
		sweptRoomsTotal,
	)
}

// HTTPMiddleware records a counter and latency observation per request,
// labeled with the chi route pattern rather than the raw path so room ids
// do not explode label cardinality.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// IncSubscribers records a new room subscription connection.
func IncSubscribers() {
	wsActiveSubscribers.Inc()
}

// DecSubscribers records a closed room subscription connection.
func DecSubscribers() {
	wsActiveSubscribers.Dec()
}

// AddSnapshotsSent records snapshots delivered to subscribers.
func AddSnapshotsSent(n int) {
	snapshotsSentTotal.Add(float64(n))
}

// AddSweptRooms records rooms deleted by the expiration sweep.
func AddSweptRooms(n int) {
	sweptRoomsTotal.Add(float64(n))
}
