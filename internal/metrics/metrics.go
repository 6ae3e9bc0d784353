// Package metrics exposes Prometheus collectors for the console.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "remitdesk",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remitdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remitdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	orderStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remitdesk",
			Subsystem: "orders",
			Name:      "status_changes_total",
			Help:      "Order status changes requested through the console.",
		},
		[]string{"from", "to", "result"},
	)

	documentUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remitdesk",
			Subsystem: "orders",
			Name:      "document_uploads_total",
			Help:      "Supporting document uploads.",
		},
		[]string{"kind", "result"},
	)

	kycDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remitdesk",
			Subsystem: "kyc",
			Name:      "decisions_total",
			Help:      "KYC decisions submitted by staff.",
		},
		[]string{"decision"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		orderStatusChanges,
		documentUploads,
		kycDecisions,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordStatusChange counts an order status change attempt.
func RecordStatusChange(from, to string, ok bool) {
	orderStatusChanges.WithLabelValues(from, to, result(ok)).Inc()
}

// RecordDocumentUpload counts a document upload attempt.
func RecordDocumentUpload(kind string, ok bool) {
	documentUploads.WithLabelValues(kind, result(ok)).Inc()
}

// RecordKYCDecision counts a KYC decision.
func RecordKYCDecision(approved bool) {
	decision := "rejected"
	if approved {
		decision = "approved"
	}
	kycDecisions.WithLabelValues(decision).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
