// Package metrics exposes Prometheus metrics for the dashboard service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	devicesDetected     prometheus.Counter
	devicesDropped      prometheus.Counter
	decisions           *prometheus.CounterVec
	connectionsActive   prometheus.Gauge
	bandwidth           *prometheus.GaugeVec
}

// New creates a fresh Metrics registry with HTTP and dashboard metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netmon",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by netmon",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netmon",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by netmon",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	devicesDetected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netmon",
		Name:      "devices_detected_total",
		Help:      "Simulated devices handed to the alert workflow",
	})

	devicesDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "netmon",
		Name:      "devices_dropped_total",
		Help:      "Simulated devices discarded because their id is blocked",
	})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netmon",
		Name:      "decisions_total",
		Help:      "User decisions on devices, by outcome",
	}, []string{"decision"})

	connectionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netmon",
		Name:      "connections_active",
		Help:      "Connection counter shown on the dashboard",
	})

	bandwidth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netmon",
		Name:      "bandwidth_mbps",
		Help:      "Latest simulated throughput sample",
	}, []string{"direction"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		devicesDetected,
		devicesDropped,
		decisions,
		connectionsActive,
		bandwidth,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		devicesDetected:     devicesDetected,
		devicesDropped:      devicesDropped,
		decisions:           decisions,
		connectionsActive:   connectionsActive,
		bandwidth:           bandwidth,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// IncDeviceDetected counts a device that reached the alert workflow.
func (m *Metrics) IncDeviceDetected() {
	if m == nil {
		return
	}
	m.devicesDetected.Inc()
}

// IncDeviceDropped counts a device discarded by the blocked-id check.
func (m *Metrics) IncDeviceDropped() {
	if m == nil {
		return
	}
	m.devicesDropped.Inc()
}

// IncDecision counts a user decision.
func (m *Metrics) IncDecision(decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
}

// SetConnections publishes the connection counter.
func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connectionsActive.Set(float64(n))
}

// SetBandwidth publishes the latest throughput sample.
func (m *Metrics) SetBandwidth(downloadMbps, uploadMbps float64) {
	if m == nil {
		return
	}
	m.bandwidth.WithLabelValues("download").Set(downloadMbps)
	m.bandwidth.WithLabelValues("upload").Set(uploadMbps)
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
