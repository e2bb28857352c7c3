package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// View lifecycle metrics
	ViewsLive      prometheus.Gauge
	ViewsCreated   prometheus.Counter
	ViewsDestroyed prometheus.Counter
	LoadsTotal     *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	NavExternal    prometheus.Counter
	ShowOps        prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ViewsLive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_views_live",
				Help: "Number of live mini-app views",
			},
		),
		ViewsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_views_created_total",
				Help: "Total number of views created",
			},
		),
		ViewsDestroyed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_views_destroyed_total",
				Help: "Total number of views destroyed",
			},
		),
		LoadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shell_view_loads_total",
				Help: "Total number of load protocol runs by outcome",
			},
			[]string{"outcome"},
		),
		LoadDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shell_view_load_duration_seconds",
				Help:    "Load protocol duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		NavExternal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_view_navigations_external_total",
				Help: "Total navigations handed off to the external browser",
			},
		),
		ShowOps: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shell_view_show_ops_total",
				Help: "Total show operations (includes bounds refreshes)",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_ws_connections",
				Help: "Active WebSocket connections",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "shell_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// RecordViewCreated records a view creation
func (m *Metrics) RecordViewCreated() {
	m.ViewsCreated.Inc()
	m.ViewsLive.Inc()
}

// RecordViewDestroyed records a view destruction
func (m *Metrics) RecordViewDestroyed() {
	m.ViewsDestroyed.Inc()
	m.ViewsLive.Dec()
}

// RecordLoad records a completed load protocol run
func (m *Metrics) RecordLoad(outcome string, duration time.Duration) {
	m.LoadsTotal.WithLabelValues(outcome).Inc()
	m.LoadDuration.Observe(duration.Seconds())
}

// RecordExternalNavigation records an external-browser handoff
func (m *Metrics) RecordExternalNavigation() {
	m.NavExternal.Inc()
}

// RecordShow records a show/bounds-refresh operation
func (m *Metrics) RecordShow() {
	m.ShowOps.Inc()
}

// WSConnected records a new WebSocket connection
func (m *Metrics) WSConnected() {
	m.WSConnections.Inc()
}

// WSDisconnected records a closed WebSocket connection
func (m *Metrics) WSDisconnected() {
	m.WSConnections.Dec()
}
