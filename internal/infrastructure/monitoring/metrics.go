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

	// Store metrics
	StoreOps   *prometheus.CounterVec
	StoreFiles prometheus.Gauge

	// Preview pipeline metrics
	BuildsTotal      prometheus.Counter
	BuildDuration    prometheus.Histogram
	LoadDuration     prometheus.Histogram
	WatchdogTimeouts prometheus.Counter

	// Relay metrics
	ConsoleRecords *prometheus.CounterVec
	RelayDropped   *prometheus.CounterVec

	// Persistence metrics
	SavesTotal prometheus.Counter
	SaveErrors prometheus.Counter
	Exports    *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

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
				Name: "sandbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		StoreOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_store_operations_total",
				Help: "Project store operations by type and outcome",
			},
			[]string{"op", "outcome"},
		),
		StoreFiles: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandbox_store_files",
				Help: "Number of files in the project store",
			},
		),

		BuildsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_preview_builds_total",
				Help: "Total number of preview rebuilds",
			},
		),
		BuildDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sandbox_preview_build_duration_seconds",
				Help:    "Document assembly duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
		),
		LoadDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sandbox_preview_load_duration_seconds",
				Help:    "Sandbox install-to-loaded duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 3},
			},
		),
		WatchdogTimeouts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_preview_watchdog_timeouts_total",
				Help: "Rebuild cycles killed by the execution watchdog",
			},
		),

		ConsoleRecords: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_console_records_total",
				Help: "Console records published by the relay, by kind",
			},
			[]string{"kind"},
		),
		RelayDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_relay_dropped_total",
				Help: "Instrumentation messages dropped by the relay",
			},
			[]string{"reason"},
		),

		SavesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_workspace_saves_total",
				Help: "Successful workspace saves",
			},
		),
		SaveErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_workspace_save_errors_total",
				Help: "Failed workspace saves",
			},
		),
		Exports: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_exports_total",
				Help: "Project exports by archive format",
			},
			[]string{"format"},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandbox_ws_connections",
				Help: "Active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_ws_messages_total",
				Help: "WebSocket messages by direction and type",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandbox_uptime_seconds",
				Help: "Server uptime in seconds",
			},
		),
	}
}

// UpdateUptime refreshes the uptime gauge
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
