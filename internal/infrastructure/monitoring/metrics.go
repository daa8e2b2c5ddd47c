package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/webcontainer/internal/bridge"
)

// Metrics holds the host's Prometheus collectors. Each instance owns its
// registry, so tests and multiple hosts never collide.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Bridge metrics
	Dispatched     *prometheus.CounterVec
	Settled        *prometheus.CounterVec
	SettleDuration *prometheus.HistogramVec
	Dropped        *prometheus.CounterVec
	Progress       *prometheus.CounterVec

	// Session metrics
	SessionsActive prometheus.Gauge
	WSMessages     *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON health endpoint
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for the health endpoint
type Snapshot struct {
	Dispatched     int64   `json:"dispatched"`
	Succeeded      int64   `json:"succeeded"`
	Failed         int64   `json:"failed"`
	Dropped        int64   `json:"dropped"`
	SessionsActive int64   `json:"sessionsActive"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}

// NewMetrics creates a metrics collector with its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		Dispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_requests_dispatched_total",
				Help: "Capability requests handed to a plugin",
			},
			[]string{"channel"},
		),
		Settled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_requests_settled_total",
				Help: "Capability requests completed, by outcome",
			},
			[]string{"channel", "outcome"},
		),
		SettleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_request_duration_seconds",
				Help:    "Time from dispatch to completion",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"channel"},
		),
		Dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_messages_dropped_total",
				Help: "Inbound messages dropped without a completion",
			},
			[]string{"reason"},
		),
		Progress: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_progress_emitted_total",
				Help: "Progress notifications sent to pages",
			},
			[]string{"channel"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_sessions_active",
				Help: "Number of connected view sessions",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_ws_messages_total",
				Help: "Total number of WebSocket frames",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bridge_uptime_seconds",
			Help: "Host uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry every collector is registered with
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket frame
func (m *Metrics) RecordWSMessage(direction, frameType string) {
	m.WSMessages.WithLabelValues(direction, frameType).Inc()
}

// SessionOpened increments the active session gauge
func (m *Metrics) SessionOpened() {
	m.SessionsActive.Inc()
	m.mu.Lock()
	m.snapshot.SessionsActive++
	m.mu.Unlock()
}

// SessionClosed decrements the active session gauge
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.SessionsActive--
	m.mu.Unlock()
}

// MessageDropped implements bridge.Observer
func (m *Metrics) MessageDropped(_ string, reason string) {
	m.Dropped.WithLabelValues(reason).Inc()
	m.mu.Lock()
	m.snapshot.Dropped++
	m.mu.Unlock()
}

// RequestDispatched implements bridge.Observer
func (m *Metrics) RequestDispatched(ch bridge.Channel) {
	m.Dispatched.WithLabelValues(ch.String()).Inc()
	m.mu.Lock()
	m.snapshot.Dispatched++
	m.mu.Unlock()
}

// RequestSettled implements bridge.Observer
func (m *Metrics) RequestSettled(ch bridge.Channel, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Settled.WithLabelValues(ch.String(), outcome).Inc()
	m.SettleDuration.WithLabelValues(ch.String()).Observe(elapsed.Seconds())

	m.mu.Lock()
	if success {
		m.snapshot.Succeeded++
	} else {
		m.snapshot.Failed++
	}
	m.mu.Unlock()
}

// ProgressEmitted implements bridge.Observer
func (m *Metrics) ProgressEmitted(ch bridge.Channel) {
	m.Progress.WithLabelValues(ch.String()).Inc()
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

var _ bridge.Observer = (*Metrics)(nil)
