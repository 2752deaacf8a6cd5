package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for lifecycle commands.
type Metrics struct {
	config MetricsConfig

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	provisionerCalls    *prometheus.CounterVec
	provisionerDuration *prometheus.HistogramVec
	provisionerErrors   *prometheus.CounterVec

	validationFailures *prometheus.CounterVec
	storeErrors        *prometheus.CounterVec
	errorsByCode       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of lifecycle commands by outcome",
			},
			[]string{"operation", "use_case_type", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of lifecycle commands in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),

		provisionerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisioner_calls_total",
				Help:      "Total number of provisioning engine calls",
			},
			[]string{"operation"},
		),
		provisionerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provisioner_call_duration_seconds",
				Help:      "Duration of provisioning engine calls in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		provisionerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provisioner_errors_total",
				Help:      "Total number of failed provisioning engine calls",
			},
			[]string{"operation"},
		),

		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of rejected use case configurations",
			},
			[]string{"use_case_type"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of durable store failures",
			},
			[]string{"operation"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.commands,
		m.commandDuration,
		m.provisionerCalls,
		m.provisionerDuration,
		m.provisionerErrors,
		m.validationFailures,
		m.storeErrors,
		m.errorsByCode,
	)

	return m, nil
}

// RecordCommand records the outcome of a lifecycle command.
func (m *Metrics) RecordCommand(operation, useCaseType, status string, duration time.Duration) {
	if m == nil || m.commands == nil {
		return
	}
	m.commands.WithLabelValues(operation, useCaseType, status).Inc()
	m.commandDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordProvisionerCall records a provisioning engine call.
func (m *Metrics) RecordProvisionerCall(operation string, duration time.Duration, err error) {
	if m == nil || m.provisionerCalls == nil {
		return
	}
	m.provisionerCalls.WithLabelValues(operation).Inc()
	m.provisionerDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.provisionerErrors.WithLabelValues(operation).Inc()
	}
}

// RecordValidationFailure counts a rejected configuration.
func (m *Metrics) RecordValidationFailure(useCaseType string) {
	if m == nil || m.validationFailures == nil {
		return
	}
	m.validationFailures.WithLabelValues(useCaseType).Inc()
}

// RecordStoreError counts a durable store failure.
func (m *Metrics) RecordStoreError(operation string) {
	if m == nil || m.storeErrors == nil {
		return
	}
	m.storeErrors.WithLabelValues(operation).Inc()
}

// RecordError counts an error by code.
func (m *Metrics) RecordError(code string) {
	if m == nil || m.errorsByCode == nil || code == "" {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Registry returns the registry metrics are registered in, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Timer measures elapsed time.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves metrics on the configured listen address.
// It returns the server so the caller can shut it down, or nil when no
// listener is configured.
func (m *Metrics) StartMetricsServer(logger *Logger) *http.Server {
	if !m.config.Enabled || m.config.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()

	return server
}
