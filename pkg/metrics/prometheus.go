package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"
	"txguard/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry              *prometheus.Registry
	verificationsTotal    *prometheus.CounterVec
	verificationErrors    *prometheus.CounterVec
	verificationDuration  prometheus.Histogram
	riskScoreDistribution prometheus.Histogram
	fraudFlagsTotal       *prometheus.CounterVec
	server                *http.Server
	logger                *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		verificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verifications_total",
			Help: "Total number of transaction verifications by decision status and risk level",
		}, []string{"status", "risk_level"}),
		verificationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_errors_total",
			Help: "Verifications that could not be evaluated, by reason",
		}, []string{"reason"}),
		verificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verification_duration_seconds",
			Help:    "Time taken to load the snapshot and verify a transaction",
			Buckets: prometheus.DefBuckets,
		}),
		riskScoreDistribution: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verification_risk_score_distribution",
			Help:    "Distribution of transaction risk scores",
			Buckets: []float64{0, 25, 50, 75, 100},
		}),
		fraudFlagsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_flags_total",
			Help: "Fraud flags raised during verification",
		}, []string{"flag"}),
		logger: logger,
	}
}

func (m *MetricsCollector) RecordVerification(duration time.Duration, v domain.TransactionVerification, flags []string) {
	m.verificationsTotal.WithLabelValues(string(v.Status), string(v.RiskLevel)).Inc()
	m.verificationDuration.Observe(duration.Seconds())
	m.riskScoreDistribution.Observe(float64(v.RiskScore))

	for _, flag := range flags {
		m.fraudFlagsTotal.WithLabelValues(flag).Inc()
	}
}

func (m *MetricsCollector) RecordError(reason string) {
	m.verificationErrors.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	m.server = server
	return server
}

// Shutdown stops the metrics server if one was started.
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	if err := m.server.Shutdown(ctx); err != nil {
		return err
	}
	m.logger.Info("Metrics server shutdown complete")
	return nil
}
