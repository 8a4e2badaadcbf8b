package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's prometheus collectors. Each Server owns its
// registry so several servers can coexist in one process.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	LedgerOpsTotal       *prometheus.CounterVec
	PayoutsTotal         prometheus.Counter
	DepositsTotal        prometheus.Counter
}

// NewMetrics registers the collectors on reg, or on a fresh registry when nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revledger_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "revledger_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "revledger_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		LedgerOpsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "revledger_ledger_operations_total",
				Help: "Total number of ledger operations by outcome code",
			},
			[]string{"op", "code"},
		),
		PayoutsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "revledger_claimed_snapshots_total",
				Help: "Total number of snapshot claims paid out",
			},
		),
		DepositsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "revledger_deposits_total",
				Help: "Total number of revenue deposits recorded",
			},
		),
	}
}
