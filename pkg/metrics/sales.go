package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records finalization outcomes and retry pressure.
type SaleMetrics struct {
	finalizeDuration *prometheus.HistogramVec
	finalizeOutcome  *prometheus.CounterVec
	stockConflicts   *prometheus.CounterVec
	reconcilerRuns   *prometheus.CounterVec
}

// NewSaleMetrics registers the sale metrics on the provided registerer.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	finalizeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sale_finalize_duration_seconds",
		Help:    "Duration of sale finalization attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	finalizeOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_finalize_total",
		Help: "Sale finalization attempts by outcome.",
	}, []string{"outcome"})
	stockConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_stock_conflict_retries_total",
		Help: "Conditional decrement retries caused by concurrent stock writes.",
	}, []string{"store"})
	reconcilerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_reconciler_resolutions_total",
		Help: "Stale sale intents resolved by the reconciler.",
	}, []string{"resolution"})
	reg.MustRegister(finalizeDuration, finalizeOutcome, stockConflicts, reconcilerRuns)
	return &SaleMetrics{
		finalizeDuration: finalizeDuration,
		finalizeOutcome:  finalizeOutcome,
		stockConflicts:   stockConflicts,
		reconcilerRuns:   reconcilerRuns,
	}
}

// ObserveFinalizeDuration records how long one finalization attempt took.
func (m *SaleMetrics) ObserveFinalizeDuration(store string, duration time.Duration) {
	if m == nil || m.finalizeDuration == nil {
		return
	}
	m.finalizeDuration.WithLabelValues(normalizeLabel(store)).Observe(duration.Seconds())
}

// IncFinalizeOutcome counts one finalization attempt by outcome.
func (m *SaleMetrics) IncFinalizeOutcome(outcome string) {
	if m == nil || m.finalizeOutcome == nil {
		return
	}
	m.finalizeOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStockConflict counts one conditional decrement retry.
func (m *SaleMetrics) IncStockConflict(store string) {
	if m == nil || m.stockConflicts == nil {
		return
	}
	m.stockConflicts.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncReconcilerResolution counts one reconciled intent by resolution.
func (m *SaleMetrics) IncReconcilerResolution(resolution string) {
	if m == nil || m.reconcilerRuns == nil {
		return
	}
	m.reconcilerRuns.WithLabelValues(normalizeLabel(resolution)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
