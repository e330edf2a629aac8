package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSaleMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSaleMetrics(reg)
	store := "loja-centro"

	metrics.ObserveFinalizeDuration(store, 250*time.Millisecond)
	metrics.IncFinalizeOutcome("success")
	metrics.IncStockConflict(store)
	metrics.IncReconcilerResolution("reversed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "sale_finalize_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected outcome=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sale_stock_conflict_retries_total", "store", store); err != nil {
		t.Fatalf("fetch conflicts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected conflicts=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sale_reconciler_resolutions_total", "resolution", "reversed"); err != nil {
		t.Fatalf("fetch resolutions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected resolutions=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "sale_finalize_duration_seconds", "store", store); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestSaleMetricsNilSafe(t *testing.T) {
	var metrics *SaleMetrics
	metrics.ObserveFinalizeDuration("x", time.Second)
	metrics.IncFinalizeOutcome("x")
	metrics.IncStockConflict("x")
	metrics.IncReconcilerResolution("x")

	empty := NewSaleMetrics(nil)
	empty.IncFinalizeOutcome("x")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
