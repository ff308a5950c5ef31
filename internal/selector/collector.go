package selector

import "github.com/prometheus/client_golang/prometheus"

// HealthCollector exports per-model call outcomes to Prometheus.
type HealthCollector struct {
	health *HealthTracker
	calls  *prometheus.Desc
}

// NewHealthCollector returns a collector reading h on every scrape.
func NewHealthCollector(h *HealthTracker) *HealthCollector {
	return &HealthCollector{
		health: h,
		calls: prometheus.NewDesc("boilerbrain_model_calls_total",
			"Model calls by model and outcome.", []string{"model", "outcome"}, nil),
	}
}

func (c *HealthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.calls
}

func (c *HealthCollector) Collect(ch chan<- prometheus.Metric) {
	for id, s := range c.health.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.calls, prometheus.CounterValue, float64(s.SuccessCount), id, "success")
		ch <- prometheus.MustNewConstMetric(c.calls, prometheus.CounterValue, float64(s.ErrorCount), id, "error")
	}
}

// HealthTracker returns the selector's health tracker.
func (s *Selector) HealthTracker() *HealthTracker { return s.health }
