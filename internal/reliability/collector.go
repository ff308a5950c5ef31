package reliability

import "github.com/prometheus/client_golang/prometheus"

// Collector exports Metrics to Prometheus.
type Collector struct {
	metrics *Metrics

	total     *prometheus.Desc
	responses *prometheus.Desc
	latency   *prometheus.Desc
}

// NewCollector returns a collector reading m on every scrape.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		metrics: m,
		total: prometheus.NewDesc("boilerbrain_requests_total",
			"Diagnostic requests handled.", nil, nil),
		responses: prometheus.NewDesc("boilerbrain_responses_total",
			"Responses delivered, by source tier.", []string{"tier"}, nil),
		latency: prometheus.NewDesc("boilerbrain_response_time_ms_average",
			"Running mean of request latency in milliseconds.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.responses
	ch <- c.latency
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.CounterValue, float64(s.TotalRequests))
	ch <- prometheus.MustNewConstMetric(c.responses, prometheus.CounterValue, float64(s.EnhancedResponses), string(TierEnhanced))
	ch <- prometheus.MustNewConstMetric(c.responses, prometheus.CounterValue, float64(s.FallbacksUsed), string(TierFallback))
	ch <- prometheus.MustNewConstMetric(c.responses, prometheus.CounterValue, float64(s.EmergencyTemplatesUsed), string(TierEmergency))
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.AverageResponseTimeMs)
}
