// Package metric provides Prometheus metrics for restkit.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Collector reports values read on scrape rather than updated on events.
type Collector struct {
	sessions     func() int
	sessionsDesc *prometheus.Desc
}

// NewCollector creates a collector reading the live negotiate handshake
// count from sessions. A nil sessions reports zero.
func NewCollector(sessions func() int) *Collector {
	return &Collector{
		sessions: sessions,
		sessionsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "negotiate", "sessions_active"),
			"Negotiate handshakes with a stored security context.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessionsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	n := 0
	if c.sessions != nil {
		n = c.sessions()
	}
	ch <- prometheus.MustNewConstMetric(c.sessionsDesc, prometheus.GaugeValue, float64(n))
}
