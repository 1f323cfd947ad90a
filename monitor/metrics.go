package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a dumb data point computed from a history of Results.
type Metrics struct {
	ProbesSent int           // number of probes sent
	ProbesLost int           // number of probes without a reply
	Best       time.Duration // best rtt
	Worst      time.Duration // worst rtt
	Median     time.Duration // median rtt
	Mean       time.Duration // mean rtt
	StdDev     time.Duration // std deviation
}

// Collector exposes a Monitor's per-target metrics to Prometheus.
type Collector struct {
	monitor *Monitor

	sent *prometheus.Desc
	lost *prometheus.Desc
	rtt  *prometheus.Desc
}

// NewCollector wraps m for registration with a prometheus.Registerer.
func NewCollector(m *Monitor) *Collector {
	return &Collector{
		monitor: m,
		sent: prometheus.NewDesc(
			"multiprobe_probes_sent",
			"Probes sent to the target within the history window.",
			[]string{"target"}, nil,
		),
		lost: prometheus.NewDesc(
			"multiprobe_probes_lost",
			"Probes without a reply within the history window.",
			[]string{"target"}, nil,
		),
		rtt: prometheus.NewDesc(
			"multiprobe_rtt_seconds",
			"Round-trip time statistics over the history window.",
			[]string{"target", "stat"}, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sent
	ch <- c.lost
	ch <- c.rtt
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for key, m := range c.monitor.Export() {
		ch <- prometheus.MustNewConstMetric(c.sent, prometheus.GaugeValue, float64(m.ProbesSent), key)
		ch <- prometheus.MustNewConstMetric(c.lost, prometheus.GaugeValue, float64(m.ProbesLost), key)

		for stat, value := range map[string]time.Duration{
			"best":   m.Best,
			"worst":  m.Worst,
			"median": m.Median,
			"mean":   m.Mean,
			"stddev": m.StdDev,
		} {
			ch <- prometheus.MustNewConstMetric(c.rtt, prometheus.GaugeValue, value.Seconds(), key, stat)
		}
	}
}
