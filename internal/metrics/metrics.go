// Package metrics records batch run statistics and writes them in the
// Prometheus textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "trafficstats"

// Collector holds the metrics of one analysis run. Each run gets its own
// registry so repeated runs in one process never share counters.
type Collector struct {
	registry *prometheus.Registry

	EventsTotal       prometheus.Counter
	LinksTotal        *prometheus.GaugeVec
	LinkIssuesTotal   *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	RowsWritten       *prometheus.GaugeVec
	NetworkCongestion *prometheus.GaugeVec
	LastSuccess       prometheus.Gauge
}

// NewCollector creates a collector backed by a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,

		EventsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_read_total",
				Help:      "Number of simulation events read",
			},
		),

		LinksTotal: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "links",
				Help:      "Number of network links by stage (loaded, analyzed)",
			},
			[]string{"stage"},
		),

		LinkIssuesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "link_issues_total",
				Help:      "Links reported instead of evaluated, by kind",
			},
			[]string{"kind"},
		),

		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"stage"},
		),

		RowsWritten: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "rows_written",
				Help:      "Rows written per output file",
			},
			[]string{"file"},
		),

		NetworkCongestion: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "network_congestion_index",
				Help:      "Daily network congestion index by road type",
			},
			[]string{"road_type"},
		),

		LastSuccess: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}
}

// Timer measures one pipeline stage.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// Stage starts timing the named stage.
func (c *Collector) Stage(name string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: c.StageDuration.WithLabelValues(name),
	}
}

// ObserveDuration records the elapsed time since the timer was created.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	t.observer.Observe(d.Seconds())
	return d
}

// RecordLinkIssue counts a link that was reported rather than evaluated.
func (c *Collector) RecordLinkIssue(kind string) {
	c.LinkIssuesTotal.WithLabelValues(kind).Inc()
}

// MarkSuccess stamps the completion time of the run.
func (c *Collector) MarkSuccess() {
	c.LastSuccess.SetToCurrentTime()
}

// Gather returns the current metric families.
func (c *Collector) Gather() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()+"_count"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// WriteTextfile writes all metrics to path for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
