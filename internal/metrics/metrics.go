// Package metrics exposes calculation counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers do not
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	calculations *prometheus.CounterVec
	duration     prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	sellableSets *prometheus.GaugeVec
}

// Calculation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// NewCollector registers every metric plus the Go runtime collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedding_calculations_total",
				Help: "Allocation runs by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bedding_calculation_duration_seconds",
				Help:    "Time from receiving input tables to allocation results",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bedding_table_cache_lookups_total",
				Help: "Decoded table cache lookups by table and result",
			},
			[]string{"table", "result"},
		),
		sellableSets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bedding_sellable_sets",
				Help: "Sellable sets per color from the latest run",
			},
			[]string{"color"},
		),
	}

	c.registry.MustRegister(
		c.calculations,
		c.duration,
		c.cacheLookups,
		c.sellableSets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveCalculation records one run.
func (c *Collector) ObserveCalculation(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.calculations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		c.duration.Observe(elapsed.Seconds())
	}
}

// ObserveCacheLookup records a table cache hit or miss.
func (c *Collector) ObserveCacheLookup(table string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(table, result).Inc()
}

// SetSellableSets replaces the per-color gauge with the latest run.
func (c *Collector) SetSellableSets(byColor map[string]int) {
	if c == nil {
		return
	}
	c.sellableSets.Reset()
	for color, sets := range byColor {
		c.sellableSets.WithLabelValues(color).Set(float64(sets))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
