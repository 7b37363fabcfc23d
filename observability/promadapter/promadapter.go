// Package promadapter implements the engine metrics interface with Prometheus.
// Collectors are registered lazily on first use, keyed by metric name, so the
// engines stay free of any Prometheus dependency themselves.
package promadapter

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/velora-labs/storefront-engine-go/listing"
)

// Collector implements listing.MetricsCollector backed by a Prometheus registerer.
//
// The label names of a metric are fixed by its first observation; later calls
// with a different label set are dropped rather than panicking the caller.
type Collector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewCollector creates a Collector registering against the given registerer.
// A nil registerer falls back to the Prometheus default.
func NewCollector(registerer prometheus.Registerer) *Collector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Collector{
		registerer: registerer,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// RecordDuration observes a duration in seconds on the named histogram.
func (c *Collector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	histogram := c.histogram(metric, labelNames(labels))

	observer, err := histogram.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter increments the named counter by one.
func (c *Collector) IncrementCounter(metric string, labels map[string]string) {
	counter := c.counter(metric, labelNames(labels))

	counterWith, err := counter.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	counterWith.Inc()
}

// RecordValue sets the named gauge to the given value.
func (c *Collector) RecordValue(metric string, value float64, labels map[string]string) {
	gauge := c.gauge(metric, labelNames(labels))

	gaugeWith, err := gauge.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}

	gaugeWith.Set(value)
}

func (c *Collector) histogram(metric string, names []string) *prometheus.HistogramVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.histograms[metric]; ok {
		return existing
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    metric + "_seconds",
		Help:    "Duration of " + metric + " observations",
		Buckets: prometheus.DefBuckets,
	}, names)

	c.registerer.MustRegister(histogram)
	c.histograms[metric] = histogram

	return histogram
}

func (c *Collector) counter(metric string, names []string) *prometheus.CounterVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.counters[metric]; ok {
		return existing
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metric + "_total",
		Help: "Total number of " + metric + " observations",
	}, names)

	c.registerer.MustRegister(counter)
	c.counters[metric] = counter

	return counter
}

func (c *Collector) gauge(metric string, names []string) *prometheus.GaugeVec {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.gauges[metric]; ok {
		return existing
	}

	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: metric,
		Help: "Current value of " + metric,
	}, names)

	c.registerer.MustRegister(gauge)
	c.gauges[metric] = gauge

	return gauge
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var _ listing.MetricsCollector = (*Collector)(nil)
