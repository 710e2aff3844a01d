package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusFactory is a MetricFactory backed by prometheus/client_golang.
// Metric names are sanitized for Prometheus: dots and dashes become
// underscores. Metrics are registered once and cached, so repeated calls
// with the same name return the same collector.
type PrometheusFactory struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory registering on the given
// Registerer. Nil means the default registerer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		registerer: reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return promCounter{c}
	}
	c := promauto.With(f.registerer).NewCounter(prometheus.CounterOpts{
		Name: sanitizeMetricName(name),
		Help: name,
	})
	f.counters[name] = c
	return promCounter{c}
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return promHistogram{h}
	}
	h := promauto.With(f.registerer).NewHistogram(prometheus.HistogramOpts{
		Name:    sanitizeMetricName(name),
		Help:    name,
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})
	f.histograms[name] = h
	return promHistogram{h}
}

type promCounter struct{ c prometheus.Counter }

func (p promCounter) Inc()          { p.c.Inc() }
func (p promCounter) Add(v float64) { p.c.Add(v) }

type promHistogram struct{ h prometheus.Histogram }

func (p promHistogram) Observe(v float64) { p.h.Observe(v) }

func sanitizeMetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
