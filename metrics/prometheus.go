// Package metrics provides the Prometheus implementation of types.Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krisalay/image-cache/types"
)

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
}

// Prometheus implements types.Metrics and records HTTP requests.
type Prometheus struct {
	lookups           *prometheus.CounterVec
	coalesced         prometheus.Counter
	writeBacks        *prometheus.CounterVec
	writeBacksDropped *prometheus.CounterVec
	evictions         prometheus.Counter
	sweepDuration     prometheus.Histogram
	sweepRemoved      prometheus.Counter
	entries           prometheus.Gauge
	bytes             prometheus.Gauge
	requestDuration   *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

var _ types.Metrics = (*Prometheus)(nil)

// New registers every collector with reg. When reg is also a Gatherer it
// backs Handler.
func New(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecache_lookups_total",
			Help: "Tier lookups by outcome",
		}, []string{"tier", "result"}),

		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagecache_coalesced_total",
			Help: "Misses that joined an in-flight fetch",
		}),

		writeBacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecache_writebacks_total",
			Help: "Completed write-backs by tier and success",
		}, []string{"tier", "success"}),

		writeBacksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecache_writebacks_dropped_total",
			Help: "Write-backs discarded because the queue was full",
		}, []string{"tier"}),

		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagecache_evictions_total",
			Help: "Entries removed to stay within the byte budget",
		}),

		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imagecache_sweep_duration_seconds",
			Help:    "Time taken by one expiry sweep",
			Buckets: defaultBuckets,
		}),

		sweepRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imagecache_sweep_removed_total",
			Help: "Expired entries removed by sweeps",
		}),

		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imagecache_memory_entries",
			Help: "Entries held by the memory tier",
		}),

		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "imagecache_memory_bytes",
			Help: "Payload bytes held by the memory tier",
		}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imagecache_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"route"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagecache_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.lookups,
		m.coalesced,
		m.writeBacks,
		m.writeBacksDropped,
		m.evictions,
		m.sweepDuration,
		m.sweepRemoved,
		m.entries,
		m.bytes,
		m.requestDuration,
		m.requestsTotal,
	)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func (m *Prometheus) Hit(tier types.Tier) {
	m.lookups.WithLabelValues(string(tier), "hit").Inc()
}

func (m *Prometheus) Miss(tier types.Tier) {
	m.lookups.WithLabelValues(string(tier), "miss").Inc()
}

func (m *Prometheus) Coalesced() {
	m.coalesced.Inc()
}

func (m *Prometheus) WriteBack(tier types.Tier, ok bool) {
	m.writeBacks.WithLabelValues(string(tier), boolToStr(ok)).Inc()
}

func (m *Prometheus) WriteBackDropped(tier types.Tier) {
	m.writeBacksDropped.WithLabelValues(string(tier)).Inc()
}

func (m *Prometheus) Eviction() {
	m.evictions.Inc()
}

func (m *Prometheus) Sweep(removed int, took time.Duration) {
	m.sweepDuration.Observe(took.Seconds())
	m.sweepRemoved.Add(float64(removed))
}

func (m *Prometheus) Size(entries int, bytes int64) {
	m.entries.Set(float64(entries))
	m.bytes.Set(float64(bytes))
}

// Request records one served HTTP request.
func (m *Prometheus) Request(route string, status int, took time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(took.Seconds())
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	if m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
