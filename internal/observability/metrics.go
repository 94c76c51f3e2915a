// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	BlocksApplied      *prometheus.CounterVec
	BlockDuration      *prometheus.HistogramVec
	EventsApplied      *prometheus.CounterVec
	EventsIgnored      *prometheus.CounterVec
	DuplicateBlocks    *prometheus.CounterVec
	BlockFailures      *prometheus.CounterVec
	ChannelsExpired    *prometheus.CounterVec
	BroadcastsReplaced *prometheus.CounterVec
	Watermark          *prometheus.GaugeVec
	ArchiveWrites      *prometheus.CounterVec

	// State chain metrics
	RPCCalls       *prometheus.CounterVec
	RPCCallLatency *prometheus.HistogramVec

	// Quote metrics
	QuoteCollections        *prometheus.CounterVec
	QuoteCollectionDuration prometheus.Histogram
	QuoteResponses          prometheus.Histogram
	ConnectedResponders     prometheus.Gauge

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulIngestion *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "swap_indexer"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		BlocksApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "blocks_applied_total",
			Help:      "Total number of blocks committed",
		}, []string{"pipeline"}),
		BlockDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "block_duration_seconds",
			Help:      "Time to decode, reduce and commit a block",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline", "status"}),
		EventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_applied_total",
			Help:      "Total number of decoded events committed, by event name",
		}, []string{"pipeline", "event"}),
		EventsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_ignored_total",
			Help:      "Total number of events that referenced unknown entities",
		}, []string{"pipeline"}),
		DuplicateBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicate_blocks_total",
			Help:      "Total number of re-delivered blocks skipped",
		}, []string{"pipeline"}),
		BlockFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "block_failures_total",
			Help:      "Total number of blocks rejected, by reason",
		}, []string{"pipeline", "reason"}),
		ChannelsExpired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "channels_expired_total",
			Help:      "Total number of deposit channels expired",
		}, []string{"pipeline"}),
		BroadcastsReplaced: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "broadcasts_replaced_total",
			Help:      "Total number of broadcasts replaced by a retry",
		}, []string{"pipeline"}),
		Watermark: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "watermark_height",
			Help:      "Height of the last committed block",
		}, []string{"pipeline"}),
		ArchiveWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "archive_writes_total",
			Help:      "Total number of raw event archive writes by status",
		}, []string{"pipeline", "status"}),

		// State chain metrics
		RPCCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "statechain",
			Name:      "rpc_calls_total",
			Help:      "Count of state chain RPC calls",
		}, []string{"method", "status"}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "statechain",
			Name:      "rpc_call_latency_seconds",
			Help:      "State chain RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),

		// Quote metrics
		QuoteCollections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quoting",
			Name:      "collections_total",
			Help:      "Total number of quote collections by outcome",
		}, []string{"outcome"}),
		QuoteCollectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quoting",
			Name:      "collection_duration_seconds",
			Help:      "Time spent collecting quotes",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1, 2, 5},
		}),
		QuoteResponses: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quoting",
			Name:      "responses_per_collection",
			Help:      "Number of distinct responders per quote collection",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
		ConnectedResponders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quoting",
			Name:      "connected_responders",
			Help:      "Number of connected quote responders",
		}),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Health metrics
		LastSuccessfulIngestion: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last committed block",
		}, []string{"pipeline"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns a server exposing only /metrics. The caller starts it.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Pipeline returns the metrics view of one ingestion pipeline.
func (m *Metrics) Pipeline(name string) *PipelineMetrics {
	return &PipelineMetrics{m: m, pipeline: name}
}

// PipelineMetrics records ingestion metrics of one pipeline.
type PipelineMetrics struct {
	m        *Metrics
	pipeline string
}

// ObserveBlock records the outcome of one block.
func (p *PipelineMetrics) ObserveBlock(err error, started time.Time) {
	p.m.BlockDuration.WithLabelValues(p.pipeline, status(err)).Observe(time.Since(started).Seconds())
	if err == nil {
		p.m.BlocksApplied.WithLabelValues(p.pipeline).Inc()
		p.m.LastSuccessfulIngestion.WithLabelValues(p.pipeline).SetToCurrentTime()
	}
}

// ObserveEvent counts a committed event.
func (p *PipelineMetrics) ObserveEvent(name string) {
	p.m.EventsApplied.WithLabelValues(p.pipeline, name).Inc()
}

// ObserveEffects records side effects reported by the reducer.
func (p *PipelineMetrics) ObserveEffects(channelsExpired, broadcastsReplaced, eventsIgnored int) {
	p.m.ChannelsExpired.WithLabelValues(p.pipeline).Add(float64(channelsExpired))
	p.m.BroadcastsReplaced.WithLabelValues(p.pipeline).Add(float64(broadcastsReplaced))
	p.m.EventsIgnored.WithLabelValues(p.pipeline).Add(float64(eventsIgnored))
}

// ObserveDuplicate counts a skipped re-delivered block.
func (p *PipelineMetrics) ObserveDuplicate() {
	p.m.DuplicateBlocks.WithLabelValues(p.pipeline).Inc()
}

// ObserveFailure counts a rejected block.
func (p *PipelineMetrics) ObserveFailure(reason string) {
	p.m.BlockFailures.WithLabelValues(p.pipeline, reason).Inc()
}

// SetWatermark updates the watermark gauge.
func (p *PipelineMetrics) SetWatermark(height uint64) {
	p.m.Watermark.WithLabelValues(p.pipeline).Set(float64(height))
}

// ObserveArchive records an archive write.
func (p *PipelineMetrics) ObserveArchive(err error) {
	p.m.ArchiveWrites.WithLabelValues(p.pipeline, status(err)).Inc()
}

// RPC returns the metrics view of state chain RPC calls.
func (m *Metrics) RPC() *RPCMetrics {
	return &RPCMetrics{m: m}
}

// RPCMetrics records state chain RPC calls.
type RPCMetrics struct {
	m *Metrics
}

// Observe records a single RPC call outcome and duration.
func (r *RPCMetrics) Observe(operation string, err error, started time.Time) {
	r.m.RPCCalls.WithLabelValues(operation, status(err)).Inc()
	r.m.RPCCallLatency.WithLabelValues(operation, status(err)).Observe(time.Since(started).Seconds())
}

// Quotes returns the metrics view of quote collection.
func (m *Metrics) Quotes() *QuoteMetrics {
	return &QuoteMetrics{m: m}
}

// QuoteMetrics records quote collection.
type QuoteMetrics struct {
	m *Metrics
}

// ObserveCollection records one finished collection.
func (q *QuoteMetrics) ObserveCollection(responses int, timedOut bool, started time.Time) {
	outcome := "complete"
	if timedOut {
		outcome = "timeout"
	}
	q.m.QuoteCollections.WithLabelValues(outcome).Inc()
	q.m.QuoteCollectionDuration.Observe(time.Since(started).Seconds())
	q.m.QuoteResponses.Observe(float64(responses))
}

// SetConnected updates the number of connected responders.
func (q *QuoteMetrics) SetConnected(n int) {
	q.m.ConnectedResponders.Set(float64(n))
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, code int, started time.Time) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
}
