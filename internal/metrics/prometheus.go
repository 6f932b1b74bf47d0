package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the DDP LED receiver service
type Metrics struct {
	// UDP packet metrics
	PacketsReceived prometheus.Counter
	PacketsApplied  prometheus.Counter
	PacketsIgnored  prometheus.Counter
	DecodeErrors    *prometheus.CounterVec
	ApplyRejections *prometheus.CounterVec
	DatagramSize    prometheus.Histogram

	// Frame metrics
	FramesPushed        prometheus.Counter
	BytesWritten        prometheus.Counter
	SequenceGaps        prometheus.Counter
	QueriesAnswered     prometheus.Counter
	PresentDuration     prometheus.Histogram
	FramebufferCapacity prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// New creates and registers all metrics with the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_packets_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		PacketsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_packets_applied_total",
			Help: "Total number of packets applied to the framebuffer",
		}),
		PacketsIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_packets_ignored_total",
			Help: "Total number of packets ignored (other destinations, replies, storage)",
		}),
		DecodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ddp_decode_errors_total",
			Help: "Total number of datagrams the codec rejected",
		}, []string{"cause"}),
		ApplyRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ddp_apply_rejections_total",
			Help: "Total number of decoded packets the state machine dropped",
		}, []string{"cause"}),
		DatagramSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ddp_datagram_size_bytes",
			Help:    "Size of received UDP datagrams",
			Buckets: prometheus.ExponentialBuckets(16, 2, 8), // 16B to ~2KB
		}),

		FramesPushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_frames_pushed_total",
			Help: "Total number of frames handed to the display driver",
		}),
		BytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_framebuffer_bytes_written_total",
			Help: "Total payload bytes written into the framebuffer",
		}),
		SequenceGaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_sequence_gaps_total",
			Help: "Total number of sequence gaps observed",
		}),
		QueriesAnswered: factory.NewCounter(prometheus.CounterOpts{
			Name: "ddp_queries_answered_total",
			Help: "Total number of query packets answered with a reply",
		}),
		PresentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ddp_present_duration_seconds",
			Help:    "Time the display driver took to accept a frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10), // 100µs to ~100ms
		}),
		FramebufferCapacity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ddp_framebuffer_capacity_bytes",
			Help: "Fixed wire framebuffer size",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ddp_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ddp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ddp_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordDecodeError counts a codec rejection by cause.
func (m *Metrics) RecordDecodeError(cause string) {
	m.DecodeErrors.WithLabelValues(cause).Inc()
}

// RecordApplyRejection counts a state machine drop by cause.
func (m *Metrics) RecordApplyRejection(cause string) {
	m.ApplyRejections.WithLabelValues(cause).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
