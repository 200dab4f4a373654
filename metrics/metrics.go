// Package metrics exposes the oracle's Prometheus metrics on a dedicated
// listener, separate from the public API.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors updated by the request path.
type Metrics struct {
	SignedResponses    *prometheus.CounterVec
	RejectedRequests   *prometheus.CounterVec
	FetchedBytes       prometheus.Histogram
	AttestationLatency *prometheus.HistogramVec
}

// NewMetrics registers the oracle collectors on reg under namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_responses_total",
			Help:      "Number of signed responses produced, by verification mode.",
		}, []string{"mode"}),
		RejectedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Number of requests rejected before signing, by error kind.",
		}, []string{"kind"}),
		FetchedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetched_bytes",
			Help:      "Size of dataset content fetched for content verification.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 12),
		}),
		AttestationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attestation_duration_seconds",
			Help:      "Time spent obtaining an attestation document from the hardware provider.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "result"}),
	}

	reg.MustRegister(m.SignedResponses, m.RejectedRequests, m.FetchedBytes, m.AttestationLatency)
	return m
}

// MetricsServer serves a Prometheus registry over HTTP.
type MetricsServer struct {
	registry *prometheus.Registry
	metrics  *Metrics
	srv      *http.Server
}

// New creates a metrics server with a fresh registry and the oracle collectors
// registered on it.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		registry: registry,
		metrics:  NewMetrics(namespace, registry),
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Metrics returns the collectors registered on this server.
func (m *MetricsServer) Metrics() *Metrics {
	return m.metrics
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
