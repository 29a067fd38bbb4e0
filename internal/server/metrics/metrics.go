// Package metrics exposes Prometheus counters for share access, downloads
// and crypto failures.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sharevault"

// Metrics holds all application metrics.
type Metrics struct {
	authorizeTotal *prometheus.CounterVec
	downloadsTotal *prometheus.CounterVec
	cryptoFailures *prometheus.CounterVec
	gatherer       prometheus.Gatherer
}

// NewMetrics registers the counters on the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsWithRegistry registers on reg and serves from g. Tests pass a
// fresh prometheus.NewRegistry() for both.
func NewMetricsWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		authorizeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorize_total",
				Help:      "Share access checks by capability and outcome",
			},
			[]string{"capability", "outcome"},
		),
		downloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Shared downloads by result",
			},
			[]string{"result"},
		),
		cryptoFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "crypto_failures_total",
				Help:      "Key unwrap and payload decryption failures",
			},
			[]string{"op"},
		),
		gatherer: g,
	}
}

// RecordAuthorize counts one access check. outcome is "allowed" or a
// denial reason.
func (m *Metrics) RecordAuthorize(capability, outcome string) {
	if m == nil {
		return
	}
	m.authorizeTotal.WithLabelValues(capability, outcome).Inc()
}

// RecordDownload counts a shared download attempt that passed Authorize.
func (m *Metrics) RecordDownload(result string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(result).Inc()
}

// RecordCryptoFailure counts an integrity failure; op is "unwrap" or "decrypt".
func (m *Metrics) RecordCryptoFailure(op string) {
	if m == nil {
		return
	}
	m.cryptoFailures.WithLabelValues(op).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
