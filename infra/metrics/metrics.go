// Package metrics holds the Prometheus collectors of the record pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hftwire"

// Metrics is created once per process and handed to the services.
type Metrics struct {
	RecordsEncoded    *prometheus.CounterVec
	RecordsDecoded    *prometheus.CounterVec
	SymbolTruncations *prometheus.CounterVec
	OrderMutations    *prometheus.CounterVec
	BatchesPublished  *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec
	JournalAppends    prometheus.Counter
}

// New registers the collectors with reg. A nil reg leaves them
// unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RecordsEncoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_encoded_total",
			Help:      "Fixed-size records encoded, by message kind.",
		}, []string{"kind"}),
		RecordsDecoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Fixed-size records decoded, by message kind.",
		}, []string{"kind"}),
		SymbolTruncations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbol_truncations_total",
			Help:      "Symbols cut to the 8-byte field width on encode.",
		}, []string{"kind"}),
		OrderMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_mutations_total",
			Help:      "In-place order record mutations, by operation and result.",
		}, []string{"op", "result"}),
		BatchesPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_published_total",
			Help:      "Record batches handed to a downstream sink.",
		}, []string{"sink"}),
		PublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed publishes, by sink.",
		}, []string{"sink"}),
		JournalAppends: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_appends_total",
			Help:      "Frames appended to the record journal.",
		}),
	}
}

// Nop returns unregistered collectors.
func Nop() *Metrics { return New(nil) }
