// Package metrics defines the prometheus collectors of the client. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stardust_client"

// Inclusion outcomes used as label values of the inclusion counter.
const (
	OutcomeIncluded    = "included"
	OutcomeConflicting = "conflicting"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
)

// Metrics bundles the collectors of the block issuing and inclusion workflows.
type Metrics struct {
	blocksSubmitted     prometheus.Counter
	promotions          prometheus.Counter
	reattachments       prometheus.Counter
	inclusionOutcomes   *prometheus.CounterVec
	powDuration         prometheus.Histogram
	consolidationTxs    prometheus.Counter
	consolidationErrors prometheus.Counter
}

// New creates the collectors and registers them with the given prometheus.Registerer.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		blocksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_submitted_total",
			Help:      "number of blocks submitted to a node",
		}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "number of promotion blocks issued for stalled blocks",
		}),
		reattachments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reattachments_total",
			Help:      "number of reattachments of payloads that fell out of the tangle",
		}),
		inclusionOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inclusion_outcomes_total",
			Help:      "number of tracked blocks per final inclusion outcome",
		}, []string{
			"outcome",
		}),
		powDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pow_duration_seconds",
			Help:      "time it took to find the nonce of a block",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		consolidationTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidation_transactions_total",
			Help:      "number of consolidating transactions that were included",
		}),
		consolidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidation_errors_total",
			Help:      "number of addresses whose consolidation failed",
		}),
	}

	registry.MustRegister(m.blocksSubmitted)
	registry.MustRegister(m.promotions)
	registry.MustRegister(m.reattachments)
	registry.MustRegister(m.inclusionOutcomes)
	registry.MustRegister(m.powDuration)
	registry.MustRegister(m.consolidationTxs)
	registry.MustRegister(m.consolidationErrors)

	return m
}

// BlockSubmitted counts a submitted block.
func (m *Metrics) BlockSubmitted() {
	if m == nil {
		return
	}
	m.blocksSubmitted.Inc()
}

// Promoted counts a promotion.
func (m *Metrics) Promoted() {
	if m == nil {
		return
	}
	m.promotions.Inc()
}

// Reattached counts a reattachment.
func (m *Metrics) Reattached() {
	if m == nil {
		return
	}
	m.reattachments.Inc()
}

// InclusionOutcome counts the final outcome of a tracked block.
func (m *Metrics) InclusionOutcome(outcome string) {
	if m == nil {
		return
	}
	m.inclusionOutcomes.WithLabelValues(outcome).Inc()
}

// PoWDone records the duration of a nonce search.
func (m *Metrics) PoWDone(duration time.Duration) {
	if m == nil {
		return
	}
	m.powDuration.Observe(duration.Seconds())
}

// Consolidated counts an included consolidating transaction.
func (m *Metrics) Consolidated() {
	if m == nil {
		return
	}
	m.consolidationTxs.Inc()
}

// ConsolidationFailed counts an address whose consolidation failed.
func (m *Metrics) ConsolidationFailed() {
	if m == nil {
		return
	}
	m.consolidationErrors.Inc()
}
