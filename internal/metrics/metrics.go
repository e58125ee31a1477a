// Package metrics exposes Prometheus counters for ledger activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the ledger's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	entriesPosted   prometheus.Counter
	entriesReversed prometheus.Counter
	postRejections  *prometheus.CounterVec
	lockTimeouts    prometheus.Counter
	reconciliations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		entriesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_posted_total",
			Help:      "Total number of journal entries posted",
		}),
		entriesReversed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_reversed_total",
			Help:      "Total number of journal entries reversed",
		}),
		postRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_post_rejections_total",
			Help:      "Total number of rejected post attempts by reason",
		}, []string{"reason"}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lock_timeouts_total",
			Help:      "Total number of post attempts that timed out on account locks",
		}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_total",
			Help:      "Total number of reconciliation runs by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.entriesPosted, m.entriesReversed, m.postRejections, m.lockTimeouts, m.reconciliations)
	return m
}

// EntryPosted records a successful post.
func (m *Metrics) EntryPosted() {
	if m != nil {
		m.entriesPosted.Inc()
	}
}

// EntryReversed records a successful reversal.
func (m *Metrics) EntryReversed() {
	if m != nil {
		m.entriesReversed.Inc()
	}
}

// PostRejected records a validation rejection.
func (m *Metrics) PostRejected(reason string) {
	if m != nil {
		m.postRejections.WithLabelValues(reason).Inc()
	}
}

// LockTimeout records a post attempt that gave up waiting for locks.
func (m *Metrics) LockTimeout() {
	if m != nil {
		m.lockTimeouts.Inc()
	}
}

// Reconciliation records a reconciliation run outcome.
func (m *Metrics) Reconciliation(matched bool) {
	if m == nil {
		return
	}
	outcome := "mismatched"
	if matched {
		outcome = "matched"
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}
