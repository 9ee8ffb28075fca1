// Package metrics records grading allocation and roster reconciliation
// outcomes.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what services report to. Nop discards everything.
type Recorder interface {
	BatchCreated(course string, pairs int)
	AllocationFailed(reason string)
	AllocationDuration(d time.Duration)
	RosterChanged(op string, n int)
}

// Failure reasons.
const (
	ReasonNoEligibleGrader = "no_eligible_grader"
	ReasonUnassignable     = "unassignable_student"
	ReasonDuplicateActive  = "duplicate_active_batch"
	ReasonLocked           = "locked"
	ReasonUpstream         = "upstream"
	ReasonPersistence      = "persistence"
	ReasonInvalidInput     = "invalid_input"
)

// Roster ops.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Nop implements Recorder and does nothing.
type Nop struct{}

func (Nop) BatchCreated(string, int)         {}
func (Nop) AllocationFailed(string)          {}
func (Nop) AllocationDuration(time.Duration) {}
func (Nop) RosterChanged(string, int)        {}

var _ Recorder = Nop{}

// Prometheus implements Recorder. Collectors are registered lazily on first
// use so constructing one is free.
type Prometheus struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	batches  *prometheus.CounterVec
	pairs    prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
	roster   *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus uses prometheus.DefaultRegisterer when reg is nil and the
// "portal" namespace when namespace is empty.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "portal"
	}
	return &Prometheus{reg: reg, namespace: namespace}
}

func (p *Prometheus) ensureRegistered() {
	p.once.Do(func() {
		f := promauto.With(p.reg)

		p.batches = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "gat",
			Name:      "batches_created_total",
			Help:      "Grading assignment batches created, by course.",
		}, []string{"course"})

		p.pairs = f.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "gat",
			Name:      "pairs_created_total",
			Help:      "Grader/submission pairs materialized.",
		})

		p.failures = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "gat",
			Name:      "allocation_failures_total",
			Help:      "Failed allocation runs, by reason.",
		}, []string{"reason"})

		p.duration = f.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "gat",
			Name:      "allocation_duration_seconds",
			Help:      "Wall time of allocation runs including platform fetches and persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		})

		p.roster = f.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "roster",
			Name:      "changes_total",
			Help:      "Roster entries written by reconciliation, by operation.",
		}, []string{"op"})
	})
}

func (p *Prometheus) BatchCreated(course string, pairs int) {
	p.ensureRegistered()
	p.batches.WithLabelValues(course).Inc()
	p.pairs.Add(float64(pairs))
}

func (p *Prometheus) AllocationFailed(reason string) {
	p.ensureRegistered()
	p.failures.WithLabelValues(reason).Inc()
}

func (p *Prometheus) AllocationDuration(d time.Duration) {
	p.ensureRegistered()
	p.duration.Observe(d.Seconds())
}

func (p *Prometheus) RosterChanged(op string, n int) {
	if n <= 0 {
		return
	}
	p.ensureRegistered()
	p.roster.WithLabelValues(op).Add(float64(n))
}
