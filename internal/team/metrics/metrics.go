package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the membership ledger.
type Metrics struct {
	TeamChanges       *prometheus.CounterVec
	MembershipChanges *prometheus.CounterVec
	CascadeFailures   prometheus.Counter
	CascadeSize       prometheus.Histogram
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		TeamChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_team_changes_total",
			Help: "Total team record mutations by operation",
		}, []string{"operation"}),
		MembershipChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_team_membership_changes_total",
			Help: "Total membership set mutations by operation",
		}, []string{"operation"}),
		CascadeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_team_cascade_failures_total",
			Help: "Membership removals that failed during a team delete cascade",
		}),
		CascadeSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_team_cascade_size",
			Help:    "Number of members touched by a team delete cascade",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// IncrementTeamChange records a team create, update, or delete.
func (m *Metrics) IncrementTeamChange(operation string) {
	m.TeamChanges.WithLabelValues(operation).Inc()
}

// IncrementMembershipChange records an add or remove on a membership set.
func (m *Metrics) IncrementMembershipChange(operation string) {
	m.MembershipChanges.WithLabelValues(operation).Inc()
}

// ObserveCascade records the outcome of one delete cascade.
func (m *Metrics) ObserveCascade(members, failures int) {
	m.CascadeSize.Observe(float64(members))
	m.CascadeFailures.Add(float64(failures))
}
