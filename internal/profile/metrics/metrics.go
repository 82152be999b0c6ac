package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the profile lifecycle module.
type Metrics struct {
	Submissions    prometheus.Counter
	Resubmissions  prometheus.Counter
	Reviews        *prometheus.CounterVec
	SubmitDuration prometheus.Histogram
}

// New creates a Metrics instance with all profile module metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_profile_submissions_total",
			Help: "Total number of first-time profile submissions",
		}),
		Resubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portal_profile_resubmissions_total",
			Help: "Total number of profile resubmissions after review",
		}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_profile_reviews_total",
			Help: "Total number of admin review decisions by outcome",
		}, []string{"decision"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "portal_profile_submit_duration_seconds",
			Help:    "Duration of submit operations including the store write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSubmission records a successful profile submission.
func (m *Metrics) IncrementSubmission() {
	m.Submissions.Inc()
}

// IncrementResubmission records a successful resubmission.
func (m *Metrics) IncrementResubmission() {
	m.Resubmissions.Inc()
}

// IncrementReview records a review decision by outcome.
func (m *Metrics) IncrementReview(decision string) {
	m.Reviews.WithLabelValues(decision).Inc()
}

// ObserveSubmit records the duration of a submit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
