package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authentication module. Login
// failures are counted without a per-identifier label so the metric surface
// cannot be used for enumeration.
type Metrics struct {
	Registrations prometheus.Counter
	LoginSuccess  prometheus.Counter
	LoginFailure  prometheus.Counter
	LoginDuration prometheus.Histogram
}

// New creates a Metrics instance with all auth module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_registrations_total",
			Help: "Total number of self-service registrations",
		}),
		LoginSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_logins_success_total",
			Help: "Total number of successful logins",
		}),
		LoginFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_logins_failure_total",
			Help: "Total number of failed logins",
		}),
		LoginDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_login_duration_seconds",
			Help:    "Duration of login operations (bcrypt verification included)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveLogin records the duration of a login attempt.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
