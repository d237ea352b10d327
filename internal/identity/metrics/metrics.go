package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity lifecycle module.
type Metrics struct {
	IdentitiesCreated    prometheus.Counter
	IdentitiesDeleted    prometheus.Counter
	BiometricsRegistered prometheus.Counter
	PasswordsChanged     prometheus.Counter
	CreateDuration       prometheus.Histogram
	BulkCreateSize       prometheus.Histogram
}

// New creates a Metrics instance with all identity module metrics registered.
func New() *Metrics {
	return &Metrics{
		IdentitiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_identities_created_total",
			Help: "Total number of identities created",
		}),
		IdentitiesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_identities_deleted_total",
			Help: "Total number of identities deleted",
		}),
		BiometricsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_biometric_registrations_total",
			Help: "Total number of biometric template registrations",
		}),
		PasswordsChanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_password_changes_total",
			Help: "Total number of password resets",
		}),
		CreateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_identity_create_duration_seconds",
			Help:    "Duration of identity create operations (hashing included)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BulkCreateSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_bulk_create_batch_size",
			Help:    "Number of entries per bulk provisioning request",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveCreate records the duration of a create operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCreate(start time.Time) {
	m.CreateDuration.Observe(time.Since(start).Seconds())
}
