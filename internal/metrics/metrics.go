// Package metrics exposes Prometheus counters for the discrete diagnostic
// events emitted by the session core: storage write fallbacks, purged corrupt
// session records, and session invalidations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters shared by the storage, session and gateway
// layers. Construct one per process (or per test) with New and register it
// on an explicit registerer; there is no package-level default.
type Metrics struct {
	StorageWriteFallback prometheus.Counter
	SessionCorruptPurged prometheus.Counter
	AuthInvalidated      prometheus.Counter
}

// New creates the counter set and registers it with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StorageWriteFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storage_write_fallback_total",
			Help: "Writes that failed primary tier verification and fell back to the ephemeral tier.",
		}),
		SessionCorruptPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_corrupt_purged_total",
			Help: "Persisted profiles that failed to deserialize and were purged.",
		}),
		AuthInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_invalidated_total",
			Help: "Invalidation broadcasts triggered by unauthorized responses.",
		}),
	}
	reg.MustRegister(m.StorageWriteFallback, m.SessionCorruptPurged, m.AuthInvalidated)
	return m
}

// NewUnregistered returns a counter set that is not attached to any
// registerer. Handy as a default when the caller does not care about metrics.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
