package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeDenied   = "denied"
	OutcomeCapacity = "capacity"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	AuditEvictions  prometheus.Counter
	AuditAppendErrs prometheus.Counter
	AuditStoreBytes prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		AuditEvictions: f.NewCounter(prometheus.CounterOpts{
			Name: "accounts_audit_evictions_total",
			Help: "Audit events evicted to stay within the storage budget",
		}),
		AuditAppendErrs: f.NewCounter(prometheus.CounterOpts{
			Name: "accounts_audit_append_failures_total",
			Help: "Audit appends that failed and were suppressed",
		}),
		AuditStoreBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "accounts_audit_store_bytes",
			Help: "Bytes currently held by the audit log store",
		}),
	}
}

func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

// ObserveEvictions adds n evicted audit events.
func (m *Metrics) ObserveEvictions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AuditEvictions.Add(float64(n))
}

func (m *Metrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.AuditAppendErrs.Inc()
}

// SetAuditStoreBytes records the current audit store footprint.
func (m *Metrics) SetAuditStoreBytes(n int64) {
	if m == nil {
		return
	}
	m.AuditStoreBytes.Set(float64(n))
}
