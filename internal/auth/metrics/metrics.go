// Package metrics holds the authentication counters. All methods are safe on a
// nil *Metrics so services can run without a registry in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const Namespace = "gatekeep"

// Two-factor event labels.
const (
	TwoFactorSetup    = "setup"
	TwoFactorEnabled  = "enabled"
	TwoFactorDisabled = "disabled"
	TwoFactorValid    = "valid"
	TwoFactorInvalid  = "invalid"
	TwoFactorReplayed = "replayed"
)

type Metrics struct {
	sessionsIssued  *prometheus.CounterVec
	sessionsRevoked prometheus.Counter
	resolveFailures *prometheus.CounterVec
	twoFactor       *prometheus.CounterVec
	gateDenials     *prometheus.CounterVec
	logins          *prometheus.CounterVec
	sweeps          *prometheus.CounterVec
	lastSweep       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_issued_total",
			Help:      "Sessions minted, by primary authentication method.",
		}, []string{"method"}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_revoked_total",
			Help:      "Sessions removed by logout or revocation.",
		}),
		resolveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_resolve_failures_total",
			Help:      "Session lookups that did not yield a user.",
		}, []string{"reason"}),
		twoFactor: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "twofactor_events_total",
			Help:      "TOTP enrollment and validation outcomes.",
		}, []string{"event"}),
		gateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "gate_denials_total",
			Help:      "Requests rejected by the auth gate.",
		}, []string{"reason"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "logins_total",
			Help:      "Primary authentication attempts.",
		}, []string{"method", "result"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_sweeps_total",
			Help:      "Expired-session sweeps, by result.",
		}, []string{"result"}),
		lastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "session_sweep_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful expired-session sweep.",
		}),
	}
	reg.MustRegister(m.sessionsIssued, m.sessionsRevoked, m.resolveFailures, m.twoFactor, m.gateDenials, m.logins, m.sweeps, m.lastSweep)
	return m
}

func (m *Metrics) SessionIssued(method string) {
	if m == nil {
		return
	}
	m.sessionsIssued.WithLabelValues(method).Inc()
}

func (m *Metrics) SessionsRevoked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsRevoked.Add(float64(n))
}

func (m *Metrics) ResolveFailed(reason string) {
	if m == nil {
		return
	}
	m.resolveFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) TwoFactor(event string) {
	if m == nil {
		return
	}
	m.twoFactor.WithLabelValues(event).Inc()
}

func (m *Metrics) GateDenied(reason string) {
	if m == nil {
		return
	}
	m.gateDenials.WithLabelValues(reason).Inc()
}

func (m *Metrics) Login(method string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.logins.WithLabelValues(method, result).Inc()
}

func (m *Metrics) Sweep(ok bool) {
	if m == nil {
		return
	}
	if !ok {
		m.sweeps.WithLabelValues("failure").Inc()
		return
	}
	m.sweeps.WithLabelValues("success").Inc()
	m.lastSweep.SetToCurrentTime()
}
