package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts token lifecycle events. A nil *Metrics records nothing.
type Metrics struct {
	issued     *prometheus.CounterVec
	refreshed  *prometheus.CounterVec
	denials    *prometheus.CounterVec
	revocation *prometheus.CounterVec
}

// NewMetrics registers the counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		issued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokend",
			Name:      "tokens_issued_total",
			Help:      "Tokens issued, by grant type.",
		}, []string{"grant_type"}),
		refreshed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokend",
			Name:      "tokens_refreshed_total",
			Help:      "Successful refresh token rotations, by lifetime tier.",
		}, []string{"tier"}),
		denials: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokend",
			Name:      "grant_denials_total",
			Help:      "Grants burned after a security denial, by reason.",
		}, []string{"reason"}),
		revocation: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokend",
			Name:      "revocations_total",
			Help:      "Revocation requests, by presented token kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) tokenIssued(grantType string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(grantType).Inc()
}

func (m *Metrics) tokenRefreshed(tier string) {
	if m == nil {
		return
	}
	m.refreshed.WithLabelValues(tier).Inc()
}

func (m *Metrics) grantDenied(reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(reason).Inc()
}

func (m *Metrics) revoked(kind string) {
	if m == nil {
		return
	}
	m.revocation.WithLabelValues(kind).Inc()
}
