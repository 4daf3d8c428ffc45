// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	SignIns          *prometheus.CounterVec
	SignUps          *prometheus.CounterVec
	PasswordResets   *prometheus.CounterVec
	TokensIssued     *prometheus.CounterVec
	Accounts         prometheus.Gauge
	LifecycleEvents  *prometheus.CounterVec
	LifecycleDropped prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fauxid_signins_total",
				Help: "Total number of sign-in attempts by facade and outcome",
			},
			[]string{"facade", "outcome"},
		),
		SignUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fauxid_signups_total",
				Help: "Total number of sign-up attempts by facade and outcome",
			},
			[]string{"facade", "outcome"},
		),
		PasswordResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fauxid_password_resets_total",
				Help: "Total number of password reset operations by stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		TokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fauxid_tokens_issued_total",
				Help: "Total number of tokens minted by kind",
			},
			[]string{"kind"},
		),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fauxid_accounts",
			Help: "Number of accounts in the directory",
		}),
		LifecycleEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fauxid_lifecycle_events_total",
				Help: "Total number of account lifecycle events published by kind",
			},
			[]string{"kind"},
		),
		LifecycleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fauxid_lifecycle_events_dropped_total",
			Help: "Total number of lifecycle events dropped because a subscriber buffer was full",
		}),
	}

	reg.MustRegister(
		m.SignIns,
		m.SignUps,
		m.PasswordResets,
		m.TokensIssued,
		m.Accounts,
		m.LifecycleEvents,
		m.LifecycleDropped,
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}

func (m *Metrics) signIn(facade string, err error) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(facade, outcome(err)).Inc()
}

func (m *Metrics) signUp(facade string, err error) {
	if m == nil {
		return
	}
	m.SignUps.WithLabelValues(facade, outcome(err)).Inc()
}

func (m *Metrics) passwordReset(stage string, err error) {
	if m == nil {
		return
	}
	m.PasswordResets.WithLabelValues(stage, outcome(err)).Inc()
}

func (m *Metrics) tokenIssued(kind TokenKind) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) setAccounts(n int) {
	if m == nil {
		return
	}
	m.Accounts.Set(float64(n))
}

func (m *Metrics) lifecycleEvent(kind EventKind) {
	if m == nil {
		return
	}
	m.LifecycleEvents.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) droppedCounter() prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.LifecycleDropped
}
