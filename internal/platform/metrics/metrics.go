// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus counters for the credential and session lifecycle.
//
// All recording methods are safe on a nil receiver so that tests and tools can
// run services without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bizcore"

// Auth groups the authentication counters.
type Auth struct {
	LoginAttempts    *prometheus.CounterVec
	Refreshes        *prometheus.CounterVec
	ReuseDetections  prometheus.Counter
	MagicLinksIssued prometheus.Counter
	Registrations    prometheus.Counter
	Lockouts         prometheus.Counter
}

// NewAuth registers the authentication counters on registerer.
func NewAuth(registerer prometheus.Registerer) *Auth {
	factory := promauto.With(registerer)

	return &Auth{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome reason.",
		}, []string{"reason"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Refresh token presentations by outcome.",
		}, []string{"outcome"}),
		ReuseDetections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_reuse_detected_total",
			Help:      "Refresh families revoked after a rotated-out or expired secret was presented.",
		}),
		MagicLinksIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "magic_links_issued_total",
			Help:      "Magic-link tokens minted and handed to the mailer.",
		}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Accounts created through self-registration.",
		}),
		Lockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Credentials locked after reaching the failure threshold.",
		}),
	}
}

// LoginAttempt counts one audited attempt.
func (m *Auth) LoginAttempt(reason string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(reason).Inc()
}

// Refresh counts one refresh outcome ("rotated", "rejected", "reuse").
func (m *Auth) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(outcome).Inc()
}

// ReuseDetected counts one family revocation caused by reuse.
func (m *Auth) ReuseDetected() {
	if m == nil {
		return
	}
	m.ReuseDetections.Inc()
}

// MagicLinkIssued counts one issued magic link.
func (m *Auth) MagicLinkIssued() {
	if m == nil {
		return
	}
	m.MagicLinksIssued.Inc()
}

// Registered counts one self-registration.
func (m *Auth) Registered() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// Locked counts one lockout transition.
func (m *Auth) Locked() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
