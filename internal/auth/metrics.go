// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package auth

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments published by the service.
type Metrics struct {
	registry *prometheus.Registry

	authorizationDecisions *prometheus.CounterVec
	loginAttempts          *prometheus.CounterVec
	claimsSigned           prometheus.Counter
	claimsVerified         *prometheus.CounterVec
}

// NewMetrics factory to create a new instance.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		authorizationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdauth_authorization_decisions_total",
			Help: "Authorization decisions by tier and outcome.",
		}, []string{"tier", "decision"}),
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdauth_login_attempts_total",
			Help: "Login attempts by phase and outcome.",
		}, []string{"phase", "result"}),
		claimsSigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "mdauth_claims_signed_total",
			Help: "Claim tokens issued.",
		}),
		claimsVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mdauth_claims_verified_total",
			Help: "Claim verifications by outcome.",
		}, []string{"result"}),
	}
}

// RecordAuthorization counts one authorization decision.
func (m *Metrics) RecordAuthorization(
	tier string,
	allowed bool,
) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.authorizationDecisions.WithLabelValues(tier, decision).Inc()
}

// RecordLogin counts one login phase outcome.
func (m *Metrics) RecordLogin(
	phase string,
	result string,
) {
	m.loginAttempts.WithLabelValues(phase, result).Inc()
}

// RecordClaimsSigned counts one issued claim token.
func (m *Metrics) RecordClaimsSigned() {
	m.claimsSigned.Inc()
}

// RecordClaimsVerified counts one verification outcome.
func (m *Metrics) RecordClaimsVerified(
	result string,
) {
	m.claimsVerified.WithLabelValues(result).Inc()
}

// Handler returns the scrape endpoint for the service registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
