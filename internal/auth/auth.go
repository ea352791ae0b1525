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

// Package auth implements the authentication and authorization service: the
// SCRAM login exchange, claim signing and verification, the tiered
// authorization endpoints, and startup provisioning.
package auth

import (
	"log/slog"
	"sync"

	"github.com/mdstudio/mdauth/internal/authz"
	"github.com/mdstudio/mdauth/internal/claims"
	"github.com/mdstudio/mdauth/internal/config"
	"github.com/mdstudio/mdauth/internal/identity"
)

// Service wires the identity repository, the claims signer, and the static
// authorizer behind the bus endpoints.
type Service struct {
	logger     *slog.Logger
	appConfig  config.Config
	repo       *identity.Repository
	signer     *claims.Signer
	authorizer *authz.Authorizer
	metrics    *Metrics

	statusMu sync.Mutex
	status   map[string]bool
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	appConfig config.Config,
	repo *identity.Repository,
	signer *claims.Signer,
	authorizer *authz.Authorizer,
	metrics *Metrics,
) *Service {
	return &Service{
		logger:     logger,
		appConfig:  appConfig,
		repo:       repo,
		signer:     signer,
		authorizer: authorizer,
		metrics:    metrics,
		status:     map[string]bool{},
	}
}

// SetComponentStatus records the readiness flag an internal component
// reported for itself.
func (s *Service) SetComponentStatus(
	component string,
	up bool,
) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	s.status[component] = up
}

// ComponentStatus returns the last reported readiness of a component.
// Unreported components read as down.
func (s *Service) ComponentStatus(
	component string,
) bool {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	return s.status[component]
}
