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
	"context"
	"log/slog"
	"strings"

	"github.com/mdstudio/mdauth/internal/authz"
)

// discloseURIPrefix marks the uris whose callee must learn the caller
// identity to complete its handshake.
const discloseURIPrefix = authz.Vendor + ".auth.endpoint.oauth"

// SessionInfo identifies the caller of an authorization request.
type SessionInfo struct {
	AuthID   string `json:"authid"`
	AuthRole string `json:"authrole"`
	Session  string `json:"session"`
}

// AuthorizeRing0 decides an internal component action against the static
// ring0 rule set. A nil decision means deny.
func (s *Service) AuthorizeRing0(
	session SessionInfo,
	uri string,
	action string,
) *authz.Decision {
	decision := s.authorizer.AuthorizeRing0(uri, action, session.AuthRole)
	if decision == nil {
		s.denied("ring0", session.AuthRole, uri, action)
		return nil
	}

	s.metrics.RecordAuthorization("ring0", true)

	return decision
}

// AuthorizeAdmin allows the admin role every call, subscribe, and publish.
func (s *Service) AuthorizeAdmin(
	session SessionInfo,
	uri string,
	action string,
) *authz.Decision {
	switch action {
	case "call", "subscribe", "publish":
	default:
		s.denied("admin", session.AuthID, uri, action)
		return nil
	}

	s.metrics.RecordAuthorization("admin", true)

	return s.finalize(&authz.Decision{Allow: true}, uri)
}

// AuthorizeUser decides a regular user action: first the static allowlist
// covering the auth endpoints, then the stored permissions for the uri's
// group and component. Denial is a nil decision, never an error; a lookup
// failure surfaces as an error so the bus can retry rather than silently
// deny or allow.
func (s *Service) AuthorizeUser(
	ctx context.Context,
	session SessionInfo,
	uri string,
	action string,
) (*authz.Decision, error) {
	if s.authorizer.AuthorizeUser(uri, action) {
		s.metrics.RecordAuthorization("user", true)
		return s.finalize(&authz.Decision{Allow: true}, uri), nil
	}

	parts := strings.SplitN(uri, ".", 4)
	if len(parts) == 4 {
		ok, err := s.repo.CheckPermission(
			ctx,
			session.AuthID,
			parts[0],
			parts[1],
			parts[3],
			action,
			"",
		)
		if err != nil {
			return nil, err
		}
		if ok {
			s.metrics.RecordAuthorization("user", true)
			return s.finalize(&authz.Decision{Allow: true}, uri), nil
		}
	}

	s.denied("user", session.AuthID, uri, action)

	return nil, nil
}

// finalize applies the disclose policy: callers stay anonymous unless the
// target uri requires identification.
func (s *Service) finalize(
	decision *authz.Decision,
	uri string,
) *authz.Decision {
	if strings.HasPrefix(uri, discloseURIPrefix) {
		decision.Disclose = true
	}

	return decision
}

func (s *Service) denied(
	tier string,
	caller string,
	uri string,
	action string,
) {
	s.metrics.RecordAuthorization(tier, false)
	s.logger.Warn(
		"not authorized",
		slog.String("tier", tier),
		slog.String("caller", caller),
		slog.String("action", action),
		slog.String("uri", uri),
	)
}
