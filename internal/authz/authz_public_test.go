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

package authz_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mdstudio/mdauth/internal/authz"
)

type AuthzPublicTestSuite struct {
	suite.Suite

	authorizer *authz.Authorizer
}

func (s *AuthzPublicTestSuite) SetupTest() {
	s.authorizer = authz.New(slog.Default())
}

func TestAuthzPublicTestSuite(t *testing.T) {
	suite.Run(t, new(AuthzPublicTestSuite))
}

func (s *AuthzPublicTestSuite) TestRules() {
	tests := []struct {
		name   string
		rule   authz.Rule
		uri    string
		action string
		role   string
		want   bool
	}{
		{
			name:   "when prefix matches with default call action",
			rule:   authz.NewPrefixRule("mdstudio.db."),
			uri:    "mdstudio.db.endpoint.find",
			action: "call",
			want:   true,
		},
		{
			name:   "when prefix matches but action differs",
			rule:   authz.NewPrefixRule("mdstudio.db."),
			uri:    "mdstudio.db.endpoint.find",
			action: "subscribe",
			want:   false,
		},
		{
			name:   "when prefix rule carries the wildcard action",
			rule:   authz.NewPrefixRule("mdstudio.db.", "*"),
			uri:    "mdstudio.db.endpoint.find",
			action: "publish",
			want:   true,
		},
		{
			name:   "when the role placeholder expands to the caller role",
			rule:   authz.NewPrefixRule("mdstudio.{role}.", "*"),
			uri:    "mdstudio.cache.endpoint.get",
			action: "call",
			role:   "cache",
			want:   true,
		},
		{
			name:   "when the role placeholder expands to a different role",
			rule:   authz.NewPrefixRule("mdstudio.{role}.", "*"),
			uri:    "mdstudio.cache.endpoint.get",
			action: "call",
			role:   "db",
			want:   false,
		},
		{
			name:   "when regex matches",
			rule:   authz.NewRegexRule(`^mdstudio\.\w+\.endpoint\.events\.\w+`, "subscribe"),
			uri:    "mdstudio.logger.endpoint.events.ready",
			action: "subscribe",
			want:   true,
		},
		{
			name:   "when regex does not match",
			rule:   authz.NewRegexRule(`^mdstudio\.\w+\.endpoint\.events\.\w+`, "subscribe"),
			uri:    "mdstudio.logger.endpoint.log",
			action: "subscribe",
			want:   false,
		},
		{
			name:   "when exact uri matches",
			rule:   authz.NewExactRule("mdstudio.auth.endpoint.sign"),
			uri:    "mdstudio.auth.endpoint.sign",
			action: "call",
			want:   true,
		},
		{
			name:   "when exact uri differs",
			rule:   authz.NewExactRule("mdstudio.auth.endpoint.sign"),
			uri:    "mdstudio.auth.endpoint.verify",
			action: "call",
			want:   false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.Equal(tc.want, tc.rule.Match(tc.uri, tc.action, tc.role))
		})
	}
}

func (s *AuthzPublicTestSuite) TestAuthorizeRing0() {
	tests := []struct {
		name   string
		uri    string
		action string
		role   string
		want   bool
	}{
		{
			name:   "when a component acts inside its own namespace",
			uri:    "mdstudio.cache.endpoint.get",
			action: "publish",
			role:   "cache",
			want:   true,
		},
		{
			name:   "when a component calls the db service",
			uri:    "mdstudio.db.endpoint.insert",
			action: "call",
			role:   "schema",
			want:   true,
		},
		{
			name:   "when a component subscribes to events",
			uri:    "mdstudio.logger.endpoint.events.ready",
			action: "subscribe",
			role:   "db",
			want:   true,
		},
		{
			name:   "when a component signs claims",
			uri:    "mdstudio.auth.endpoint.sign",
			action: "call",
			role:   "logger",
			want:   true,
		},
		{
			name:   "when a component reports ring0 status",
			uri:    "mdstudio.auth.endpoint.ring0.set-status",
			action: "call",
			role:   "db",
			want:   true,
		},
		{
			name:   "when a component leaves its namespace",
			uri:    "mdstudio.cache.endpoint.get",
			action: "call",
			role:   "logger",
			want:   false,
		},
		{
			name:   "when the uri is outside the vendor prefix",
			uri:    "othervendor.db.endpoint.find",
			action: "call",
			role:   "db",
			want:   false,
		},
		{
			name:   "when an allowed uri is hit with a non-call action",
			uri:    "mdstudio.schema.endpoint.get",
			action: "subscribe",
			role:   "logger",
			want:   false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			decision := s.authorizer.AuthorizeRing0(tc.uri, tc.action, tc.role)

			if !tc.want {
				s.Nil(decision)
				return
			}

			s.Require().NotNil(decision)
			s.True(decision.Allow)
			s.True(decision.Disclose)
		})
	}
}

func (s *AuthzPublicTestSuite) TestAuthorizeUser() {
	tests := []struct {
		name   string
		uri    string
		action string
		want   bool
	}{
		{
			name:   "when calling sign",
			uri:    "mdstudio.auth.endpoint.sign",
			action: "call",
			want:   true,
		},
		{
			name:   "when calling logout",
			uri:    "mdstudio.auth.endpoint.logout",
			action: "call",
			want:   true,
		},
		{
			name:   "when subscribing to sign",
			uri:    "mdstudio.auth.endpoint.sign",
			action: "subscribe",
			want:   false,
		},
		{
			name:   "when calling an arbitrary uri",
			uri:    "foogroup.calc.endpoint.add",
			action: "call",
			want:   false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.Equal(tc.want, s.authorizer.AuthorizeUser(tc.uri, tc.action))
		})
	}
}

func (s *AuthzPublicTestSuite) TestIsRing0Role() {
	tests := []struct {
		name string
		role string
		want bool
	}{
		{name: "when db", role: "db", want: true},
		{name: "when cache", role: "cache", want: true},
		{name: "when schema", role: "schema", want: true},
		{name: "when auth", role: "auth", want: true},
		{name: "when logger", role: "logger", want: true},
		{name: "when user", role: "user", want: false},
		{name: "when empty", role: "", want: false},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			s.Equal(tc.want, authz.IsRing0Role(tc.role))
		})
	}
}
