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

package auth_test

import (
	"github.com/mdstudio/mdauth/internal/identity"
)

func (s *AuthPublicTestSuite) TestSignClaimsServiceRole() {
	token, err := s.service.SignClaims(s.ctx, map[string]any{
		"asGroup": "mdstudio",
		"asRole":  "db",
		"uri":     "mdstudio.db.endpoint.find",
	}, "db", "db")
	s.Require().NoError(err)
	s.Require().NotEmpty(token)

	result := s.service.VerifyClaims(token)
	s.Require().NotNil(result.Claims)
	s.Equal("db", result.Claims["username"])
	s.Equal("mdstudio", result.Claims["group"])
	s.Equal("db", result.Claims["role"])
}

func (s *AuthPublicTestSuite) TestSignClaimsUser() {
	// alice owns foogroup and the calc component; the membership assertion
	// resolves through her stored permissions.
	token, err := s.service.SignClaims(s.ctx, map[string]any{
		"asGroup": "foogroup",
		"asRole":  identity.SeedRoleName,
		"uri":     "foogroup.calc.endpoint.add",
		"action":  "call",
	}, "user", "alice")
	s.Require().NoError(err)
	s.Require().NotEmpty(token)

	result := s.service.VerifyClaims(token)
	s.Require().NotNil(result.Claims)
	s.Equal("alice", result.Claims["username"])
	s.Equal("foogroup", result.Claims["group"])
	s.Equal(identity.SeedRoleName, result.Claims["role"])
}

func (s *AuthPublicTestSuite) TestSignClaimsUserNoAssertion() {
	token, err := s.service.SignClaims(s.ctx, map[string]any{
		"uri": "foogroup.calc.endpoint.add",
	}, "user", "alice")
	s.Require().NoError(err)
	s.Require().NotEmpty(token)

	result := s.service.VerifyClaims(token)
	s.Require().NotNil(result.Claims)
	s.Equal("alice", result.Claims["username"])
	s.NotContains(result.Claims, "group")
	s.NotContains(result.Claims, "role")
}

func (s *AuthPublicTestSuite) TestSignClaimsUserAllowlisted() {
	// The auth endpoints are granted to any user regardless of membership.
	_, err := s.repo.CreateUser(s.ctx, "bob", identity.Authentication{}, "bob@example.com", "")
	s.Require().NoError(err)

	token, err := s.service.SignClaims(s.ctx, map[string]any{
		"asGroup": "mdstudio",
		"uri":     "mdstudio.auth.endpoint.login",
		"action":  "call",
	}, "user", "bob")
	s.Require().NoError(err)
	s.NotEmpty(token)
}

func (s *AuthPublicTestSuite) TestSignClaimsDenied() {
	_, err := s.repo.CreateUser(s.ctx, "bob", identity.Authentication{}, "bob@example.com", "")
	s.Require().NoError(err)

	tests := []struct {
		name     string
		claimSet map[string]any
		role     string
		authid   string
	}{
		{
			name: "when the user is not a member of the asserted group",
			claimSet: map[string]any{
				"asGroup": "foogroup",
				"uri":     "foogroup.calc.endpoint.add",
				"action":  "call",
			},
			role:   "user",
			authid: "bob",
		},
		{
			name: "when the uri does not belong to the asserted group",
			claimSet: map[string]any{
				"asGroup": "foogroup",
				"uri":     "bargroup.calc.endpoint.add",
				"action":  "call",
			},
			role:   "user",
			authid: "alice",
		},
		{
			name:     "when the caller is unknown",
			claimSet: map[string]any{},
			role:     "user",
			authid:   "mallory",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			token, err := s.service.SignClaims(s.ctx, tc.claimSet, tc.role, tc.authid)
			s.Require().NoError(err)
			s.Empty(token)
		})
	}
}

func (s *AuthPublicTestSuite) TestSignClaimsErrors() {
	tests := []struct {
		name     string
		claimSet map[string]any
		role     string
		authid   string
	}{
		{
			name:     "when a reserved key is asserted",
			claimSet: map[string]any{"group": "foogroup"},
			role:     "user",
			authid:   "alice",
		},
		{
			name:     "when a role is claimed without a group",
			claimSet: map[string]any{"asRole": "owner"},
			role:     "user",
			authid:   "alice",
		},
		{
			name:     "when the group assertion is not a string",
			claimSet: map[string]any{"asGroup": 42},
			role:     "user",
			authid:   "alice",
		},
		{
			name:     "when the group assertion is empty",
			claimSet: map[string]any{"asGroup": ""},
			role:     "user",
			authid:   "alice",
		},
		{
			name:     "when a service role claims a foreign group",
			claimSet: map[string]any{"asGroup": "foogroup"},
			role:     "db",
			authid:   "db",
		},
		{
			name:     "when a service role claims a foreign role",
			claimSet: map[string]any{"asGroup": "mdstudio", "asRole": "cache"},
			role:     "db",
			authid:   "db",
		},
		{
			name:     "when the caller role is unsupported",
			claimSet: map[string]any{},
			role:     "ghost",
			authid:   "ghost",
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			_, err := s.service.SignClaims(s.ctx, tc.claimSet, tc.role, tc.authid)
			s.Error(err)
		})
	}
}

func (s *AuthPublicTestSuite) TestVerifyClaims() {
	result := s.service.VerifyClaims("not-a-token")
	s.Equal("Could not verify user", result.Error)
	s.Nil(result.Claims)
}
