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
	"github.com/mdstudio/mdauth/internal/auth"
)

func (s *AuthPublicTestSuite) TestAuthorizeRing0() {
	session := auth.SessionInfo{AuthID: "db", AuthRole: "db", Session: "s-1"}

	decision := s.service.AuthorizeRing0(session, "mdstudio.db.endpoint.find", "call")
	s.Require().NotNil(decision)
	s.True(decision.Allow)
	s.True(decision.Disclose)

	decision = s.service.AuthorizeRing0(session, "mdstudio.cache.endpoint.get", "call")
	s.Nil(decision)
}

func (s *AuthPublicTestSuite) TestAuthorizeAdmin() {
	session := auth.SessionInfo{AuthID: "admin", AuthRole: "admin", Session: "s-1"}

	tests := []struct {
		name     string
		uri      string
		action   string
		allow    bool
		disclose bool
	}{
		{
			name:   "when calling",
			uri:    "foogroup.calc.endpoint.add",
			action: "call",
			allow:  true,
		},
		{
			name:   "when subscribing",
			uri:    "foogroup.calc.endpoint.events.done",
			action: "subscribe",
			allow:  true,
		},
		{
			name:   "when publishing",
			uri:    "foogroup.calc.endpoint.events.done",
			action: "publish",
			allow:  true,
		},
		{
			name:     "when the oauth handshake requires disclosure",
			uri:      "mdstudio.auth.endpoint.oauth.client.create",
			action:   "call",
			allow:    true,
			disclose: true,
		},
		{
			name:   "when the action is unknown",
			uri:    "foogroup.calc.endpoint.add",
			action: "register",
			allow:  false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			decision := s.service.AuthorizeAdmin(session, tc.uri, tc.action)

			if !tc.allow {
				s.Nil(decision)
				return
			}
			s.Require().NotNil(decision)
			s.True(decision.Allow)
			s.Equal(tc.disclose, decision.Disclose)
		})
	}
}

func (s *AuthPublicTestSuite) TestAuthorizeUser() {
	tests := []struct {
		name   string
		authid string
		uri    string
		action string
		allow  bool
	}{
		{
			name:   "when the user holds the component permission",
			authid: "alice",
			uri:    "foogroup.calc.endpoint.add",
			action: "call",
			allow:  true,
		},
		{
			name:   "when the auth endpoints are allowlisted",
			authid: "mallory",
			uri:    "mdstudio.auth.endpoint.login",
			action: "call",
			allow:  true,
		},
		{
			name:   "when the user lacks the permission",
			authid: "mallory",
			uri:    "foogroup.calc.endpoint.add",
			action: "call",
			allow:  false,
		},
		{
			name:   "when the uri is not an endpoint uri",
			authid: "alice",
			uri:    "foogroup.calc",
			action: "call",
			allow:  false,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			session := auth.SessionInfo{AuthID: tc.authid, AuthRole: "user", Session: "s-1"}

			decision, err := s.service.AuthorizeUser(s.ctx, session, tc.uri, tc.action)
			s.Require().NoError(err)

			if !tc.allow {
				s.Nil(decision)
				return
			}
			s.Require().NotNil(decision)
			s.True(decision.Allow)
		})
	}
}
