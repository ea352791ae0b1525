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

func (s *AuthPublicTestSuite) TestCreateClient() {
	credentials, err := s.service.CreateClient(s.ctx, "alice", identity.ClientGrantRequest{
		"foogroup": {
			identity.SeedRoleName: {
				"foogroup.calc.endpoint.add": {"call"},
			},
		},
	})
	s.Require().NoError(err)
	s.Require().NotNil(credentials)
	s.NotEmpty(credentials.ID)
	s.NotEmpty(credentials.Secret)

	// The secret is persisted only as a derived verifier.
	client, err := s.repo.FindClient(s.ctx, credentials.ID)
	s.Require().NoError(err)
	s.Require().NotNil(client)
	s.Require().NotNil(client.Authentication)
	s.NotEqual(credentials.Secret, client.Authentication.StoredKey)

	username, err := s.service.ClientUsername(s.ctx, credentials.ID)
	s.Require().NoError(err)
	s.Equal("alice", username)
}

func (s *AuthPublicTestSuite) TestCreateClientUnknownUser() {
	_, err := s.service.CreateClient(s.ctx, "mallory", nil)
	s.Error(err)
}

func (s *AuthPublicTestSuite) TestClientUsernameUnknownClient() {
	username, err := s.service.ClientUsername(s.ctx, "missing")
	s.Require().NoError(err)
	s.Empty(username)
}
