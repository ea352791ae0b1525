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
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mdstudio/mdauth/internal/auth"
	"github.com/mdstudio/mdauth/internal/authz"
	"github.com/mdstudio/mdauth/internal/claims"
	"github.com/mdstudio/mdauth/internal/config"
	"github.com/mdstudio/mdauth/internal/document"
	"github.com/mdstudio/mdauth/internal/identity"
)

const alicePassword = "correct horse"

type AuthPublicTestSuite struct {
	suite.Suite

	ctx     context.Context
	repo    *identity.Repository
	service *auth.Service
}

func (s *AuthPublicTestSuite) SetupTest() {
	s.ctx = context.Background()

	logger := slog.Default()
	appConfig := config.Config{
		Auth: config.Auth{
			Realm: "mdstudio",
			Provisioning: config.Provisioning{
				Users: []config.ProvisionUser{
					{Username: "alice", Password: alicePassword, Email: "alice@example.com"},
				},
				Groups: []config.ProvisionGroup{
					{GroupName: "foogroup", Owner: "alice", Components: []string{"calc"}},
				},
			},
		},
	}

	s.repo = identity.NewRepository(logger, document.NewMemory())

	signer, err := claims.NewSigner(logger)
	s.Require().NoError(err)

	s.service = auth.New(
		logger,
		appConfig,
		s.repo,
		signer,
		authz.New(logger),
		auth.NewMetrics(),
	)

	s.Require().NoError(s.service.Provision(s.ctx))
}

func TestAuthPublicTestSuite(t *testing.T) {
	suite.Run(t, new(AuthPublicTestSuite))
}

func (s *AuthPublicTestSuite) TestProvision() {
	// Provisioning an already seeded database changes nothing.
	s.Require().NoError(s.service.Provision(s.ctx))

	user, err := s.repo.FindUser(s.ctx, identity.UserQuery{Username: "alice"})
	s.Require().NoError(err)
	s.Require().NotNil(user)

	group, err := s.repo.FindGroup(s.ctx, "foogroup")
	s.Require().NoError(err)
	s.Require().NotNil(group)
	s.Require().Len(group.Components, 1)
	s.Equal("calc", group.Components[0].Name)

	// The owner role holds full access on every core component.
	for _, component := range []string{"auth", "db", "logger", "schema"} {
		rule, err := s.repo.FindPermissionRule(
			s.ctx,
			"foogroup",
			identity.SeedRoleName,
			identity.SetRoleResourcePermissions,
			component,
		)
		s.Require().NoError(err)
		s.Require().NotNil(rule)
		s.True(rule.FullNamespace)
	}
}

func (s *AuthPublicTestSuite) TestComponentStatus() {
	s.False(s.service.ComponentStatus("db"))

	s.service.SetComponentStatus("db", true)
	s.True(s.service.ComponentStatus("db"))

	s.service.SetComponentStatus("db", false)
	s.False(s.service.ComponentStatus("db"))
}
