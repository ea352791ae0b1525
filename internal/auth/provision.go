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
	"fmt"
	"log/slog"

	"github.com/mdstudio/mdauth/internal/identity"
	"github.com/mdstudio/mdauth/internal/scram"
)

// coreComponents receive a full-namespace grant on every provisioned group's
// owner role, so group owners can always reach the platform services.
var coreComponents = []string{"auth", "db", "logger", "schema"}

// Provision idempotently seeds the configured users, groups, components, and
// core permission rules. Every step is an insert-if-absent against the
// store, so re-running on an already seeded database changes nothing. A
// provisioned entity whose stored identity differs from the configured one
// is an error: the configuration changed under an existing database.
func (s *Service) Provision(
	ctx context.Context,
) error {
	provisioning := s.appConfig.Auth.Provisioning

	for _, u := range provisioning.Users {
		credential, err := scram.NewCredential(u.Password)
		if err != nil {
			return err
		}

		user, err := s.repo.CreateUser(ctx, u.Username, identity.Authentication{
			Salt:       credential.Salt,
			Iterations: credential.Iterations,
			StoredKey:  credential.StoredKey,
			ServerKey:  credential.ServerKey,
		}, u.Email, "")
		if err != nil {
			return err
		}
		if user.Username != u.Username {
			return fmt.Errorf(
				"provisioning for user %s changed; clear the database if intentional",
				u.Username,
			)
		}

		s.logger.Debug("provisioned user", slog.String("username", u.Username))
	}

	for _, g := range provisioning.Groups {
		group, err := s.repo.CreateGroup(ctx, g.GroupName, g.Owner, "")
		if err != nil {
			return err
		}
		if group.Name != g.GroupName {
			return fmt.Errorf(
				"provisioning for group %s changed; clear the database if intentional",
				g.GroupName,
			)
		}

		for _, component := range g.Components {
			c, err := s.repo.CreateComponent(ctx, g.GroupName, identity.SeedRoleName, component)
			if err != nil {
				return err
			}
			if c.Name != component {
				return fmt.Errorf(
					"provisioning for component %s changed; clear the database if intentional",
					component,
				)
			}
		}

		for _, component := range coreComponents {
			rule, err := s.repo.FindPermissionRule(
				ctx,
				g.GroupName,
				identity.SeedRoleName,
				identity.SetRoleResourcePermissions,
				component,
			)
			if err != nil {
				return err
			}
			if rule != nil {
				if !rule.FullNamespace {
					return fmt.Errorf(
						"core permission rule for %s on group %s lost full namespace access",
						component,
						g.GroupName,
					)
				}
				continue
			}

			added, err := s.repo.AddPermissionRule(ctx, identity.AddPermissionRuleInput{
				Group:         g.GroupName,
				Role:          identity.SeedRoleName,
				Set:           identity.SetRoleResourcePermissions,
				Component:     component,
				Kind:          identity.PermissionFullAccess,
				FullNamespace: true,
			})
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf(
					"failed to grant core permission for %s on group %s",
					component,
					g.GroupName,
				)
			}
		}

		s.logger.Debug("provisioned group", slog.String("group", g.GroupName))
	}

	return nil
}
