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

	"github.com/mdstudio/mdauth/internal/identity"
	"github.com/mdstudio/mdauth/internal/scram"
)

// clientSecretLength is the generated secret size in characters.
const clientSecretLength = 30

// ClientCredentials is returned once at client creation; the secret is never
// stored in recoverable form.
type ClientCredentials struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// CreateClient creates a service credential carrying a restricted projection
// of the user's own permissions. The secret is returned to the caller and
// persisted only as a derived verifier, like a user password.
func (s *Service) CreateClient(
	ctx context.Context,
	username string,
	grants identity.ClientGrantRequest,
) (*ClientCredentials, error) {
	secret := identity.GenerateToken(clientSecretLength)

	credential, err := scram.NewCredential(secret)
	if err != nil {
		return nil, err
	}

	client, err := s.repo.CreateClient(ctx, username, &identity.Authentication{
		Salt:       credential.Salt,
		Iterations: credential.Iterations,
		StoredKey:  credential.StoredKey,
		ServerKey:  credential.ServerKey,
	}, grants)
	if err != nil {
		return nil, err
	}

	return &ClientCredentials{
		ID:     client.Handle,
		Secret: secret,
	}, nil
}

// ClientUsername resolves a client id back to its owning username, or ""
// when either the client or its user is gone.
func (s *Service) ClientUsername(
	ctx context.Context,
	clientID string,
) (string, error) {
	client, err := s.repo.FindClient(ctx, clientID)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", nil
	}

	user, err := s.repo.FindUser(ctx, identity.UserQuery{Handle: client.UserHandle})
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}

	return user.Username, nil
}
