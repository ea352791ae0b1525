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

package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mdstudio/mdauth/internal/document"
)

const tokenCharacterSet = `!"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\]^_` +
	"`abcdefghijklmnopqrstuvwxyz{|}"

// GenerateToken returns a random printable token for client ids and secrets.
func GenerateToken(
	length int,
) string {
	buf := make([]byte, length)
	_, _ = rand.Read(buf)

	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(tokenCharacterSet[int(c)%len(tokenCharacterSet)])
	}

	return b.String()
}

// ClientGrantRequest is the permission projection a client is requested
// with: group name -> role name -> endpoint uri -> actions.
type ClientGrantRequest map[string]map[string]map[string][]string

// CreateClient creates a service credential for username carrying a
// restricted projection of the user's own permissions. Each requested
// (uri, action) is tested against CheckPermission and silently dropped when
// the creating user does not hold it; a client can never exceed its creator.
// The restriction is enforced here at construction, not retroactively.
func (r *Repository) CreateClient(
	ctx context.Context,
	username string,
	auth *Authentication,
	grants ClientGrantRequest,
) (*Client, error) {
	userHandle, err := r.resolveHandle(ctx, username)
	if err != nil {
		return nil, err
	}
	if userHandle == "" {
		return nil, fmt.Errorf("create client: user %s not found", username)
	}

	createdAt := r.now()
	client := &Client{
		Handle:         r.newHandle(),
		UserHandle:     userHandle,
		Authentication: auth,
		CreatedAt:      createdAt,
	}

	for groupName, rolePermissions := range grants {
		group, err := r.FindGroup(ctx, groupName)
		if err != nil {
			return nil, err
		}
		if group == nil {
			continue
		}

		cg := ClientGroup{
			Handle:    group.Handle,
			Roles:     map[string]map[string]ClientPermission{},
			CreatedAt: createdAt,
		}

		for roleName, permissions := range rolePermissions {
			role, err := r.FindRole(ctx, groupName, roleName)
			if err != nil {
				return nil, err
			}
			if role == nil {
				continue
			}

			rolePerms := map[string]ClientPermission{}
			for uri, actions := range permissions {
				parts := strings.SplitN(uri, ".", 4)
				if len(parts) < 4 || parts[0] != groupName {
					continue
				}
				component, endpoint := parts[1], parts[3]

				var granted []string
				for _, action := range actions {
					ok, err := r.CheckPermission(ctx, username, groupName, component, endpoint, action, roleName)
					if err != nil {
						return nil, err
					}
					if ok {
						granted = append(granted, action)
					}
				}
				if len(granted) > 0 {
					rolePerms[uri] = ClientPermission{
						Actions:   granted,
						CreatedAt: createdAt,
					}
				}
			}
			cg.Roles[role.Handle] = rolePerms
		}
		client.Groups = append(client.Groups, cg)
	}

	doc, err := r.store.FindOneAndUpdate(ctx, document.ColClients,
		bson.M{"handle": client.Handle},
		bson.M{"$setOnInsert": client.Document()},
		document.UpdateOptions{
			Upsert:        true,
			Projection:    bson.M{"_id": false},
			ReturnUpdated: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return ClientFromDocument(doc), nil
}

// FindClient returns the client with the given handle, or nil.
func (r *Repository) FindClient(
	ctx context.Context,
	handle string,
) (*Client, error) {
	doc, err := r.store.FindOne(ctx, document.ColClients,
		bson.M{"handle": handle},
		bson.M{"_id": false},
	)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}

	return ClientFromDocument(doc), nil
}
