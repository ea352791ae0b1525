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
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mdstudio/mdauth/internal/document"
)

// AddPermissionRuleInput describes a single permission grant for a role.
type AddPermissionRuleInput struct {
	Group     string
	Role      string
	Set       string
	Component string
	Kind      PermissionKind
	// Actions being granted; ignored for PermissionFullAccess.
	Actions []string
	// ScopeOrURI names the scope (PermissionNamedScope) or endpoint uri
	// (PermissionSpecificEndpoint). Dots are normalized to slashes so the
	// value can live as a single document key.
	ScopeOrURI string
	// FullNamespace is the value set for PermissionFullAccess.
	FullNamespace bool
}

// AddPermissionRule attaches a permission rule to a role. The
// ComponentPermission container for the (role, component) pair is created
// lazily on the first grant; later grants union into the existing sets via
// atomic $addToSet updates. For the componentPermissions set the component
// must already be adopted by the group.
func (r *Repository) AddPermissionRule(
	ctx context.Context,
	in AddPermissionRuleInput,
) (bool, error) {
	role, err := r.FindRole(ctx, in.Group, in.Role)
	if err != nil || role == nil {
		return false, err
	}

	scopeOrURI := strings.ReplaceAll(in.ScopeOrURI, ".", "/")
	createdAt := r.now()
	permPath := "permissions." + in.Set + "." + in.Component
	rolePath := "roles.$." + permPath

	matchFilter := r.permissionRuleFilter(in, role.Handle, permPath, true)
	newFilter := r.permissionRuleFilter(in, role.Handle, permPath, false)

	existing, err := r.store.FindOne(ctx, document.ColGroups, matchFilter, nil)
	if err != nil {
		return false, fmt.Errorf("add permission rule: %w", err)
	}

	// No rule container for this component under this role yet: create it
	// carrying the first grant.
	if existing == nil {
		perm := ComponentPermission{
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}
		switch in.Kind {
		case PermissionComponentNamespace:
			perm.Namespace = in.Actions
		case PermissionNamedScope:
			perm.Scopes = map[string][]string{scopeOrURI: in.Actions}
		case PermissionSpecificEndpoint:
			perm.Endpoints = map[string][]string{scopeOrURI: in.Actions}
		case PermissionFullAccess:
			perm.FullNamespace = in.FullNamespace
		default:
			return false, fmt.Errorf("add permission rule: unknown permission kind %d", in.Kind)
		}

		update := bson.M{
			"$set": bson.M{
				rolePath:            perm.Document(),
				"updatedAt":         createdAt,
				"roles.$.updatedAt": createdAt,
			},
		}
		updated, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, newFilter, update,
			document.UpdateOptions{ReturnUpdated: true},
		)
		if err != nil {
			return false, fmt.Errorf("add permission rule: %w", err)
		}

		return updated != nil, nil
	}

	timestamps := bson.M{
		rolePath + ".updatedAt": createdAt,
		"updatedAt":             createdAt,
		"roles.$.updatedAt":     createdAt,
	}

	switch in.Kind {
	case PermissionComponentNamespace:
		update := bson.M{
			"$addToSet": bson.M{
				rolePath + ".namespace": bson.M{"$each": toArray(in.Actions)},
			},
			"$set": timestamps,
		}
		updated, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, matchFilter, update,
			document.UpdateOptions{ReturnUpdated: true},
		)
		if err != nil {
			return false, fmt.Errorf("add permission rule: %w", err)
		}
		return updated != nil, nil

	case PermissionFullAccess:
		set := bson.M{rolePath + ".fullNamespace": in.FullNamespace}
		for k, v := range timestamps {
			set[k] = v
		}
		update := bson.M{"$set": set}
		updated, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, matchFilter, update,
			document.UpdateOptions{ReturnUpdated: true},
		)
		if err != nil {
			return false, fmt.Errorf("add permission rule: %w", err)
		}
		return updated != nil, nil

	case PermissionNamedScope, PermissionSpecificEndpoint:
		key := "endpoints"
		if in.Kind == PermissionNamedScope {
			key = "scopes"
		}
		ruleMatchPath := permPath + "." + key + "." + scopeOrURI
		rulePath := rolePath + "." + key + "." + scopeOrURI

		ruleMatchFilter := r.permissionRuleFilter(in, role.Handle, permPath, true)
		ruleMatchFilter["roles"].(bson.M)["$elemMatch"].(bson.M)[ruleMatchPath] = bson.M{"$exists": true}
		ruleNewFilter := r.permissionRuleFilter(in, role.Handle, permPath, true)
		ruleNewFilter["roles"].(bson.M)["$elemMatch"].(bson.M)[ruleMatchPath] = bson.M{"$exists": false}

		ruleExisting, err := r.store.FindOne(ctx, document.ColGroups, ruleMatchFilter, nil)
		if err != nil {
			return false, fmt.Errorf("add permission rule: %w", err)
		}

		var filter, update bson.M
		if ruleExisting == nil {
			set := bson.M{rulePath: toArray(in.Actions)}
			for k, v := range timestamps {
				set[k] = v
			}
			filter, update = ruleNewFilter, bson.M{"$set": set}
		} else {
			filter = ruleMatchFilter
			update = bson.M{
				"$addToSet": bson.M{
					rulePath: bson.M{"$each": toArray(in.Actions)},
				},
				"$set": timestamps,
			}
		}

		updated, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, filter, update,
			document.UpdateOptions{ReturnUpdated: true},
		)
		if err != nil {
			return false, fmt.Errorf("add permission rule: %w", err)
		}
		return updated != nil, nil

	default:
		return false, fmt.Errorf("add permission rule: unknown permission kind %d", in.Kind)
	}
}

// permissionRuleFilter selects the group whose role does (or does not yet)
// carry a document at path. For the componentPermissions set the component
// must additionally be adopted by the group.
func (r *Repository) permissionRuleFilter(
	in AddPermissionRuleInput,
	roleHandle string,
	path string,
	exists bool,
) bson.M {
	filter := bson.M{
		"groupName": in.Group,
		"roles": bson.M{
			"$elemMatch": bson.M{
				"handle": roleHandle,
				path:     bson.M{"$exists": exists},
			},
		},
	}
	if in.Set == SetComponentPermissions {
		filter["components"] = bson.M{
			"$elemMatch": bson.M{"componentName": in.Component},
		}
	}

	return filter
}

// FindPermissionRule returns the ComponentPermission stored for the
// (role, component) pair in the given permission set, or nil.
func (r *Repository) FindPermissionRule(
	ctx context.Context,
	groupName string,
	roleName string,
	set string,
	component string,
) (*ComponentPermission, error) {
	doc, err := r.store.FindOne(ctx, document.ColGroups,
		bson.M{
			"groupName": groupName,
			"roles": bson.M{
				"$elemMatch": bson.M{
					"roleName": roleName,
					"permissions." + set + "." + component: bson.M{"$exists": true},
				},
			},
		},
		bson.M{"_id": false},
	)
	if err != nil {
		return nil, fmt.Errorf("find permission rule: %w", err)
	}
	if doc == nil {
		return nil, nil
	}

	group := GroupFromDocument(doc)
	for _, role := range group.Roles {
		if role.Name != roleName {
			continue
		}
		if perm, ok := role.Permissions.Set(set)[component]; ok {
			return &perm, nil
		}
	}

	return nil, nil
}

// Set returns the named permission set.
func (p Permissions) Set(
	name string,
) map[string]ComponentPermission {
	switch name {
	case SetRoleResourcePermissions:
		return p.RoleResourcePermissions
	case SetGroupResourcePermissions:
		return p.GroupResourcePermissions
	default:
		return p.ComponentPermissions
	}
}

func toArray(
	values []string,
) bson.A {
	out := bson.A{}
	for _, v := range values {
		out = append(out, v)
	}

	return out
}
