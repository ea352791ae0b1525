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

// SeedRoleName is the role every group is created with; its sole member and
// owner is the group's creator.
const SeedRoleName = "owner"

// CreateGroup creates a group with the seed owner role, or returns the
// pre-existing group of the same name.
func (r *Repository) CreateGroup(
	ctx context.Context,
	groupName string,
	ownerUsername string,
	displayName string,
) (*Group, error) {
	if displayName == "" {
		displayName = groupName
	}

	ownerHandle, err := r.resolveHandle(ctx, ownerUsername)
	if err != nil {
		return nil, err
	}
	if ownerHandle == "" {
		return nil, fmt.Errorf("create group %s: owner %s not found", groupName, ownerUsername)
	}

	createdAt := r.now()
	roleHandle := r.newHandle()
	owner := RoleMember{Handle: ownerHandle, CreatedAt: createdAt}

	group := &Group{
		Name:        groupName,
		DisplayName: displayName,
		Handle:      r.newHandle(),
		Roles: []Role{{
			Name:    SeedRoleName,
			Handle:  roleHandle,
			Owners:  []RoleMember{owner},
			Members: []RoleMember{owner},
			Permissions: Permissions{
				ComponentPermissions:     map[string]ComponentPermission{},
				RoleResourcePermissions:  map[string]ComponentPermission{},
				GroupResourcePermissions: map[string]ComponentPermission{},
			},
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		}},
		Members: []Member{{
			Handle:    ownerHandle,
			Roles:     []string{roleHandle},
			CreatedAt: createdAt,
		}},
		Components: []Component{},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	doc, err := r.store.FindOneAndUpdate(ctx, document.ColGroups,
		bson.M{"groupName": groupName},
		bson.M{"$setOnInsert": group.Document()},
		document.UpdateOptions{
			Upsert:        true,
			Projection:    bson.M{"_id": false},
			ReturnUpdated: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create group %s: %w", groupName, err)
	}

	return GroupFromDocument(doc), nil
}

// FindGroup returns the group by name, or nil.
func (r *Repository) FindGroup(
	ctx context.Context,
	groupName string,
) (*Group, error) {
	doc, err := r.store.FindOne(ctx, document.ColGroups,
		bson.M{"groupName": groupName},
		bson.M{"_id": false},
	)
	if err != nil {
		return nil, fmt.Errorf("find group %s: %w", groupName, err)
	}

	return GroupFromDocument(doc), nil
}

// CheckMembership reports whether the user is a member of the group, and of
// the named role when roleName is non-empty. Missing user or group fails
// closed.
func (r *Repository) CheckMembership(
	ctx context.Context,
	username string,
	groupName string,
	roleName string,
) (bool, error) {
	handle, err := r.resolveHandle(ctx, username)
	if err != nil || handle == "" {
		return false, err
	}

	filter := bson.M{
		"groupName": groupName,
		"members": bson.M{
			"$elemMatch": bson.M{"handle": handle},
		},
	}
	if roleName != "" {
		filter["roles"] = bson.M{
			"$elemMatch": bson.M{
				"roleName": roleName,
				"members": bson.M{
					"$elemMatch": bson.M{"handle": handle},
				},
			},
		}
	}

	doc, err := r.store.FindOne(ctx, document.ColGroups, filter, nil)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}

	return doc != nil, nil
}

// CheckPermission decides whether username may perform action on the
// component endpoint uri within the group. The effective permission is the
// union over every role the user holds (restricted to roleName when given):
// a single granting role is sufficient. Any missing intermediate (user,
// group, role, component) yields false, never an error.
func (r *Repository) CheckPermission(
	ctx context.Context,
	username string,
	groupName string,
	component string,
	uri string,
	action string,
	roleName string,
) (bool, error) {
	handle, err := r.resolveHandle(ctx, username)
	if err != nil || handle == "" {
		return false, err
	}

	roleElem := bson.M{
		"members": bson.M{
			"$elemMatch": bson.M{"handle": handle},
		},
		"permissions." + SetComponentPermissions + "." + component: bson.M{
			"$exists": true,
		},
	}
	if roleName != "" {
		roleElem["roleName"] = roleName
	}

	filter := bson.M{
		"groupName": groupName,
		"members": bson.M{
			"$elemMatch": bson.M{"handle": handle},
		},
		"roles": bson.M{"$elemMatch": roleElem},
		"components": bson.M{
			"$elemMatch": bson.M{"componentName": component},
		},
	}

	doc, err := r.store.FindOne(ctx, document.ColGroups, filter, bson.M{"_id": false})
	if err != nil {
		return false, fmt.Errorf("check permission: %w", err)
	}
	group := GroupFromDocument(doc)
	if group == nil {
		return false, nil
	}

	// Endpoint rules are stored with dots folded to slashes; fold the
	// queried uri the same way.
	uri = strings.ReplaceAll(uri, ".", "/")

	for _, role := range group.Roles {
		if !role.HasMember(handle) {
			continue
		}
		if roleName != "" && role.Name != roleName {
			continue
		}
		perm, ok := role.Permissions.ComponentPermissions[component]
		if !ok {
			continue
		}
		if perm.Grants(uri, action) {
			return true, nil
		}
	}

	return false, nil
}

// CreateGroupRole creates a role owned by ownerUsername inside the group.
// The role is pushed together with the owner's member entry in one atomic
// update; a concurrent creator of the same role name observes the existence
// filter failing and receives the pre-existing role.
func (r *Repository) CreateGroupRole(
	ctx context.Context,
	groupName string,
	roleName string,
	ownerUsername string,
) (*Role, error) {
	ownerHandle, err := r.resolveHandle(ctx, ownerUsername)
	if err != nil {
		return nil, err
	}
	if ownerHandle == "" {
		return nil, fmt.Errorf("create role %s: owner %s not found", roleName, ownerUsername)
	}

	createdAt := r.now()
	roleHandle := r.newHandle()
	owner := RoleMember{Handle: ownerHandle, CreatedAt: createdAt}
	role := Role{
		Name:    roleName,
		Handle:  roleHandle,
		Owners:  []RoleMember{owner},
		Members: []RoleMember{owner},
		Permissions: Permissions{
			ComponentPermissions:     map[string]ComponentPermission{},
			RoleResourcePermissions:  map[string]ComponentPermission{},
			GroupResourcePermissions: map[string]ComponentPermission{},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	filter := bson.M{
		"groupName": groupName,
		"roles": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{"roleName": roleName},
			},
		},
		"members": bson.M{
			"$elemMatch": bson.M{"handle": ownerHandle},
		},
	}
	update := bson.M{
		"$push": bson.M{
			"roles":           role.Document(),
			"members.$.roles": roleHandle,
		},
		"$set": bson.M{
			"updatedAt": createdAt,
		},
	}

	doc, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, filter, update,
		document.UpdateOptions{
			Projection: bson.M{
				"roles": bson.M{
					"$elemMatch": bson.M{"handle": roleHandle},
				},
			},
			ReturnUpdated: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create role %s: %w", roleName, err)
	}
	if doc == nil {
		// Role already present: hand back the stored one.
		return r.FindRole(ctx, groupName, roleName)
	}

	roles := docArray(doc, "roles")
	if len(roles) == 0 {
		return r.FindRole(ctx, groupName, roleName)
	}
	created := roleFromDocument(roles[0])

	return &created, nil
}

// FindRole returns the named role of the group, or nil.
func (r *Repository) FindRole(
	ctx context.Context,
	groupName string,
	roleName string,
) (*Role, error) {
	doc, err := r.store.FindOne(ctx, document.ColGroups,
		bson.M{
			"groupName": groupName,
			"roles": bson.M{
				"$elemMatch": bson.M{"roleName": roleName},
			},
		},
		bson.M{
			"roles": bson.M{
				"$elemMatch": bson.M{"roleName": roleName},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("find role %s: %w", roleName, err)
	}
	roles := docArray(doc, "roles")
	if len(roles) == 0 {
		return nil, nil
	}
	role := roleFromDocument(roles[0])

	return &role, nil
}

// AddGroupMember adds the user to the group with an initial role. The member
// entry and the role's member entry are pushed in one atomic update; a user
// already in the group is rejected by the filter.
func (r *Repository) AddGroupMember(
	ctx context.Context,
	groupName string,
	roleName string,
	username string,
) (bool, error) {
	userHandle, err := r.resolveHandle(ctx, username)
	if err != nil || userHandle == "" {
		return false, err
	}
	role, err := r.FindRole(ctx, groupName, roleName)
	if err != nil || role == nil {
		return false, err
	}

	createdAt := r.now()
	filter := bson.M{
		"groupName": groupName,
		"members": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{"handle": userHandle},
			},
		},
		"roles": bson.M{
			"$elemMatch": bson.M{"handle": role.Handle},
		},
	}
	member := Member{Handle: userHandle, Roles: []string{role.Handle}, CreatedAt: createdAt}
	roleMember := RoleMember{Handle: userHandle, CreatedAt: createdAt}
	update := bson.M{
		"$push": bson.M{
			"members":         member.Document(),
			"roles.$.members": roleMember.Document(),
		},
		"$set": bson.M{
			"updatedAt":         createdAt,
			"roles.$.updatedAt": createdAt,
		},
	}

	modified, err := r.store.UpdateOne(ctx, document.ColGroups, filter, update)
	if err != nil {
		return false, fmt.Errorf("add group member: %w", err)
	}

	return modified == 1, nil
}

// AddRoleMember adds an existing group member to another role of the group.
func (r *Repository) AddRoleMember(
	ctx context.Context,
	groupName string,
	roleName string,
	username string,
) (bool, error) {
	userHandle, err := r.resolveHandle(ctx, username)
	if err != nil || userHandle == "" {
		return false, err
	}

	createdAt := r.now()
	filter := bson.M{
		"groupName": groupName,
		"members": bson.M{
			"$elemMatch": bson.M{"handle": userHandle},
		},
		"roles": bson.M{
			"$elemMatch": bson.M{"roleName": roleName},
		},
	}
	roleMember := RoleMember{Handle: userHandle, CreatedAt: createdAt}
	update := bson.M{
		"$push": bson.M{
			"roles.$.members": roleMember.Document(),
		},
		"$set": bson.M{
			"updatedAt":         createdAt,
			"roles.$.updatedAt": createdAt,
		},
	}

	modified, err := r.store.UpdateOne(ctx, document.ColGroups, filter, update)
	if err != nil {
		return false, fmt.Errorf("add role member: %w", err)
	}

	return modified == 1, nil
}

// CreateComponent adopts a component into the group under the owning role,
// granting that role the full component namespace. A component of the same
// name already adopted is returned as is.
func (r *Repository) CreateComponent(
	ctx context.Context,
	groupName string,
	roleName string,
	componentName string,
) (*Component, error) {
	role, err := r.FindRole(ctx, groupName, roleName)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("create component %s: role %s not found", componentName, roleName)
	}

	createdAt := r.now()
	component := Component{
		Name:       componentName,
		Handle:     r.newHandle(),
		OwnerRoles: []string{role.Handle},
		CreatedAt:  createdAt,
	}
	grant := ComponentPermission{
		FullNamespace: true,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}

	filter := bson.M{
		"groupName": groupName,
		"roles": bson.M{
			"$elemMatch": bson.M{"handle": role.Handle},
		},
		"components": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{"componentName": componentName},
			},
		},
	}
	update := bson.M{
		"$push": bson.M{
			"components": component.Document(),
		},
		"$set": bson.M{
			"roles.$.permissions." + SetComponentPermissions + "." + componentName: grant.Document(),
			"updatedAt":         createdAt,
			"roles.$.updatedAt": createdAt,
		},
	}

	doc, err := r.store.FindOneAndUpdate(ctx, document.ColGroups, filter, update,
		document.UpdateOptions{
			Projection: bson.M{
				"components": bson.M{
					"$elemMatch": bson.M{"componentName": componentName},
				},
			},
			ReturnUpdated: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create component %s: %w", componentName, err)
	}
	if doc == nil {
		return r.FindComponent(ctx, groupName, componentName)
	}

	components := docArray(doc, "components")
	if len(components) == 0 {
		return r.FindComponent(ctx, groupName, componentName)
	}
	created := componentFromDocument(components[0])

	return &created, nil
}

// FindComponent returns the named component of the group, or nil.
func (r *Repository) FindComponent(
	ctx context.Context,
	groupName string,
	componentName string,
) (*Component, error) {
	doc, err := r.store.FindOne(ctx, document.ColGroups,
		bson.M{
			"groupName": groupName,
			"components": bson.M{
				"$elemMatch": bson.M{"componentName": componentName},
			},
		},
		bson.M{
			"components": bson.M{
				"$elemMatch": bson.M{"componentName": componentName},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("find component %s: %w", componentName, err)
	}
	components := docArray(doc, "components")
	if len(components) == 0 {
		return nil, nil
	}
	component := componentFromDocument(components[0])

	return &component, nil
}
