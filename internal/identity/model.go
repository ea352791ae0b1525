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

// Package identity holds the group/role/permission data model and the
// repository implementing creation, membership, and permission resolution on
// top of the generic document store.
//
// A Group exclusively owns its Roles and Components, a Role owns its
// Permissions; cross-entity links (Member to Role, User to Group) are by
// handle, an opaque stable identifier, never by reference.
package identity

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PermissionKind enumerates the rule kinds a permission grant can take.
type PermissionKind int

// Permission rule kinds.
const (
	PermissionComponentNamespace PermissionKind = iota
	PermissionNamedScope
	PermissionSpecificEndpoint
	PermissionFullAccess
)

// Permission set names addressed by AddPermissionRule.
const (
	SetComponentPermissions     = "componentPermissions"
	SetRoleResourcePermissions  = "roleResourcePermissions"
	SetGroupResourcePermissions = "groupResourcePermissions"
)

// Authentication is the salted-password verifier stored for a user. The
// plaintext password is never persisted; storedKey and serverKey are
// irreversible derivations.
type Authentication struct {
	Salt       string
	Iterations int
	StoredKey  string
	ServerKey  string
}

// User is a platform account.
type User struct {
	Handle         string
	Username       string
	DisplayName    string
	Authentication *Authentication
	Email          string
	Timezone       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// RoleMember is a user's membership entry inside a role.
type RoleMember struct {
	Handle    string
	CreatedAt time.Time
}

// Member is a user's membership entry inside a group, listing the handles of
// the roles the user belongs to.
type Member struct {
	Handle    string
	Roles     []string
	CreatedAt time.Time
}

// ComponentPermission is the per-(role, component) rule container. Absent
// fields default to the empty grant: fullNamespace false, no namespace
// actions, no scopes, no endpoints.
type ComponentPermission struct {
	FullNamespace bool
	Namespace     []string
	Scopes        map[string][]string
	Endpoints     map[string][]string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Permissions groups the three permission sets owned by a role.
type Permissions struct {
	ComponentPermissions     map[string]ComponentPermission
	RoleResourcePermissions  map[string]ComponentPermission
	GroupResourcePermissions map[string]ComponentPermission
}

// Role is owned by exactly one group.
type Role struct {
	Name        string
	Handle      string
	Owners      []RoleMember
	Members     []RoleMember
	Permissions Permissions
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Component is a named capability unit adopted by a group; permission rules
// are always scoped to a component.
type Component struct {
	Name       string
	Handle     string
	OwnerRoles []string
	CreatedAt  time.Time
}

// Group owns its roles and components by value.
type Group struct {
	Name        string
	DisplayName string
	Handle      string
	Roles       []Role
	Members     []Member
	Components  []Component
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is the record opened at login completion and closed at logout.
type Session struct {
	UserID      string
	SessionID   string
	AccessToken string
	CreatedAt   time.Time
}

// ClientPermission is a single uri grant inside a client projection.
type ClientPermission struct {
	Actions   []string
	CreatedAt time.Time
}

// ClientGroup is the per-group slice of a client's restricted projection.
type ClientGroup struct {
	Handle    string
	Roles     map[string]map[string]ClientPermission
	CreatedAt time.Time
}

// Client is an OAuth-style service credential: a restricted projection of
// the creating user's own permissions.
type Client struct {
	Handle         string
	UserHandle     string
	Groups         []ClientGroup
	Authentication *Authentication
	CreatedAt      time.Time
}

// HasMember reports whether the role lists the given user handle.
func (r Role) HasMember(
	handle string,
) bool {
	for _, m := range r.Members {
		if m.Handle == handle {
			return true
		}
	}

	return false
}

// Grants reports whether the component permission allows action on uri:
// full namespace dominates, otherwise the action (or the * wildcard) must
// appear in the component namespace or under the exact endpoint uri. Named
// scopes deliberately do not participate in this check.
func (p ComponentPermission) Grants(
	uri string,
	action string,
) bool {
	if p.FullNamespace {
		return true
	}
	if containsAction(p.Namespace, action) {
		return true
	}

	return containsAction(p.Endpoints[uri], action)
}

func containsAction(
	actions []string,
	action string,
) bool {
	for _, a := range actions {
		if a == action || a == "*" {
			return true
		}
	}

	return false
}

// UserFromDocument builds a User from its stored shape. Construction is
// total: absent fields take zero values.
func UserFromDocument(
	doc bson.M,
) *User {
	if doc == nil {
		return nil
	}

	u := &User{
		Handle:      docString(doc, "handle"),
		Username:    docString(doc, "username"),
		DisplayName: docString(doc, "displayName"),
		Email:       docString(doc, "email"),
		Timezone:    docString(doc, "timezone"),
		CreatedAt:   docTime(doc, "createdAt"),
		UpdatedAt:   docTime(doc, "updatedAt"),
	}
	if t := docTime(doc, "deletedAt"); !t.IsZero() {
		u.DeletedAt = &t
	}
	if auth, ok := docChild(doc, "authentication"); ok {
		u.Authentication = authenticationFromDocument(auth)
	}

	return u
}

func authenticationFromDocument(
	doc bson.M,
) *Authentication {
	return &Authentication{
		Salt:       docString(doc, "salt"),
		Iterations: docInt(doc, "iterations"),
		StoredKey:  docString(doc, "storedKey"),
		ServerKey:  docString(doc, "serverKey"),
	}
}

func (a *Authentication) document() bson.M {
	return bson.M{
		"salt":       a.Salt,
		"iterations": a.Iterations,
		"storedKey":  a.StoredKey,
		"serverKey":  a.ServerKey,
	}
}

// Document renders the user into its stored shape.
func (u *User) Document() bson.M {
	doc := bson.M{
		"handle":      u.Handle,
		"username":    u.Username,
		"displayName": u.DisplayName,
		"email":       u.Email,
		"timezone":    u.Timezone,
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
	}
	if u.Authentication != nil {
		doc["authentication"] = u.Authentication.document()
	}
	if u.DeletedAt != nil {
		doc["deletedAt"] = *u.DeletedAt
	}

	return doc
}

// GroupFromDocument builds a Group from its stored shape.
func GroupFromDocument(
	doc bson.M,
) *Group {
	if doc == nil {
		return nil
	}

	g := &Group{
		Name:        docString(doc, "groupName"),
		DisplayName: docString(doc, "displayName"),
		Handle:      docString(doc, "handle"),
		CreatedAt:   docTime(doc, "createdAt"),
		UpdatedAt:   docTime(doc, "updatedAt"),
	}
	for _, el := range docArray(doc, "roles") {
		g.Roles = append(g.Roles, roleFromDocument(el))
	}
	for _, el := range docArray(doc, "members") {
		g.Members = append(g.Members, Member{
			Handle:    docString(el, "handle"),
			Roles:     docStrings(el, "roles"),
			CreatedAt: docTime(el, "createdAt"),
		})
	}
	for _, el := range docArray(doc, "components") {
		g.Components = append(g.Components, componentFromDocument(el))
	}

	return g
}

// Document renders the group into its stored shape.
func (g *Group) Document() bson.M {
	roles := bson.A{}
	for _, r := range g.Roles {
		roles = append(roles, r.Document())
	}
	members := bson.A{}
	for _, m := range g.Members {
		members = append(members, m.Document())
	}
	components := bson.A{}
	for _, c := range g.Components {
		components = append(components, c.Document())
	}

	return bson.M{
		"groupName":   g.Name,
		"displayName": g.DisplayName,
		"handle":      g.Handle,
		"roles":       roles,
		"members":     members,
		"components":  components,
		"createdAt":   g.CreatedAt,
		"updatedAt":   g.UpdatedAt,
	}
}

func roleFromDocument(
	doc bson.M,
) Role {
	r := Role{
		Name:      docString(doc, "roleName"),
		Handle:    docString(doc, "handle"),
		CreatedAt: docTime(doc, "createdAt"),
		UpdatedAt: docTime(doc, "updatedAt"),
	}
	for _, el := range docArray(doc, "owners") {
		r.Owners = append(r.Owners, roleMemberFromDocument(el))
	}
	for _, el := range docArray(doc, "members") {
		r.Members = append(r.Members, roleMemberFromDocument(el))
	}
	if perms, ok := docChild(doc, "permissions"); ok {
		r.Permissions = permissionsFromDocument(perms)
	}

	return r
}

// Document renders the role into its stored shape.
func (r Role) Document() bson.M {
	owners := bson.A{}
	for _, m := range r.Owners {
		owners = append(owners, m.Document())
	}
	members := bson.A{}
	for _, m := range r.Members {
		members = append(members, m.Document())
	}

	return bson.M{
		"roleName":    r.Name,
		"handle":      r.Handle,
		"owners":      owners,
		"members":     members,
		"permissions": r.Permissions.Document(),
		"createdAt":   r.CreatedAt,
		"updatedAt":   r.UpdatedAt,
	}
}

func roleMemberFromDocument(
	doc bson.M,
) RoleMember {
	return RoleMember{
		Handle:    docString(doc, "handle"),
		CreatedAt: docTime(doc, "createdAt"),
	}
}

// Document renders the role member into its stored shape.
func (m RoleMember) Document() bson.M {
	return bson.M{
		"handle":    m.Handle,
		"createdAt": m.CreatedAt,
	}
}

// Document renders the group member into its stored shape.
func (m Member) Document() bson.M {
	roles := bson.A{}
	for _, r := range m.Roles {
		roles = append(roles, r)
	}

	return bson.M{
		"handle":    m.Handle,
		"roles":     roles,
		"createdAt": m.CreatedAt,
	}
}

func permissionsFromDocument(
	doc bson.M,
) Permissions {
	return Permissions{
		ComponentPermissions:     permissionSetFromDocument(doc, SetComponentPermissions),
		RoleResourcePermissions:  permissionSetFromDocument(doc, SetRoleResourcePermissions),
		GroupResourcePermissions: permissionSetFromDocument(doc, SetGroupResourcePermissions),
	}
}

func permissionSetFromDocument(
	doc bson.M,
	set string,
) map[string]ComponentPermission {
	out := map[string]ComponentPermission{}
	child, ok := docChild(doc, set)
	if !ok {
		return out
	}
	for name, v := range child {
		if perm, ok := asDocument(v); ok {
			out[name] = ComponentPermissionFromDocument(perm)
		}
	}

	return out
}

// Document renders the permission sets into their stored shape.
func (p Permissions) Document() bson.M {
	return bson.M{
		SetComponentPermissions:     permissionSetDocument(p.ComponentPermissions),
		SetRoleResourcePermissions:  permissionSetDocument(p.RoleResourcePermissions),
		SetGroupResourcePermissions: permissionSetDocument(p.GroupResourcePermissions),
	}
}

func permissionSetDocument(
	set map[string]ComponentPermission,
) bson.M {
	out := bson.M{}
	for name, perm := range set {
		out[name] = perm.Document()
	}

	return out
}

// ComponentPermissionFromDocument builds a ComponentPermission, applying the
// documented defaults for absent fields.
func ComponentPermissionFromDocument(
	doc bson.M,
) ComponentPermission {
	return ComponentPermission{
		FullNamespace: docBool(doc, "fullNamespace"),
		Namespace:     docStrings(doc, "namespace"),
		Scopes:        docActionMap(doc, "scopes"),
		Endpoints:     docActionMap(doc, "endpoints"),
		CreatedAt:     docTime(doc, "createdAt"),
		UpdatedAt:     docTime(doc, "updatedAt"),
	}
}

// Document renders the component permission into its stored shape.
func (p ComponentPermission) Document() bson.M {
	namespace := bson.A{}
	for _, a := range p.Namespace {
		namespace = append(namespace, a)
	}

	return bson.M{
		"fullNamespace": p.FullNamespace,
		"namespace":     namespace,
		"scopes":        actionMapDocument(p.Scopes),
		"endpoints":     actionMapDocument(p.Endpoints),
		"createdAt":     p.CreatedAt,
		"updatedAt":     p.UpdatedAt,
	}
}

func actionMapDocument(
	m map[string][]string,
) bson.M {
	out := bson.M{}
	for k, actions := range m {
		arr := bson.A{}
		for _, a := range actions {
			arr = append(arr, a)
		}
		out[k] = arr
	}

	return out
}

func componentFromDocument(
	doc bson.M,
) Component {
	return Component{
		Name:       docString(doc, "componentName"),
		Handle:     docString(doc, "handle"),
		OwnerRoles: docStrings(doc, "ownerRoles"),
		CreatedAt:  docTime(doc, "createdAt"),
	}
}

// Document renders the component into its stored shape.
func (c Component) Document() bson.M {
	owners := bson.A{}
	for _, h := range c.OwnerRoles {
		owners = append(owners, h)
	}

	return bson.M{
		"componentName": c.Name,
		"handle":        c.Handle,
		"ownerRoles":    owners,
		"createdAt":     c.CreatedAt,
	}
}

// SessionFromDocument builds a Session from its stored shape.
func SessionFromDocument(
	doc bson.M,
) *Session {
	if doc == nil {
		return nil
	}

	return &Session{
		UserID:      docString(doc, "userId"),
		SessionID:   docString(doc, "sessionId"),
		AccessToken: docString(doc, "accessToken"),
		CreatedAt:   docTime(doc, "createdAt"),
	}
}

// Document renders the session into its stored shape.
func (s *Session) Document() bson.M {
	return bson.M{
		"userId":      s.UserID,
		"sessionId":   s.SessionID,
		"accessToken": s.AccessToken,
		"createdAt":   s.CreatedAt,
	}
}

// ClientFromDocument builds a Client from its stored shape.
func ClientFromDocument(
	doc bson.M,
) *Client {
	if doc == nil {
		return nil
	}

	c := &Client{
		Handle:     docString(doc, "handle"),
		UserHandle: docString(doc, "userHandle"),
		CreatedAt:  docTime(doc, "createdAt"),
	}
	if auth, ok := docChild(doc, "authentication"); ok {
		c.Authentication = authenticationFromDocument(auth)
	}
	for _, el := range docArray(doc, "groups") {
		cg := ClientGroup{
			Handle:    docString(el, "handle"),
			Roles:     map[string]map[string]ClientPermission{},
			CreatedAt: docTime(el, "createdAt"),
		}
		if roles, ok := docChild(el, "roles"); ok {
			for roleHandle, v := range roles {
				perms, ok := asDocument(v)
				if !ok {
					continue
				}
				rp := map[string]ClientPermission{}
				for uri, pv := range perms {
					if pd, ok := asDocument(pv); ok {
						rp[uri] = ClientPermission{
							Actions:   docStrings(pd, "actions"),
							CreatedAt: docTime(pd, "createdAt"),
						}
					}
				}
				cg.Roles[roleHandle] = rp
			}
		}
		c.Groups = append(c.Groups, cg)
	}

	return c
}

// Document renders the client into its stored shape.
func (c *Client) Document() bson.M {
	groups := bson.A{}
	for _, g := range c.Groups {
		roles := bson.M{}
		for roleHandle, perms := range g.Roles {
			rp := bson.M{}
			for uri, p := range perms {
				actions := bson.A{}
				for _, a := range p.Actions {
					actions = append(actions, a)
				}
				rp[uri] = bson.M{
					"actions":   actions,
					"createdAt": p.CreatedAt,
				}
			}
			roles[roleHandle] = rp
		}
		groups = append(groups, bson.M{
			"handle":    g.Handle,
			"roles":     roles,
			"createdAt": g.CreatedAt,
		})
	}

	doc := bson.M{
		"handle":     c.Handle,
		"userHandle": c.UserHandle,
		"groups":     groups,
		"createdAt":  c.CreatedAt,
	}
	if c.Authentication != nil {
		doc["authentication"] = c.Authentication.document()
	}

	return doc
}
