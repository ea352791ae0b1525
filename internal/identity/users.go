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

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mdstudio/mdauth/internal/document"
)

// UserQuery selects a user by at least one of its unique attributes.
type UserQuery struct {
	Username string
	Handle   string
	Email    string
	// WithAuthentication includes the stored credential material, which is
	// otherwise projected away.
	WithAuthentication bool
}

// UserUpdate carries the mutable user properties; empty fields are left
// untouched.
type UserUpdate struct {
	DisplayName string
	Email       string
	Timezone    string
}

// CreateUser creates a user unless the username or email is already taken,
// in which case the pre-existing user is returned. Uniqueness is enforced by
// the atomic insert-if-absent, not checked after the fact.
func (r *Repository) CreateUser(
	ctx context.Context,
	username string,
	auth Authentication,
	email string,
	displayName string,
) (*User, error) {
	if displayName == "" {
		displayName = username
	}

	createdAt := r.now()
	user := &User{
		Handle:         r.newHandle(),
		Username:       username,
		DisplayName:    displayName,
		Authentication: &auth,
		Email:          email,
		Timezone:       "UTC",
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	doc, err := r.store.FindOneAndUpdate(ctx, document.ColUsers,
		bson.M{
			"$or": bson.A{
				bson.M{"username": username},
				bson.M{"email": email},
			},
		},
		bson.M{"$setOnInsert": user.Document()},
		document.UpdateOptions{
			Upsert:        true,
			Projection:    bson.M{"_id": false},
			ReturnUpdated: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}

	return UserFromDocument(doc), nil
}

// FindUser returns the user matching the query, or nil. Soft-deleted users
// are never returned.
func (r *Repository) FindUser(
	ctx context.Context,
	q UserQuery,
) (*User, error) {
	filter := bson.M{}
	if q.Username != "" {
		filter["username"] = q.Username
	}
	if q.Handle != "" {
		filter["handle"] = q.Handle
	}
	if q.Email != "" {
		filter["email"] = q.Email
	}
	if len(filter) == 0 {
		return nil, fmt.Errorf("find user: at least one of username, handle, email required")
	}
	filter["deletedAt"] = bson.M{"$exists": false}

	projection := bson.M{"_id": false}
	if !q.WithAuthentication {
		projection["authentication"] = false
	}

	doc, err := r.store.FindOne(ctx, document.ColUsers, filter, projection)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	return UserFromDocument(doc), nil
}

// UpdateUser applies the given property updates to the user with the handle.
func (r *Repository) UpdateUser(
	ctx context.Context,
	handle string,
	update UserUpdate,
) (bool, error) {
	set := bson.M{}
	if update.DisplayName != "" {
		set["displayName"] = update.DisplayName
	}
	if update.Email != "" {
		set["email"] = update.Email
	}
	if update.Timezone != "" {
		set["timezone"] = update.Timezone
	}
	if len(set) == 0 {
		return false, fmt.Errorf("update user: at least one property required")
	}
	set["updatedAt"] = r.now()

	modified, err := r.store.UpdateOne(ctx, document.ColUsers,
		bson.M{"handle": handle},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("update user: %w", err)
	}

	return modified == 1, nil
}

// DeactivateUser soft-deletes the user; the record stays in place with
// deletedAt set and stops matching lookups.
func (r *Repository) DeactivateUser(
	ctx context.Context,
	handle string,
) (bool, error) {
	modified, err := r.store.UpdateOne(ctx, document.ColUsers,
		bson.M{"handle": handle},
		bson.M{"$set": bson.M{"deletedAt": r.now()}},
	)
	if err != nil {
		return false, fmt.Errorf("deactivate user: %w", err)
	}

	return modified == 1, nil
}
