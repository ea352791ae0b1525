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

// Package document defines the generic document-store contract the identity
// repository is written against. All operations are atomic at the
// single-document level; multi-step mutations are expressed as a single
// conditional update against one document, never as transactions.
package document

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Collection name constants.
const (
	ColUsers    = "users"
	ColGroups   = "groups"
	ColSessions = "sessions"
	ColClients  = "clients"
)

// UpdateOptions controls FindOneAndUpdate behavior.
type UpdateOptions struct {
	// Upsert inserts a new document when the filter matches nothing. Combined
	// with a $setOnInsert update this gives race-free find-or-create.
	Upsert bool
	// Projection limits the fields of the returned document.
	Projection bson.M
	// ReturnUpdated returns the post-update document instead of the original.
	ReturnUpdated bool
}

// Store is the minimal async document-store surface consumed by the auth
// core. A nil document together with a nil error means "no match"; errors are
// reserved for storage/network failures, which propagate to the RPC caller.
type Store interface {
	// FindOne returns the first document matching filter, or nil.
	FindOne(
		ctx context.Context,
		collection string,
		filter bson.M,
		projection bson.M,
	) (bson.M, error)

	// FindOneAndUpdate atomically applies update to the first matching
	// document and returns it subject to opts.
	FindOneAndUpdate(
		ctx context.Context,
		collection string,
		filter bson.M,
		update bson.M,
		opts UpdateOptions,
	) (bson.M, error)

	// UpdateOne applies update to the first matching document and reports the
	// number of modified documents (0 or 1).
	UpdateOne(
		ctx context.Context,
		collection string,
		filter bson.M,
		update bson.M,
	) (int64, error)

	// InsertOne inserts a single document.
	InsertOne(
		ctx context.Context,
		collection string,
		doc bson.M,
	) error

	// DeleteMany removes every matching document and reports how many were
	// deleted.
	DeleteMany(
		ctx context.Context,
		collection string,
		filter bson.M,
	) (int64, error)
}
