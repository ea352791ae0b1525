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

package document

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Compile-time interface check.
var _ Store = (*Mongo)(nil)

// Mongo is the MongoDB implementation of Store.
type Mongo struct {
	db *mongod.Database
}

// NewMongo creates a Mongo store on the given database.
func NewMongo(
	db *mongod.Database,
) *Mongo {
	return &Mongo{db: db}
}

// migrationIndexes lists the indexes backing the idempotent-create filters.
// Users contend on username and email, so those carry the unique constraint;
// without it two concurrent upserts can both miss the filter and both insert.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		ColUsers: {
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		ColGroups: {
			{
				Keys:    bson.D{{Key: "groupName", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		ColSessions: {
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "sessionId", Value: 1}},
			},
		},
	}
}

// Migrate creates the unique indexes backing the idempotent-create filters.
func (s *Mongo) Migrate(
	ctx context.Context,
) error {
	for col, models := range migrationIndexes() {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// FindOne implements Store.
func (s *Mongo) FindOne(
	ctx context.Context,
	collection string,
	filter bson.M,
	projection bson.M,
) (bson.M, error) {
	opts := options.FindOne()
	if projection != nil {
		opts = opts.SetProjection(projection)
	}

	var out bson.M
	err := s.db.Collection(collection).FindOne(ctx, filter, opts).Decode(&out)
	if errors.Is(err, mongod.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}

	return out, nil
}

// FindOneAndUpdate implements Store.
func (s *Mongo) FindOneAndUpdate(
	ctx context.Context,
	collection string,
	filter bson.M,
	update bson.M,
	uo UpdateOptions,
) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetUpsert(uo.Upsert)
	if uo.Projection != nil {
		opts = opts.SetProjection(uo.Projection)
	}
	if uo.ReturnUpdated {
		opts = opts.SetReturnDocument(options.After)
	}

	var out bson.M
	err := s.db.Collection(collection).
		FindOneAndUpdate(ctx, filter, update, opts).
		Decode(&out)
	if errors.Is(err, mongod.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find one and update %s: %w", collection, err)
	}

	return out, nil
}

// UpdateOne implements Store.
func (s *Mongo) UpdateOne(
	ctx context.Context,
	collection string,
	filter bson.M,
	update bson.M,
) (int64, error) {
	res, err := s.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("update one %s: %w", collection, err)
	}

	return res.ModifiedCount, nil
}

// InsertOne implements Store.
func (s *Mongo) InsertOne(
	ctx context.Context,
	collection string,
	doc bson.M,
) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert one %s: %w", collection, err)
	}

	return nil
}

// DeleteMany implements Store.
func (s *Mongo) DeleteMany(
	ctx context.Context,
	collection string,
	filter bson.M,
) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete many %s: %w", collection, err)
	}

	return res.DeletedCount, nil
}
