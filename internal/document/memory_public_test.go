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

package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mdstudio/mdauth/internal/document"
)

type MemoryPublicTestSuite struct {
	suite.Suite

	ctx   context.Context
	store *document.Memory
}

func (s *MemoryPublicTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = document.NewMemory()
}

func TestMemoryPublicTestSuite(t *testing.T) {
	suite.Run(t, new(MemoryPublicTestSuite))
}

func (s *MemoryPublicTestSuite) TestFindOne() {
	err := s.store.InsertOne(s.ctx, "users", bson.M{
		"username": "alice",
		"email":    "alice@example.com",
		"groups":   bson.A{bson.M{"name": "foogroup", "roles": bson.A{"owner"}}},
	})
	s.Require().NoError(err)

	tests := []struct {
		name   string
		filter bson.M
		found  bool
	}{
		{
			name:   "when an equality filter matches",
			filter: bson.M{"username": "alice"},
			found:  true,
		},
		{
			name:   "when an equality filter does not match",
			filter: bson.M{"username": "bob"},
			found:  false,
		},
		{
			name:   "when an elemMatch filter matches an array element",
			filter: bson.M{"groups": bson.M{"$elemMatch": bson.M{"name": "foogroup"}}},
			found:  true,
		},
		{
			name:   "when an elemMatch filter matches no element",
			filter: bson.M{"groups": bson.M{"$elemMatch": bson.M{"name": "bargroup"}}},
			found:  false,
		},
		{
			name:   "when exists requires a present field",
			filter: bson.M{"email": bson.M{"$exists": true}},
			found:  true,
		},
		{
			name:   "when exists requires an absent field",
			filter: bson.M{"deactivated": bson.M{"$exists": false}},
			found:  true,
		},
		{
			name:   "when not negates a matching condition",
			filter: bson.M{"groups": bson.M{"$not": bson.M{"$elemMatch": bson.M{"name": "foogroup"}}}},
			found:  false,
		},
		{
			name: "when or matches one branch",
			filter: bson.M{"$or": bson.A{
				bson.M{"username": "bob"},
				bson.M{"username": "alice"},
			}},
			found: true,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			doc, err := s.store.FindOne(s.ctx, "users", tc.filter, nil)
			s.Require().NoError(err)

			if tc.found {
				s.NotNil(doc)
				return
			}
			s.Nil(doc)
		})
	}
}

func (s *MemoryPublicTestSuite) TestFindOneProjection() {
	err := s.store.InsertOne(s.ctx, "users", bson.M{
		"username":       "alice",
		"authentication": bson.M{"storedKey": "aa"},
		"groups": bson.A{
			bson.M{"name": "foogroup"},
			bson.M{"name": "bargroup"},
		},
	})
	s.Require().NoError(err)

	doc, err := s.store.FindOne(
		s.ctx,
		"users",
		bson.M{"username": "alice"},
		bson.M{
			"authentication": false,
			"groups":         bson.M{"$elemMatch": bson.M{"name": "bargroup"}},
		},
	)
	s.Require().NoError(err)
	s.Require().NotNil(doc)

	s.NotContains(doc, "authentication")

	groups, ok := doc["groups"].(bson.A)
	s.Require().True(ok)
	s.Require().Len(groups, 1)
	s.Equal(bson.M{"name": "bargroup"}, groups[0])
}

func (s *MemoryPublicTestSuite) TestFindOneAndUpdateUpsert() {
	// First call inserts; ReturnUpdated false reports nil so the caller can
	// tell insert from update.
	doc, err := s.store.FindOneAndUpdate(
		s.ctx,
		"groups",
		bson.M{"groupName": "foogroup"},
		bson.M{"$setOnInsert": bson.M{"handle": "g-1", "roles": bson.A{}}},
		document.UpdateOptions{Upsert: true},
	)
	s.Require().NoError(err)
	s.Nil(doc)

	// Second call finds the existing document and leaves it alone.
	doc, err = s.store.FindOneAndUpdate(
		s.ctx,
		"groups",
		bson.M{"groupName": "foogroup"},
		bson.M{"$setOnInsert": bson.M{"handle": "g-2"}},
		document.UpdateOptions{Upsert: true},
	)
	s.Require().NoError(err)
	s.Require().NotNil(doc)
	s.Equal("g-1", doc["handle"])
}

func (s *MemoryPublicTestSuite) TestFindOneAndUpdatePositional() {
	err := s.store.InsertOne(s.ctx, "groups", bson.M{
		"groupName": "foogroup",
		"roles": bson.A{
			bson.M{"roleName": "owner", "members": bson.A{"alice"}},
			bson.M{"roleName": "editor", "members": bson.A{}},
		},
	})
	s.Require().NoError(err)

	doc, err := s.store.FindOneAndUpdate(
		s.ctx,
		"groups",
		bson.M{
			"groupName": "foogroup",
			"roles":     bson.M{"$elemMatch": bson.M{"roleName": "editor"}},
		},
		bson.M{"$addToSet": bson.M{"roles.$.members": "bob"}},
		document.UpdateOptions{ReturnUpdated: true},
	)
	s.Require().NoError(err)
	s.Require().NotNil(doc)

	roles, _ := doc["roles"].(bson.A)
	s.Require().Len(roles, 2)
	editor := roles[1].(bson.M)
	s.Equal(bson.A{"bob"}, editor["members"])

	// The other role is untouched.
	owner := roles[0].(bson.M)
	s.Equal(bson.A{"alice"}, owner["members"])
}

func (s *MemoryPublicTestSuite) TestUpdateOne() {
	err := s.store.InsertOne(s.ctx, "users", bson.M{
		"username": "alice",
		"tags":     bson.A{"a"},
	})
	s.Require().NoError(err)

	tests := []struct {
		name     string
		filter   bson.M
		update   bson.M
		modified int64
	}{
		{
			name:     "when set matches",
			filter:   bson.M{"username": "alice"},
			update:   bson.M{"$set": bson.M{"email": "alice@example.com"}},
			modified: 1,
		},
		{
			name:     "when addToSet with each dedupes",
			filter:   bson.M{"username": "alice"},
			update:   bson.M{"$addToSet": bson.M{"tags": bson.M{"$each": bson.A{"a", "b"}}}},
			modified: 1,
		},
		{
			name:     "when nothing matches",
			filter:   bson.M{"username": "bob"},
			update:   bson.M{"$set": bson.M{"email": "bob@example.com"}},
			modified: 0,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			n, err := s.store.UpdateOne(s.ctx, "users", tc.filter, tc.update)
			s.Require().NoError(err)
			s.Equal(tc.modified, n)
		})
	}

	doc, err := s.store.FindOne(s.ctx, "users", bson.M{"username": "alice"}, nil)
	s.Require().NoError(err)
	s.Require().NotNil(doc)
	s.Equal("alice@example.com", doc["email"])
	s.Equal(bson.A{"a", "b"}, doc["tags"])
}

func (s *MemoryPublicTestSuite) TestDeleteMany() {
	for _, session := range []string{"s1", "s2", "s3"} {
		err := s.store.InsertOne(s.ctx, "sessions", bson.M{
			"username": "alice",
			"session":  session,
		})
		s.Require().NoError(err)
	}
	err := s.store.InsertOne(s.ctx, "sessions", bson.M{
		"username": "bob",
		"session":  "s4",
	})
	s.Require().NoError(err)

	deleted, err := s.store.DeleteMany(s.ctx, "sessions", bson.M{"username": "alice"})
	s.Require().NoError(err)
	s.Equal(int64(3), deleted)

	remaining, err := s.store.FindOne(s.ctx, "sessions", bson.M{}, nil)
	s.Require().NoError(err)
	s.Require().NotNil(remaining)
	s.Equal("bob", remaining["username"])
}

func (s *MemoryPublicTestSuite) TestInsertCopiesInput() {
	doc := bson.M{"username": "alice", "tags": bson.A{"a"}}
	err := s.store.InsertOne(s.ctx, "users", doc)
	s.Require().NoError(err)

	// Mutating the caller's document must not affect the stored copy.
	doc["username"] = "mallory"

	stored, err := s.store.FindOne(s.ctx, "users", bson.M{"username": "alice"}, nil)
	s.Require().NoError(err)
	s.NotNil(stored)
}
