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
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Compile-time interface check.
var _ Store = (*Memory)(nil)

// Memory is an in-process implementation of Store used for tests and
// standalone operation. It interprets the operator subset the identity
// repository emits: $or, $exists, $elemMatch, $not, dotted paths, and the
// $setOnInsert/$set/$push/$addToSet ($each) update operators including the
// positional $ element.
type Memory struct {
	mu   sync.Mutex
	data map[string][]bson.M
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		data: map[string][]bson.M{},
	}
}

// FindOne implements Store.
func (s *Memory) FindOne(
	_ context.Context,
	collection string,
	filter bson.M,
	projection bson.M,
) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.data[collection] {
		if matchDoc(doc, filter, nil) {
			return projectDoc(doc, projection), nil
		}
	}

	return nil, nil
}

// FindOneAndUpdate implements Store.
func (s *Memory) FindOneAndUpdate(
	_ context.Context,
	collection string,
	filter bson.M,
	update bson.M,
	opts UpdateOptions,
) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.data[collection] {
		pos := map[string]int{}
		if !matchDoc(doc, filter, pos) {
			continue
		}

		if !opts.ReturnUpdated {
			before := projectDoc(doc, opts.Projection)
			applyUpdate(doc, update, pos, false)
			return before, nil
		}

		applyUpdate(doc, update, pos, false)
		return projectDoc(doc, opts.Projection), nil
	}

	if !opts.Upsert {
		return nil, nil
	}

	doc := upsertSeed(filter)
	applyUpdate(doc, update, nil, true)
	s.data[collection] = append(s.data[collection], doc)

	if !opts.ReturnUpdated {
		return nil, nil
	}

	return projectDoc(doc, opts.Projection), nil
}

// UpdateOne implements Store.
func (s *Memory) UpdateOne(
	_ context.Context,
	collection string,
	filter bson.M,
	update bson.M,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.data[collection] {
		pos := map[string]int{}
		if matchDoc(doc, filter, pos) {
			applyUpdate(doc, update, pos, false)
			return 1, nil
		}
	}

	return 0, nil
}

// InsertOne implements Store.
func (s *Memory) InsertOne(
	_ context.Context,
	collection string,
	doc bson.M,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[collection] = append(s.data[collection], deepCopy(doc).(bson.M))

	return nil
}

// DeleteMany implements Store.
func (s *Memory) DeleteMany(
	_ context.Context,
	collection string,
	filter bson.M,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []bson.M
	var deleted int64
	for _, doc := range s.data[collection] {
		if matchDoc(doc, filter, nil) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	s.data[collection] = kept

	return deleted, nil
}

// upsertSeed builds the initial document for an upserted insert from the
// plain equality conditions of the filter, matching the server behavior.
func upsertSeed(
	filter bson.M,
) bson.M {
	doc := bson.M{}
	for key, cond := range filter {
		if len(key) > 0 && key[0] == '$' {
			continue
		}
		if _, ok := cond.(bson.M); ok {
			continue
		}
		setPath(doc, key, deepCopy(cond), nil)
	}

	return doc
}
