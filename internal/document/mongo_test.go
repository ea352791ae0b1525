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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func isUnique(
	t *testing.T,
	m mongod.IndexModel,
) bool {
	t.Helper()

	if m.Options == nil {
		return false
	}

	opts := options.IndexOptions{}
	for _, fn := range m.Options.Opts {
		require.NoError(t, fn(&opts))
	}

	return opts.Unique != nil && *opts.Unique
}

// The users collection contends on username and email during find-or-create;
// both need the unique constraint for concurrent upserts to be safe.
func TestMigrationIndexesUsers(t *testing.T) {
	got := map[string]bool{}
	for _, m := range migrationIndexes()[ColUsers] {
		keys, ok := m.Keys.(bson.D)
		require.True(t, ok)
		require.Len(t, keys, 1)
		got[keys[0].Key] = isUnique(t, m)
	}

	assert.Equal(t, map[string]bool{"username": true, "email": true}, got)
}

func TestMigrationIndexesGroups(t *testing.T) {
	models := migrationIndexes()[ColGroups]
	require.Len(t, models, 1)

	keys, ok := models[0].Keys.(bson.D)
	require.True(t, ok)
	require.Len(t, keys, 1)
	assert.Equal(t, "groupName", keys[0].Key)
	assert.True(t, isUnique(t, models[0]))
}
