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
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Readers over the loosely typed documents the store returns. The driver
// hands back bson.M with bson.DateTime values; the in-memory store keeps the
// Go types it was given. Both shapes are accepted.

func asDocument(
	v any,
) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

func docChild(
	doc bson.M,
	key string,
) (bson.M, bool) {
	return asDocument(doc[key])
}

func docString(
	doc bson.M,
	key string,
) string {
	s, _ := doc[key].(string)
	return s
}

func docBool(
	doc bson.M,
	key string,
) bool {
	b, _ := doc[key].(bool)
	return b
}

func docInt(
	doc bson.M,
	key string,
) int {
	switch n := doc[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func docTime(
	doc bson.M,
	key string,
) time.Time {
	switch t := doc[key].(type) {
	case time.Time:
		return t
	case bson.DateTime:
		return t.Time().UTC()
	default:
		return time.Time{}
	}
}

func docArray(
	doc bson.M,
	key string,
) []bson.M {
	var raw []any
	switch a := doc[key].(type) {
	case bson.A:
		raw = a
	case []any:
		raw = a
	case []bson.M:
		out := make([]bson.M, len(a))
		copy(out, a)
		return out
	default:
		return nil
	}

	out := make([]bson.M, 0, len(raw))
	for _, el := range raw {
		if m, ok := asDocument(el); ok {
			out = append(out, m)
		}
	}

	return out
}

func docStrings(
	doc bson.M,
	key string,
) []string {
	var raw []any
	switch a := doc[key].(type) {
	case bson.A:
		raw = a
	case []any:
		raw = a
	case []string:
		out := make([]string, len(a))
		copy(out, a)
		return out
	default:
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, el := range raw {
		if s, ok := el.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

func docActionMap(
	doc bson.M,
	key string,
) map[string][]string {
	out := map[string][]string{}
	child, ok := docChild(doc, key)
	if !ok {
		return out
	}
	for k := range child {
		out[k] = docStrings(child, k)
	}

	return out
}
