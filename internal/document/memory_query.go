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
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// matchDoc evaluates filter against doc. When pos is non-nil, the index of
// the first element matched through $elemMatch is recorded per top-level
// array field, for later resolution of the positional $ operator.
func matchDoc(
	doc bson.M,
	filter bson.M,
	pos map[string]int,
) bool {
	for key, cond := range filter {
		if key == "$or" {
			if !matchOr(doc, cond, pos) {
				return false
			}
			continue
		}
		if !matchField(doc, key, cond, pos) {
			return false
		}
	}

	return true
}

func matchOr(
	doc bson.M,
	cond any,
	pos map[string]int,
) bool {
	branches, ok := asArray(cond)
	if !ok {
		return false
	}
	for _, branch := range branches {
		sub, ok := asDoc(branch)
		if !ok {
			continue
		}
		if matchDoc(doc, sub, pos) {
			return true
		}
	}

	return false
}

// matchField evaluates a single filter condition addressed by a dotted path.
func matchField(
	doc bson.M,
	path string,
	cond any,
	pos map[string]int,
) bool {
	val, exists := lookupPath(doc, path)

	opDoc, isDoc := asDoc(cond)
	if !isDoc || !isOperatorDoc(opDoc) {
		return exists && valuesEqual(val, cond)
	}

	for op, arg := range opDoc {
		switch op {
		case "$exists":
			want, _ := arg.(bool)
			if exists != want {
				return false
			}
		case "$elemMatch":
			sub, ok := asDoc(arg)
			if !ok {
				return false
			}
			idx, found := matchElem(val, sub)
			if !found {
				return false
			}
			if pos != nil {
				field := topSegment(path)
				if _, seen := pos[field]; !seen {
					pos[field] = idx
				}
			}
		case "$not":
			if matchField(doc, path, arg, nil) {
				return false
			}
		default:
			// Unsupported operator: fail closed.
			return false
		}
	}

	return true
}

// matchElem returns the index of the first array element satisfying filter.
func matchElem(
	val any,
	filter bson.M,
) (int, bool) {
	arr, ok := asArray(val)
	if !ok {
		return 0, false
	}
	for i, el := range arr {
		elDoc, ok := asDoc(el)
		if !ok {
			continue
		}
		if matchDoc(elDoc, filter, nil) {
			return i, true
		}
	}

	return 0, false
}

// applyUpdate applies the update operators to doc in place. The positional
// $ segment resolves through pos; $setOnInsert only applies on insert.
func applyUpdate(
	doc bson.M,
	update bson.M,
	pos map[string]int,
	insert bool,
) {
	if insert {
		if fields, ok := asDoc(update["$setOnInsert"]); ok {
			for path, value := range fields {
				setPath(doc, path, deepCopy(value), pos)
			}
		}
	}

	if fields, ok := asDoc(update["$set"]); ok {
		for path, value := range fields {
			setPath(doc, path, deepCopy(value), pos)
		}
	}

	if fields, ok := asDoc(update["$push"]); ok {
		for path, value := range fields {
			arr, _ := asArray(getPath(doc, path, pos))
			setPath(doc, path, append(arr, deepCopy(value)), pos)
		}
	}

	if fields, ok := asDoc(update["$addToSet"]); ok {
		for path, value := range fields {
			arr, _ := asArray(getPath(doc, path, pos))

			values := bson.A{value}
			if each, ok := asDoc(value); ok {
				if vs, ok := asArray(each["$each"]); ok {
					values = vs
				}
			}

			for _, v := range values {
				if !containsValue(arr, v) {
					arr = append(arr, deepCopy(v))
				}
			}
			setPath(doc, path, arr, pos)
		}
	}
}

// projectDoc returns a deep copy of doc narrowed by the projection: fields
// mapped to false are removed, fields mapped to an $elemMatch document have
// their array reduced to the first matching element.
func projectDoc(
	doc bson.M,
	projection bson.M,
) bson.M {
	out := deepCopy(doc).(bson.M)
	for field, cond := range projection {
		switch c := cond.(type) {
		case bool:
			if !c {
				delete(out, field)
			}
		case bson.M:
			sub, ok := asDoc(c["$elemMatch"])
			if !ok {
				continue
			}
			idx, found := matchElem(out[field], sub)
			if !found {
				delete(out, field)
				continue
			}
			arr, _ := asArray(out[field])
			out[field] = bson.A{arr[idx]}
		}
	}

	return out
}

// lookupPath resolves a dotted path against nested documents.
func lookupPath(
	doc bson.M,
	path string,
) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = doc
	for _, seg := range segments {
		m, ok := asDoc(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// getPath resolves a dotted path that may contain the positional $ segment.
func getPath(
	doc bson.M,
	path string,
	pos map[string]int,
) any {
	segments := strings.Split(path, ".")
	var cur any = doc
	for _, seg := range segments {
		if seg == "$" {
			arr, ok := asArray(cur)
			if !ok {
				return nil
			}
			idx, ok := pos[segments[0]]
			if !ok || idx >= len(arr) {
				return nil
			}
			cur = arr[idx]
			continue
		}

		m, ok := asDoc(cur)
		if !ok {
			return nil
		}
		cur = m[seg]
	}

	return cur
}

// setPath writes value at a dotted path, creating intermediate documents and
// resolving the positional $ segment against pos.
func setPath(
	doc bson.M,
	path string,
	value any,
	pos map[string]int,
) {
	segments := strings.Split(path, ".")
	var cur any = doc
	for _, seg := range segments[:len(segments)-1] {
		if seg == "$" {
			arr, ok := asArray(cur)
			if !ok {
				return
			}
			idx, ok := pos[segments[0]]
			if !ok || idx >= len(arr) {
				return
			}
			cur = arr[idx]
			continue
		}

		m, ok := asDoc(cur)
		if !ok {
			return
		}
		next, ok := m[seg]
		if !ok {
			next = bson.M{}
			m[seg] = next
		}
		if _, isDoc := asDoc(next); !isDoc {
			if _, isArr := asArray(next); !isArr {
				next = bson.M{}
				m[seg] = next
			}
		}
		cur = next
	}

	last := segments[len(segments)-1]
	if m, ok := asDoc(cur); ok {
		m[last] = value
	}
}

// asDoc normalizes the document representations the store may hold.
func asDoc(
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

// asArray normalizes the array representations the store may hold.
func asArray(
	v any,
) (bson.A, bool) {
	switch a := v.(type) {
	case bson.A:
		return a, true
	case []any:
		return bson.A(a), true
	case []bson.M:
		out := make(bson.A, len(a))
		for i, el := range a {
			out[i] = el
		}
		return out, true
	case []string:
		out := make(bson.A, len(a))
		for i, el := range a {
			out[i] = el
		}
		return out, true
	default:
		return nil, false
	}
}

func isOperatorDoc(
	m bson.M,
) bool {
	for k := range m {
		return strings.HasPrefix(k, "$")
	}

	return false
}

func topSegment(
	path string,
) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}

	return path
}

func valuesEqual(
	a any,
	b any,
) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	aa, aok := asArray(a)
	ba, bok := asArray(b)
	if aok && bok {
		return reflect.DeepEqual(aa, ba)
	}

	return false
}

func containsValue(
	arr bson.A,
	v any,
) bool {
	for _, el := range arr {
		if valuesEqual(el, v) {
			return true
		}
	}

	return false
}

// deepCopy clones documents and arrays so stored state never aliases caller
// memory.
func deepCopy(
	v any,
) any {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case map[string]any:
		out := make(bson.M, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	default:
		if arr, ok := asArray(v); ok {
			out := make(bson.A, len(arr))
			for i, el := range arr {
				out[i] = deepCopy(el)
			}
			return out
		}
		return v
	}
}
